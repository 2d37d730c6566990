package commands

import (
	"encoding/json"
	"fmt"

	"github.com/ncobase/taskrunner/app"
	"github.com/spf13/cobra"
)

// NewHealthCommand creates the health command
func NewHealthCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Probe the configured data backends",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.App) error {
				h := a.Conns.Health(cmd.Context())
				out, err := json.MarshalIndent(h, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				if h.Status != "healthy" {
					return fmt.Errorf("backends %s", h.Status)
				}
				return nil
			})
		},
	}
}
