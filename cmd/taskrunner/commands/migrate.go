package commands

import (
	"errors"
	"fmt"

	"github.com/ncobase/taskrunner/app"
	"github.com/ncobase/taskrunner/data/store"
	"github.com/spf13/cobra"
)

// NewMigrateCommand creates the migrate command
func NewMigrateCommand() *cobra.Command {
	var tables []string

	cmd := &cobra.Command{
		Use:     "migrate",
		Aliases: []string{"m"},
		Short:   "Create SQL queue tables",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.App) error {
				s, ok := a.Store.(*store.SQLStore)
				if !ok {
					return errors.New("migrate requires data.store: sql")
				}
				if len(tables) == 0 {
					tables = []string{a.Config.Runner.QueueTable}
				}
				if err := s.Migrate(cmd.Context(), tables...); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "migrated %v\n", tables)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&tables, "table", nil, "queue tables to create (defaults to runner.queue_table)")
	return cmd
}
