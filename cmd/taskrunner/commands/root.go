// Package commands implements the taskrunner CLI.
package commands

import (
	"fmt"

	"github.com/ncobase/taskrunner/app"
	"github.com/ncobase/taskrunner/config"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	var confPath string

	rootCmd := &cobra.Command{
		Use:           "taskrunner",
		Short:         "Runs queued tasks from a DynamoDB stream",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			if _, err := config.Init(confPath); err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVarP(&confPath, "conf", "c", "", "config file path")

	rootCmd.AddCommand(
		NewServeCommand(),
		NewRunCommand(),
		NewEnqueueCommand(),
		NewExportModelCommand(),
		NewConsumeCommand(),
		NewMigrateCommand(),
		NewHealthCommand(),
		NewVersionCommand(),
	)

	return rootCmd
}

// withApp wires the application, runs fn and releases the app afterwards.
func withApp(fn func(a *app.App) error) error {
	a, cleanup, err := app.InitializeApp()
	if err != nil {
		return fmt.Errorf("failed to initialize app: %w", err)
	}
	defer cleanup()
	return fn(a)
}

// queueTable returns flag when set, else the configured queue table.
func queueTable(a *app.App, flag string) string {
	if flag != "" {
		return flag
	}
	return a.Config.Runner.QueueTable
}
