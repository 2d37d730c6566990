package commands

import (
	"encoding/json"
	"fmt"

	"github.com/ncobase/taskrunner/app"
	"github.com/ncobase/taskrunner/jobs"
	"github.com/ncobase/taskrunner/task"
	"github.com/spf13/cobra"
)

// NewEnqueueCommand creates the enqueue command
func NewEnqueueCommand() *cobra.Command {
	var (
		taskType string
		data     string
		table    string
	)

	cmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Persist a new PENDING task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.App) error {
				rec, err := jobs.Enqueue(cmd.Context(), a.Store, nil, queueTable(a, table), task.Type(taskType), json.RawMessage(data))
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), rec.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&taskType, "type", "t", "", "task type")
	cmd.Flags().StringVarP(&data, "data", "d", "{}", "task data as JSON")
	cmd.Flags().StringVar(&table, "table", "", "queue table (defaults to runner.queue_table)")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

// NewExportModelCommand creates the export-model command
func NewExportModelCommand() *cobra.Command {
	var (
		model string
		email string
		table string
	)

	cmd := &cobra.Command{
		Use:   "export-model",
		Short: "Queue a CSV export of one model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.App) error {
				rec, err := jobs.EnqueueModelExport(cmd.Context(), a.Store, nil, queueTable(a, table), model, email)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), rec.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&model, "model", "m", "", "model (table) to export")
	cmd.Flags().StringVarP(&email, "email", "e", "", "recipient of the download link")
	cmd.Flags().StringVar(&table, "table", "", "queue table (defaults to runner.queue_table)")
	_ = cmd.MarkFlagRequired("model")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// NewRunCommand creates the run command
func NewRunCommand() *cobra.Command {
	var table string

	cmd := &cobra.Command{
		Use:   "run [id]",
		Short: "Run one PENDING task outside the stream",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.App) error {
				ctx := cmd.Context()
				t := queueTable(a, table)
				rec, err := a.Store.Get(ctx, t, args[0])
				if err != nil {
					return err
				}
				r := task.NewRunner(*rec, task.Env{
					Registry: a.Registry,
					Store:    a.Store,
					Table:    t,
					Timeout:  a.Config.Runner.TaskTimeout,
				})
				out, err := r.Run(ctx)
				if err != nil {
					return err
				}
				if out.Error != "" {
					return fmt.Errorf("task %s failed: %s", out.ID, out.Error)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", out.ID, r.Record().Status)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&table, "table", "", "queue table (defaults to runner.queue_table)")
	return cmd
}
