package commands

import (
	"github.com/ncobase/taskrunner/app"
	"github.com/ncobase/taskrunner/stream"
	"github.com/spf13/cobra"
)

// NewServeCommand creates the Lambda entry point
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve DynamoDB stream batches as a Lambda function",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.App) error {
				stream.StartLambda(a.Dispatcher)
				return nil
			})
		},
	}
}
