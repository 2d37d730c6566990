package commands

import (
	"github.com/ncobase/taskrunner/app"
	"github.com/ncobase/taskrunner/stream"
	"github.com/spf13/cobra"
)

// NewConsumeCommand creates the broker consumer commands
func NewConsumeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "consume",
		Short: "Consume stream records from a message broker",
	}
	cmd.AddCommand(newConsumeKafkaCommand(), newConsumeRabbitCommand())
	return cmd
}

func newConsumeKafkaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "kafka",
		Short: "Consume stream records from the configured Kafka topic",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.App) error {
				c, err := stream.NewKafkaConsumer(a.Config.Data.Kafka, a.Dispatcher)
				if err != nil {
					return err
				}
				defer c.Close()
				return c.Run(cmd.Context())
			})
		},
	}
}

func newConsumeRabbitCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "rabbitmq",
		Aliases: []string{"rabbit", "amqp"},
		Short:   "Consume stream records from the configured RabbitMQ queue",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.App) error {
				c, err := stream.NewRabbitConsumer(a.Config.Data.RabbitMQ, a.Dispatcher)
				if err != nil {
					return err
				}
				defer c.Close()
				return c.Run(cmd.Context())
			})
		},
	}
}
