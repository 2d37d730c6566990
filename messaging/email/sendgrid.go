package email

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ncobase/taskrunner/logging/logger"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridConfig holds the configuration for SendGrid
type SendGridConfig struct {
	Key      string `json:"key" yaml:"key"`
	From     string `json:"from" yaml:"from"`
	FromName string `json:"from_name" yaml:"from_name"`
}

// SendGridSender implements Sender for SendGrid
type SendGridSender struct {
	Config   *SendGridConfig
	Renderer *Renderer
}

func (s *SendGridSender) SendTemplatedEmail(ctx context.Context, msg Message) (string, error) {
	out, err := render(s.Renderer, msg)
	if err != nil {
		return "", err
	}

	from := mail.NewEmail(s.Config.FromName, s.Config.From)
	to := mail.NewEmail("", msg.To)
	message := mail.NewSingleEmail(from, out.Subject, to, out.Text, out.HTML)

	client := sendgrid.NewSendClient(s.Config.Key)
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	response, err := client.SendWithContext(ctx, message)
	if err != nil {
		logger.Errorf(ctx, "Error sending email: %v", err)
		return "", err
	}

	if response.StatusCode != 202 {
		err := fmt.Errorf("failed to send email, status code: %d", response.StatusCode)
		logger.Errorf(ctx, "Error sending email: %v", err)
		return "", err
	}

	logger.Infof(ctx, "Email sent successfully, status code: %d", response.StatusCode)
	if ids := response.Headers["X-Message-Id"]; len(ids) > 0 {
		return ids[0], nil
	}
	return "", nil
}

func validateSendGridConfig(config *SendGridConfig) error {
	if config == nil || config.Key == "" || config.From == "" {
		return errors.New("invalid SendGrid configuration")
	}
	return nil
}
