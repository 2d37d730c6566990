package email

import (
	"context"
	"errors"
	"time"

	"github.com/mailgun/mailgun-go/v4"
	"github.com/ncobase/taskrunner/logging/logger"
)

// MailgunConfig holds the configuration for Mailgun
type MailgunConfig struct {
	Key    string `json:"key" yaml:"key"`
	Domain string `json:"domain" yaml:"domain"`
	From   string `json:"from" yaml:"from"`
	// APIBase selects the EU region or a test server when set.
	APIBase string `json:"api_base" yaml:"api_base"`
}

// MailgunSender implements Sender for Mailgun
type MailgunSender struct {
	Config   *MailgunConfig
	Renderer *Renderer
}

func (s *MailgunSender) SendTemplatedEmail(ctx context.Context, msg Message) (string, error) {
	out, err := render(s.Renderer, msg)
	if err != nil {
		return "", err
	}

	mg := mailgun.NewMailgun(s.Config.Domain, s.Config.Key)
	if s.Config.APIBase != "" {
		mg.SetAPIBase(s.Config.APIBase)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	message := mg.NewMessage(s.Config.From, out.Subject, out.Text, msg.To)
	message.SetHtml(out.HTML)
	message.AddTag(msg.TemplateID)

	_, id, err := mg.Send(ctx, message)
	if err != nil {
		logger.Errorf(ctx, "Error sending email: %v", err)
		return "", err
	}

	logger.Infof(ctx, "Email queued: %s", id)
	return id, nil
}

func validateMailgunConfig(config *MailgunConfig) error {
	if config == nil || config.Key == "" || config.Domain == "" || config.From == "" {
		return errors.New("invalid Mailgun configuration")
	}
	return nil
}
