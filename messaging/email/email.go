// Package email renders templated notifications and hands them to a provider.
package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/ncobase/taskrunner/ecode"
)

// Email holds the configuration for all email providers
type Email struct {
	// Provider is one of mailgun, sendgrid, smtp or log.
	Provider string          `json:"provider" yaml:"provider"`
	Mailgun  *MailgunConfig  `json:"mailgun" yaml:"mailgun"`
	SendGrid *SendGridConfig `json:"sendgrid" yaml:"sendgrid"`
	SMTP     *SMTPConfig     `json:"smtp" yaml:"smtp"`
}

// Message is a templated email addressed to one recipient.
type Message struct {
	TemplateID string         `json:"templateId"`
	Props      map[string]any `json:"props"`
	To         string         `json:"to"`
	// Subject overrides the subject defined by the template.
	Subject string `json:"subject,omitempty"`
}

// Config is a generic email configuration interface
type Config any

// Sender delivers templated emails and returns the provider message id.
type Sender interface {
	SendTemplatedEmail(ctx context.Context, msg Message) (string, error)
}

// validateEmailConfig validates the common email configuration
func validateEmailConfig(config Config) error {
	switch c := config.(type) {
	case *MailgunConfig:
		return validateMailgunConfig(c)
	case *SendGridConfig:
		return validateSendGridConfig(c)
	case *SMTPConfig:
		return validateSMTPConfig(c)
	case *LogConfig:
		return nil
	default:
		return errors.New("invalid email configuration")
	}
}

// NewSender returns a new Sender
func NewSender(config Config) (Sender, error) {
	if err := validateEmailConfig(config); err != nil {
		return nil, err
	}
	renderer, err := DefaultRenderer()
	if err != nil {
		return nil, err
	}
	switch c := config.(type) {
	case *MailgunConfig:
		return &MailgunSender{Config: c, Renderer: renderer}, nil
	case *SendGridConfig:
		return &SendGridSender{Config: c, Renderer: renderer}, nil
	case *SMTPConfig:
		return &LocalSMTPSender{Config: c, Renderer: renderer}, nil
	case *LogConfig:
		return &LogSender{Config: c, Renderer: renderer}, nil
	default:
		return nil, errors.New("create email sender failed")
	}
}

func validateMessage(msg Message) error {
	if msg.To == "" {
		return errors.New(ecode.FieldIsRequired("email recipient"))
	}
	if msg.TemplateID == "" {
		return errors.New(ecode.FieldIsRequired("email template id"))
	}
	return nil
}

// render validates msg and renders it with r.
func render(r *Renderer, msg Message) (*Rendered, error) {
	if err := validateMessage(msg); err != nil {
		return nil, err
	}
	out, err := r.Render(msg.TemplateID, msg.Props)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", msg.TemplateID, err)
	}
	if msg.Subject != "" {
		out.Subject = msg.Subject
	}
	return out, nil
}
