package email

import (
	"context"

	"github.com/google/uuid"
	"github.com/ncobase/taskrunner/logging/logger"
	"github.com/sirupsen/logrus"
)

// LogConfig configures the development sender.
type LogConfig struct {
	// IncludeBody logs the rendered text part as well.
	IncludeBody bool `json:"include_body" yaml:"include_body"`
}

// LogSender writes rendered messages to the logger instead of delivering them.
type LogSender struct {
	Config   *LogConfig
	Renderer *Renderer
}

func (s *LogSender) SendTemplatedEmail(ctx context.Context, msg Message) (string, error) {
	out, err := render(s.Renderer, msg)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	fields := logrus.Fields{
		"message_id": id,
		"template":   msg.TemplateID,
		"recipient":  msg.To,
		"subject":    out.Subject,
	}
	if s.Config != nil && s.Config.IncludeBody {
		fields["body"] = out.Text
	}
	logger.StdLogger().EntryWithFields(ctx, fields).Info("Email rendered")
	return id, nil
}
