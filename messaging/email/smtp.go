package email

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"

	"github.com/google/uuid"
	"github.com/ncobase/taskrunner/logging/logger"
)

// SMTPConfig holds the configuration for local email sending
type SMTPConfig struct {
	SMTPHost string `json:"host" yaml:"host"`
	SMTPPort string `json:"port" yaml:"port"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
	From     string `json:"from" yaml:"from"`
}

// LocalSMTPSender implements Sender for a plain SMTP relay
type LocalSMTPSender struct {
	Config   *SMTPConfig
	Renderer *Renderer
	// send is smtp.SendMail unless replaced in tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func (s *LocalSMTPSender) SendTemplatedEmail(ctx context.Context, msg Message) (string, error) {
	out, err := render(s.Renderer, msg)
	if err != nil {
		return "", err
	}

	id := fmt.Sprintf("<%s@%s>", uuid.NewString(), s.Config.SMTPHost)
	body, err := buildMIME(s.Config.From, msg.To, id, out)
	if err != nil {
		return "", err
	}

	var auth smtp.Auth
	if s.Config.Username != "" {
		auth = smtp.PlainAuth("", s.Config.Username, s.Config.Password, s.Config.SMTPHost)
	}
	send := s.send
	if send == nil {
		send = smtp.SendMail
	}
	if err := send(net.JoinHostPort(s.Config.SMTPHost, s.Config.SMTPPort), auth, s.Config.From, []string{msg.To}, body); err != nil {
		logger.Errorf(ctx, "Error sending email: %v", err)
		return "", fmt.Errorf("failed to send email: %w", err)
	}
	logger.Infof(ctx, "Email sent successfully to: %s", msg.To)
	return id, nil
}

// buildMIME writes a multipart/alternative message with text and HTML parts.
func buildMIME(from, to, id string, out *Rendered) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	for _, part := range []struct{ ctype, content string }{
		{"text/plain; charset=UTF-8", out.Text},
		{"text/html; charset=UTF-8", out.HTML},
	} {
		w, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {part.ctype}})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(part.content)); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", out.Subject))
	fmt.Fprintf(&msg, "Message-ID: %s\r\n", id)
	fmt.Fprintf(&msg, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", mw.Boundary())
	msg.Write(body.Bytes())
	return msg.Bytes(), nil
}

func validateSMTPConfig(config *SMTPConfig) error {
	if config == nil || config.SMTPHost == "" || config.SMTPPort == "" || config.From == "" {
		return errors.New("invalid local email configuration")
	}
	return nil
}
