package config

import (
	"github.com/ncobase/taskrunner/messaging/email"
	"github.com/spf13/viper"
)

// getEmailConfig returns the email configuration
func getEmailConfig(v *viper.Viper) *email.Email {
	return &email.Email{
		Provider: getStringOrDefault(v, "email.provider", "log"),
		Mailgun:  getMailgunConfig(v),
		SendGrid: getSendGridConfig(v),
		SMTP:     getSMTPConfig(v),
	}
}

func getMailgunConfig(v *viper.Viper) *email.MailgunConfig {
	return &email.MailgunConfig{
		Key:     v.GetString("email.mailgun.key"),
		Domain:  v.GetString("email.mailgun.domain"),
		From:    v.GetString("email.mailgun.from"),
		APIBase: v.GetString("email.mailgun.api_base"),
	}
}

func getSendGridConfig(v *viper.Viper) *email.SendGridConfig {
	return &email.SendGridConfig{
		Key:      v.GetString("email.sendgrid.key"),
		From:     v.GetString("email.sendgrid.from"),
		FromName: v.GetString("email.sendgrid.from_name"),
	}
}

func getSMTPConfig(v *viper.Viper) *email.SMTPConfig {
	return &email.SMTPConfig{
		SMTPHost: v.GetString("email.smtp.host"),
		SMTPPort: getStringOrDefault(v, "email.smtp.port", "587"),
		Username: v.GetString("email.smtp.username"),
		Password: v.GetString("email.smtp.password"),
		From:     v.GetString("email.smtp.from"),
	}
}
