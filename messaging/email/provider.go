package email

import (
	"fmt"

	"github.com/google/wire"
	"github.com/ncobase/taskrunner/ecode"
)

// ProviderSet is the wire provider set for the email package.
//
// Usage:
//
//	wire.Build(
//	    email.ProviderSet,
//	    // ... other providers
//	)
var ProviderSet = wire.NewSet(ProvideSender)

// ProvideSender creates the Sender selected by cfg.Provider.
// A nil config or the "log" provider yields the development sender.
func ProvideSender(cfg *Email) (Sender, error) {
	if cfg == nil {
		return NewSender(&LogConfig{})
	}

	switch cfg.Provider {
	case "mailgun":
		return NewSender(cfg.Mailgun)
	case "sendgrid":
		return NewSender(cfg.SendGrid)
	case "smtp":
		return NewSender(cfg.SMTP)
	case "log", "":
		return NewSender(&LogConfig{})
	default:
		return nil, fmt.Errorf("%s %q", ecode.Unsupported("email provider"), cfg.Provider)
	}
}
