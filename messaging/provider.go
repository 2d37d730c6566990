// Package messaging groups outbound notification channels.
package messaging

import (
	"github.com/google/wire"
	"github.com/ncobase/taskrunner/messaging/email"
)

// ProviderSet is the wire provider set for the messaging package.
var ProviderSet = wire.NewSet(
	email.ProviderSet,
)
