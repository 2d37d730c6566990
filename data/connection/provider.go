package connection

import (
	"context"

	"github.com/google/wire"
	"github.com/ncobase/taskrunner/data/config"
)

// ProviderSet is the wire provider set for the connection package.
var ProviderSet = wire.NewSet(ProvideConnections)

// ProvideConnections opens the configured backends and returns a cleanup
// function closing them.
func ProvideConnections(conf *config.Config) (*Connections, func(), error) {
	ctx := context.Background()
	conns, err := New(ctx, conf)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = conns.Close(ctx)
	}
	return conns, cleanup, nil
}
