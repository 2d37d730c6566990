package concurrency

import (
	"github.com/google/wire"
	"github.com/ncobase/taskrunner/config"
)

// ProviderSet is the wire provider set for the concurrency package.
//
// Usage:
//
//	wire.Build(
//	    concurrency.ProviderSet,
//	    // ... other providers
//	)
var ProviderSet = wire.NewSet(ProvideManager)

// ProvideManager sizes a Manager from the runner configuration.
// A missing or non-positive limit falls back to 10.
func ProvideManager(cfg *config.Runner) (*Manager, error) {
	max := int32(10)
	if cfg != nil && cfg.MaxConcurrent > 0 {
		max = int32(cfg.MaxConcurrent)
	}
	return NewManager(max)
}
