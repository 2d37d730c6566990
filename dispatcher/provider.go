package dispatcher

import (
	"github.com/google/wire"
	"github.com/ncobase/taskrunner/concurrency"
	"github.com/ncobase/taskrunner/config"
	"github.com/ncobase/taskrunner/data/store"
	"github.com/ncobase/taskrunner/task"
)

// ProviderSet is the wire provider set for the dispatcher package.
var ProviderSet = wire.NewSet(ProvideDispatcher)

// ProvideDispatcher builds a dispatcher from the runner configuration.
func ProvideDispatcher(registry *task.Registry, s store.Store, m *concurrency.Manager, cfg *config.Runner) *Dispatcher {
	opts := []Option{WithConcurrency(m)}
	if cfg != nil {
		opts = append(opts,
			WithEventSource(cfg.EventSource),
			WithTable(cfg.QueueTable),
			WithTimeout(cfg.TaskTimeout),
		)
	}
	return New(registry, s, opts...)
}
