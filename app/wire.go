//go:build wireinject

package app

import (
	"github.com/google/wire"
	"github.com/ncobase/taskrunner/concurrency"
	"github.com/ncobase/taskrunner/config"
	"github.com/ncobase/taskrunner/data/connection"
	"github.com/ncobase/taskrunner/data/source"
	"github.com/ncobase/taskrunner/data/store"
	"github.com/ncobase/taskrunner/dispatcher"
	"github.com/ncobase/taskrunner/export"
	"github.com/ncobase/taskrunner/jobs"
	"github.com/ncobase/taskrunner/messaging"
	"github.com/ncobase/taskrunner/oss"
)

// InitializeApp wires the task runner from the loaded configuration.
// The cleanup function closes connections and flushes the tracer.
func InitializeApp() (*App, func(), error) {
	panic(wire.Build(
		config.ProviderSet,
		ProvideObservability,
		ProvideLogger,
		connection.ProviderSet,
		store.ProviderSet,
		source.ProviderSet,
		oss.ProviderSet,
		messaging.ProviderSet,
		export.ProviderSet,
		jobs.ProviderSet,
		concurrency.ProviderSet,
		dispatcher.ProviderSet,
		NewApp,
	))
}
