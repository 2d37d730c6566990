// Package app assembles the task runner from configuration.
package app

import (
	"context"

	"github.com/ncobase/taskrunner/config"
	"github.com/ncobase/taskrunner/data/connection"
	"github.com/ncobase/taskrunner/data/store"
	"github.com/ncobase/taskrunner/dispatcher"
	"github.com/ncobase/taskrunner/logging/logger"
	logcfg "github.com/ncobase/taskrunner/logging/logger/config"
	"github.com/ncobase/taskrunner/logging/observes"
	"github.com/ncobase/taskrunner/task"
	"github.com/ncobase/taskrunner/version"

	// database drivers
	_ "github.com/ncobase/taskrunner/data/mysql"
	_ "github.com/ncobase/taskrunner/data/postgres"
	_ "github.com/ncobase/taskrunner/data/sqlite"
)

// App holds the wired components.
type App struct {
	Config     *config.Config
	Logger     *logger.Logger
	Conns      *connection.Connections
	Store      store.Store
	Registry   *task.Registry
	Dispatcher *dispatcher.Dispatcher
}

// NewApp creates an App.
func NewApp(cfg *config.Config, l *logger.Logger, conns *connection.Connections, s store.Store, reg *task.Registry, d *dispatcher.Dispatcher) *App {
	return &App{
		Config:     cfg,
		Logger:     l,
		Conns:      conns,
		Store:      s,
		Registry:   reg,
		Dispatcher: d,
	}
}

// Observability marks sentry and tracing as initialised.
type Observability struct {
	shutdownTracer func(context.Context) error
}

// ProvideObservability initialises sentry and the OTLP tracer.
// Both are skipped when unconfigured.
func ProvideObservability(cfg *config.Config) (*Observability, func(), error) {
	info := version.GetVersionInfo()
	o := &Observability{shutdownTracer: func(context.Context) error { return nil }}
	if cfg == nil || cfg.Observes == nil {
		return o, func() {}, nil
	}

	if s := cfg.Observes.Sentry; s != nil {
		release := s.Release
		if release == "" {
			release = info.Version
		}
		if err := observes.NewSentry(&observes.SentryOptions{
			Dsn:         s.Dsn,
			Name:        cfg.AppName,
			Release:     release,
			Environment: s.Environment,
		}); err != nil {
			return nil, nil, err
		}
	}

	if t := cfg.Observes.Tracer; t != nil {
		name := t.ServiceName
		if name == "" {
			name = cfg.AppName
		}
		ver := t.ServiceVersion
		if ver == "" {
			ver = info.Version
		}
		shutdown, err := observes.NewTracer(&observes.TracerOption{
			URL:                t.URL,
			Name:               name,
			Version:            ver,
			Environment:        t.Environment,
			SamplingRate:       t.SamplingRate,
			BatchTimeout:       t.BatchTimeout,
			ExportTimeout:      t.ExportTimeout,
			MaxExportBatchSize: t.MaxExportBatchSize,
		})
		if err != nil {
			return nil, nil, err
		}
		o.shutdownTracer = shutdown
	}

	cleanup := func() {
		if err := o.shutdownTracer(context.Background()); err != nil {
			logger.Errorf(context.Background(), "Error shutting down tracer: %v", err)
		}
	}
	return o, cleanup, nil
}

// ProvideLogger initialises the standard logger once observability is up,
// so the sentry hook binds to an initialised hub.
func ProvideLogger(cfg *logcfg.Config, _ *Observability) (*logger.Logger, func(), error) {
	logger.SetVersion(version.GetVersionInfo().Version)
	return logger.ProvideLogger(cfg)
}
