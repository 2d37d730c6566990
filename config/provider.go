package config

import (
	"github.com/google/wire"
	dc "github.com/ncobase/taskrunner/data/config"
	logcfg "github.com/ncobase/taskrunner/logging/logger/config"
	"github.com/ncobase/taskrunner/messaging/email"
	"github.com/ncobase/taskrunner/oss"
)

// ProviderSet is the wire provider set for the config package.
// It provides the main *Config, loaded by Init or from the default search
// paths, and extracts the sub-configurations consumed by the other packages.
var ProviderSet = wire.NewSet(
	GetConfig,
	ProvideObservesConfig,
	ProvideLoggerConfig,
	ProvideDataConfig,
	ProvideStorageConfig,
	ProvideEmailConfig,
	ProvideRunnerConfig,
	ProvideExportConfig,
)

// ProvideObservesConfig provides the sentry and tracer configuration.
func ProvideObservesConfig(cfg *Config) *Observes {
	if cfg == nil {
		return nil
	}
	return cfg.Observes
}

// ProvideLoggerConfig provides the logger configuration.
func ProvideLoggerConfig(cfg *Config) *logcfg.Config {
	if cfg == nil {
		return nil
	}
	return cfg.Logger
}

// ProvideDataConfig provides the data layer configuration.
func ProvideDataConfig(cfg *Config) *dc.Config {
	if cfg == nil {
		return nil
	}
	return cfg.Data
}

// ProvideStorageConfig provides the storage configuration.
func ProvideStorageConfig(cfg *Config) *oss.Config {
	if cfg == nil {
		return nil
	}
	return cfg.Storage
}

// ProvideEmailConfig provides the email configuration.
func ProvideEmailConfig(cfg *Config) *email.Email {
	if cfg == nil {
		return nil
	}
	return cfg.Email
}

// ProvideRunnerConfig provides the dispatch configuration.
func ProvideRunnerConfig(cfg *Config) *Runner {
	if cfg == nil {
		return nil
	}
	return cfg.Runner
}

// ProvideExportConfig provides the export step timeouts.
func ProvideExportConfig(cfg *Config) *Export {
	if cfg == nil {
		return nil
	}
	return cfg.Export
}
