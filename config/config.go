package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	dc "github.com/ncobase/taskrunner/data/config"
	"github.com/ncobase/taskrunner/logging/logger"
	logcfg "github.com/ncobase/taskrunner/logging/logger/config"
	"github.com/ncobase/taskrunner/messaging/email"
	"github.com/ncobase/taskrunner/oss"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides.
const EnvPrefix = "TASKRUNNER"

var (
	config  *Config
	initErr error
	path    string
	once    sync.Once
	mu      sync.Mutex
	v       = newViper()
)

// Config represents the configuration implementation.
type Config struct {
	AppName  string
	RunMode  string
	Observes *Observes
	Logger   *logcfg.Config
	Data     *dc.Config
	Storage  *oss.Config
	Email    *email.Email
	Runner   *Runner
	Export   *Export
	Viper    *viper.Viper
}

func newViper() *viper.Viper {
	nv := viper.New()
	nv.SetEnvPrefix(EnvPrefix)
	nv.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	nv.AutomaticEnv()
	return nv
}

// Init loads the configuration once from configPath.
func Init(configPath string) (*Config, error) {
	once.Do(func() {
		path = configPath
		cfg, err := LoadConfig(configPath)
		if err != nil {
			initErr = err
			return
		}
		mu.Lock()
		config = cfg
		mu.Unlock()
	})
	if initErr != nil {
		return nil, initErr
	}
	mu.Lock()
	defer mu.Unlock()
	return config, nil
}

// GetConfig returns the loaded configuration, loading it from the default
// search paths if Init was never called.
func GetConfig() (*Config, error) {
	cfg, err := Init(path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize config: %w", err)
	}
	return cfg, nil
}

// LoadConfig loads the configuration from the file.
func LoadConfig(configPath string) (*Config, error) {
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("/etc/taskrunner")
		v.AddConfigPath("$HOME/.taskrunner")
		v.AddConfigPath(".")
		if ex, err := os.Executable(); err == nil {
			v.AddConfigPath(filepath.Dir(ex))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return FromViper(v), nil
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		AppName:  getStringOrDefault(v, "app_name", "taskrunner"),
		RunMode:  getStringOrDefault(v, "run_mode", "release"),
		Observes: getObservesConfig(v),
		Logger:   logcfg.GetConfig(v),
		Data:     dc.GetConfig(v),
		Storage:  getStorageConfig(v),
		Email:    getEmailConfig(v),
		Runner:   getRunnerConfig(v),
		Export:   getExportConfig(v),
		Viper:    v,
	}
}

// Reload reloads the configuration from the file.
func Reload() error {
	newConfig, err := LoadConfig(path)
	if err != nil {
		return fmt.Errorf("failed to reload config: %w", err)
	}

	mu.Lock()
	config = newConfig
	mu.Unlock()
	return nil
}

// Watch watches the configuration file and reloads it when it changes.
func Watch(callback func(*Config)) {
	v.OnConfigChange(func(e fsnotify.Event) {
		if err := Reload(); err != nil {
			logger.Errorf(context.Background(), "Error reloading config: %v", err)
			return
		}
		logger.Infof(context.Background(), "Config reloaded from %s", e.Name)
		mu.Lock()
		cfg := config
		mu.Unlock()
		callback(cfg)
	})
	v.WatchConfig()
}
