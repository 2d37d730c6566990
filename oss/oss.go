// Package oss uploads named buffers to object storage and returns a download URL.
//
// Providers register a Driver in init(). Storage resolves the configured
// provider on every call, so a provider changed at runtime takes effect on
// the next upload and an unknown one only fails when used.
package oss

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/ncobase/taskrunner/logging/logger"
)

// ErrUnsupportedProvider is returned when no driver serves the configured provider.
var ErrUnsupportedProvider = errors.New("Unsupported storage provider")

// Uploader stores data under name and returns a fetchable URL.
type Uploader interface {
	Upload(ctx context.Context, name string, data []byte) (string, error)
}

// Config holds configuration for object storage providers.
type Config struct {
	Provider string `json:"provider" yaml:"provider"` // aws, s3, azure, blob, vercel, minio, filesystem
	ID       string `json:"id" yaml:"id"`             // Access key ID / Account name
	Secret   string `json:"secret" yaml:"secret"`     // Secret access key / Account key
	Region   string `json:"region" yaml:"region"`     // Region (required for cloud storage)
	Bucket   string `json:"bucket" yaml:"bucket"`     // Bucket name / Container name / Local path
	Endpoint string `json:"endpoint" yaml:"endpoint"` // Custom endpoint (required for MinIO)
	Prefix   string `json:"prefix" yaml:"prefix"`     // Key prefix prepended to every object name
	UseSSL   bool   `json:"use_ssl" yaml:"use_ssl"`   // MinIO only
}

// Key returns the object key for name under the configured prefix.
func (c Config) Key(name string) string {
	p := strings.Trim(c.Prefix, "/")
	if p == "" {
		return name
	}
	return path.Join(p, name)
}

// Validate checks provider specific settings and applies defaults.
func (c *Config) Validate() error {
	switch canonical(c.Provider) {
	case "":
		return ErrUnsupportedProvider
	case "filesystem":
		if c.Bucket == "" {
			c.Bucket = "./uploads"
		}
	case "s3":
		if c.Bucket == "" {
			return errors.New("bucket is required for AWS S3")
		}
		if c.Region == "" {
			c.Region = "us-east-1"
		}
	case "azure":
		if c.ID == "" || c.Secret == "" || c.Bucket == "" {
			return errors.New("account name, account key, and container are required for Azure Blob")
		}
	case "minio":
		if c.ID == "" || c.Secret == "" || c.Bucket == "" || c.Endpoint == "" {
			return errors.New("id, secret, bucket, and endpoint are required for MinIO")
		}
	}
	return nil
}

// Driver builds an Uploader for a provider.
type Driver interface {
	Name() string
	Connect(ctx context.Context, cfg *Config) (Uploader, error)
}

var (
	driverRegistry = make(map[string]Driver)
	driverMu       sync.RWMutex
)

// aliases map accepted provider names to driver names.
var aliases = map[string]string{
	"aws":        "s3",
	"aws-s3":     "s3",
	"azure-blob": "azure",
	"blob":       "azure",
	"vercel":     "azure",
	"local":      "filesystem",
}

func canonical(provider string) string {
	p := strings.ToLower(strings.TrimSpace(provider))
	if a, ok := aliases[p]; ok {
		return a
	}
	return p
}

// RegisterDriver registers a storage driver.
// Typically called in the driver's init function.
func RegisterDriver(driver Driver) {
	driverMu.Lock()
	defer driverMu.Unlock()
	name := driver.Name()
	if _, exists := driverRegistry[name]; exists {
		panic(fmt.Sprintf("oss driver %s already registered", name))
	}
	driverRegistry[name] = driver
}

// GetDriver retrieves a driver by provider name or alias.
func GetDriver(name string) (Driver, error) {
	driverMu.RLock()
	defer driverMu.RUnlock()
	driver, ok := driverRegistry[canonical(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, name)
	}
	return driver, nil
}

// Drivers lists registered driver names.
func Drivers() []string {
	driverMu.RLock()
	defer driverMu.RUnlock()
	names := make([]string, 0, len(driverRegistry))
	for n := range driverRegistry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Storage is the configured Uploader.
type Storage struct {
	mu       sync.Mutex
	cfg      *Config
	uploader Uploader
	// connected is the config the cached uploader was built from.
	connected Config
}

// NewStorage wraps cfg. The pointer is read on each upload.
func NewStorage(cfg *Config) *Storage {
	return &Storage{cfg: cfg}
}

// Upload resolves the provider and uploads data under the configured prefix.
func (s *Storage) Upload(ctx context.Context, name string, data []byte) (string, error) {
	u, cfg, err := s.resolve(ctx)
	if err != nil {
		logger.Errorf(ctx, "Error resolving storage provider: %v", err)
		return "", err
	}
	url, err := u.Upload(ctx, cfg.Key(name), data)
	if err != nil {
		logger.Errorf(ctx, "Error uploading %s: %v", name, err)
		return "", err
	}
	return url, nil
}

func (s *Storage) resolve(ctx context.Context) (Uploader, Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg == nil {
		return nil, Config{}, ErrUnsupportedProvider
	}
	cfg := *s.cfg
	if s.uploader != nil && cfg == s.connected {
		return s.uploader, cfg, nil
	}

	driver, err := GetDriver(cfg.Provider)
	if err != nil {
		return nil, cfg, err
	}
	resolved := cfg
	if err := resolved.Validate(); err != nil {
		return nil, cfg, fmt.Errorf("invalid storage config: %w", err)
	}
	u, err := driver.Connect(ctx, &resolved)
	if err != nil {
		return nil, cfg, fmt.Errorf("failed to connect with %s driver: %w", cfg.Provider, err)
	}
	s.uploader, s.connected = u, cfg
	return u, cfg, nil
}
