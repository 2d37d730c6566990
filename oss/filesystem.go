package oss

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// FileSystem writes objects below a local folder. Intended for development.
type FileSystem struct {
	Folder string
}

// NewFileSystem creates the folder when missing.
func NewFileSystem(folder string) (*FileSystem, error) {
	abs, err := filepath.Abs(folder)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage folder: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage folder: %w", err)
	}
	return &FileSystem{Folder: abs}, nil
}

// GetFullPath returns the absolute path of key, confined to Folder.
func (fs *FileSystem) GetFullPath(key string) (string, error) {
	full := filepath.Join(fs.Folder, filepath.FromSlash(key))
	if full != fs.Folder && !strings.HasPrefix(full, fs.Folder+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes storage folder", key)
	}
	return full, nil
}

// Upload writes data and returns a file:// URL.
func (fs *FileSystem) Upload(ctx context.Context, key string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	full, err := fs.GetFullPath(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(full)}).String(), nil
}

type fileSystemDriver struct{}

func (d *fileSystemDriver) Name() string { return "filesystem" }

func (d *fileSystemDriver) Connect(_ context.Context, cfg *Config) (Uploader, error) {
	return NewFileSystem(cfg.Bucket)
}

func init() {
	RegisterDriver(&fileSystemDriver{})
}
