// Package archive bundles named buffers into a single zip archive.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
	"github.com/ncobase/taskrunner/logging/logger"
)

// File is one archive entry.
// A zero Modified is stamped with the build time.
type File struct {
	Name     string
	Data     []byte
	Modified time.Time
}

// TextFile builds an entry from UTF-8 text.
func TextFile(name, text string) File {
	return File{Name: name, Data: []byte(text)}
}

// Build writes files, in order, into a deflate archive at best compression.
// An empty list yields a valid empty archive.
func Build(ctx context.Context, files []File) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})
	now := time.Now()

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			_ = zw.Close()
			return nil, err
		}
		modified := f.Modified
		if modified.IsZero() {
			modified = now
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: f.Name, Method: zip.Deflate, Modified: modified})
		if err != nil {
			return nil, fail(ctx, zw, f.Name, err)
		}
		if _, err := w.Write(f.Data); err != nil {
			return nil, fail(ctx, zw, f.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		logger.Errorf(ctx, "Error finalizing archive: %v", err)
		return nil, fmt.Errorf("finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}

func fail(ctx context.Context, zw *zip.Writer, name string, err error) error {
	_ = zw.Close()
	logger.Errorf(ctx, "Error adding %s to archive: %v", name, err)
	return fmt.Errorf("archive %s: %w", name, err)
}
