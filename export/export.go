// Package export implements the database export tasks: every table (or one
// model) is rendered to CSV, zipped, uploaded, and the download link emailed.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/juju/clock"
	"github.com/ncobase/taskrunner/archive"
	"github.com/ncobase/taskrunner/logging/logger"
	"github.com/ncobase/taskrunner/logging/observes"
	"github.com/ncobase/taskrunner/messaging/email"
	"github.com/ncobase/taskrunner/oss"
	"github.com/ncobase/taskrunner/task"
	"github.com/ncobase/taskrunner/validation/validator"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// TemplateExportReady is the notification template sent on success.
const TemplateExportReady = "export-ready"

const timestampLayout = "20060102_150405"

// Input is the payload of EXPORT_DB_TO_CSV.
type Input struct {
	Email string `json:"email" validate:"required,email"`
}

// ModelInput is the payload of EXPORT_MODEL_TO_CSV.
type ModelInput struct {
	Email string `json:"email" validate:"required,email"`
	Model string `json:"model" validate:"required"`
}

// Output is the result of a successful export.
type Output struct {
	DownloadLink string `json:"downloadLink"`
}

// Timeouts bound the archive, upload and email steps. Zero means no limit.
type Timeouts struct {
	Archive time.Duration
	Upload  time.Duration
	Email   time.Duration
}

// Archiver bundles files into one archive.
type Archiver func(ctx context.Context, files []archive.File) ([]byte, error)

// Exporter runs the export pipeline.
type Exporter struct {
	Tables   TableExporter
	Archive  Archiver
	Uploader oss.Uploader
	Mailer   email.Sender
	Clock    clock.Clock
	Timeouts Timeouts
}

// ExportDatabase exports every table of the source.
func (e *Exporter) ExportDatabase(ctx context.Context, payload json.RawMessage) (task.Result, error) {
	var in Input
	if msg := decodeInput(ctx, payload, &in); msg != "" {
		return task.Result{Error: msg}, nil
	}

	ctx, span := observes.StartSpan(ctx, "export.database")
	defer span.End()

	fileName := fmt.Sprintf("DB_%s_export.zip", e.now().Format(timestampLayout))
	tables, err := e.Tables.Tables(ctx)
	if err != nil {
		return task.Result{}, fmt.Errorf("list tables: %w", err)
	}
	return e.run(ctx, fileName, tables, in.Email)
}

// ExportModel exports a single named table.
func (e *Exporter) ExportModel(ctx context.Context, payload json.RawMessage) (task.Result, error) {
	var in ModelInput
	if msg := decodeInput(ctx, payload, &in); msg != "" {
		return task.Result{Error: msg}, nil
	}

	ctx, span := observes.StartSpan(ctx, "export.model", attribute.String("model", in.Model))
	defer span.End()

	tables, err := e.Tables.Tables(ctx)
	if err != nil {
		return task.Result{}, fmt.Errorf("list tables: %w", err)
	}
	if !contains(tables, in.Model) {
		msg := fmt.Sprintf("Unknown model %s", in.Model)
		logger.Warnf(ctx, "Export rejected: %s", msg)
		return task.Result{Error: msg}, nil
	}

	fileName := fmt.Sprintf("%s_%s_export.zip", in.Model, e.now().Format(timestampLayout))
	return e.run(ctx, fileName, []string{in.Model}, in.Email)
}

func (e *Exporter) run(ctx context.Context, fileName string, tables []string, recipient string) (task.Result, error) {
	files, err := e.exportTables(ctx, tables, e.now())
	if err != nil {
		return task.Result{}, err
	}

	actx, cancel := withTimeout(ctx, e.Timeouts.Archive)
	data, err := e.archiver()(actx, files)
	cancel()
	if err != nil {
		return task.Result{}, fmt.Errorf("build archive: %w", err)
	}

	uctx, cancel := withTimeout(ctx, e.Timeouts.Upload)
	link, err := e.Uploader.Upload(uctx, fileName, data)
	cancel()
	if err != nil {
		return task.Result{}, fmt.Errorf("upload %s: %w", fileName, err)
	}
	logger.Infof(ctx, "Uploaded %s (%d bytes, %d tables)", fileName, len(data), len(files))

	mctx, cancel := withTimeout(ctx, e.Timeouts.Email)
	_, err = e.Mailer.SendTemplatedEmail(mctx, email.Message{
		TemplateID: TemplateExportReady,
		Props:      map[string]any{"downloadLink": link, "fileName": fileName},
		To:         recipient,
	})
	cancel()
	if err != nil {
		return task.Result{}, fmt.Errorf("send notification: %w", err)
	}

	return task.Result{Data: Output{DownloadLink: link}}, nil
}

// exportTables renders all tables concurrently and returns them in table order.
func (e *Exporter) exportTables(ctx context.Context, tables []string, modified time.Time) ([]archive.File, error) {
	files := make([]archive.File, len(tables))
	g, gctx := errgroup.WithContext(ctx)
	for i, t := range tables {
		i, t := i, t
		g.Go(func() error {
			text, err := e.Tables.ExportTable(gctx, t)
			if err != nil {
				return fmt.Errorf("export table %s: %w", t, err)
			}
			f := archive.TextFile(t+".csv", text)
			f.Modified = modified
			files[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

func (e *Exporter) now() time.Time {
	if e.Clock == nil {
		return time.Now().UTC()
	}
	return e.Clock.Now().UTC()
}

func (e *Exporter) archiver() Archiver {
	if e.Archive == nil {
		return archive.Build
	}
	return e.Archive
}

// decodeInput unmarshals and validates payload, returning a user facing
// message on failure.
func decodeInput(ctx context.Context, payload json.RawMessage, dst any) string {
	if err := json.Unmarshal(payload, dst); err != nil {
		logger.Warnf(ctx, "Invalid export payload: %v", err)
		return "Invalid task data"
	}
	if err := validator.Validate(dst); err != nil {
		logger.Warnf(ctx, "Invalid export payload: %v", err)
		return err.Error()
	}
	return ""
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
