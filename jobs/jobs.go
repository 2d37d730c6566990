// Package jobs assembles the production task registry and enqueues tasks.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"github.com/ncobase/taskrunner/data/store"
	"github.com/ncobase/taskrunner/export"
	"github.com/ncobase/taskrunner/logging/logger"
	"github.com/ncobase/taskrunner/task"
	"github.com/ncobase/taskrunner/validation/validator"
)

// Deps are the collaborators of the production handlers.
type Deps struct {
	Exporter *export.Exporter
}

// NewRegistry builds the registry for every known task type.
func NewRegistry(deps Deps) *task.Registry {
	handlers := map[task.Type]task.Handler{
		task.TypeExample: Example,
	}
	if deps.Exporter != nil {
		handlers[task.TypeExportDBToCSV] = deps.Exporter.ExportDatabase
		handlers[task.TypeExportModelToCSV] = deps.Exporter.ExportModel
	}
	return task.NewRegistry(handlers)
}

// Example echoes its payload back as the result.
func Example(ctx context.Context, payload json.RawMessage) (task.Result, error) {
	logger.Infof(ctx, "Example task payload: %s", string(payload))
	return task.Result{Data: map[string]any{
		"message": "Example task completed",
		"payload": payload,
	}}, nil
}

// Enqueue persists a new PENDING record of type t into table.
func Enqueue(ctx context.Context, s store.Store, clk clock.Clock, table string, t task.Type, data json.RawMessage) (*task.Record, error) {
	if clk == nil {
		clk = clock.WallClock
	}
	rec := &task.Record{
		ID:        uuid.NewString(),
		TaskType:  t,
		TaskData:  data,
		Status:    task.StatusPending,
		CreatedAt: clk.Now().UTC().Format(time.RFC3339),
	}
	if err := validator.Validate(rec); err != nil {
		return nil, fmt.Errorf("%w: %v", task.ErrInvalidRecord, err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: taskData is not valid JSON", task.ErrInvalidRecord)
	}
	if err := s.Put(ctx, table, rec); err != nil {
		return nil, err
	}
	logger.Infof(ctx, "Enqueued task %s:%s into %s", rec.TaskType, rec.ID, table)
	return rec, nil
}

// EnqueueModelExport queues an EXPORT_MODEL_TO_CSV task for model.
func EnqueueModelExport(ctx context.Context, s store.Store, clk clock.Clock, table, model, recipient string) (*task.Record, error) {
	in := export.ModelInput{Email: recipient, Model: model}
	if err := validator.Validate(&in); err != nil {
		return nil, err
	}
	data, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	return Enqueue(ctx, s, clk, table, task.TypeExportModelToCSV, data)
}
