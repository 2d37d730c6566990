package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/ncobase/taskrunner/ecode"
	"github.com/ncobase/taskrunner/logging/logger"
	"github.com/ncobase/taskrunner/logging/observes"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var (
	// ErrNotPending is returned when Run is called on a record that is not PENDING.
	ErrNotPending = errors.New("Cannot run task as status is not PENDING")
	// ErrTimeout is returned when a handler does not finish within the task timeout.
	ErrTimeout = errors.New("task timed out")
	// ErrStatusConflict is reported by a StatusWriter when the stored status is not the expected one.
	ErrStatusConflict = errors.New("task status conflict")
	// ErrAlreadyDone is returned when a redelivered record has already completed.
	ErrAlreadyDone = errors.New("task already done")
)

// ConflictError is a failed compare-and-set on the status attribute.
type ConflictError struct {
	Table    string
	ID       string
	Expected Status
	Found    Status
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s/%s expected %s, found %s", ErrStatusConflict, e.Table, e.ID, e.Expected, e.Found)
}

func (e *ConflictError) Unwrap() error { return ErrStatusConflict }

// unknownTaskError is the result error for a task type without a handler.
var unknownTaskError = ecode.Failed("Task")

// StatusWriter persists status transitions of a record.
//
// UpdateStatus must only apply the update when the stored status equals
// expect, so two runners racing on the same id cannot both settle it. A
// mismatch should be reported as a *ConflictError carrying the stored status.
type StatusWriter interface {
	UpdateStatus(ctx context.Context, table, id string, expect Status, update StatusUpdate) error
}

// Env carries the collaborators shared by every runner of a process.
type Env struct {
	Registry *Registry
	Store    StatusWriter
	// Table is the queue table used when a record does not name its own.
	Table string
	// Timeout bounds a single handler invocation, zero means no limit.
	Timeout time.Duration
}

// Runner drives one record through PENDING -> PROCESSING -> DONE|FAILED.
//
// At most one runner per record id may be in flight; the conditional
// status writes turn a violation into a store conflict error.
type Runner struct {
	record Record
	table  string
	env    Env
}

// NewRunner creates a runner for a record living in env.Table.
func NewRunner(record Record, env Env) *Runner {
	return &Runner{record: record, table: env.Table, env: env}
}

// FromRecord decodes a change stream record and creates a runner for it.
// Records that cannot be decoded fail with an error wrapping ErrInvalidRecord.
func FromRecord(ctx context.Context, raw events.DynamoDBEventRecord, env Env) (*Runner, error) {
	record, err := DecodeImage(raw.Change.NewImage)
	if err != nil {
		logger.EntryWithFields(ctx, logrus.Fields{
			"event_id":        raw.EventID,
			"sequence_number": raw.Change.SequenceNumber,
		}).WithError(err).Error("Invalid task record")
		return nil, err
	}

	r := NewRunner(*record, env)
	if table := TableFromARN(raw.EventSourceArn); table != "" {
		r.table = table
	}
	return r, nil
}

// Record returns the runner's copy of the record, including the status it last wrote.
func (r *Runner) Record() Record {
	return r.record
}

// Table returns the queue table the runner writes to.
func (r *Runner) Table() string {
	return r.table
}

// Run executes the task.
//
// Exactly two store writes happen on every run that gets past the status
// check: the PROCESSING marker and the terminal status. Handler reported
// failures come back as Outcome.Error with a nil error. Fatal handler
// errors are persisted as FAILED and returned as well.
func (r *Runner) Run(ctx context.Context) (Outcome, error) {
	id, taskType := r.record.ID, r.record.TaskType
	out := Outcome{ID: id}

	ctx, span := observes.StartSpan(ctx, "task.Run",
		attribute.String("task.id", id),
		attribute.String("task.type", string(taskType)),
	)
	defer span.End()

	logger.Infof(ctx, "Running task %s:%s", taskType, id)

	if r.record.Status != StatusPending {
		span.SetStatus(codes.Error, ErrNotPending.Error())
		return out, ErrNotPending
	}

	if err := r.claim(ctx); err != nil {
		if errors.Is(err, ErrAlreadyDone) {
			logger.EntryWithFields(ctx, logrus.Fields{logger.TaskIDKey: id, logger.TaskKey: taskType}).
				Info("Task already completed, skipping redelivery")
			return out, err
		}
		span.SetStatus(codes.Error, err.Error())
		return out, fmt.Errorf("mark task %s processing: %w", id, err)
	}

	result, fatal := r.dispatch(ctx)
	if fatal != nil {
		result = Result{Error: fatal.Error()}
	}

	status := StatusDone
	if result.Failed() {
		status = StatusFailed
	}

	payload, err := json.Marshal(result)
	if err != nil {
		status = StatusFailed
		result = Result{Error: fmt.Sprintf("encode task result: %v", err)}
		payload, _ = json.Marshal(result)
	}

	// The terminal write must not be cut short by the handler deadline.
	if err := r.transition(context.WithoutCancel(ctx), StatusProcessing, StatusUpdate{Status: status, TaskResult: payload}); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return out, fmt.Errorf("mark task %s %s: %w", id, status, err)
	}

	out.Error = result.Error
	switch {
	case fatal != nil:
		span.RecordError(fatal)
		span.SetStatus(codes.Error, fatal.Error())
		logger.EntryWithFields(ctx, logrus.Fields{logger.TaskIDKey: id, logger.TaskKey: taskType}).
			WithError(fatal).Error("Task aborted")
		return out, fatal
	case result.Failed():
		span.SetStatus(codes.Error, result.Error)
		logger.EntryWithFields(ctx, logrus.Fields{logger.TaskIDKey: id, logger.TaskKey: taskType}).
			Errorf("Task failed: %s", result.Error)
	default:
		span.SetStatus(codes.Ok, "")
		logger.EntryWithFields(ctx, logrus.Fields{logger.TaskIDKey: id, logger.TaskKey: taskType}).
			Info("Task completed")
	}

	return out, nil
}

// claim marks the record PROCESSING.
//
// The stream image of a redelivered record still reads PENDING. When the
// stored record has FAILED since, it is claimed again so the redelivery
// retries it. A stored DONE yields ErrAlreadyDone.
func (r *Runner) claim(ctx context.Context) error {
	processing := StatusUpdate{Status: StatusProcessing}
	err := r.transition(ctx, StatusPending, processing)

	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		return err
	}
	switch conflict.Found {
	case StatusFailed:
		logger.Infof(ctx, "Retrying failed task %s", r.record.ID)
		return r.transition(ctx, StatusFailed, processing)
	case StatusDone:
		return ErrAlreadyDone
	}
	return err
}

// transition writes an update and mirrors it on the in-memory copy.
func (r *Runner) transition(ctx context.Context, expect Status, update StatusUpdate) error {
	if err := r.env.Store.UpdateStatus(ctx, r.table, r.record.ID, expect, update); err != nil {
		return err
	}
	r.record.Status = update.Status
	if update.TaskResult != nil {
		r.record.TaskResult = update.TaskResult
	}
	return nil
}

// dispatch invokes the registered handler.
// An unknown task type yields a failed result rather than an error.
func (r *Runner) dispatch(ctx context.Context) (Result, error) {
	handler, ok := r.env.Registry.Lookup(r.record.TaskType)
	if !ok {
		logger.Warnf(ctx, "No handler registered for task type %q", r.record.TaskType)
		return Result{Error: unknownTaskError}, nil
	}

	if r.env.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.env.Timeout)
		defer cancel()
	}

	type response struct {
		result Result
		err    error
	}
	done := make(chan response, 1)

	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- response{err: fmt.Errorf("task handler panicked: %v", p)}
			}
		}()
		result, err := handler(ctx, r.record.TaskData)
		done <- response{result: result, err: err}
	}()

	select {
	case resp := <-done:
		return resp.result, resp.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Result{}, fmt.Errorf("%w after %s", ErrTimeout, r.env.Timeout)
		}
		return Result{}, ctx.Err()
	}
}
