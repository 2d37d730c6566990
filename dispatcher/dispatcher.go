// Package dispatcher turns a batch of change stream records into task runs.
package dispatcher

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/ncobase/taskrunner/concurrency"
	"github.com/ncobase/taskrunner/logging/logger"
	"github.com/ncobase/taskrunner/logging/observes"
	"github.com/ncobase/taskrunner/task"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// DefaultEventSource is the eventSource of DynamoDB stream records.
const DefaultEventSource = "aws:dynamodb"

// ErrWrongEventSource fails a batch that holds a record from another source.
var ErrWrongEventSource = errors.New("Event source is not from DynamoDB Stream. Ignoring")

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithEventSource overrides the expected eventSource.
func WithEventSource(source string) Option {
	return func(d *Dispatcher) {
		if source != "" {
			d.eventSource = source
		}
	}
}

// WithTable sets the queue table used for records without a table ARN.
func WithTable(table string) Option {
	return func(d *Dispatcher) { d.table = table }
}

// WithConcurrency bounds the number of runners in flight.
func WithConcurrency(m *concurrency.Manager) Option {
	return func(d *Dispatcher) { d.limiter = m }
}

// WithTimeout bounds every handler invocation.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) { d.timeout = timeout }
}

// Dispatcher runs the inserted tasks of a stream batch concurrently.
type Dispatcher struct {
	registry    *task.Registry
	store       task.StatusWriter
	eventSource string
	table       string
	timeout     time.Duration
	limiter     *concurrency.Manager
}

// New creates a dispatcher.
func New(registry *task.Registry, store task.StatusWriter, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry:    registry,
		store:       store,
		eventSource: DefaultEventSource,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Handle processes a batch and reports the items that should be redelivered.
//
// A record from a foreign event source fails the whole batch. Every other
// problem is scoped to its own item: decode failures, precondition and store
// errors, handler reported errors and fatal handler errors.
func (d *Dispatcher) Handle(ctx context.Context, event events.DynamoDBEvent) (events.DynamoDBEventResponse, error) {
	resp := events.DynamoDBEventResponse{BatchItemFailures: []events.DynamoDBBatchItemFailure{}}

	ctx, span := observes.StartSpan(ctx, "dispatcher.Handle",
		attribute.Int("batch.size", len(event.Records)),
	)
	defer span.End()

	for _, rec := range event.Records {
		if rec.EventSource != d.eventSource {
			logger.EntryWithFields(ctx, logrus.Fields{
				"event_id":     rec.EventID,
				"event_source": rec.EventSource,
			}).Error(ErrWrongEventSource.Error())
			span.RecordError(ErrWrongEventSource)
			return resp, ErrWrongEventSource
		}
	}

	inserts := make([]events.DynamoDBEventRecord, 0, len(event.Records))
	for _, rec := range event.Records {
		if rec.EventName == string(events.DynamoDBOperationTypeInsert) {
			inserts = append(inserts, rec)
		}
	}
	logger.Infof(ctx, "Dispatching %d of %d stream records", len(inserts), len(event.Records))

	failed := make([]string, len(inserts))
	var g errgroup.Group
	for i, rec := range inserts {
		i, rec := i, rec
		g.Go(func() error {
			if err := d.runOne(ctx, rec, &failed[i]); err != nil {
				failed[i] = ItemIdentifier(rec)
				logger.EntryWithFields(ctx, logrus.Fields{
					"item_identifier": failed[i],
				}).WithError(err).Error("Task run failed")
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, id := range failed {
		if id != "" {
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.DynamoDBBatchItemFailure{ItemIdentifier: id})
		}
	}
	span.SetAttributes(attribute.Int("batch.failures", len(resp.BatchItemFailures)))
	logger.Infof(ctx, "Batch finished with %d failed items", len(resp.BatchItemFailures))

	return resp, nil
}

// runOne runs a single record under the concurrency limit.
// A handler reported failure is recorded in failed, everything else is returned.
// A redelivered record that already completed counts as settled.
func (d *Dispatcher) runOne(ctx context.Context, rec events.DynamoDBEventRecord, failed *string) error {
	run := func(ctx context.Context) error {
		runner, err := task.FromRecord(ctx, rec, d.env())
		if err != nil {
			return err
		}
		out, err := runner.Run(ctx)
		if errors.Is(err, task.ErrAlreadyDone) {
			return nil
		}
		if err != nil {
			return err
		}
		if out.Error != "" {
			*failed = out.ID
		}
		return nil
	}

	if d.limiter == nil {
		return run(ctx)
	}
	return d.limiter.Do(ctx, run)
}

func (d *Dispatcher) env() task.Env {
	return task.Env{
		Registry: d.registry,
		Store:    d.store,
		Table:    d.table,
		Timeout:  d.timeout,
	}
}

// ItemIdentifier is the task id when the image carries one, else the
// stream sequence number.
func ItemIdentifier(rec events.DynamoDBEventRecord) string {
	if av, ok := rec.Change.NewImage["id"]; ok && av.DataType() == events.DataTypeString && av.String() != "" {
		return av.String()
	}
	return rec.Change.SequenceNumber
}
