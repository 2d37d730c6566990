package task

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type write struct {
	Table  string
	ID     string
	Expect Status
	Update StatusUpdate
}

// recordingWriter keeps statuses in memory and logs every applied write.
type recordingWriter struct {
	mu       sync.Mutex
	statuses map[string]Status
	writes   []write
	failOn   Status
}

func newWriter(ids ...string) *recordingWriter {
	w := &recordingWriter{statuses: map[string]Status{}}
	for _, id := range ids {
		w.statuses[id] = StatusPending
	}
	return w
}

func (w *recordingWriter) UpdateStatus(_ context.Context, table, id string, expect Status, update StatusUpdate) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failOn != "" && update.Status == w.failOn {
		return errors.New("store unavailable")
	}
	if found := w.statuses[id]; found != expect {
		return &ConflictError{Table: table, ID: id, Expected: expect, Found: found}
	}
	w.statuses[id] = update.Status
	w.writes = append(w.writes, write{table, id, expect, update})
	return nil
}

func pending(id string, t Type, data string) Record {
	return Record{
		ID:        id,
		TaskType:  t,
		TaskData:  json.RawMessage(data),
		Status:    StatusPending,
		CreatedAt: "2024-01-01T00:00:00Z",
	}
}

func env(w StatusWriter, handlers map[Type]Handler) Env {
	return Env{Registry: NewRegistry(handlers), Store: w, Table: "tasks"}
}

func TestRunSuccessWritesTwice(t *testing.T) {
	w := newWriter("t1")
	var got json.RawMessage
	r := NewRunner(pending("t1", TypeExample, `{"a":1}`), env(w, map[Type]Handler{
		TypeExample: func(_ context.Context, payload json.RawMessage) (Result, error) {
			got = payload
			return Result{Data: map[string]string{"downloadLink": "https://x"}}, nil
		},
	}))

	out, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Outcome{ID: "t1"}, out)
	assert.JSONEq(t, `{"a":1}`, string(got))

	require.Len(t, w.writes, 2)
	assert.Equal(t, write{"tasks", "t1", StatusPending, StatusUpdate{Status: StatusProcessing}}, w.writes[0])
	assert.Equal(t, StatusProcessing, w.writes[1].Expect)
	assert.Equal(t, StatusDone, w.writes[1].Update.Status)
	assert.JSONEq(t, `{"error":null,"result":{"downloadLink":"https://x"}}`, string(w.writes[1].Update.TaskResult))
	assert.Equal(t, StatusDone, r.Record().Status)
}

func TestRunHandlerReportedError(t *testing.T) {
	w := newWriter("t1")
	r := NewRunner(pending("t1", TypeExample, `{}`), env(w, map[Type]Handler{
		TypeExample: func(context.Context, json.RawMessage) (Result, error) {
			return Result{Error: "Invalid task data"}, nil
		},
	}))

	out, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Invalid task data", out.Error)
	require.Len(t, w.writes, 2)
	assert.Equal(t, StatusFailed, w.writes[1].Update.Status)
	assert.JSONEq(t, `{"error":"Invalid task data"}`, string(w.writes[1].Update.TaskResult))
}

func TestRunUnknownTaskType(t *testing.T) {
	w := newWriter("t1")
	r := NewRunner(pending("t1", Type("MYSTERY"), `{}`), env(w, nil))

	out, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Task failed", out.Error)
	require.Len(t, w.writes, 2)
	assert.Equal(t, StatusFailed, w.writes[1].Update.Status)
}

func TestRunNotPending(t *testing.T) {
	for _, status := range []Status{StatusProcessing, StatusDone, StatusFailed} {
		t.Run(string(status), func(t *testing.T) {
			w := newWriter()
			called := false
			rec := pending("t1", TypeExample, `{}`)
			rec.Status = status
			r := NewRunner(rec, env(w, map[Type]Handler{
				TypeExample: func(context.Context, json.RawMessage) (Result, error) {
					called = true
					return Result{}, nil
				},
			}))

			_, err := r.Run(context.Background())
			assert.ErrorIs(t, err, ErrNotPending)
			assert.EqualError(t, err, "Cannot run task as status is not PENDING")
			assert.False(t, called)
			assert.Empty(t, w.writes)
		})
	}
}

func TestRunFatalErrorPersistsFailed(t *testing.T) {
	w := newWriter("t1")
	boom := errors.New("upload failed")
	r := NewRunner(pending("t1", TypeExportDBToCSV, `{}`), env(w, map[Type]Handler{
		TypeExportDBToCSV: func(context.Context, json.RawMessage) (Result, error) {
			return Result{}, boom
		},
	}))

	out, err := r.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "upload failed", out.Error)
	require.Len(t, w.writes, 2)
	assert.Equal(t, StatusFailed, w.writes[1].Update.Status)
	assert.JSONEq(t, `{"error":"upload failed"}`, string(w.writes[1].Update.TaskResult))
}

func TestRunHandlerPanic(t *testing.T) {
	w := newWriter("t1")
	r := NewRunner(pending("t1", TypeExample, `{}`), env(w, map[Type]Handler{
		TypeExample: func(context.Context, json.RawMessage) (Result, error) {
			panic("nil map")
		},
	}))

	_, err := r.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nil map")
	require.Len(t, w.writes, 2)
	assert.Equal(t, StatusFailed, w.writes[1].Update.Status)
}

func TestRunTimeout(t *testing.T) {
	w := newWriter("t1")
	e := env(w, map[Type]Handler{
		TypeExample: func(ctx context.Context, _ json.RawMessage) (Result, error) {
			<-ctx.Done()
			time.Sleep(10 * time.Millisecond)
			return Result{}, nil
		},
	})
	e.Timeout = 20 * time.Millisecond

	_, err := NewRunner(pending("t1", TypeExample, `{}`), e).Run(context.Background())
	assert.ErrorIs(t, err, ErrTimeout)
	require.Len(t, w.writes, 2)
	assert.Equal(t, StatusFailed, w.writes[1].Update.Status)
}

func TestRunProcessingWriteConflict(t *testing.T) {
	w := newWriter("t1")
	w.statuses["t1"] = StatusProcessing
	called := false
	r := NewRunner(pending("t1", TypeExample, `{}`), env(w, map[Type]Handler{
		TypeExample: func(context.Context, json.RawMessage) (Result, error) {
			called = true
			return Result{}, nil
		},
	}))

	_, err := r.Run(context.Background())
	assert.ErrorIs(t, err, ErrStatusConflict)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, StatusProcessing, conflict.Found)
	assert.False(t, called)
	assert.Equal(t, StatusPending, r.Record().Status)
}

func TestRunRedeliveryRetriesFailedTask(t *testing.T) {
	w := newWriter("t1")
	attempts := 0
	e := env(w, map[Type]Handler{
		TypeExample: func(context.Context, json.RawMessage) (Result, error) {
			attempts++
			if attempts == 1 {
				return Result{}, errors.New("upload failed")
			}
			return Result{Data: "ok"}, nil
		},
	})

	_, err := NewRunner(pending("t1", TypeExample, `{}`), e).Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, StatusFailed, w.statuses["t1"])

	// the stream image of the redelivered record still reads PENDING
	out, err := NewRunner(pending("t1", TypeExample, `{}`), e).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Outcome{ID: "t1"}, out)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, StatusDone, w.statuses["t1"])

	require.Len(t, w.writes, 4)
	assert.Equal(t, StatusFailed, w.writes[2].Expect)
	assert.Equal(t, StatusProcessing, w.writes[2].Update.Status)
}

func TestRunRedeliveryOfDoneTask(t *testing.T) {
	w := newWriter("t1")
	w.statuses["t1"] = StatusDone
	called := false
	r := NewRunner(pending("t1", TypeExample, `{}`), env(w, map[Type]Handler{
		TypeExample: func(context.Context, json.RawMessage) (Result, error) {
			called = true
			return Result{}, nil
		},
	}))

	_, err := r.Run(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyDone)
	assert.False(t, called)
	assert.Empty(t, w.writes)
	assert.Equal(t, StatusDone, w.statuses["t1"])
}

func TestRunTerminalWriteFailure(t *testing.T) {
	w := newWriter("t1")
	w.failOn = StatusDone
	r := NewRunner(pending("t1", TypeExample, `{}`), env(w, map[Type]Handler{
		TypeExample: func(context.Context, json.RawMessage) (Result, error) { return Result{}, nil },
	}))

	_, err := r.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, StatusProcessing, r.Record().Status)
}

func TestRunConcurrentClaimsHaveOneWinner(t *testing.T) {
	w := newWriter("t1")
	var mu sync.Mutex
	runs := 0
	handlers := map[Type]Handler{
		TypeExample: func(context.Context, json.RawMessage) (Result, error) {
			mu.Lock()
			runs++
			mu.Unlock()
			return Result{}, nil
		},
	}

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = NewRunner(pending("t1", TypeExample, `{}`), env(w, handlers)).Run(context.Background())
		}()
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, runs)
	assert.Len(t, w.writes, 2)
}

func TestFromRecordUsesTableFromARN(t *testing.T) {
	raw := events.DynamoDBEventRecord{
		EventSourceArn: "arn:aws:dynamodb:eu-west-1:1:table/Queue/stream/2024",
		Change: events.DynamoDBStreamRecord{NewImage: map[string]events.DynamoDBAttributeValue{
			"id":        events.NewStringAttribute("t1"),
			"taskType":  events.NewStringAttribute("EXAMPLE_TASK"),
			"taskData":  events.NewStringAttribute(`{}`),
			"status":    events.NewStringAttribute("PENDING"),
			"createdAt": events.NewStringAttribute("2024-01-01T00:00:00Z"),
		}},
	}

	r, err := FromRecord(context.Background(), raw, Env{Table: "fallback"})
	require.NoError(t, err)
	assert.Equal(t, "Queue", r.Table())
	assert.Equal(t, "t1", r.Record().ID)

	raw.EventSourceArn = ""
	r, err = FromRecord(context.Background(), raw, Env{Table: "fallback"})
	require.NoError(t, err)
	assert.Equal(t, "fallback", r.Table())
}

func TestFromRecordInvalid(t *testing.T) {
	_, err := FromRecord(context.Background(), events.DynamoDBEventRecord{}, Env{})
	assert.ErrorIs(t, err, ErrInvalidRecord)
}
