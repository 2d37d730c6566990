package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/ncobase/taskrunner/data/store"
	"github.com/ncobase/taskrunner/export"
	"github.com/ncobase/taskrunner/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry(Deps{Exporter: &export.Exporter{}})
	assert.Equal(t, []task.Type{task.TypeExample, task.TypeExportDBToCSV, task.TypeExportModelToCSV}, r.Types())

	r = NewRegistry(Deps{})
	_, ok := r.Lookup(task.TypeExportDBToCSV)
	assert.False(t, ok)
}

func TestExample(t *testing.T) {
	res, err := Example(context.Background(), json.RawMessage(`{"n":1}`))
	require.NoError(t, err)
	assert.False(t, res.Failed())

	b, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":null,"result":{"message":"Example task completed","payload":{"n":1}}}`, string(b))
}

func TestEnqueueModelExport(t *testing.T) {
	s := store.NewMemoryStore()
	clk := testclock.NewClock(time.Date(2023, 1, 1, 12, 34, 56, 0, time.UTC))

	rec, err := EnqueueModelExport(context.Background(), s, clk, "exports", "users", "user@example.com")
	require.NoError(t, err)

	got, err := s.Get(context.Background(), "exports", rec.ID)
	require.NoError(t, err)
	assert.Equal(t, task.StatusPending, got.Status)
	assert.Equal(t, task.TypeExportModelToCSV, got.TaskType)
	assert.Equal(t, "2023-01-01T12:34:56Z", got.CreatedAt)
	assert.JSONEq(t, `{"email":"user@example.com","model":"users"}`, string(got.TaskData))
}

func TestEnqueueModelExportInvalidEmail(t *testing.T) {
	_, err := EnqueueModelExport(context.Background(), store.NewMemoryStore(), nil, "exports", "users", "nope")
	assert.Error(t, err)
}

func TestEnqueueRejectsInvalidJSON(t *testing.T) {
	_, err := Enqueue(context.Background(), store.NewMemoryStore(), nil, "q", task.TypeExample, json.RawMessage(`{`))
	assert.True(t, errors.Is(err, task.ErrInvalidRecord))
}

func TestEnqueueRejectsUnknownType(t *testing.T) {
	_, err := Enqueue(context.Background(), store.NewMemoryStore(), nil, "q", task.Type("NOPE"), json.RawMessage(`{}`))
	assert.True(t, errors.Is(err, task.ErrInvalidRecord))
}
