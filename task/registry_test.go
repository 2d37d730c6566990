package task

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	h := func(context.Context, json.RawMessage) (Result, error) { return Result{}, nil }
	handlers := map[Type]Handler{TypeExportDBToCSV: h, TypeExample: h, TypeExportModelToCSV: nil}
	r := NewRegistry(handlers)

	handlers[Type("LATE")] = h
	assert.Equal(t, []Type{TypeExample, TypeExportDBToCSV}, r.Types())

	got, ok := r.Lookup(TypeExample)
	require.True(t, ok)
	assert.NotNil(t, got)

	_, ok = r.Lookup(TypeExportModelToCSV)
	assert.False(t, ok)

	var nilReg *Registry
	_, ok = nilReg.Lookup(TypeExample)
	assert.False(t, ok)
	assert.Nil(t, nilReg.Types())
}

func TestStatusAndType(t *testing.T) {
	assert.True(t, StatusPending.IsValid())
	assert.False(t, Status("QUEUED").IsValid())
	assert.True(t, StatusDone.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
	assert.False(t, StatusProcessing.IsTerminal())

	for _, tt := range Types() {
		assert.True(t, tt.Known())
	}
	assert.False(t, Type("NOPE").Known())
}

func TestResultJSON(t *testing.T) {
	b, err := json.Marshal(Result{Data: map[string]string{"downloadLink": "u"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":null,"result":{"downloadLink":"u"}}`, string(b))

	b, err = json.Marshal(Result{Error: "Task failed"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"Task failed"}`, string(b))
	assert.True(t, Result{Error: "x"}.Failed())
}
