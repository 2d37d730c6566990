package task

import (
	"encoding/json"
)

// Status is the lifecycle state of a task record.
// PENDING is set by the enqueuer, PROCESSING is the only transient state,
// DONE and FAILED are terminal.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusDone       Status = "DONE"
	StatusFailed     Status = "FAILED"
)

// IsValid reports whether s belongs to the status vocabulary.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusDone, StatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is allowed from s.
func (s Status) IsTerminal() bool {
	return s == StatusDone || s == StatusFailed
}

// Type selects the handler for a record.
// The vocabulary is closed, but records come from an unvalidated store,
// so any string is representable and unknown values degrade at dispatch.
type Type string

const (
	TypeExample          Type = "EXAMPLE_TASK"
	TypeExportDBToCSV    Type = "EXPORT_DB_TO_CSV"
	TypeExportModelToCSV Type = "EXPORT_MODEL_TO_CSV"
)

// Types lists the known task types.
func Types() []Type {
	return []Type{TypeExample, TypeExportDBToCSV, TypeExportModelToCSV}
}

// Known reports whether t is part of the compiled vocabulary.
func (t Type) Known() bool {
	switch t {
	case TypeExample, TypeExportDBToCSV, TypeExportModelToCSV:
		return true
	default:
		return false
	}
}

// Record is one queued unit of work.
// Only Status and TaskResult are ever written back by a runner.
type Record struct {
	ID         string          `json:"id" validate:"required"`
	TaskType   Type            `json:"taskType" validate:"required,oneof=EXAMPLE_TASK EXPORT_DB_TO_CSV EXPORT_MODEL_TO_CSV"`
	TaskData   json.RawMessage `json:"taskData" validate:"required"`
	Status     Status          `json:"status" validate:"required,oneof=PENDING PROCESSING DONE FAILED"`
	TaskResult json.RawMessage `json:"taskResult,omitempty"`
	CreatedAt  string          `json:"createdAt" validate:"required"`
}

// StatusUpdate is the write-back applied to a record on a transition.
type StatusUpdate struct {
	Status     Status
	TaskResult json.RawMessage
}

// Result is the uniform handler response.
// A non-empty Error is a business failure reported by the handler.
type Result struct {
	Error string
	Data  any
}

// Failed reports whether the handler reported an error.
func (r Result) Failed() bool {
	return r.Error != ""
}

// MarshalJSON encodes the result as {"error": string|null, "result": any}.
func (r Result) MarshalJSON() ([]byte, error) {
	var errField *string
	if r.Error != "" {
		errField = &r.Error
	}
	return json.Marshal(struct {
		Error  *string `json:"error"`
		Result any     `json:"result,omitempty"`
	}{errField, r.Data})
}

// Outcome is the per-record summary handed back to batch aggregation.
type Outcome struct {
	ID    string
	Error string
}
