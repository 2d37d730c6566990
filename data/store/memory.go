package store

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/ncobase/taskrunner/ecode"
	"github.com/ncobase/taskrunner/task"
)

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[string]map[string]task.Record
	writes int
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tables: make(map[string]map[string]task.Record)}
}

// Get returns a copy of the stored record.
func (s *MemoryStore) Get(_ context.Context, table, id string) (*task.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.tables[table][id]
	if !ok {
		return nil, notFound(table, id)
	}
	return cloneRecord(rec), nil
}

// Put inserts a new record.
func (s *MemoryStore) Put(_ context.Context, table string, record *task.Record) error {
	if record == nil || record.ID == "" {
		return fmt.Errorf("put %s: %s", table, ecode.FieldIsRequired("record id"))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.tables[table]
	if !ok {
		rows = make(map[string]task.Record)
		s.tables[table] = rows
	}
	if _, exists := rows[record.ID]; exists {
		return fmt.Errorf("%w: %s/%s", ErrAlreadyExists, table, record.ID)
	}
	rows[record.ID] = *cloneRecord(*record)
	return nil
}

// UpdateStatus applies update when the stored status equals expect.
func (s *MemoryStore) UpdateStatus(_ context.Context, table, id string, expect task.Status, update task.StatusUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.tables[table][id]
	if !ok {
		return notFound(table, id)
	}
	if rec.Status != expect {
		return conflict(table, id, expect, rec.Status)
	}
	rec.Status = update.Status
	if update.TaskResult != nil {
		rec.TaskResult = bytes.Clone(update.TaskResult)
	}
	s.tables[table][id] = rec
	s.writes++
	return nil
}

// Writes reports how many status updates were applied.
func (s *MemoryStore) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

func cloneRecord(r task.Record) *task.Record {
	r.TaskData = bytes.Clone(r.TaskData)
	r.TaskResult = bytes.Clone(r.TaskResult)
	return &r
}
