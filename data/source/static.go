package source

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// StaticSource serves fixed rows from memory.
type StaticSource struct {
	mu     sync.RWMutex
	tables map[string][]Row
	order  []string
	// Err, when set, is returned by FindMany for the table named in ErrTable.
	Err      error
	ErrTable string
}

// NewStaticSource creates a source over tables; table order is by name.
func NewStaticSource(tables map[string][]Row) *StaticSource {
	s := &StaticSource{tables: make(map[string][]Row)}
	for name, rows := range tables {
		s.tables[name] = rows
		s.order = append(s.order, name)
	}
	sort.Strings(s.order)
	return s
}

// Tables returns the table names.
func (s *StaticSource) Tables(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...), nil
}

// FindMany returns the rows of table.
func (s *StaticSource) FindMany(ctx context.Context, table string) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil && (s.ErrTable == "" || s.ErrTable == table) {
		return nil, s.Err
	}
	rows, ok := s.tables[table]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}
	return rows, nil
}
