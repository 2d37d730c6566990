package task

import (
	"context"
	"encoding/json"
	"sort"
)

// Handler performs the work for one task type.
//
// Malformed payloads and other business failures are reported through
// Result.Error. A returned error is reserved for unexpected lower level
// failures (storage, archive, network) and is treated as fatal by the runner.
type Handler func(ctx context.Context, payload json.RawMessage) (Result, error)

// Registry maps task types to handlers. It is immutable once built.
type Registry struct {
	handlers map[Type]Handler
}

// NewRegistry builds a registry from the given handlers.
// The map is copied, later changes to it are not observed.
func NewRegistry(handlers map[Type]Handler) *Registry {
	r := &Registry{handlers: make(map[Type]Handler, len(handlers))}
	for t, h := range handlers {
		if h != nil {
			r.handlers[t] = h
		}
	}
	return r
}

// Lookup returns the handler registered for t.
func (r *Registry) Lookup(t Type) (Handler, bool) {
	if r == nil {
		return nil, false
	}
	h, ok := r.handlers[t]
	return h, ok
}

// Types returns the registered task types in lexical order.
func (r *Registry) Types() []Type {
	if r == nil {
		return nil
	}
	types := make([]Type, 0, len(r.handlers))
	for t := range r.handlers {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
