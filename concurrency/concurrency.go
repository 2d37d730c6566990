// Package concurrency bounds how many task runners execute at once.
package concurrency

import (
	"context"
	"fmt"
	"sync/atomic"
)

// Manager is a counting semaphore with usage metrics.
type Manager struct {
	maxConcurrent int32
	current       atomic.Int32
	semaphore     chan struct{}

	totalExecutions atomic.Int64
	rejectedCount   atomic.Int64
	panicCount      atomic.Int64
}

// Metrics is a point-in-time view of a Manager.
type Metrics struct {
	Max             int32
	Current         int32
	TotalExecutions int64
	RejectedCount   int64
	PanicCount      int64
}

// NewManager creates a manager allowing max concurrent slots.
//
// Usage:
//
//	cm, err := concurrency.NewManager(10)
//	if err != nil {
//	    return err
//	}
//	if err := cm.Acquire(ctx); err != nil {
//	    return err
//	}
//	defer cm.Release()
func NewManager(max int32) (*Manager, error) {
	if max <= 0 {
		return nil, fmt.Errorf("max concurrent must be positive, got: %d", max)
	}

	return &Manager{
		maxConcurrent: max,
		semaphore:     make(chan struct{}, max),
	}, nil
}

// Acquire blocks until a slot is free or ctx is done.
func (m *Manager) Acquire(ctx context.Context) error {
	select {
	case m.semaphore <- struct{}{}:
		m.current.Add(1)
		m.totalExecutions.Add(1)
		return nil
	case <-ctx.Done():
		m.rejectedCount.Add(1)
		return fmt.Errorf("failed to acquire concurrency slot: %w", ctx.Err())
	}
}

// Release frees a slot taken by Acquire or TryAcquire.
func (m *Manager) Release() {
	select {
	case <-m.semaphore:
		m.current.Add(-1)
	default:
		panic("attempting to release more slots than acquired")
	}
}

// TryAcquire takes a slot without blocking.
func (m *Manager) TryAcquire() bool {
	select {
	case m.semaphore <- struct{}{}:
		m.current.Add(1)
		m.totalExecutions.Add(1)
		return true
	default:
		m.rejectedCount.Add(1)
		return false
	}
}

// Do runs fn while holding a slot. A panic in fn is recovered and returned as an error.
func (m *Manager) Do(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if err := m.Acquire(ctx); err != nil {
		return err
	}
	defer m.Release()
	defer func() {
		if r := recover(); r != nil {
			m.panicCount.Add(1)
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx)
}

// Available returns the number of free slots.
func (m *Manager) Available() int32 {
	return m.maxConcurrent - m.current.Load()
}

// GetMetrics returns current metrics.
func (m *Manager) GetMetrics() Metrics {
	return Metrics{
		Max:             m.maxConcurrent,
		Current:         m.current.Load(),
		TotalExecutions: m.totalExecutions.Load(),
		RejectedCount:   m.rejectedCount.Load(),
		PanicCount:      m.panicCount.Load(),
	}
}
