package cache

import (
	"context"
	"sync"

	"github.com/utafrali/PatronScore/internal/domain"
)

// Memory is an in-process AggregateCache, used when Redis is not configured.
type Memory struct {
	mu    sync.Mutex
	slots map[string]Entry
}

var _ AggregateCache = (*Memory)(nil)

// NewMemory creates an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{slots: make(map[string]Entry)}
}

// Get implements AggregateCache.
func (m *Memory) Get(_ context.Context, customerID string) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.slots[customerID]
	if !ok {
		return Entry{State: StateMissing}, nil
	}
	return e, nil
}

// MarkStale implements AggregateCache.
func (m *Memory) MarkStale(_ context.Context, customerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.slots[customerID]
	e.State = StateStale
	e.Generation++
	m.slots[customerID] = e
	return nil
}

// Put implements AggregateCache.
func (m *Memory) Put(_ context.Context, scores domain.AggregateScores, generation int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.slots[scores.CustomerID]
	if e.Generation != generation {
		return false, nil
	}
	m.slots[scores.CustomerID] = Entry{State: StateCurrent, Generation: generation, Scores: scores}
	return true, nil
}
