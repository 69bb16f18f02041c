// Package cache stores the derived aggregate of each customer in a slot that
// is either stale or current.
//
// Every write to a customer's reviews marks the slot stale and bumps its
// generation. A recompute reads the generation before its snapshot and only
// stores the result if the generation is unchanged, so a slow recompute can
// never overwrite a newer invalidation.
package cache

import (
	"context"

	"github.com/utafrali/PatronScore/internal/domain"
)

// State of an aggregate slot.
type State string

// Slot states. StateMissing means the slot has never been written.
const (
	StateMissing State = "missing"
	StateStale   State = "stale"
	StateCurrent State = "current"
)

// Entry is a snapshot of one slot. Scores hold the last stored aggregate,
// which for a stale slot is out of date.
type Entry struct {
	State      State
	Generation int64
	Scores     domain.AggregateScores
}

// Usable reports whether the entry can be served without a recompute.
func (e Entry) Usable() bool {
	return e.State == StateCurrent
}

// AggregateCache is the aggregate slot store.
type AggregateCache interface {
	// Get returns the slot for customerID. A slot that was never written is
	// returned with StateMissing and a nil error.
	Get(ctx context.Context, customerID string) (Entry, error)

	// MarkStale invalidates the slot and advances its generation.
	MarkStale(ctx context.Context, customerID string) error

	// Put stores scores as current if the slot's generation still equals
	// generation. It reports whether the value was stored.
	Put(ctx context.Context, scores domain.AggregateScores, generation int64) (bool, error)
}
