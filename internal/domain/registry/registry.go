// Package registry holds the ordered queue of auctionable lots.
package registry

import (
	"context"
	"sync"

	"github.com/gavelhq/gavel/internal/domain/model"
	"github.com/gavelhq/gavel/pkg/metrics"
)

// Registry serves lots strictly in insertion order. Exactly one lot may be
// checked out at a time; it must be released via Complete before the next
// one is handed out.
type Registry struct {
	mu      sync.Mutex
	pending []model.Lot
	active  string // lot id currently checked out, empty if none
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{}
}

// Enqueue appends a lot to the pending queue. The lot enters in pending state.
func (r *Registry) Enqueue(ctx context.Context, lot model.Lot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if lot.ID == "" {
		return ErrEmptyLotID
	}
	if r.active == lot.ID {
		return ErrDuplicateLot
	}
	for _, p := range r.pending {
		if p.ID == lot.ID {
			return ErrDuplicateLot
		}
	}
	lot.Status = model.LotPending
	r.pending = append(r.pending, lot)
	metrics.UpdatePendingLots(len(r.pending))
	return nil
}

// Next hands out the head of the queue and marks it checked out.
// Returns ErrInvalidState if a lot is already out, ErrEmpty when drained.
func (r *Registry) Next(ctx context.Context) (model.Lot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active != "" {
		return model.Lot{}, ErrInvalidState
	}
	if len(r.pending) == 0 {
		return model.Lot{}, ErrEmpty
	}
	lot := r.pending[0]
	r.pending = r.pending[1:]
	r.active = lot.ID
	metrics.UpdatePendingLots(len(r.pending))
	return lot, nil
}

// Peek returns the head of the queue without removing it.
func (r *Registry) Peek(ctx context.Context) (model.Lot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.pending) == 0 {
		return model.Lot{}, false
	}
	return r.pending[0], true
}

// Complete releases the checked-out lot once it reached a terminal state.
func (r *Registry) Complete(ctx context.Context, lotID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active != lotID {
		return ErrInvalidState
	}
	r.active = ""
	return nil
}

// Reorder rearranges the pending queue to the given id order. This is the
// only mutation permitted on pending lots. Every pending id must appear
// exactly once; the checked-out lot is not part of the queue.
func (r *Registry) Reorder(ctx context.Context, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(ids) != len(r.pending) {
		return ErrUnknownLot
	}
	byID := make(map[string]model.Lot, len(r.pending))
	for _, lot := range r.pending {
		byID[lot.ID] = lot
	}
	next := make([]model.Lot, 0, len(ids))
	for _, id := range ids {
		lot, ok := byID[id]
		if !ok {
			return ErrUnknownLot
		}
		delete(byID, id)
		next = append(next, lot)
	}
	r.pending = next
	return nil
}

// Pending returns a copy of the queued lots in serving order.
func (r *Registry) Pending(ctx context.Context) []model.Lot {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]model.Lot, len(r.pending))
	copy(out, r.pending)
	return out
}

// Len returns the number of queued lots.
func (r *Registry) Len(ctx context.Context) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}
