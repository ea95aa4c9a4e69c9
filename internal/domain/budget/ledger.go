// Package budget keeps the authoritative per-team balances.
package budget

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/gavelhq/gavel/internal/domain/model"
	"github.com/gavelhq/gavel/pkg/metrics"
	"github.com/shopspring/decimal"
)

// Ledger tracks total, spent and reserved per team. Spent changes only
// through Debit (settlement); Reserve/Release hold funds explicitly.
// Remaining never goes below zero.
type Ledger struct {
	mu    sync.RWMutex
	teams map[string]model.TeamBudget
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{teams: make(map[string]model.TeamBudget)}
}

// Hydrate loads team balances, replacing any previous state. Called once at
// session start from the external store.
func (l *Ledger) Hydrate(ctx context.Context, budgets []model.TeamBudget) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.teams = make(map[string]model.TeamBudget, len(budgets))
	for _, b := range budgets {
		l.teams[b.TeamID] = b
	}
	metrics.UpdateTrackedTeams(len(l.teams))
}

// Get returns the balance for a team.
func (l *Ledger) Get(ctx context.Context, teamID string) (model.TeamBudget, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	b, ok := l.teams[teamID]
	if !ok {
		return model.TeamBudget{}, fmt.Errorf("%w: %s", ErrUnknownTeam, teamID)
	}
	return b, nil
}

// Remaining returns the spendable amount for a team. Reads reflect the
// latest committed state; there is no cached snapshot to go stale.
func (l *Ledger) Remaining(ctx context.Context, teamID string) (decimal.Decimal, error) {
	b, err := l.Get(ctx, teamID)
	if err != nil {
		return decimal.Zero, err
	}
	return b.Remaining(), nil
}

// Debit moves amount from remaining to spent. It re-validates under the
// lock, so a concurrent settlement cannot push remaining below zero.
func (l *Ledger) Debit(ctx context.Context, teamID string, amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.teams[teamID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTeam, teamID)
	}
	if b.Remaining().LessThan(amount) {
		return ErrInsufficientFunds
	}
	b.Spent = b.Spent.Add(amount)
	l.teams[teamID] = b
	return nil
}

// Reserve holds amount out of the team's remaining budget.
func (l *Ledger) Reserve(ctx context.Context, teamID string, amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.teams[teamID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTeam, teamID)
	}
	if b.Remaining().LessThan(amount) {
		return ErrInsufficientFunds
	}
	b.Reserved = b.Reserved.Add(amount)
	l.teams[teamID] = b
	return nil
}

// Release returns previously reserved funds to the remaining pool.
func (l *Ledger) Release(ctx context.Context, teamID string, amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.teams[teamID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTeam, teamID)
	}
	if b.Reserved.LessThan(amount) {
		return ErrInvalidAmount
	}
	b.Reserved = b.Reserved.Sub(amount)
	l.teams[teamID] = b
	return nil
}

// Snapshot returns all balances sorted by team id.
func (l *Ledger) Snapshot(ctx context.Context) []model.TeamBudget {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]model.TeamBudget, 0, len(l.teams))
	for _, b := range l.teams {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TeamID < out[j].TeamID })
	return out
}

// TotalSpent sums spent across all teams. Used for the tournament-wide
// reconciliation against the sale records.
func (l *Ledger) TotalSpent(ctx context.Context) decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()

	total := decimal.Zero
	for _, b := range l.teams {
		total = total.Add(b.Spent)
	}
	return total
}
