// Package settle resolves closed lots to a winner and debits budgets.
package settle

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gavelhq/gavel/internal/domain/bidbook"
	"github.com/gavelhq/gavel/internal/domain/budget"
	"github.com/gavelhq/gavel/internal/domain/model"
	"github.com/gavelhq/gavel/pkg/logger"
	"github.com/gavelhq/gavel/pkg/metrics"
	"github.com/shopspring/decimal"
)

// Replicator pushes settlement results back to the external store.
// Replication is best effort; the in-memory ledgers stay authoritative for
// the live session and failures are durably logged for reconciliation.
type Replicator interface {
	ApplyDebit(ctx context.Context, teamID string, amount decimal.Decimal) error
	RecordSale(ctx context.Context, sale model.SaleRecord) error
}

// Engine settles lots. Settlements are serialized; a debit and its sale
// record commit together or not at all.
type Engine struct {
	mu      sync.Mutex
	book    *bidbook.Book
	budgets *budget.Ledger
	replica Replicator
	notify  func(ctx context.Context, ev model.Event)
	records map[string]model.SaleRecord
	unsold  map[string]bool
	log     logger.Logger
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithReplicator sets the external store replication target.
func WithReplicator(r Replicator) Option {
	return func(e *Engine) {
		if r != nil {
			e.replica = r
		}
	}
}

// WithNotifier sets the integrity-violation event callback.
func WithNotifier(fn func(ctx context.Context, ev model.Event)) Option {
	return func(e *Engine) {
		if fn != nil {
			e.notify = fn
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// New creates a settlement engine over the given ledgers.
func New(book *bidbook.Book, budgets *budget.Ledger, opts ...Option) *Engine {
	e := &Engine{
		book:    book,
		budgets: budgets,
		notify:  func(context.Context, model.Event) {},
		records: make(map[string]model.SaleRecord),
		unsold:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = logger.Get().Named("settle")
	}
	return e
}

// Settle resolves a lot. Returns the sale record and true when sold, or a
// zero record and false when unsold. Calling it again for an already
// settled lot returns the original outcome without re-debiting.
func (e *Engine) Settle(ctx context.Context, lotID string) (model.SaleRecord, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if sale, ok := e.records[lotID]; ok {
		return sale, true, nil
	}
	if e.unsold[lotID] {
		return model.SaleRecord{}, false, nil
	}

	start := time.Now()
	defer func() {
		metrics.RecordSettlementLatency(float64(time.Since(start).Milliseconds()))
	}()

	candidates := e.book.Reveal(ctx, lotID)
	// Strictly by amount, then by sequence for exact ties across kinds.
	sort.SliceStable(candidates, func(i, j int) bool {
		if !candidates[i].Amount.Equal(candidates[j].Amount) {
			return candidates[i].Amount.GreaterThan(candidates[j].Amount)
		}
		return candidates[i].Seq < candidates[j].Seq
	})

	failed := make(map[string]bool)
	for _, bid := range candidates {
		if failed[bid.TeamID] {
			continue
		}
		// Debit re-validates remaining under the ledger lock; a budget spent
		// on a concurrently settled lot fails here, not at bid time.
		if err := e.budgets.Debit(ctx, bid.TeamID, bid.Amount); err != nil {
			failed[bid.TeamID] = true
			metrics.RecordIntegrityViolation()
			e.log.Warn(ctx, "winner failed settlement re-validation",
				logger.String("lot_id", lotID),
				logger.String("team_id", bid.TeamID),
				logger.String("amount", bid.Amount.String()),
				logger.Error(err),
			)
			e.notify(ctx, model.Event{
				Kind:   model.EventIntegrityViolation,
				LotID:  lotID,
				TeamID: bid.TeamID,
				Amount: bid.Amount,
				Seq:    bid.Seq,
				At:     time.Now().UTC(),
				Detail: "budget re-validation failed at settlement",
			})
			continue
		}

		sale := model.SaleRecord{
			LotID:         lotID,
			WinningTeamID: bid.TeamID,
			FinalAmount:   bid.Amount,
			SettledAtSeq:  e.book.Seq(),
		}
		e.records[lotID] = sale
		metrics.RecordLotSold()
		e.replicate(ctx, sale)
		return sale, true, nil
	}

	e.unsold[lotID] = true
	return model.SaleRecord{}, false, nil
}

func (e *Engine) replicate(ctx context.Context, sale model.SaleRecord) {
	if e.replica == nil {
		return
	}
	if err := e.replica.ApplyDebit(ctx, sale.WinningTeamID, sale.FinalAmount); err != nil {
		metrics.RecordIntegrityViolation()
		e.log.Error(ctx, "debit replication failed; flagged for reconciliation",
			logger.String("lot_id", sale.LotID),
			logger.String("team_id", sale.WinningTeamID),
			logger.Error(err),
		)
		e.notify(ctx, model.Event{
			Kind:   model.EventIntegrityViolation,
			LotID:  sale.LotID,
			TeamID: sale.WinningTeamID,
			Amount: sale.FinalAmount,
			At:     time.Now().UTC(),
			Detail: "store debit replication failed",
		})
	}
	if err := e.replica.RecordSale(ctx, sale); err != nil {
		metrics.RecordIntegrityViolation()
		e.log.Error(ctx, "sale record replication failed; flagged for reconciliation",
			logger.String("lot_id", sale.LotID),
			logger.Error(err),
		)
	}
}

// Record returns the sale record for a lot, if it was sold.
func (e *Engine) Record(ctx context.Context, lotID string) (model.SaleRecord, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sale, ok := e.records[lotID]
	return sale, ok
}

// Records returns all sale records ordered by settlement sequence.
func (e *Engine) Records(ctx context.Context) []model.SaleRecord {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]model.SaleRecord, 0, len(e.records))
	for _, sale := range e.records {
		out = append(out, sale)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SettledAtSeq < out[j].SettledAtSeq })
	return out
}

// TotalSales sums every final amount. Together with the budget ledger's
// TotalSpent this gives the tournament-wide reconciliation check.
func (e *Engine) TotalSales(ctx context.Context) decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()

	total := decimal.Zero
	for _, sale := range e.records {
		total = total.Add(sale.FinalAmount)
	}
	return total
}
