// Package session drives the lot lifecycle state machine and owns the
// countdown. One live session exists per tournament; all state sits behind
// a single mutex and is reachable only through the session handle.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gavelhq/gavel/internal/domain/bidbook"
	"github.com/gavelhq/gavel/internal/domain/budget"
	"github.com/gavelhq/gavel/internal/domain/model"
	"github.com/gavelhq/gavel/internal/domain/registry"
	"github.com/gavelhq/gavel/internal/domain/settle"
	"github.com/gavelhq/gavel/pkg/logger"
	"github.com/gavelhq/gavel/pkg/metrics"
	"github.com/shopspring/decimal"
)

// StateIdle is the session phase between lots. Lot-bound phases reuse the
// lot status values.
const StateIdle = model.LotStatus("idle")

// Snapshot is a consistent read of the live session state.
type Snapshot struct {
	Phase       model.LotStatus
	Lot         *model.Lot
	Deadline    time.Time
	HighestOpen *model.Bid
	SealedCount int
}

// Session is the auction clock. The deadline timestamp is the single
// authoritative timer; the time.Timer merely wakes the expiry check and is
// recomputed on every accepted open bid, never stacked.
type Session struct {
	mu sync.Mutex

	cfg     model.SessionConfig
	reg     *registry.Registry
	book    *bidbook.Book
	budgets *budget.Ledger
	engine  *settle.Engine
	publish func(ctx context.Context, ev model.Event)
	log     logger.Logger

	phase       model.LotStatus
	current     *model.Lot
	deadline    time.Time
	timer       *time.Timer
	autoAdvance bool
	closed      bool
}

// New creates an idle session over the given components.
func New(reg *registry.Registry, book *bidbook.Book, budgets *budget.Ledger, engine *settle.Engine, cfg model.SessionConfig, opts ...Option) *Session {
	s := &Session{
		cfg:     cfg,
		reg:     reg,
		book:    book,
		budgets: budgets,
		engine:  engine,
		publish: func(context.Context, model.Event) {},
		phase:   StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Get().Named("session")
	}
	return s
}

// StartNextLot pulls the next pending lot from the registry and opens
// bidding on it. Fails when a lot is already live or the queue is drained.
func (s *Session) StartNextLot(ctx context.Context) (model.Lot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startNextLocked(ctx)
}

func (s *Session) startNextLocked(ctx context.Context) (model.Lot, error) {
	if s.closed {
		return model.Lot{}, ErrClosed
	}
	if s.current != nil {
		return model.Lot{}, ErrLotActive
	}
	lot, err := s.reg.Next(ctx)
	if err != nil {
		if errors.Is(err, registry.ErrEmpty) {
			return model.Lot{}, ErrNoPendingLots
		}
		return model.Lot{}, fmt.Errorf("registry next: %w", err)
	}

	lot.Status = model.LotOpen
	s.current = &lot
	s.phase = model.LotOpen
	s.deadline = time.Now().Add(s.cfg.BidTimeLimit)
	s.armTimer()

	metrics.RecordLotOpened()
	s.log.Info(ctx, "lot opened",
		logger.String("lot_id", lot.ID),
		logger.String("player", lot.PlayerRef),
		logger.String("base_price", lot.BasePrice.String()),
	)
	s.publish(ctx, model.Event{
		Kind:   model.EventLotOpened,
		LotID:  lot.ID,
		Amount: lot.BasePrice,
		At:     time.Now().UTC(),
		Detail: lot.PlayerRef,
	})
	return lot, nil
}

// SubmitBid validates and records a bid for the live lot. The session lock
// is held across phase check, ledger append and clock reset, so two racing
// submissions can never both become the current highest bid.
func (s *Session) SubmitBid(ctx context.Context, bidID, teamID string, amount decimal.Decimal, kind model.BidKind) (model.Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return model.Bid{}, ErrNoActiveLot
	}

	bid, err := s.book.Submit(ctx, bidbook.SubmitRequest{
		BidID:        bidID,
		LotID:        s.current.ID,
		TeamID:       teamID,
		Amount:       amount,
		Kind:         kind,
		Phase:        s.phase,
		BasePrice:    s.current.BasePrice,
		MinIncrement: s.cfg.MinimumIncrement,
	})
	if err != nil {
		// Rejections leave ledger and deadline untouched.
		return bid, err
	}

	ev := model.Event{
		Kind:   model.EventBidAccepted,
		LotID:  bid.LotID,
		TeamID: bid.TeamID,
		Seq:    bid.Seq,
		At:     time.Now().UTC(),
	}
	if kind == model.BidOpen {
		// Anti-sniping: every accepted open bid restarts the countdown.
		s.deadline = time.Now().Add(s.cfg.BidTimeLimit)
		s.armTimer()
		metrics.RecordClockReset()
		ev.Amount = bid.Amount

		if amount.GreaterThanOrEqual(s.secretThreshold()) {
			s.enterSecretWindowLocked(ctx)
		}
	} else {
		ev.Detail = "sealed"
	}
	s.publish(ctx, ev)
	return bid, nil
}

func (s *Session) secretThreshold() decimal.Decimal {
	if s.current != nil && s.current.SecretBidThreshold.Sign() > 0 {
		return s.current.SecretBidThreshold
	}
	return s.cfg.SecretBidThreshold
}

// enterSecretWindowLocked moves open -> secret_window. The window length is
// fixed; sealed submissions never extend it.
func (s *Session) enterSecretWindowLocked(ctx context.Context) {
	s.phase = model.LotSecretWindow
	s.current.Status = model.LotSecretWindow
	s.deadline = time.Now().Add(s.cfg.SecretWindow)
	s.armTimer()

	metrics.RecordSecretWindow()
	s.log.Info(ctx, "secret window opened",
		logger.String("lot_id", s.current.ID),
		logger.Duration("window", s.cfg.SecretWindow),
	)
	s.publish(ctx, model.Event{
		Kind:  model.EventSecretWindowOpened,
		LotID: s.current.ID,
		At:    time.Now().UTC(),
	})
}

// MarkSold is the admin hammer: it closes bidding immediately and settles.
func (s *Session) MarkSold(ctx context.Context) (model.SaleRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return model.SaleRecord{}, false, ErrNoActiveLot
	}
	if s.phase != model.LotOpen && s.phase != model.LotSecretWindow {
		return model.SaleRecord{}, false, ErrNoActiveLot
	}
	return s.settleLocked(ctx)
}

// Abort forces the live lot to unsold from any non-terminal state without
// settlement.
func (s *Session) Abort(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return ErrNoActiveLot
	}
	lotID := s.current.ID
	s.finishLocked(ctx, model.LotUnsold, nil)
	s.log.Warn(ctx, "lot aborted", logger.String("lot_id", lotID))
	return nil
}

// settleLocked runs settlement synchronously; the state machine does not
// reach sold until the settlement result is in hand.
func (s *Session) settleLocked(ctx context.Context) (model.SaleRecord, bool, error) {
	s.phase = model.LotSettling
	s.current.Status = model.LotSettling

	sale, sold, err := s.engine.Settle(ctx, s.current.ID)
	if err != nil {
		// Fatal for the lot, not for the service.
		s.log.Error(ctx, "settlement failed; forcing unsold",
			logger.String("lot_id", s.current.ID),
			logger.Error(err),
		)
		s.finishLocked(ctx, model.LotUnsold, nil)
		return model.SaleRecord{}, false, err
	}
	if !sold {
		s.finishLocked(ctx, model.LotUnsold, nil)
		return model.SaleRecord{}, false, nil
	}
	s.finishLocked(ctx, model.LotSold, &sale)
	return sale, true, nil
}

// finishLocked records the terminal state, releases the lot back to the
// registry and advances when configured to.
func (s *Session) finishLocked(ctx context.Context, terminal model.LotStatus, sale *model.SaleRecord) {
	lot := *s.current
	lot.Status = terminal
	s.stopTimer()

	if err := s.reg.Complete(ctx, lot.ID); err != nil {
		s.log.Error(ctx, "registry release failed", logger.String("lot_id", lot.ID), logger.Error(err))
	}

	if terminal == model.LotSold && sale != nil {
		s.log.Info(ctx, "lot sold",
			logger.String("lot_id", lot.ID),
			logger.String("team_id", sale.WinningTeamID),
			logger.String("amount", sale.FinalAmount.String()),
		)
		s.publish(ctx, model.Event{
			Kind:   model.EventLotSettled,
			LotID:  lot.ID,
			TeamID: sale.WinningTeamID,
			Amount: sale.FinalAmount,
			Seq:    sale.SettledAtSeq,
			At:     time.Now().UTC(),
		})
	} else {
		metrics.RecordLotUnsold()
		s.log.Info(ctx, "lot unsold", logger.String("lot_id", lot.ID))
		s.publish(ctx, model.Event{
			Kind:  model.EventLotUnsold,
			LotID: lot.ID,
			At:    time.Now().UTC(),
		})
	}

	s.current = nil
	s.phase = StateIdle
	s.deadline = time.Time{}

	if s.autoAdvance && !s.closed {
		if _, err := s.startNextLocked(ctx); err != nil && !errors.Is(err, ErrNoPendingLots) {
			s.log.Error(ctx, "auto-advance failed", logger.Error(err))
		}
	}
}

// armTimer points the single wakeup timer at the current deadline.
func (s *Session) armTimer() {
	d := time.Until(s.deadline)
	if s.timer == nil {
		s.timer = time.AfterFunc(d, s.onExpiry)
		return
	}
	s.timer.Reset(d)
}

func (s *Session) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
	}
}

// onExpiry fires when the wakeup timer elapses. The deadline timestamp is
// authoritative: a reset that raced the firing just re-arms the timer.
func (s *Session) onExpiry() {
	ctx := context.Background()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil || s.closed {
		return
	}
	if remaining := time.Until(s.deadline); remaining > 0 {
		s.timer.Reset(remaining)
		return
	}

	switch s.phase {
	case model.LotOpen, model.LotSecretWindow:
		if _, _, err := s.settleLocked(ctx); err != nil {
			s.log.Error(ctx, "expiry settlement failed", logger.Error(err))
		}
	default:
		// settling or terminal: nothing to do.
	}
}

// Snapshot returns a consistent view of the live state for the read path.
// Sealed amounts are never part of the snapshot.
func (s *Session) Snapshot(ctx context.Context) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{Phase: s.phase, Deadline: s.deadline}
	if s.current != nil {
		lot := *s.current
		snap.Lot = &lot
		if highest, ok := s.book.HighestOpen(ctx, lot.ID); ok {
			snap.HighestOpen = &highest
		}
		snap.SealedCount = s.book.SealedCount(ctx, lot.ID)
	}
	return snap
}

// Close stops the timer and rejects further lot starts. A live lot keeps
// its state; operators abort or settle it explicitly.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.stopTimer()
}
