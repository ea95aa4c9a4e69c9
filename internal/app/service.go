// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gavelhq/gavel/internal/adapters/events"
	"github.com/gavelhq/gavel/internal/adapters/store"
	"github.com/gavelhq/gavel/internal/domain/bidbook"
	"github.com/gavelhq/gavel/internal/domain/budget"
	"github.com/gavelhq/gavel/internal/domain/dedupe"
	"github.com/gavelhq/gavel/internal/domain/model"
	"github.com/gavelhq/gavel/internal/domain/registry"
	"github.com/gavelhq/gavel/internal/domain/session"
	"github.com/gavelhq/gavel/internal/domain/settle"
	"github.com/gavelhq/gavel/pkg/logger"
	"github.com/gavelhq/gavel/pkg/metrics"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service wires the auction core to its collaborators and implements the
// dependencies of the HTTP API.
type Service struct {
	mu sync.RWMutex

	// Core components
	registry *registry.Registry
	budgets  *budget.Ledger
	book     *bidbook.Book
	engine   *settle.Engine
	session  *session.Session
	bus      *events.Bus
	deduper  dedupe.Deduper
	store    store.Store

	// Configuration
	sessionCfg      model.SessionConfig
	autoAdvance     bool
	queueSize       int
	dispatcherCount int
	dedupeSize      int

	// State
	started bool

	// Logging
	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		store:           store.NewMemory(),
		queueSize:       10_000,
		dispatcherCount: 2,
		dedupeSize:      100_000,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start hydrates state from the store and brings up the session, the
// settlement engine and the event bus.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting auction service...")

	s.bus = events.New(
		events.WithCapacity(s.queueSize),
		events.WithWorkers(s.dispatcherCount),
		events.WithLogger(s.logger.Named("events")),
	)
	s.bus.Start(ctx)
	// Structured-log sink; broadcast sinks register from the outside.
	eventLog := s.logger.Named("auction")
	s.bus.AddSink(events.SinkFunc(func(ctx context.Context, ev model.Event) error {
		eventLog.Info(ctx, string(ev.Kind),
			logger.String("lot_id", ev.LotID),
			logger.String("team_id", ev.TeamID),
			logger.String("amount", ev.Amount.String()),
			logger.Uint64("seq", ev.Seq),
		)
		return nil
	}))

	s.deduper = dedupe.New(dedupe.WithMaxSize(s.dedupeSize))

	s.budgets = budget.New()
	teams, err := s.store.ListTeams(ctx)
	if err != nil {
		return fmt.Errorf("hydrating teams: %w", err)
	}
	hydrated := make([]model.TeamBudget, 0, len(teams))
	for _, t := range teams {
		hydrated = append(hydrated, t.TeamBudget())
	}
	s.budgets.Hydrate(ctx, hydrated)

	s.registry = registry.New()
	lots, err := s.store.ListLots(ctx)
	if err != nil {
		return fmt.Errorf("hydrating lots: %w", err)
	}
	for _, l := range lots {
		if err := s.registry.Enqueue(ctx, l.Lot()); err != nil {
			return fmt.Errorf("enqueueing lot %s: %w", l.ID, err)
		}
	}

	s.book = bidbook.New(s.budgets)
	s.engine = settle.New(s.book, s.budgets,
		settle.WithReplicator(s.store),
		settle.WithNotifier(s.publish),
		settle.WithLogger(s.logger.Named("settle")),
	)
	s.session = session.New(s.registry, s.book, s.budgets, s.engine, s.sessionCfg,
		session.WithPublisher(s.publish),
		session.WithAutoAdvance(s.autoAdvance),
		session.WithLogger(s.logger.Named("session")),
	)

	s.started = true
	metrics.UpdateTrackedTeams(len(teams))
	metrics.UpdatePendingLots(s.registry.Len(ctx))
	s.logger.Info(ctx, "auction service started",
		logger.Int("teams", len(teams)),
		logger.Int("pending_lots", len(lots)),
		logger.Duration("bid_time_limit", s.sessionCfg.BidTimeLimit),
		logger.Duration("secret_window", s.sessionCfg.SecretWindow),
	)
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping auction service...")

	s.session.Close()
	_ = s.bus.Close()
	if err := s.store.Close(); err != nil {
		s.logger.Warn(ctx, "store close failed", logger.Error(err))
	}

	s.started = false
	s.logger.Info(ctx, "auction service stopped")
}

func (s *Service) publish(ctx context.Context, ev model.Event) {
	s.bus.Publish(ctx, ev)
	metrics.UpdateEventQueueSize(s.bus.Len())
}

// AddSink registers a delivery target for auction events.
func (s *Service) AddSink(sink events.Sink) {
	s.bus.AddSink(sink)
}

// SubmitBid validates and records a bid for the live lot. Bid IDs are
// idempotency keys: a replay of an already processed ID is refused without
// touching the ledger. An empty ID gets a generated one.
func (s *Service) SubmitBid(ctx context.Context, bidID, teamID string, amount decimal.Decimal, kind model.BidKind) (model.Bid, error) {
	if !s.ready() {
		return model.Bid{}, ErrNotStarted
	}
	if bidID == "" {
		bidID = uuid.NewString()
	}
	if s.deduper.SeenAndRecord(ctx, bidID) {
		return model.Bid{}, ErrDuplicateBid
	}

	bid, err := s.session.SubmitBid(ctx, bidID, teamID, amount, kind)
	if errors.Is(err, session.ErrNoActiveLot) {
		// Nothing was recorded for this ID; let the client retry it once a
		// lot is live.
		s.deduper.Unrecord(ctx, bidID)
	}
	return bid, err
}

// Snapshot returns the live session state.
func (s *Service) Snapshot(ctx context.Context) (session.Snapshot, error) {
	if !s.ready() {
		return session.Snapshot{}, ErrNotStarted
	}
	return s.session.Snapshot(ctx), nil
}

// History returns the append-only bid ledger for a lot, sealed amounts
// redacted.
func (s *Service) History(ctx context.Context, lotID string) ([]model.Bid, error) {
	if !s.ready() {
		return nil, ErrNotStarted
	}
	return s.book.History(ctx, lotID), nil
}

// Budgets returns every tracked team budget.
func (s *Service) Budgets(ctx context.Context) ([]model.TeamBudget, error) {
	if !s.ready() {
		return nil, ErrNotStarted
	}
	return s.budgets.Snapshot(ctx), nil
}

// Budget returns one team's budget.
func (s *Service) Budget(ctx context.Context, teamID string) (model.TeamBudget, error) {
	if !s.ready() {
		return model.TeamBudget{}, ErrNotStarted
	}
	return s.budgets.Get(ctx, teamID)
}

// Sales returns completed sale records ordered by settlement sequence.
func (s *Service) Sales(ctx context.Context, limit int) ([]model.SaleRecord, error) {
	if !s.ready() {
		return nil, ErrNotStarted
	}
	records := s.engine.Records(ctx)
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// PendingLots returns the queued lots in auction order.
func (s *Service) PendingLots(ctx context.Context) ([]model.Lot, error) {
	if !s.ready() {
		return nil, ErrNotStarted
	}
	return s.registry.Pending(ctx), nil
}

// EnqueueLot appends a lot to the pending queue.
func (s *Service) EnqueueLot(ctx context.Context, lot model.Lot) error {
	if !s.ready() {
		return ErrNotStarted
	}
	if err := s.registry.Enqueue(ctx, lot); err != nil {
		return err
	}
	metrics.UpdatePendingLots(s.registry.Len(ctx))
	return nil
}

// ReorderLots rearranges the pending queue. Every pending lot must appear
// exactly once.
func (s *Service) ReorderLots(ctx context.Context, ids []string) error {
	if !s.ready() {
		return ErrNotStarted
	}
	return s.registry.Reorder(ctx, ids)
}

// StartNextLot opens bidding on the next pending lot.
func (s *Service) StartNextLot(ctx context.Context) (model.Lot, error) {
	if !s.ready() {
		return model.Lot{}, ErrNotStarted
	}
	lot, err := s.session.StartNextLot(ctx)
	if err == nil {
		metrics.UpdatePendingLots(s.registry.Len(ctx))
	}
	return lot, err
}

// MarkSold hammers the live lot: bidding closes now and settlement runs.
func (s *Service) MarkSold(ctx context.Context) (model.SaleRecord, bool, error) {
	if !s.ready() {
		return model.SaleRecord{}, false, ErrNotStarted
	}
	return s.session.MarkSold(ctx)
}

// AbortLot forces the live lot to unsold without settlement.
func (s *Service) AbortLot(ctx context.Context) error {
	if !s.ready() {
		return ErrNotStarted
	}
	return s.session.Abort(ctx)
}

// Stats summarizes the live session for operators. Reconciled reports the
// sum(spent) == sum(sales) invariant.
type Stats struct {
	Phase        string `json:"phase"`
	CurrentLotID string `json:"current_lot_id,omitempty"`
	PendingLots  int    `json:"pending_lots"`
	TrackedTeams int    `json:"tracked_teams"`
	SalesCount   int    `json:"sales_count"`
	TotalSpent   string `json:"total_spent"`
	TotalSales   string `json:"total_sales"`
	Reconciled   bool   `json:"reconciled"`
	EventQueue   int    `json:"event_queue"`
	LedgerSeq    uint64 `json:"ledger_seq"`
}

// Stats returns operator-facing counters and the reconciliation check.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	if !s.ready() {
		return Stats{}, ErrNotStarted
	}

	snap := s.session.Snapshot(ctx)
	spent := s.budgets.TotalSpent(ctx)
	sales := s.engine.TotalSales(ctx)

	st := Stats{
		Phase:        string(snap.Phase),
		PendingLots:  s.registry.Len(ctx),
		TrackedTeams: len(s.budgets.Snapshot(ctx)),
		SalesCount:   len(s.engine.Records(ctx)),
		TotalSpent:   spent.String(),
		TotalSales:   sales.String(),
		Reconciled:   spent.Equal(sales),
		EventQueue:   s.bus.Len(),
		LedgerSeq:    s.book.Seq(),
	}
	if snap.Lot != nil {
		st.CurrentLotID = snap.Lot.ID
	}
	return st, nil
}

func (s *Service) ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}
