// Package bidbook is the append-only per-lot bid ledger.
package bidbook

import (
	"context"
	"sync"

	"github.com/gavelhq/gavel/internal/domain/model"
	"github.com/gavelhq/gavel/pkg/metrics"
	"github.com/shopspring/decimal"
)

// Rejection reason labels recorded on bids and metrics.
const (
	ReasonWrongPhase         = "wrong_phase"
	ReasonBidTooLow          = "bid_too_low"
	ReasonInsufficientFunds  = "insufficient_funds"
	ReasonDuplicateSealedBid = "duplicate_sealed_bid"
)

// BudgetReader exposes the advisory budget read used during validation.
// The authoritative check happens again at settlement.
type BudgetReader interface {
	Remaining(ctx context.Context, teamID string) (decimal.Decimal, error)
}

// SubmitRequest carries one bid submission plus the lot context needed for
// validation. Phase is supplied by the session state machine, which holds
// its lock across the call so validate-and-append is atomic.
type SubmitRequest struct {
	BidID        string
	LotID        string
	TeamID       string
	Amount       decimal.Decimal
	Kind         model.BidKind
	Phase        model.LotStatus
	BasePrice    decimal.Decimal
	MinIncrement decimal.Decimal
}

type lotBook struct {
	bids         []model.Bid
	highestOpen  *model.Bid
	sealedByTeam map[string]model.Bid
}

// Book owns the bid sequence. Sequence numbers are monotonic across all
// lots and are the sole tie-break authority.
type Book struct {
	mu     sync.Mutex
	seq    uint64
	budget BudgetReader
	byLot  map[string]*lotBook
}

// New creates a bid ledger validating against the given budget reader.
func New(budget BudgetReader) *Book {
	return &Book{
		budget: budget,
		byLot:  make(map[string]*lotBook),
	}
}

func (b *Book) lot(lotID string) *lotBook {
	lb, ok := b.byLot[lotID]
	if !ok {
		lb = &lotBook{sealedByTeam: make(map[string]model.Bid)}
		b.byLot[lotID] = lb
	}
	return lb
}

// Submit validates and appends one bid in a single critical section.
// Validation order, first failure wins: phase, increment, funds, duplicate
// sealed. Rejected bids are recorded too, with their reason; rejections
// never alter the highest bid or the sequence assigned to accepted bids.
func (b *Book) Submit(ctx context.Context, req SubmitRequest) (model.Bid, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	lb := b.lot(req.LotID)

	bid := model.Bid{
		ID:     req.BidID,
		LotID:  req.LotID,
		TeamID: req.TeamID,
		Amount: req.Amount,
		Kind:   req.Kind,
	}

	reason, err := b.validate(ctx, lb, req)
	if err != nil {
		bid.RejectionReason = reason
		lb.bids = append(lb.bids, bid)
		metrics.RecordBidRejected(reason)
		return bid, err
	}

	b.seq++
	bid.Seq = b.seq
	bid.Accepted = true
	lb.bids = append(lb.bids, bid)
	if bid.Kind == model.BidOpen {
		lb.highestOpen = &lb.bids[len(lb.bids)-1]
	} else {
		lb.sealedByTeam[bid.TeamID] = bid
	}
	metrics.RecordBidAccepted()
	return bid, nil
}

func (b *Book) validate(ctx context.Context, lb *lotBook, req SubmitRequest) (string, error) {
	switch req.Kind {
	case model.BidOpen:
		if req.Phase != model.LotOpen {
			return ReasonWrongPhase, ErrWrongPhase
		}
	case model.BidSecret:
		if req.Phase != model.LotSecretWindow {
			return ReasonWrongPhase, ErrWrongPhase
		}
	default:
		return ReasonWrongPhase, ErrWrongPhase
	}

	if req.Kind == model.BidOpen {
		floor := req.BasePrice
		if lb.highestOpen != nil {
			floor = lb.highestOpen.Amount.Add(req.MinIncrement)
		}
		if req.Amount.LessThan(floor) {
			return ReasonBidTooLow, ErrBidTooLow
		}
	} else if req.Amount.Sign() <= 0 {
		return ReasonBidTooLow, ErrBidTooLow
	}

	remaining, err := b.budget.Remaining(ctx, req.TeamID)
	if err != nil || req.Amount.GreaterThan(remaining) {
		return ReasonInsufficientFunds, ErrInsufficientFunds
	}

	if req.Kind == model.BidSecret {
		if _, dup := lb.sealedByTeam[req.TeamID]; dup {
			return ReasonDuplicateSealedBid, ErrDuplicateSealedBid
		}
	}

	return "", nil
}

// HighestOpen returns the current highest accepted open bid for a lot.
func (b *Book) HighestOpen(ctx context.Context, lotID string) (model.Bid, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	lb, ok := b.byLot[lotID]
	if !ok || lb.highestOpen == nil {
		return model.Bid{}, false
	}
	return *lb.highestOpen, true
}

// Reveal returns every accepted bid for a lot, sealed amounts included.
// Only the settlement engine may call this.
func (b *Book) Reveal(ctx context.Context, lotID string) []model.Bid {
	b.mu.Lock()
	defer b.mu.Unlock()

	lb, ok := b.byLot[lotID]
	if !ok {
		return nil
	}
	out := make([]model.Bid, 0, len(lb.bids))
	for _, bid := range lb.bids {
		if bid.Accepted {
			out = append(out, bid)
		}
	}
	return out
}

// History returns the bid trail for a lot with sealed amounts redacted, so
// the read path can never leak a sealed bid before settlement.
func (b *Book) History(ctx context.Context, lotID string) []model.Bid {
	b.mu.Lock()
	defer b.mu.Unlock()

	lb, ok := b.byLot[lotID]
	if !ok {
		return nil
	}
	out := make([]model.Bid, 0, len(lb.bids))
	for _, bid := range lb.bids {
		if bid.Kind == model.BidSecret {
			bid.Amount = decimal.Zero
		}
		out = append(out, bid)
	}
	return out
}

// SealedCount returns how many sealed bids a lot has collected. The count
// is public; the amounts are not.
func (b *Book) SealedCount(ctx context.Context, lotID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	lb, ok := b.byLot[lotID]
	if !ok {
		return 0
	}
	return len(lb.sealedByTeam)
}

// Seq returns the latest assigned sequence number.
func (b *Book) Seq() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.seq
}
