// Package model contains the domain entities shared between layers.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// LotStatus is the lifecycle state of a lot. Transitions happen only through
// the auction session state machine; sold and unsold are terminal.
type LotStatus string

const (
	LotPending      LotStatus = "pending"
	LotOpen         LotStatus = "open"
	LotSecretWindow LotStatus = "secret_window"
	LotSettling     LotStatus = "settling"
	LotSold         LotStatus = "sold"
	LotUnsold       LotStatus = "unsold"
)

// Terminal reports whether the status admits no further transitions.
func (s LotStatus) Terminal() bool {
	return s == LotSold || s == LotUnsold
}

// BidKind distinguishes public bids from sealed ones.
type BidKind string

const (
	BidOpen   BidKind = "open"
	BidSecret BidKind = "secret"
)

// Lot is a single auctionable item (a player) with one bidding lifecycle.
type Lot struct {
	ID        string
	PlayerRef string
	BasePrice decimal.Decimal
	// SecretBidThreshold overrides the session-wide threshold when positive.
	SecretBidThreshold decimal.Decimal
	Status             LotStatus
}

// Bid is an append-only ledger entry. Seq is a monotonic sequence number,
// not wall clock time; it is the sole tie-break authority.
type Bid struct {
	ID              string
	LotID           string
	TeamID          string
	Amount          decimal.Decimal
	Kind            BidKind
	Seq             uint64
	Accepted        bool
	RejectionReason string
}

// TeamBudget is the authoritative per-team balance.
type TeamBudget struct {
	TeamID   string
	Total    decimal.Decimal
	Spent    decimal.Decimal
	Reserved decimal.Decimal
}

// Remaining is total minus spent minus reserved, the spendable amount.
func (b TeamBudget) Remaining() decimal.Decimal {
	return b.Total.Sub(b.Spent).Sub(b.Reserved)
}

// SaleRecord is the immutable audit entry written exactly once per sold lot.
type SaleRecord struct {
	LotID         string
	WinningTeamID string
	FinalAmount   decimal.Decimal
	SettledAtSeq  uint64
}

// SessionConfig tunes one live auction session.
type SessionConfig struct {
	// BidTimeLimit is the open-phase countdown, reset on every accepted bid.
	BidTimeLimit time.Duration
	// SecretWindow is the fixed sealed-bid window; it never resets.
	SecretWindow time.Duration
	// SecretBidThreshold triggers the sealed window when an open bid reaches it.
	SecretBidThreshold decimal.Decimal
	// MinimumIncrement is the least amount an open bid must top the highest by.
	MinimumIncrement decimal.Decimal
}

// EventKind names the notifications emitted by the coordinator.
type EventKind string

const (
	EventLotOpened          EventKind = "lot_opened"
	EventBidAccepted        EventKind = "bid_accepted"
	EventSecretWindowOpened EventKind = "secret_window_opened"
	EventLotSettled         EventKind = "lot_settled"
	EventLotUnsold          EventKind = "lot_unsold"
	EventIntegrityViolation EventKind = "integrity_violation"
)

// Event is a fire-and-forget notification for UI and telemetry consumers.
type Event struct {
	Kind   EventKind       `json:"kind"`
	LotID  string          `json:"lot_id,omitempty"`
	TeamID string          `json:"team_id,omitempty"`
	Amount decimal.Decimal `json:"amount,omitempty"`
	Seq    uint64          `json:"seq,omitempty"`
	At     time.Time       `json:"at"`
	Detail string          `json:"detail,omitempty"`
}
