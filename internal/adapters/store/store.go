// Package store is the external tournament data collaborator. The core
// hydrates budgets and the lot queue from it at session start and
// replicates debits and sale records back on settlement; it never owns
// live auction state.
package store

import (
	"context"

	"github.com/gavelhq/gavel/internal/domain/model"
	"github.com/shopspring/decimal"
)

// TeamRecord is a team's persisted budget state.
type TeamRecord struct {
	ID          string
	Name        string
	TotalBudget decimal.Decimal
	Spent       decimal.Decimal
	Reserved    decimal.Decimal
}

// LotRecord is a persisted auctionable player. Position fixes the initial
// queue order.
type LotRecord struct {
	ID                 string
	PlayerRef          string
	BasePrice          decimal.Decimal
	SecretBidThreshold decimal.Decimal
	Position           int
}

// Store is the narrow contract the coordinator consumes.
type Store interface {
	GetTeam(ctx context.Context, id string) (TeamRecord, error)
	ListTeams(ctx context.Context) ([]TeamRecord, error)
	GetLot(ctx context.Context, id string) (LotRecord, error)
	ListLots(ctx context.Context) ([]LotRecord, error)

	// ApplyDebit replicates a settlement debit onto the persisted team.
	ApplyDebit(ctx context.Context, teamID string, amount decimal.Decimal) error
	// RecordSale persists the immutable sale record. Re-recording the same
	// lot is a no-op.
	RecordSale(ctx context.Context, sale model.SaleRecord) error

	Close() error
}

// TeamBudget converts a persisted team into the ledger's budget shape.
func (t TeamRecord) TeamBudget() model.TeamBudget {
	return model.TeamBudget{
		TeamID:   t.ID,
		Total:    t.TotalBudget,
		Spent:    t.Spent,
		Reserved: t.Reserved,
	}
}

// Lot converts a persisted lot into the domain shape.
func (l LotRecord) Lot() model.Lot {
	return model.Lot{
		ID:                 l.ID,
		PlayerRef:          l.PlayerRef,
		BasePrice:          l.BasePrice,
		SecretBidThreshold: l.SecretBidThreshold,
		Status:             model.LotPending,
	}
}
