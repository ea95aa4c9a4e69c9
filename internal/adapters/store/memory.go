package store

import (
	"context"
	"sort"
	"sync"

	"github.com/gavelhq/gavel/internal/domain/model"
	"github.com/shopspring/decimal"
)

// Memory is an in-process Store used when no database DSN is configured
// and in tests.
type Memory struct {
	mu    sync.RWMutex
	teams map[string]TeamRecord
	lots  map[string]LotRecord
	sales map[string]model.SaleRecord
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		teams: make(map[string]TeamRecord),
		lots:  make(map[string]LotRecord),
		sales: make(map[string]model.SaleRecord),
	}
}

// SeedTeam inserts or replaces a team record.
func (m *Memory) SeedTeam(t TeamRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teams[t.ID] = t
}

// SeedLot inserts or replaces a lot record.
func (m *Memory) SeedLot(l LotRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lots[l.ID] = l
}

func (m *Memory) GetTeam(_ context.Context, id string) (TeamRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.teams[id]
	if !ok {
		return TeamRecord{}, ErrNotFound
	}
	return t, nil
}

func (m *Memory) ListTeams(context.Context) ([]TeamRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]TeamRecord, 0, len(m.teams))
	for _, t := range m.teams {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) GetLot(_ context.Context, id string) (LotRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.lots[id]
	if !ok {
		return LotRecord{}, ErrNotFound
	}
	return l, nil
}

func (m *Memory) ListLots(context.Context) ([]LotRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]LotRecord, 0, len(m.lots))
	for _, l := range m.lots {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (m *Memory) ApplyDebit(_ context.Context, teamID string, amount decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.teams[teamID]
	if !ok {
		return ErrNotFound
	}
	t.Spent = t.Spent.Add(amount)
	m.teams[teamID] = t
	return nil
}

func (m *Memory) RecordSale(_ context.Context, sale model.SaleRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sales[sale.LotID]; ok {
		if existing.WinningTeamID != sale.WinningTeamID || !existing.FinalAmount.Equal(sale.FinalAmount) {
			return ErrDuplicateSale
		}
		return nil
	}
	m.sales[sale.LotID] = sale
	return nil
}

// Sales returns recorded sales sorted by lot ID.
func (m *Memory) Sales() []model.SaleRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.SaleRecord, 0, len(m.sales))
	for _, s := range m.sales {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LotID < out[j].LotID })
	return out
}

func (m *Memory) Close() error { return nil }
