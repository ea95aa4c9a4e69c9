// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gavelhq/gavel/internal/adapters/auth"
	"github.com/gavelhq/gavel/internal/adapters/store"
	service "github.com/gavelhq/gavel/internal/app"
	"github.com/gavelhq/gavel/internal/domain/budget"
	"github.com/gavelhq/gavel/internal/domain/model"
	"github.com/gavelhq/gavel/internal/domain/registry"
	"github.com/gavelhq/gavel/internal/domain/session"
	"github.com/shopspring/decimal"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	SubmitBid(ctx context.Context, bidID, teamID string, amount decimal.Decimal, kind model.BidKind) (model.Bid, error)
	Snapshot(ctx context.Context) (session.Snapshot, error)
	History(ctx context.Context, lotID string) ([]model.Bid, error)
	Budgets(ctx context.Context) ([]model.TeamBudget, error)
	Budget(ctx context.Context, teamID string) (model.TeamBudget, error)
	Sales(ctx context.Context, limit int) ([]model.SaleRecord, error)
	PendingLots(ctx context.Context) ([]model.Lot, error)
	EnqueueLot(ctx context.Context, lot model.Lot) error
	ReorderLots(ctx context.Context, ids []string) error
	StartNextLot(ctx context.Context) (model.Lot, error)
	MarkSold(ctx context.Context) (model.SaleRecord, bool, error)
	AbortLot(ctx context.Context) error
	Stats(ctx context.Context) (service.Stats, error)
}

// StreamHandler serves the live event websocket.
type StreamHandler interface {
	HandleWS(w http.ResponseWriter, r *http.Request)
}

// Server wires HTTP routes for the business API.
type Server struct {
	bidsHandler    *BidsHandler
	lotsHandler    *LotsHandler
	budgetsHandler *BudgetsHandler
	salesHandler   *SalesHandler
	adminHandler   *AdminHandler
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	verifier       *auth.Verifier
	stream         StreamHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, verifier *auth.Verifier, stream StreamHandler) *Server {
	return &Server{
		bidsHandler:    NewBidsHandler(deps),
		lotsHandler:    NewLotsHandler(deps),
		budgetsHandler: NewBudgetsHandler(deps),
		salesHandler:   NewSalesHandler(deps),
		adminHandler:   NewAdminHandler(deps),
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(deps),
		verifier:       verifier,
		stream:         stream,
	}
}

// SetSalesLimit caps GET /sales?limit from configuration.
func (s *Server) SetSalesLimit(n int) {
	s.salesHandler.SetMaxLimit(n)
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("/metrics", s.healthHandler.MetricsHandler())
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.Handle("/bids", s.verifier.Middleware(MetricsMiddleware(s.bidsHandler.HandlePostBid, "bids")))
	mux.HandleFunc("/lots/current", MetricsMiddleware(s.lotsHandler.HandleCurrentLot, "lots_current"))
	mux.HandleFunc("/lots/", MetricsMiddleware(s.lotsHandler.HandleLotBids, "lot_bids"))
	mux.HandleFunc("/lots", MetricsMiddleware(s.lotsHandler.HandlePendingLots, "lots"))
	mux.HandleFunc("/budgets/", MetricsMiddleware(s.budgetsHandler.HandleGetBudget, "budget"))
	mux.HandleFunc("/budgets", MetricsMiddleware(s.budgetsHandler.HandleGetBudgets, "budgets"))
	mux.HandleFunc("/sales", MetricsMiddleware(s.salesHandler.HandleGetSales, "sales"))

	mux.Handle("/admin/", s.verifier.AdminMiddleware(MetricsMiddleware(s.adminHandler.HandleAdmin, "admin")))

	if s.stream != nil {
		mux.HandleFunc("/stream", s.stream.HandleWS)
	}
}

// bidRequest mirrors the JSON schema for POST /bids.
type bidRequest struct {
	BidID  string `json:"bid_id"`
	Amount string `json:"amount"`
	Kind   string `json:"kind"`
}

func (b bidRequest) validate() error {
	switch {
	case strings.TrimSpace(b.Amount) == "":
		return errors.New("missing amount")
	case b.Kind != string(model.BidOpen) && b.Kind != string(model.BidSecret):
		return errors.New("kind must be open or secret")
	}
	if _, err := decimal.NewFromString(b.Amount); err != nil {
		return errors.New("invalid amount; must be a decimal string")
	}
	return nil
}

type bidResponse struct {
	BidID    string `json:"bid_id"`
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
	Seq      uint64 `json:"seq,omitempty"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// isNotFound translates upstream not-found conditions to 404.
func isNotFound(err error) bool {
	return errors.Is(err, budget.ErrUnknownTeam) ||
		errors.Is(err, registry.ErrUnknownLot) ||
		errors.Is(err, store.ErrNotFound)
}
