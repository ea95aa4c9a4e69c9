// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gavelhq/gavel/internal/domain/model"
	"github.com/gavelhq/gavel/internal/domain/registry"
	"github.com/gavelhq/gavel/internal/domain/session"
	"github.com/shopspring/decimal"
)

// AdminHandler handles the operator control surface under /admin/.
type AdminHandler struct {
	deps Dependencies
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(deps Dependencies) *AdminHandler {
	return &AdminHandler{deps: deps}
}

// HandleAdmin routes the admin sub-paths. Auth runs in the middleware.
func (h *AdminHandler) HandleAdmin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	switch strings.TrimPrefix(r.URL.Path, "/admin") {
	case "/lots":
		h.handleEnqueueLot(w, r)
	case "/lots/reorder":
		h.handleReorderLots(w, r)
	case "/session/start":
		h.handleStartNext(w, r)
	case "/session/sold":
		h.handleMarkSold(w, r)
	case "/session/abort":
		h.handleAbort(w, r)
	default:
		http.NotFound(w, r)
	}
}

// lotRequest mirrors the JSON schema for POST /admin/lots.
type lotRequest struct {
	ID                 string `json:"id"`
	PlayerRef          string `json:"player_ref"`
	BasePrice          string `json:"base_price"`
	SecretBidThreshold string `json:"secret_bid_threshold,omitempty"`
}

func (l lotRequest) lot() (model.Lot, error) {
	if strings.TrimSpace(l.ID) == "" {
		return model.Lot{}, errors.New("missing id")
	}
	if strings.TrimSpace(l.PlayerRef) == "" {
		return model.Lot{}, errors.New("missing player_ref")
	}
	base, err := decimal.NewFromString(l.BasePrice)
	if err != nil || base.Sign() < 0 {
		return model.Lot{}, errors.New("invalid base_price")
	}
	lot := model.Lot{
		ID:        l.ID,
		PlayerRef: l.PlayerRef,
		BasePrice: base,
		Status:    model.LotPending,
	}
	if l.SecretBidThreshold != "" {
		threshold, err := decimal.NewFromString(l.SecretBidThreshold)
		if err != nil || !threshold.IsPositive() {
			return model.Lot{}, errors.New("invalid secret_bid_threshold")
		}
		lot.SecretBidThreshold = threshold
	}
	return lot, nil
}

func (h *AdminHandler) handleEnqueueLot(w http.ResponseWriter, r *http.Request) {
	const op = "api.admin_enqueue_lot"
	var req lotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	lot, err := req.lot()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.deps.EnqueueLot(r.Context(), lot); err != nil {
		if errors.Is(err, registry.ErrDuplicateLot) {
			writeError(w, http.StatusConflict, "duplicate_lot", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal", err)
		return
	}
	writeJSON(w, http.StatusCreated, newLotView(lot))
}

func (h *AdminHandler) handleReorderLots(w http.ResponseWriter, r *http.Request) {
	const op = "api.admin_reorder_lots"
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.deps.ReorderLots(r.Context(), req.IDs); err != nil {
		writeError(w, http.StatusConflict, "reorder_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reordered"})
}

func (h *AdminHandler) handleStartNext(w http.ResponseWriter, r *http.Request) {
	lot, err := h.deps.StartNextLot(r.Context())
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, newLotView(lot))
	case errors.Is(err, session.ErrLotActive):
		writeError(w, http.StatusConflict, "lot_active", err)
	case errors.Is(err, session.ErrNoPendingLots):
		writeError(w, http.StatusConflict, "no_pending_lots", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal", err)
	}
}

func (h *AdminHandler) handleMarkSold(w http.ResponseWriter, r *http.Request) {
	sale, sold, err := h.deps.MarkSold(r.Context())
	switch {
	case err == nil && sold:
		writeJSON(w, http.StatusOK, newSaleView(sale))
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"status": "unsold"})
	case errors.Is(err, session.ErrNoActiveLot):
		writeError(w, http.StatusConflict, "no_active_lot", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal", err)
	}
}

func (h *AdminHandler) handleAbort(w http.ResponseWriter, r *http.Request) {
	err := h.deps.AbortLot(r.Context())
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"status": "aborted"})
	case errors.Is(err, session.ErrNoActiveLot):
		writeError(w, http.StatusConflict, "no_active_lot", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal", err)
	}
}
