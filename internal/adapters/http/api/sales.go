// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strconv"

	"github.com/gavelhq/gavel/internal/domain/model"
)

// defaultSalesLimit caps GET /sales when no limit is given.
const defaultSalesLimit = 100

// saleView mirrors the read shape for sale queries.
type saleView struct {
	LotID         string `json:"lot_id"`
	WinningTeamID string `json:"winning_team_id"`
	FinalAmount   string `json:"final_amount"`
	SettledAtSeq  uint64 `json:"settled_at_seq"`
}

func newSaleView(s model.SaleRecord) saleView {
	return saleView{
		LotID:         s.LotID,
		WinningTeamID: s.WinningTeamID,
		FinalAmount:   s.FinalAmount.String(),
		SettledAtSeq:  s.SettledAtSeq,
	}
}

// SalesHandler handles sale record read requests.
type SalesHandler struct {
	deps     Dependencies
	maxLimit int
}

// NewSalesHandler creates a new sales handler.
func NewSalesHandler(deps Dependencies) *SalesHandler {
	return &SalesHandler{deps: deps, maxLimit: defaultSalesLimit}
}

// SetMaxLimit overrides the limit cap from configuration.
func (h *SalesHandler) SetMaxLimit(n int) {
	if n > 0 {
		h.maxLimit = n
	}
}

// HandleGetSales handles GET /sales?limit=N requests.
func (h *SalesHandler) HandleGetSales(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_sales"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	limit := h.maxLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		if n < limit {
			limit = n
		}
	}
	sales, err := h.deps.Sales(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
		return
	}
	views := make([]saleView, 0, len(sales))
	for _, s := range sales {
		views = append(views, newSaleView(s))
	}
	writeJSON(w, http.StatusOK, views)
}
