// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strings"

	"github.com/gavelhq/gavel/internal/domain/model"
)

// budgetView mirrors the read shape for budget queries.
type budgetView struct {
	TeamID    string `json:"team_id"`
	Total     string `json:"total"`
	Spent     string `json:"spent"`
	Reserved  string `json:"reserved"`
	Remaining string `json:"remaining"`
}

func newBudgetView(b model.TeamBudget) budgetView {
	return budgetView{
		TeamID:    b.TeamID,
		Total:     b.Total.String(),
		Spent:     b.Spent.String(),
		Reserved:  b.Reserved.String(),
		Remaining: b.Remaining().String(),
	}
}

// BudgetsHandler handles budget read requests.
type BudgetsHandler struct {
	deps Dependencies
}

// NewBudgetsHandler creates a new budgets handler.
func NewBudgetsHandler(deps Dependencies) *BudgetsHandler {
	return &BudgetsHandler{deps: deps}
}

// HandleGetBudgets handles GET /budgets requests.
func (h *BudgetsHandler) HandleGetBudgets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	budgets, err := h.deps.Budgets(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
		return
	}
	views := make([]budgetView, 0, len(budgets))
	for _, b := range budgets {
		views = append(views, newBudgetView(b))
	}
	writeJSON(w, http.StatusOK, views)
}

// HandleGetBudget handles GET /budgets/{teamID} requests.
func (h *BudgetsHandler) HandleGetBudget(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_budget"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	teamID := strings.TrimPrefix(r.URL.Path, "/budgets/")
	if teamID == "" || strings.Contains(teamID, "/") {
		writeError(w, http.StatusNotFound, "not_found", NewKind(op, ErrNotFound))
		return
	}
	b, err := h.deps.Budget(r.Context(), teamID)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, newBudgetView(b))
}
