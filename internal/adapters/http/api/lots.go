// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gavelhq/gavel/internal/domain/model"
	"github.com/gavelhq/gavel/internal/domain/session"
)

// lotView mirrors the read shape for lot queries.
type lotView struct {
	ID        string `json:"id"`
	PlayerRef string `json:"player_ref"`
	BasePrice string `json:"base_price"`
	Status    string `json:"status"`
}

// bidView mirrors the read shape for ledger queries. Sealed amounts arrive
// already redacted from the ledger.
type bidView struct {
	ID       string `json:"id"`
	TeamID   string `json:"team_id"`
	Amount   string `json:"amount"`
	Kind     string `json:"kind"`
	Seq      uint64 `json:"seq"`
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

// snapshotView mirrors the read shape for GET /lots/current.
type snapshotView struct {
	Phase       string   `json:"phase"`
	Lot         *lotView `json:"lot,omitempty"`
	Deadline    string   `json:"deadline,omitempty"`
	RemainingMS int64    `json:"remaining_ms"`
	HighestBid  *bidView `json:"highest_bid,omitempty"`
	SealedCount int      `json:"sealed_count"`
}

func newLotView(l model.Lot) lotView {
	return lotView{
		ID:        l.ID,
		PlayerRef: l.PlayerRef,
		BasePrice: l.BasePrice.String(),
		Status:    string(l.Status),
	}
}

func newBidView(b model.Bid) bidView {
	return bidView{
		ID:       b.ID,
		TeamID:   b.TeamID,
		Amount:   b.Amount.String(),
		Kind:     string(b.Kind),
		Seq:      b.Seq,
		Accepted: b.Accepted,
		Reason:   b.RejectionReason,
	}
}

func newSnapshotView(snap session.Snapshot) snapshotView {
	view := snapshotView{
		Phase:       string(snap.Phase),
		SealedCount: snap.SealedCount,
	}
	if snap.Lot != nil {
		lot := newLotView(*snap.Lot)
		view.Lot = &lot
	}
	if !snap.Deadline.IsZero() {
		view.Deadline = snap.Deadline.UTC().Format(time.RFC3339Nano)
		if remaining := time.Until(snap.Deadline); remaining > 0 {
			view.RemainingMS = remaining.Milliseconds()
		}
	}
	if snap.HighestOpen != nil {
		bid := newBidView(*snap.HighestOpen)
		view.HighestBid = &bid
	}
	return view
}

// LotsHandler handles lot read requests.
type LotsHandler struct {
	deps Dependencies
}

// NewLotsHandler creates a new lots handler.
func NewLotsHandler(deps Dependencies) *LotsHandler {
	return &LotsHandler{deps: deps}
}

// HandleCurrentLot handles GET /lots/current requests.
func (h *LotsHandler) HandleCurrentLot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	snap, err := h.deps.Snapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, newSnapshotView(snap))
}

// HandlePendingLots handles GET /lots requests.
func (h *LotsHandler) HandlePendingLots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	lots, err := h.deps.PendingLots(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
		return
	}
	views := make([]lotView, 0, len(lots))
	for _, l := range lots {
		views = append(views, newLotView(l))
	}
	writeJSON(w, http.StatusOK, views)
}

// HandleLotBids handles GET /lots/{id}/bids requests.
func (h *LotsHandler) HandleLotBids(w http.ResponseWriter, r *http.Request) {
	const op = "api.lot_bids"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/lots/")
	lotID, ok := strings.CutSuffix(rest, "/bids")
	if !ok || lotID == "" || strings.Contains(lotID, "/") {
		writeError(w, http.StatusNotFound, "not_found", NewKind(op, ErrNotFound))
		return
	}
	bids, err := h.deps.History(r.Context(), lotID)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
		return
	}
	views := make([]bidView, 0, len(bids))
	for _, b := range bids {
		views = append(views, newBidView(b))
	}
	writeJSON(w, http.StatusOK, views)
}
