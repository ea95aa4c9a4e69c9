// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gavelhq/gavel/internal/adapters/auth"
	service "github.com/gavelhq/gavel/internal/app"
	"github.com/gavelhq/gavel/internal/domain/bidbook"
	"github.com/gavelhq/gavel/internal/domain/model"
	"github.com/gavelhq/gavel/internal/domain/session"
	"github.com/shopspring/decimal"
)

// BidsHandler handles bid submissions.
type BidsHandler struct {
	deps Dependencies
}

// NewBidsHandler creates a new bids handler.
func NewBidsHandler(deps Dependencies) *BidsHandler {
	return &BidsHandler{deps: deps}
}

// HandlePostBid handles POST /bids requests. The submitting team comes
// from the verified token, never from the body.
func (h *BidsHandler) HandlePostBid(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_bid"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	teamID := auth.TeamID(r.Context())
	if teamID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", auth.ErrMissingToken)
		return
	}

	var req bidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	amount, _ := decimal.NewFromString(req.Amount)
	bid, err := h.deps.SubmitBid(r.Context(), req.BidID, teamID, amount, model.BidKind(req.Kind))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, bidResponse{BidID: bid.ID, Accepted: true, Seq: bid.Seq})
	case errors.Is(err, service.ErrDuplicateBid):
		writeJSON(w, http.StatusConflict, bidResponse{BidID: req.BidID, Accepted: false, Reason: "duplicate_bid_id"})
	case errors.Is(err, session.ErrNoActiveLot):
		writeError(w, http.StatusConflict, "no_active_lot", err)
	case isRejection(err):
		// Validation rejections are part of the protocol, not server faults.
		writeJSON(w, http.StatusUnprocessableEntity, bidResponse{
			BidID:    bid.ID,
			Accepted: false,
			Reason:   bid.RejectionReason,
		})
	default:
		writeError(w, http.StatusInternalServerError, "internal", err)
	}
}

func isRejection(err error) bool {
	return errors.Is(err, bidbook.ErrWrongPhase) ||
		errors.Is(err, bidbook.ErrBidTooLow) ||
		errors.Is(err, bidbook.ErrInsufficientFunds) ||
		errors.Is(err, bidbook.ErrDuplicateSealedBid)
}
