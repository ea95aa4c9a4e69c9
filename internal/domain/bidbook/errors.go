package bidbook

import "errors"

// Sentinel kinds for bid validation failures. All are recoverable and
// reported synchronously to the submitting caller.
var (
	ErrWrongPhase         = errors.New("wrong phase for bid kind")
	ErrBidTooLow          = errors.New("bid below required amount")
	ErrInsufficientFunds  = errors.New("bid exceeds remaining budget")
	ErrDuplicateSealedBid = errors.New("team already submitted a sealed bid")
)
