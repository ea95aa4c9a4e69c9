package budget

import "errors"

// Sentinel kinds for budget ledger errors.
var (
	ErrUnknownTeam       = errors.New("unknown team")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("invalid amount")
)
