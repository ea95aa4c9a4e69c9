package session

import "errors"

// Sentinel kinds for session errors.
var (
	ErrNoActiveLot   = errors.New("no lot is live")
	ErrLotActive     = errors.New("a lot is already live")
	ErrNoPendingLots = errors.New("no pending lots to open")
	ErrClosed        = errors.New("session closed")
)
