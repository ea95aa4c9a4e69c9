package registry

import "errors"

// Sentinel kinds for registry errors.
var (
	ErrInvalidState = errors.New("registry misuse: lot already checked out")
	ErrEmpty        = errors.New("no pending lots")
	ErrEmptyLotID   = errors.New("lot id must not be empty")
	ErrDuplicateLot = errors.New("lot already enqueued")
	ErrUnknownLot   = errors.New("unknown lot in reorder")
)
