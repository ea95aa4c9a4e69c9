package service

import "errors"

var (
	// ErrNotStarted is returned when the service is used before Start.
	ErrNotStarted = errors.New("service not started")
	// ErrDuplicateBid is returned when a bid ID has already been processed.
	ErrDuplicateBid = errors.New("duplicate bid id")
)
