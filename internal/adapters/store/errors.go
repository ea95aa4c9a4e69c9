package store

import "errors"

var (
	// ErrNotFound is returned when a team or lot does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateSale is returned when a sale already exists for the lot
	// with a different winner or amount.
	ErrDuplicateSale = errors.New("conflicting sale record for lot")
)
