package auth

import "errors"

var (
	// ErrEmptySecret is returned when the verifier is built without a secret.
	ErrEmptySecret = errors.New("jwt secret must not be empty")
	// ErrInvalidToken is returned for tokens that parse but carry no usable
	// team identity.
	ErrInvalidToken = errors.New("invalid token")
	// ErrMissingToken is returned when a request carries no bearer token.
	ErrMissingToken = errors.New("missing bearer token")
	// ErrNotAdmin is returned when an admin endpoint is called with a
	// non-admin token.
	ErrNotAdmin = errors.New("admin privileges required")
)
