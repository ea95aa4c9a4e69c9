package auth

import "time"

// Option modifies the Verifier.
type Option func(*Verifier)

// WithTTL overrides the default token lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(v *Verifier) {
		if ttl > 0 {
			v.ttl = ttl
		}
	}
}
