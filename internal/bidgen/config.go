// Package bidgen is a load generator that floods a running coordinator
// with concurrent bids from simulated teams.
package bidgen

import (
	"time"
)

// Config holds the load run parameters.
type Config struct {
	// BaseURL of the coordinator under test.
	BaseURL string
	// JWTSecret must match the target's secret so minted tokens verify.
	JWTSecret string
	// Teams is the number of simulated bidders.
	Teams int
	// Bids is the total number of bids to submit.
	Bids int
	// Workers is the number of concurrent submitters.
	Workers int
	// Timeout bounds each HTTP request.
	Timeout time.Duration
	// SecretRatio is the fraction of bids submitted sealed.
	SecretRatio float64
	// Verbose enables per-bid logging.
	Verbose bool
}

// Stats accumulates run counters.
type Stats struct {
	StartTime time.Time
	Accepted  int64
	Rejected  int64
	Duplicate int64
	Failed    int64
}
