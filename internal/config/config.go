// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) initializer to build a Config with defaults.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
	"time"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// BidTimeLimitSeconds is the open-phase countdown; every accepted open
	// bid resets the remaining time to this value.
	BidTimeLimitSeconds int `koanf:"bid_time_limit_seconds"`

	// SecretWindowSeconds is the fixed sealed-bid window length.
	SecretWindowSeconds int `koanf:"secret_window_seconds"`

	// SecretBidThreshold is the open-bid amount that triggers the sealed
	// window, unless a lot carries its own override.
	SecretBidThreshold string `koanf:"secret_bid_threshold"`

	// MinimumIncrement is the least amount an open bid must exceed the
	// current highest by.
	MinimumIncrement string `koanf:"minimum_increment"`

	// EventQueueSize bounds the in-memory notification queue.
	EventQueueSize int `koanf:"event_queue_size"`

	// DispatcherCount sets the number of event dispatcher workers.
	DispatcherCount int `koanf:"dispatcher_count"`

	// DedupeSize bounds the bid-ID idempotency cache.
	DedupeSize int `koanf:"dedupe_size"`

	// DatabaseDSN is the optional PostgreSQL DSN for the tournament store.
	// When empty, an in-memory store is used.
	DatabaseDSN string `koanf:"database_dsn"`

	// JWTSecret signs team identity tokens.
	JWTSecret string `koanf:"jwt_secret"`

	// AutoAdvance opens the next pending lot automatically after settlement.
	AutoAdvance bool `koanf:"auto_advance"`

	// MaxSalesLimit caps GET /sales?limit.
	MaxSalesLimit int `koanf:"max_sales_limit"`
}

// New creates a Config using defaults. Context is accepted first to satisfy
// the project-wide convention; it is reserved for future use and is
// currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9090",
		BidTimeLimitSeconds: 30,
		SecretWindowSeconds: 60,
		SecretBidThreshold:  "50000000",
		MinimumIncrement:    "500000",
		EventQueueSize:      10_000,
		DispatcherCount:     2,
		DedupeSize:          100_000,
		JWTSecret:           "dev-secret-change-me",
		AutoAdvance:         true,
		MaxSalesLimit:       500,
	}
}

// BidTimeLimit returns the open-phase countdown as a duration.
func (c *Config) BidTimeLimit() time.Duration {
	return time.Duration(c.BidTimeLimitSeconds) * time.Second
}

// SecretWindow returns the sealed-bid window as a duration.
func (c *Config) SecretWindow() time.Duration {
	return time.Duration(c.SecretWindowSeconds) * time.Second
}
