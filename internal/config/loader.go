package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/shopspring/decimal"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New(ctx))
//  2. file (YAML) if GAVEL_CONFIG is set
//  3. env (prefix GAVEL_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv("GAVEL_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: GAVEL_ADDR, GAVEL_BID_TIME_LIMIT_SECONDS, ...
	// Map env keys like GAVEL_MINIMUM_INCREMENT -> minimum_increment (flat
	// keys); preserve underscores to match the koanf tags on the struct.
	envProvider := env.Provider("GAVEL_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "gavel_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.BidTimeLimitSeconds <= 0 {
		return fmt.Errorf("%w: bid_time_limit_seconds must be positive", ErrInvalidConfig)
	}
	if c.SecretWindowSeconds <= 0 {
		return fmt.Errorf("%w: secret_window_seconds must be positive", ErrInvalidConfig)
	}
	for _, field := range []struct {
		name  string
		value string
	}{
		{"secret_bid_threshold", c.SecretBidThreshold},
		{"minimum_increment", c.MinimumIncrement},
	} {
		d, err := decimal.NewFromString(field.value)
		if err != nil {
			return fmt.Errorf("%w: %s is not a valid amount: %w", ErrInvalidConfig, field.name, err)
		}
		if !d.IsPositive() {
			return fmt.Errorf("%w: %s must be positive", ErrInvalidConfig, field.name)
		}
	}
	return nil
}

// Threshold parses SecretBidThreshold. Load has already validated it.
func (c *Config) Threshold() decimal.Decimal {
	d, _ := decimal.NewFromString(c.SecretBidThreshold)
	return d
}

// Increment parses MinimumIncrement. Load has already validated it.
func (c *Config) Increment() decimal.Decimal {
	d, _ := decimal.NewFromString(c.MinimumIncrement)
	return d
}
