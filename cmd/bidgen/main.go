package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/gavelhq/gavel/internal/bidgen"
	"github.com/gavelhq/gavel/pkg/logger"
)

// Default configuration constants.
const (
	defaultBids        = 1000
	defaultTeams       = 10
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 10 * time.Second
	defaultRunTimeout  = 5 * time.Minute
	defaultSecretRatio = 0.1
)

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:9090", "Base URL of the coordinator")
		jwtSecret   = flag.String("secret", "dev-secret-change-me", "JWT secret matching the target")
		teams       = flag.Int("teams", defaultTeams, "Number of simulated teams")
		bids        = flag.Int("bids", defaultBids, "Number of bids to submit")
		workers     = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout     = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		secretRatio = flag.Float64("secret-ratio", defaultSecretRatio, "Fraction of bids submitted sealed")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	cfg := &bidgen.Config{
		BaseURL:     *baseURL,
		JWTSecret:   *jwtSecret,
		Teams:       *teams,
		Bids:        *bids,
		Workers:     *workers,
		Timeout:     *timeout,
		SecretRatio: *secretRatio,
		Verbose:     *verbose,
	}
	if err := bidgen.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("load run failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
