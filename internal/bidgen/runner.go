package bidgen

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gavelhq/gavel/pkg/logger"
)

// Run executes a complete load pass: health check, token minting, bid
// flood, and a final stats readback.
func Run(ctx context.Context, cfg *Config) error {
	log := logger.Get().Named("bidgen")
	stats := &Stats{StartTime: time.Now()}

	log.Info(ctx, "starting bid load run",
		logger.String("base_url", cfg.BaseURL),
		logger.Int("teams", cfg.Teams),
		logger.Int("bids", cfg.Bids),
		logger.Int("workers", cfg.Workers),
	)

	client := newHTTPClient(cfg.Timeout)

	if err := client.getJSON(ctx, cfg.BaseURL+"/healthz", nil); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	basePrice, increment, err := currentFloor(ctx, client, cfg)
	if err != nil {
		return err
	}

	tokens, err := mintTokens(cfg)
	if err != nil {
		return err
	}
	bids := generateBids(cfg, tokens, basePrice, increment)

	if err := submitBids(ctx, cfg, client, bids, stats, log); err != nil {
		return err
	}

	elapsed := time.Since(stats.StartTime)
	log.Info(ctx, "bid load run finished",
		logger.Int64("accepted", stats.Accepted),
		logger.Int64("rejected", stats.Rejected),
		logger.Int64("duplicate", stats.Duplicate),
		logger.Int64("failed", stats.Failed),
		logger.Duration("elapsed", elapsed),
		logger.String("rate", fmt.Sprintf("%.1f bids/s", float64(cfg.Bids)/elapsed.Seconds())),
	)

	var final map[string]any
	if err := client.getJSON(ctx, cfg.BaseURL+"/stats", &final); err != nil {
		return fmt.Errorf("final stats readback failed: %w", err)
	}
	log.Info(ctx, "coordinator stats", logger.Any("stats", final))
	return nil
}

// currentFloor reads the live lot to anchor generated amounts. Falls back
// to a small default when no lot is live yet.
func currentFloor(ctx context.Context, client *httpClient, cfg *Config) (base, increment int64, err error) {
	var snap struct {
		Lot *struct {
			BasePrice string `json:"base_price"`
		} `json:"lot"`
		HighestBid *struct {
			Amount string `json:"amount"`
		} `json:"highest_bid"`
	}
	if err := client.getJSON(ctx, cfg.BaseURL+"/lots/current", &snap); err != nil {
		return 0, 0, fmt.Errorf("reading current lot: %w", err)
	}

	base = 1_000_000
	increment = 500_000
	if snap.HighestBid != nil {
		if n, err := strconv.ParseInt(snap.HighestBid.Amount, 10, 64); err == nil {
			base = n + increment
		}
	} else if snap.Lot != nil {
		if n, err := strconv.ParseInt(snap.Lot.BasePrice, 10, 64); err == nil {
			base = n
		}
	}
	return base, increment, nil
}

// submitBids floods the bid endpoint from a bounded worker group.
func submitBids(ctx context.Context, cfg *Config, client *httpClient, bids []bid, stats *Stats, log logger.Logger) error {
	url := cfg.BaseURL + "/bids"
	jobs := make(chan bid)

	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for b := range jobs {
				status, err := client.postBid(ctx, url, b)
				switch {
				case err != nil:
					atomic.AddInt64(&stats.Failed, 1)
					if cfg.Verbose {
						log.Warn(ctx, "bid failed", logger.Error(err))
					}
				case status == http.StatusOK:
					atomic.AddInt64(&stats.Accepted, 1)
				case status == http.StatusConflict:
					atomic.AddInt64(&stats.Duplicate, 1)
				case status == http.StatusUnprocessableEntity:
					atomic.AddInt64(&stats.Rejected, 1)
				default:
					atomic.AddInt64(&stats.Failed, 1)
					if cfg.Verbose {
						log.Warn(ctx, "unexpected status", logger.Int("status", status))
					}
				}
			}
		}()
	}

	for _, b := range bids {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return ctx.Err()
		case jobs <- b:
		}
	}
	close(jobs)
	wg.Wait()
	return nil
}
