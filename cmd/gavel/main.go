package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gavelhq/gavel/internal/adapters/auth"
	"github.com/gavelhq/gavel/internal/adapters/http/api"
	"github.com/gavelhq/gavel/internal/adapters/store"
	"github.com/gavelhq/gavel/internal/adapters/stream"
	app "github.com/gavelhq/gavel/internal/app"
	"github.com/gavelhq/gavel/internal/config"
	"github.com/gavelhq/gavel/internal/domain/model"
	"github.com/gavelhq/gavel/pkg/logger"
	"github.com/gavelhq/gavel/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "failed to open store", logger.Error(err))
		return
	}

	verifier, err := auth.NewVerifier(cfg.JWTSecret)
	if err != nil {
		log.Error(ctx, "failed to build token verifier", logger.Error(err))
		return
	}

	svc := app.New(
		app.WithLogger(log),
		app.WithStore(st),
		app.WithSessionConfig(model.SessionConfig{
			BidTimeLimit:       cfg.BidTimeLimit(),
			SecretWindow:       cfg.SecretWindow(),
			SecretBidThreshold: cfg.Threshold(),
			MinimumIncrement:   cfg.Increment(),
		}),
		app.WithAutoAdvance(cfg.AutoAdvance),
		app.WithEventQueueSize(cfg.EventQueueSize),
		app.WithDispatcherCount(cfg.DispatcherCount),
		app.WithDedupeSize(cfg.DedupeSize),
	)
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start service", logger.Error(err))
		return
	}
	defer svc.Stop()

	// Live event stream over websocket, fed from the notification bus.
	hub := stream.NewHub(log.Named("stream"))
	svc.AddSink(hub)

	mux := http.NewServeMux()
	apiServer := api.NewServer(svc, verifier, hub)
	apiServer.SetSalesLimit(cfg.MaxSalesLimit)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return hub.Run(gctx)
	})
	g.Go(func() error {
		log.Info(gctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		runServiceMetricsUpdater(gctx, svc, hub)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info(context.Background(), "shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error(context.Background(), "server exited with error", logger.Error(err))
		return
	}
	log.Info(context.Background(), "server stopped")
}

// openStore picks PostgreSQL when a DSN is configured, otherwise an
// in-memory store.
func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (store.Store, error) {
	if cfg.DatabaseDSN == "" {
		log.Warn(ctx, "no database_dsn configured; using in-memory store")
		return store.NewMemory(), nil
	}
	st, err := store.OpenGorm(cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	log.Info(ctx, "connected to tournament database")
	return st, nil
}

// runServiceMetricsUpdater refreshes the gauges that have no natural
// update point on the request path.
func runServiceMetricsUpdater(ctx context.Context, svc *app.Service, hub *stream.Hub) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.UpdateStreamClients(hub.ClientCount())
			if stats, err := svc.Stats(ctx); err == nil {
				metrics.UpdatePendingLots(stats.PendingLots)
				metrics.UpdateTrackedTeams(stats.TrackedTeams)
				metrics.UpdateEventQueueSize(stats.EventQueue)
			}
		}
	}
}
