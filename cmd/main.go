package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/glade/internal/adapters/http/api"
	"github.com/okian/glade/internal/adapters/repository"
	"github.com/okian/glade/internal/app"
	"github.com/okian/glade/internal/config"
	"github.com/okian/glade/pkg/logger"
	"github.com/okian/glade/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout          = 10 * time.Second
	writeTimeout         = 30 * time.Second
	idleTimeout          = 60 * time.Second
	readHeaderTimeout    = 5 * time.Second
	shutdownTimeout      = 30 * time.Second
	statsRefreshInterval = 10 * time.Second
)

func main() {
	// Initialize logging
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

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

	// Select the store: SQLite when a path is configured, memory otherwise.
	var store repository.Store
	if cfg.DBPath != "" {
		sqlStore, err := repository.Open(cfg.DBPath)
		if err != nil {
			log.Error(ctx, "failed to open sqlite store", logger.String("path", cfg.DBPath), logger.Error(err))
			return
		}
		store = sqlStore
		log.Info(ctx, "using sqlite store", logger.String("path", cfg.DBPath))
	} else {
		store = repository.NewMemStore()
		log.Info(ctx, "using in-memory store")
	}

	// Create and start the service with configuration options
	svc := app.New(
		app.WithLogger(log),
		app.WithStore(store),
		app.WithGlickoParameters(cfg.GlickoParameters()),
		app.WithDecayRate(cfg.DecayPerRound),
	)
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start service", logger.Error(err))
		return
	}
	defer svc.Stop()

	// Keep the tenant/player gauges fresh.
	go refreshStats(ctx, svc)

	// HTTP mux and routes.
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	apiServer := api.NewServer(svc, svc, cfg.CORSOrigin)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info(context.Background(), "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "graceful shutdown failed", logger.Error(err))
	}
}

// refreshStats periodically refreshes the tracked-entity gauges.
func refreshStats(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(statsRefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = svc.Stats()
		}
	}
}
