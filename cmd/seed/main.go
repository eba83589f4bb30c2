// Command seed posts synthetic score submissions to a running instance.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/glade/internal/seed"
	"github.com/okian/glade/pkg/logger"
)

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "base URL of the service")
	tenant := flag.String("tenant", "seed-demo", "tenant key to submit under")
	players := flag.Int("players", 8, "number of synthetic players")
	rounds := flag.Int("rounds", 30, "number of consecutive rounds to fill")
	firstRound := flag.Int64("first-round", 1400, "round number the run starts at")
	skipRate := flag.Float64("skip-rate", 0.2, "probability a player skips a round")
	timeout := flag.Duration("timeout", 10*time.Second, "HTTP request timeout")
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := &seed.Config{
		BaseURL:    *baseURL,
		Tenant:     *tenant,
		Players:    *players,
		Rounds:     *rounds,
		FirstRound: *firstRound,
		SkipRate:   *skipRate,
		Timeout:    *timeout,
	}
	if _, err := seed.Run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "seed run failed", logger.Error(err))
		os.Exit(1)
	}
}
