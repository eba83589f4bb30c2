package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/okian/glade/pkg/logger"
)

// Run executes a complete seeding pass: health check, generation, and
// sequential submission. Submissions stay sequential on purpose: the
// incremental update path is order-sensitive, and a deterministic order
// makes reruns comparable.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	log := logger.Get().Named("seed")
	stats := &Stats{StartTime: time.Now()}

	log.Info(ctx, "starting seed run",
		logger.String("baseURL", cfg.BaseURL),
		logger.String("tenant", cfg.Tenant),
		logger.Int("players", cfg.Players),
		logger.Int("rounds", cfg.Rounds),
	)

	client := &http.Client{Timeout: cfg.Timeout}

	if err := checkHealth(ctx, client, cfg.BaseURL); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // demo data, not crypto
	subs := generate(cfg, rng)
	stats.Generated = len(subs)

	for _, sub := range subs {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		status, err := post(ctx, client, cfg, sub)
		switch {
		case err != nil:
			stats.Failed++
			log.Warn(ctx, "submission failed", logger.String("player", sub.Player), logger.Error(err))
		case status == http.StatusConflict:
			stats.Duplicate++
		case status >= http.StatusBadRequest:
			stats.Failed++
			log.Warn(ctx, "submission rejected", logger.String("player", sub.Player), logger.Int("status", status))
		default:
			stats.Successful++
		}
	}

	stats.Duration = time.Since(stats.StartTime)
	log.Info(ctx, "seed run complete",
		logger.Int("generated", stats.Generated),
		logger.Int("successful", stats.Successful),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("failed", stats.Failed),
		logger.Duration("duration", stats.Duration),
	)
	return stats, nil
}

// checkHealth verifies the service is running before flooding it.
func checkHealth(ctx context.Context, client *http.Client, baseURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/healthz", nil)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("connect to service: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected health status %d", resp.StatusCode)
	}
	return nil
}

// post submits one score and returns the HTTP status.
func post(ctx context.Context, client *http.Client, cfg *Config, sub Submission) (int, error) {
	body, err := json.Marshal(sub)
	if err != nil {
		return 0, fmt.Errorf("marshal submission: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.BaseURL+"/api/scores", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tenant-Key", cfg.Tenant)

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}
