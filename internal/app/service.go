// Package app provides the core business service that implements the
// dependencies required by the HTTP API and the CLIs.
package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/glade/internal/adapters/repository"
	"github.com/okian/glade/internal/domain/glicko"
	"github.com/okian/glade/internal/domain/model"
	"github.com/okian/glade/internal/domain/parse"
	"github.com/okian/glade/internal/domain/rating"
	"github.com/okian/glade/pkg/logger"
	"github.com/okian/glade/pkg/metrics"
)

// tenantGate serializes all rating work for one tenant. The mutex spans
// the full read-decay-update-write sequence of a submission; the flag
// marks an exclusive recalculation so submissions fail fast instead of
// queueing behind a long replay.
type tenantGate struct {
	mu            sync.Mutex
	recalculating atomic.Bool
}

// SubmitResult is what a text submission returns: the parsed round and
// score plus the new state for every player the event touched.
type SubmitResult struct {
	Round   int64
	Score   int
	Ratings map[string]model.PlayerRating
}

// Service implements the rating ladder operations.
type Service struct {
	mu    sync.Mutex
	gates map[string]*tenantGate

	store  repository.Store
	engine *rating.Engine

	// Configuration
	params    glicko.Parameters
	decayRate float64

	// State
	started bool

	// Logging
	logger logger.Logger

	now func() time.Time
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the backing store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithGlickoParameters overrides the Glicko-2 system constants.
func WithGlickoParameters(p glicko.Parameters) Option {
	return func(s *Service) {
		if p.Tau > 0 && p.Tolerance > 0 && p.MaxIterations > 0 {
			s.params = p
		}
	}
}

// WithDecayRate sets the deviation growth per round of inactivity.
func WithDecayRate(c float64) Option {
	return func(s *Service) {
		if c > 0 {
			s.decayRate = c
		}
	}
}

// WithClock overrides the submission timestamp source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		gates:     make(map[string]*tenantGate),
		params:    glicko.DefaultParameters(),
		decayRate: 0, // engine default applies when unset
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.store == nil {
		s.store = repository.NewMemStore()
		s.logger.Info(ctx, "using in-memory store")
	}

	engineOpts := []rating.Option{rating.WithParameters(s.params)}
	if s.decayRate > 0 {
		engineOpts = append(engineOpts, rating.WithDecayRate(s.decayRate))
	}
	s.engine = rating.New(engineOpts...)

	s.started = true
	s.logger.Info(ctx, "rating service started",
		logger.Float64("tau", s.params.Tau),
		logger.Int("maxIterations", s.params.MaxIterations),
	)
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Error(context.Background(), "closing store", logger.Error(err))
		}
	}
	s.started = false
	s.logger.Info(context.Background(), "rating service stopped")
}

// gate returns the serialization gate for a tenant, creating it lazily.
// Cross-tenant operations never share a gate.
func (s *Service) gate(tenant string) *tenantGate {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.gates[tenant]
	if !ok {
		g = &tenantGate{}
		s.gates[tenant] = g
	}
	return g
}

// SubmitText parses pasted puzzle-result text and submits the score.
func (s *Service) SubmitText(ctx context.Context, tenant, player, text string) (SubmitResult, error) {
	round, score, err := parse.Score(text)
	if err != nil {
		metrics.RecordSubmissionRejected("unparsable")
		return SubmitResult{}, err
	}

	ratings, err := s.Submit(ctx, model.NormalizedScore{
		Tenant:      tenant,
		Player:      player,
		Round:       round,
		Score:       score,
		SubmittedAt: s.now(),
	})
	if err != nil {
		return SubmitResult{}, err
	}
	return SubmitResult{Round: round, Score: score, Ratings: ratings}, nil
}

// Submit processes one normalized score. The whole sequence, reading
// current states, decaying, updating and writing, runs under the tenant's
// gate so near-simultaneous submissions for the same round cannot lose an
// update. Rejections happen before any mutation.
func (s *Service) Submit(ctx context.Context, score model.NormalizedScore) (map[string]model.PlayerRating, error) {
	if score.Tenant == "" {
		metrics.RecordSubmissionRejected("missing_tenant")
		return nil, ErrTenantRequired
	}
	if score.Player == "" {
		metrics.RecordSubmissionRejected("missing_player")
		return nil, ErrPlayerRequired
	}
	if score.Score < model.MinScore || score.Score > model.MaxScore {
		metrics.RecordSubmissionRejected("invalid_score")
		return nil, ErrInvalidScore
	}

	g := s.gate(score.Tenant)
	if g.recalculating.Load() {
		metrics.RecordSubmissionRejected("recalculating")
		return nil, ErrRecalculationInProgress
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	participants, err := s.store.RoundScores(ctx, score.Tenant, score.Round)
	if err != nil {
		return nil, err
	}

	states, err := s.loadStates(ctx, score, participants)
	if err != nil {
		return nil, err
	}

	upd := s.engine.Apply(score, states, participants)
	if upd.NonConverged > 0 {
		for i := 0; i < upd.NonConverged; i++ {
			metrics.RecordVolatilityNonConvergence()
		}
		s.logger.Warn(ctx, "volatility solver hit iteration cap; previous volatility retained",
			logger.String("tenant", score.Tenant),
			logger.String("player", score.Player),
			logger.Int64("round", score.Round),
			logger.Int("count", upd.NonConverged),
		)
	}

	if err := s.store.ApplyUpdate(ctx, score.Tenant, upd); err != nil {
		if errors.Is(err, repository.ErrDuplicateScore) || errors.Is(err, repository.ErrDuplicateSnapshot) {
			metrics.RecordSubmissionRejected("duplicate")
		}
		return nil, err
	}

	metrics.RecordSubmissionProcessed()
	for range upd.Ratings {
		metrics.RecordRatingUpdate()
	}

	s.logger.Debug(ctx, "submission applied",
		logger.String("tenant", score.Tenant),
		logger.String("player", score.Player),
		logger.Int64("round", score.Round),
		logger.Int("score", score.Score),
		logger.Int("touched", len(upd.Ratings)),
	)
	return upd.Ratings, nil
}

// loadStates reads the stored states of the submitter and every round
// participant. Unknown players are simply absent; the engine starts them
// from defaults.
func (s *Service) loadStates(ctx context.Context, score model.NormalizedScore, participants []model.NormalizedScore) (map[string]model.PlayerRating, error) {
	states := make(map[string]model.PlayerRating, len(participants)+1)
	load := func(player string) error {
		if _, ok := states[player]; ok {
			return nil
		}
		r, err := s.store.Rating(ctx, score.Tenant, player)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil
			}
			return err
		}
		states[player] = r
		return nil
	}

	if err := load(score.Player); err != nil {
		return nil, err
	}
	for _, p := range participants {
		if err := load(p.Player); err != nil {
			return nil, err
		}
	}
	return states, nil
}

// Recalculate replays the tenant's entire history from cleared state and
// replaces stored ratings with the result. The tenant gate is held for
// the full duration; submissions arriving meanwhile are rejected with
// ErrRecalculationInProgress rather than silently interleaved.
func (s *Service) Recalculate(ctx context.Context, tenant string) (map[string]model.PlayerRating, error) {
	if tenant == "" {
		return nil, ErrTenantRequired
	}

	g := s.gate(tenant)
	if !g.recalculating.CompareAndSwap(false, true) {
		return nil, ErrRecalculationInProgress
	}
	defer g.recalculating.Store(false)

	g.mu.Lock()
	defer g.mu.Unlock()

	start := time.Now()
	scores, err := s.store.Scores(ctx, tenant)
	if err != nil {
		return nil, err
	}

	res := s.engine.Recalculate(scores)
	if res.NonConverged > 0 {
		s.logger.Warn(ctx, "volatility solver hit iteration cap during recalculation",
			logger.String("tenant", tenant),
			logger.Int("count", res.NonConverged),
		)
	}

	if err := s.store.ReplaceRatings(ctx, tenant, res); err != nil {
		return nil, err
	}

	durationMs := float64(time.Since(start).Milliseconds())
	metrics.RecordRecalculation(len(scores), durationMs)
	s.logger.Info(ctx, "recalculation complete",
		logger.String("tenant", tenant),
		logger.Int("scores", len(scores)),
		logger.Int("players", len(res.Ratings)),
		logger.Float64("durationMs", durationMs),
	)
	return res.Ratings, nil
}

// Leaderboard returns the tenant's standings ordered by conservative rating.
func (s *Service) Leaderboard(ctx context.Context, tenant string) ([]repository.Standing, error) {
	if tenant == "" {
		return nil, ErrTenantRequired
	}
	return s.store.ListRatings(ctx, tenant)
}

// PlayerHistory returns a player's snapshot series for graphing.
func (s *Service) PlayerHistory(ctx context.Context, tenant, player string) ([]model.RatingSnapshot, error) {
	if tenant == "" {
		return nil, ErrTenantRequired
	}
	if player == "" {
		return nil, ErrPlayerRequired
	}
	return s.store.History(ctx, tenant, player)
}

// Stats returns service statistics for monitoring.
func (s *Service) Stats() map[string]interface{} {
	s.mu.Lock()
	started := s.started
	store := s.store
	s.mu.Unlock()

	stats := map[string]interface{}{
		"started":       started,
		"tau":           s.params.Tau,
		"maxIterations": s.params.MaxIterations,
	}
	if started && store != nil {
		tenants, players := store.Counts(context.Background())
		stats["tenants"] = tenants
		stats["players"] = players
		metrics.UpdateTenantsTracked(tenants)
		metrics.UpdatePlayersTracked(players)
	}
	return stats
}
