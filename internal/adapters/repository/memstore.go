package repository

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/okian/glade/internal/domain/model"
	"github.com/okian/glade/internal/domain/rating"
	"github.com/okian/glade/pkg/metrics"
)

type scoreKey struct {
	player string
	round  int64
}

// tenantState holds one tenant's rating data. Guarded by the MemStore mutex.
type tenantState struct {
	ratings map[string]model.PlayerRating
	rounds  map[int64][]model.NormalizedScore
	seen    map[scoreKey]struct{}
	history map[string][]model.RatingSnapshot
}

func newTenantState() *tenantState {
	return &tenantState{
		ratings: make(map[string]model.PlayerRating),
		rounds:  make(map[int64][]model.NormalizedScore),
		seen:    make(map[scoreKey]struct{}),
		history: make(map[string][]model.RatingSnapshot),
	}
}

// MemStore implements Store with mutex-guarded maps. Suitable for tests
// and single-process deployments without a database file.
type MemStore struct {
	mu      sync.RWMutex
	tenants map[string]*tenantState
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{tenants: make(map[string]*tenantState)}
}

func (s *MemStore) tenant(tenant string) *tenantState {
	t, ok := s.tenants[tenant]
	if !ok {
		t = newTenantState()
		s.tenants[tenant] = t
	}
	return t
}

// Rating returns the stored state for a player.
func (s *MemStore) Rating(_ context.Context, tenant, player string) (model.PlayerRating, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if t, ok := s.tenants[tenant]; ok {
		if r, ok := t.ratings[player]; ok {
			return r, nil
		}
	}
	return model.PlayerRating{}, ErrNotFound
}

// ListRatings returns standings ordered by conservative rating descending.
func (s *MemStore) ListRatings(_ context.Context, tenant string) ([]Standing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tenants[tenant]
	if !ok {
		return nil, nil
	}
	standings := make([]Standing, 0, len(t.ratings))
	for player, r := range t.ratings {
		standings = append(standings, Standing{
			Player:       player,
			Rating:       r.Rating,
			Deviation:    r.Deviation,
			Volatility:   r.Volatility,
			Conservative: r.Conservative(),
		})
	}
	slices.SortFunc(standings, func(a, b Standing) int {
		if c := cmp.Compare(b.Conservative, a.Conservative); c != 0 {
			return c
		}
		return cmp.Compare(a.Player, b.Player)
	})
	for i := range standings {
		standings[i].Rank = i + 1
	}
	return standings, nil
}

// RoundScores returns the scores recorded for one round in submission order.
func (s *MemStore) RoundScores(_ context.Context, tenant string, round int64) ([]model.NormalizedScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tenants[tenant]
	if !ok {
		return nil, nil
	}
	return slices.Clone(t.rounds[round]), nil
}

// Scores returns the tenant's full history ordered by round then submission time.
func (s *MemStore) Scores(_ context.Context, tenant string) ([]model.NormalizedScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tenants[tenant]
	if !ok {
		return nil, nil
	}
	var all []model.NormalizedScore
	for _, scores := range t.rounds {
		all = append(all, scores...)
	}
	slices.SortStableFunc(all, func(a, b model.NormalizedScore) int {
		if c := cmp.Compare(a.Round, b.Round); c != 0 {
			return c
		}
		if c := a.SubmittedAt.Compare(b.SubmittedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Player, b.Player)
	})
	return all, nil
}

// History returns a player's snapshot series ordered by round.
func (s *MemStore) History(_ context.Context, tenant, player string) ([]model.RatingSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tenants[tenant]
	if !ok {
		return nil, nil
	}
	snaps := slices.Clone(t.history[player])
	slices.SortFunc(snaps, func(a, b model.RatingSnapshot) int {
		return cmp.Compare(a.Round, b.Round)
	})
	return snaps, nil
}

// ApplyUpdate applies one submission changeset atomically.
func (s *MemStore) ApplyUpdate(_ context.Context, tenant string, upd rating.Update) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreOperation("apply_update", float64(time.Since(start).Milliseconds()))
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.tenant(tenant)
	key := scoreKey{player: upd.Score.Player, round: upd.Score.Round}

	// Reject before mutating anything: all-or-nothing per event.
	if _, dup := t.seen[key]; dup {
		metrics.RecordStoreError()
		return ErrDuplicateScore
	}
	for _, snap := range t.history[upd.Score.Player] {
		if snap.Round == upd.Score.Round {
			metrics.RecordStoreError()
			return ErrDuplicateSnapshot
		}
	}

	t.seen[key] = struct{}{}
	t.rounds[upd.Score.Round] = append(t.rounds[upd.Score.Round], upd.Score)
	for player, state := range upd.Ratings {
		t.ratings[player] = state
	}
	for _, snap := range upd.Snapshots {
		t.putSnapshot(snap)
	}
	return nil
}

// putSnapshot appends a snapshot, refining any earlier row for the same
// (player, round) in place. Only opponents ever hit the refinement path;
// the submitter's row was checked for duplication up front.
func (t *tenantState) putSnapshot(snap model.RatingSnapshot) {
	rows := t.history[snap.Player]
	for i, row := range rows {
		if row.Round == snap.Round {
			rows[i] = snap
			return
		}
	}
	t.history[snap.Player] = append(rows, snap)
}

// ReplaceRatings swaps the tenant's rating state and history for a
// recalculated result set.
func (s *MemStore) ReplaceRatings(_ context.Context, tenant string, res rating.Result) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreOperation("replace_ratings", float64(time.Since(start).Milliseconds()))
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.tenant(tenant)
	t.ratings = make(map[string]model.PlayerRating, len(res.Ratings))
	for player, state := range res.Ratings {
		t.ratings[player] = state
	}
	t.history = make(map[string][]model.RatingSnapshot)
	for _, snap := range res.Snapshots {
		t.history[snap.Player] = append(t.history[snap.Player], snap)
	}
	return nil
}

// Tenants lists every tenant with recorded data.
func (s *MemStore) Tenants(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tenants := make([]string, 0, len(s.tenants))
	for tenant := range s.tenants {
		tenants = append(tenants, tenant)
	}
	slices.Sort(tenants)
	return tenants, nil
}

// Counts reports how many tenants and rated players are tracked.
func (s *MemStore) Counts(_ context.Context) (int, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	players := 0
	for _, t := range s.tenants {
		players += len(t.ratings)
	}
	return len(s.tenants), players
}

// Close is a no-op for the in-memory store.
func (s *MemStore) Close() error { return nil }
