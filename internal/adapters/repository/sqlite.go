package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/okian/glade/internal/domain/model"
	"github.com/okian/glade/internal/domain/rating"
	"github.com/okian/glade/pkg/metrics"
)

// schema is applied on Open. UNIQUE keys carry the duplicate rejection;
// transactions carry per-submission atomicity.
const schema = `
CREATE TABLE IF NOT EXISTS scores (
    tenant       TEXT    NOT NULL,
    player       TEXT    NOT NULL,
    round        INTEGER NOT NULL,
    score        INTEGER NOT NULL,
    submitted_at INTEGER NOT NULL,
    PRIMARY KEY (tenant, player, round)
);
CREATE INDEX IF NOT EXISTS idx_scores_round ON scores (tenant, round, submitted_at);

CREATE TABLE IF NOT EXISTS player_ratings (
    tenant      TEXT NOT NULL,
    player      TEXT NOT NULL,
    rating      REAL NOT NULL,
    deviation   REAL NOT NULL,
    volatility  REAL NOT NULL,
    last_played INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (tenant, player)
);

CREATE TABLE IF NOT EXISTS rating_history (
    tenant       TEXT    NOT NULL,
    player       TEXT    NOT NULL,
    round        INTEGER NOT NULL,
    rating       REAL    NOT NULL,
    deviation    REAL    NOT NULL,
    conservative INTEGER NOT NULL,
    PRIMARY KEY (tenant, player, round)
);
`

// SQLiteStore persists rating state in SQLite via the CGo-free driver.
type SQLiteStore struct {
	sqlDB *sql.DB

	busyTimeout time.Duration
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens (or creates) a SQLite rating store and applies the schema.
func Open(path string, opts ...SQLiteOption) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	s := &SQLiteStore{busyTimeout: defaultBusyTimeout}
	for _, opt := range opts {
		opt(s)
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		filepath.Clean(path), s.busyTimeout.Milliseconds())
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	s.sqlDB = sqlDB
	return s, nil
}

// Close closes the SQLite handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// isConstraint reports whether err is a primary-key or unique violation.
func isConstraint(err error) bool {
	var serr *msqlite.Error
	if errors.As(err, &serr) {
		code := serr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY || code == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}

// Rating returns the stored state for a player.
func (s *SQLiteStore) Rating(ctx context.Context, tenant, player string) (model.PlayerRating, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT rating, deviation, volatility, last_played
		 FROM player_ratings WHERE tenant = ? AND player = ?`,
		tenant, player)

	var r model.PlayerRating
	if err := row.Scan(&r.Rating, &r.Deviation, &r.Volatility, &r.LastPlayed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.PlayerRating{}, ErrNotFound
		}
		return model.PlayerRating{}, fmt.Errorf("query rating: %w", err)
	}
	return r, nil
}

// ListRatings returns standings ordered by conservative rating descending.
func (s *SQLiteStore) ListRatings(ctx context.Context, tenant string) ([]Standing, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT player, rating, deviation, volatility
		 FROM player_ratings WHERE tenant = ?
		 ORDER BY (rating - 2 * deviation) DESC, player ASC`,
		tenant)
	if err != nil {
		return nil, fmt.Errorf("query standings: %w", err)
	}
	defer rows.Close()

	var standings []Standing
	for rows.Next() {
		var st Standing
		if err := rows.Scan(&st.Player, &st.Rating, &st.Deviation, &st.Volatility); err != nil {
			return nil, fmt.Errorf("scan standing: %w", err)
		}
		st.Conservative = model.PlayerRating{Rating: st.Rating, Deviation: st.Deviation}.Conservative()
		st.Rank = len(standings) + 1
		standings = append(standings, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate standings: %w", err)
	}
	return standings, nil
}

func scanScores(rows *sql.Rows, tenant string) ([]model.NormalizedScore, error) {
	var scores []model.NormalizedScore
	for rows.Next() {
		var sc model.NormalizedScore
		var submitted int64
		if err := rows.Scan(&sc.Player, &sc.Round, &sc.Score, &submitted); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		sc.Tenant = tenant
		sc.SubmittedAt = fromMillis(submitted)
		scores = append(scores, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scores: %w", err)
	}
	return scores, nil
}

// RoundScores returns the scores recorded for one round in submission order.
func (s *SQLiteStore) RoundScores(ctx context.Context, tenant string, round int64) ([]model.NormalizedScore, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT player, round, score, submitted_at
		 FROM scores WHERE tenant = ? AND round = ?
		 ORDER BY submitted_at ASC, player ASC`,
		tenant, round)
	if err != nil {
		return nil, fmt.Errorf("query round scores: %w", err)
	}
	defer rows.Close()
	return scanScores(rows, tenant)
}

// Scores returns the tenant's full history ordered by round then submission time.
func (s *SQLiteStore) Scores(ctx context.Context, tenant string) ([]model.NormalizedScore, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT player, round, score, submitted_at
		 FROM scores WHERE tenant = ?
		 ORDER BY round ASC, submitted_at ASC, player ASC`,
		tenant)
	if err != nil {
		return nil, fmt.Errorf("query scores: %w", err)
	}
	defer rows.Close()
	return scanScores(rows, tenant)
}

// History returns a player's snapshot series ordered by round.
func (s *SQLiteStore) History(ctx context.Context, tenant, player string) ([]model.RatingSnapshot, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT round, rating, deviation, conservative
		 FROM rating_history WHERE tenant = ? AND player = ?
		 ORDER BY round ASC`,
		tenant, player)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var snaps []model.RatingSnapshot
	for rows.Next() {
		snap := model.RatingSnapshot{Player: player}
		if err := rows.Scan(&snap.Round, &snap.Rating, &snap.Deviation, &snap.Conservative); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return snaps, nil
}

// ApplyUpdate applies one submission changeset in a single transaction.
func (s *SQLiteStore) ApplyUpdate(ctx context.Context, tenant string, upd rating.Update) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreOperation("apply_update", float64(time.Since(start).Milliseconds()))
	}()

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO scores (tenant, player, round, score, submitted_at)
		 VALUES (?, ?, ?, ?, ?)`,
		tenant, upd.Score.Player, upd.Score.Round, upd.Score.Score, toMillis(upd.Score.SubmittedAt))
	if err != nil {
		if isConstraint(err) {
			return ErrDuplicateScore
		}
		metrics.RecordStoreError()
		return fmt.Errorf("insert score: %w", err)
	}

	for _, snap := range upd.Snapshots {
		if snap.Player == upd.Score.Player {
			// Strict insert: the submitter's row is the idempotency guard.
			_, err = tx.ExecContext(ctx,
				`INSERT INTO rating_history (tenant, player, round, rating, deviation, conservative)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				tenant, snap.Player, snap.Round, snap.Rating, snap.Deviation, snap.Conservative)
			if err != nil {
				if isConstraint(err) {
					return ErrDuplicateSnapshot
				}
				metrics.RecordStoreError()
				return fmt.Errorf("insert snapshot: %w", err)
			}
			continue
		}
		// Opponent rows refine any earlier snapshot for the round.
		_, err = tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO rating_history (tenant, player, round, rating, deviation, conservative)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			tenant, snap.Player, snap.Round, snap.Rating, snap.Deviation, snap.Conservative)
		if err != nil {
			metrics.RecordStoreError()
			return fmt.Errorf("refine snapshot: %w", err)
		}
	}

	for player, state := range upd.Ratings {
		_, err = tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO player_ratings (tenant, player, rating, deviation, volatility, last_played)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			tenant, player, state.Rating, state.Deviation, state.Volatility, state.LastPlayed)
		if err != nil {
			metrics.RecordStoreError()
			return fmt.Errorf("upsert rating: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// ReplaceRatings swaps the tenant's rating state and history for a
// recalculated result set, in a single transaction. Scores are untouched.
func (s *SQLiteStore) ReplaceRatings(ctx context.Context, tenant string, res rating.Result) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreOperation("replace_ratings", float64(time.Since(start).Milliseconds()))
	}()

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM rating_history WHERE tenant = ?`, tenant); err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("clear history: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM player_ratings WHERE tenant = ?`, tenant); err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("clear ratings: %w", err)
	}

	for player, state := range res.Ratings {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO player_ratings (tenant, player, rating, deviation, volatility, last_played)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			tenant, player, state.Rating, state.Deviation, state.Volatility, state.LastPlayed)
		if err != nil {
			metrics.RecordStoreError()
			return fmt.Errorf("insert rating: %w", err)
		}
	}
	for _, snap := range res.Snapshots {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO rating_history (tenant, player, round, rating, deviation, conservative)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			tenant, snap.Player, snap.Round, snap.Rating, snap.Deviation, snap.Conservative)
		if err != nil {
			metrics.RecordStoreError()
			return fmt.Errorf("insert snapshot: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Tenants lists every tenant with recorded scores.
func (s *SQLiteStore) Tenants(ctx context.Context) ([]string, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT DISTINCT tenant FROM scores ORDER BY tenant ASC`)
	if err != nil {
		return nil, fmt.Errorf("query tenants: %w", err)
	}
	defer rows.Close()

	var tenants []string
	for rows.Next() {
		var tenant string
		if err := rows.Scan(&tenant); err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		tenants = append(tenants, tenant)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tenants: %w", err)
	}
	return tenants, nil
}

// Counts reports how many tenants and rated players are tracked.
func (s *SQLiteStore) Counts(ctx context.Context) (int, int) {
	var tenants, players int
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT tenant), COUNT(*) FROM player_ratings`)
	if err := row.Scan(&tenants, &players); err != nil {
		return 0, 0
	}
	return tenants, players
}
