// Package repository defines the rating store interface and errors.
package repository

import (
	"context"

	"github.com/okian/glade/internal/domain/model"
	"github.com/okian/glade/internal/domain/rating"
)

// Standing is one leaderboard row, ordered by conservative rating.
type Standing struct {
	Rank         int
	Player       string
	Rating       float64
	Deviation    float64
	Volatility   float64
	Conservative int64
}

// Store provides read/write access to per-tenant rating state. All writes
// touching one submission go through ApplyUpdate so the score row, rating
// rows and history rows land atomically or not at all.
type Store interface {
	// Rating returns the stored state for a player.
	// Returns ErrNotFound if the player has never been rated.
	Rating(ctx context.Context, tenant, player string) (model.PlayerRating, error)

	// ListRatings returns the tenant's standings ordered by conservative
	// rating descending.
	ListRatings(ctx context.Context, tenant string) ([]Standing, error)

	// RoundScores returns the scores recorded for one round in
	// submission order.
	RoundScores(ctx context.Context, tenant string, round int64) ([]model.NormalizedScore, error)

	// Scores returns the tenant's full history ordered by round then
	// submission time.
	Scores(ctx context.Context, tenant string) ([]model.NormalizedScore, error)

	// History returns a player's snapshot series ordered by round.
	History(ctx context.Context, tenant, player string) ([]model.RatingSnapshot, error)

	// ApplyUpdate applies one submission changeset atomically. Returns
	// ErrDuplicateScore when the (tenant, player, round) score already
	// exists and ErrDuplicateSnapshot when the submitter already has a
	// history row for the round; in both cases nothing is written.
	ApplyUpdate(ctx context.Context, tenant string, upd rating.Update) error

	// ReplaceRatings swaps the tenant's rating state and history for a
	// recalculated result set. Stored scores are untouched.
	ReplaceRatings(ctx context.Context, tenant string, res rating.Result) error

	// Tenants lists every tenant with recorded scores.
	Tenants(ctx context.Context) ([]string, error)

	// Counts reports how many tenants and rated players are tracked.
	Counts(ctx context.Context) (tenants, players int)

	// Close releases underlying resources.
	Close() error
}
