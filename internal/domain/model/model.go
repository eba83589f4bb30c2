// Package model contains domain models passed between layers.
package model

import (
	"math"
	"time"
)

// Rating defaults and bounds.
const (
	DefaultRating     = 1500.0
	DefaultDeviation  = 350.0
	DefaultVolatility = 0.06

	MinDeviation = 50.0
	MaxDeviation = 350.0

	// Score bounds for a normalized daily-puzzle result.
	// 1 is a first-guess solve, 7 is a failed puzzle.
	MinScore = 1
	MaxScore = 7
)

// NormalizedScore is one player's result for one round, already parsed
// and validated by the submission layer.
type NormalizedScore struct {
	Tenant      string
	Player      string
	Round       int64
	Score       int
	SubmittedAt time.Time // ordering marker within a round
}

// PlayerRating is the mutable Glicko-2 state for one (tenant, player).
// LastPlayed is the round number of the most recent update; 0 means the
// player has never been rated.
type PlayerRating struct {
	Rating     float64
	Deviation  float64
	Volatility float64
	LastPlayed int64
}

// NewPlayerRating returns the default state a player starts from.
func NewPlayerRating() PlayerRating {
	return PlayerRating{
		Rating:     DefaultRating,
		Deviation:  DefaultDeviation,
		Volatility: DefaultVolatility,
	}
}

// Conservative returns the pessimistic display rating, rating - 2*RD,
// rewarding both skill and consistency.
func (r PlayerRating) Conservative() int64 {
	return int64(math.Floor(r.Rating - 2*r.Deviation))
}

// RatingSnapshot is an immutable history row recorded after the update
// caused by one round. Unique on (tenant, player, round).
type RatingSnapshot struct {
	Player       string
	Round        int64
	Rating       float64
	Deviation    float64
	Conservative int64
}
