// Package match derives pairwise outcomes from the results of one round.
package match

import (
	"github.com/okian/glade/internal/domain/model"
)

// Outcome values on the Glicko scale.
const (
	Win  = 1.0
	Draw = 0.5
	Loss = 0.0
)

// Pairing is one derived comparison between the target player and an
// opponent who already posted a result for the same round.
type Pairing struct {
	Opponent string
	Score    int     // opponent's score
	Outcome  float64 // from the target player's perspective
}

// Outcome compares two normalized scores. Lower always wins: fewer
// guesses means a better result.
func Outcome(player, opponent int) float64 {
	switch {
	case player < opponent:
		return Win
	case player == opponent:
		return Draw
	default:
		return Loss
	}
}

// Derive returns the target's pairings against every other participant
// recorded for the round, in submission order. The target's own entry is
// skipped. An empty participant set yields an empty list; the zero-opponent
// case is handled by the rating update, not treated as an error here.
func Derive(target model.NormalizedScore, participants []model.NormalizedScore) []Pairing {
	pairings := make([]Pairing, 0, len(participants))
	for _, p := range participants {
		if p.Player == target.Player {
			continue
		}
		pairings = append(pairings, Pairing{
			Opponent: p.Player,
			Score:    p.Score,
			Outcome:  Outcome(target.Score, p.Score),
		})
	}
	return pairings
}
