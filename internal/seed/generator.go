package seed

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
)

// Score distribution weights: most daily-puzzle players solve in the
// middle of the range, few fail outright.
var scoreWeights = []struct {
	score  int
	weight int
}{
	{1, 2},
	{2, 8},
	{3, 25},
	{4, 30},
	{5, 20},
	{6, 10},
	{7, 5},
}

// randomScore draws a score from the weighted distribution.
func randomScore(rng *rand.Rand) int {
	total := 0
	for _, w := range scoreWeights {
		total += w.weight
	}
	n := rng.Intn(total)
	for _, w := range scoreWeights {
		n -= w.weight
		if n < 0 {
			return w.score
		}
	}
	return scoreWeights[len(scoreWeights)-1].score
}

// playerNames creates uuid-suffixed player names so repeated runs against
// the same tenant do not collide on the (player, round) key.
func playerNames(count int) []string {
	names := make([]string, count)
	for i := range names {
		names[i] = fmt.Sprintf("player-%s", uuid.NewString()[:8])
	}
	return names
}

// resultText renders the shared-result text the parser expects.
func resultText(round int64, score int) string {
	if score == 7 {
		return fmt.Sprintf("#Tradle #%d X/6", round)
	}
	return fmt.Sprintf("#Tradle #%d %d/6", round, score)
}

// generate builds the full submission plan: players × rounds, minus
// randomly skipped days so deviation decay paths get exercised too.
func generate(cfg *Config, rng *rand.Rand) []Submission {
	players := playerNames(cfg.Players)
	var subs []Submission
	for r := 0; r < cfg.Rounds; r++ {
		round := cfg.FirstRound + int64(r)
		for _, player := range players {
			if rng.Float64() < cfg.SkipRate {
				continue
			}
			subs = append(subs, Submission{
				Player: player,
				Text:   resultText(round, randomScore(rng)),
			})
		}
	}
	return subs
}
