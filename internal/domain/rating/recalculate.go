package rating

import (
	"cmp"
	"slices"

	"github.com/okian/glade/internal/domain/model"
)

// Result is the outcome of a full replay: final state per player, the
// complete snapshot log (one row per player and round, later refinements
// applied in place), and how many volatility solves failed to converge.
type Result struct {
	Ratings      map[string]model.PlayerRating
	Snapshots    []model.RatingSnapshot
	NonConverged int
}

// Recalculate replays an entire score history from cleared state, feeding
// every score through Apply as if submitted live. The input is ordered by
// (round asc, submission time asc, player asc) before the replay, so two
// runs over the same history are bit-identical. This is the canonical
// definition of correct ratings; live incremental state may drift from it
// for rounds with three or more participants submitted out of order.
func (e *Engine) Recalculate(history []model.NormalizedScore) Result {
	ordered := make([]model.NormalizedScore, len(history))
	copy(ordered, history)
	slices.SortStableFunc(ordered, func(a, b model.NormalizedScore) int {
		if c := cmp.Compare(a.Round, b.Round); c != 0 {
			return c
		}
		if c := a.SubmittedAt.Compare(b.SubmittedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Player, b.Player)
	})

	res := Result{Ratings: make(map[string]model.PlayerRating)}
	rounds := make(map[int64][]model.NormalizedScore)

	// Index into res.Snapshots per (player, round) so an opponent's later
	// refinement replaces its earlier row instead of appending a duplicate.
	type snapKey struct {
		player string
		round  int64
	}
	byKey := make(map[snapKey]int)

	for _, score := range ordered {
		upd := e.Apply(score, res.Ratings, rounds[score.Round])
		res.NonConverged += upd.NonConverged

		for player, state := range upd.Ratings {
			res.Ratings[player] = state
		}
		for _, snap := range upd.Snapshots {
			key := snapKey{player: snap.Player, round: snap.Round}
			if i, ok := byKey[key]; ok {
				res.Snapshots[i] = snap
				continue
			}
			byKey[key] = len(res.Snapshots)
			res.Snapshots = append(res.Snapshots, snap)
		}

		rounds[score.Round] = append(rounds[score.Round], score)
	}

	return res
}
