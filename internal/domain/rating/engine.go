// Package rating drives Glicko-2 updates for daily-puzzle rounds.
//
// The engine is pure: it operates on an owned map of player states handed
// in by the caller and returns a changeset. Storage, locking and
// transactions belong to the layers above.
package rating

import (
	"github.com/okian/glade/internal/domain/decay"
	"github.com/okian/glade/internal/domain/glicko"
	"github.com/okian/glade/internal/domain/match"
	"github.com/okian/glade/internal/domain/model"
)

// Engine applies submissions to rating state.
type Engine struct {
	params    glicko.Parameters
	decayRate float64
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithParameters overrides the Glicko-2 system constants.
func WithParameters(p glicko.Parameters) Option {
	return func(e *Engine) {
		if p.Tau > 0 && p.Tolerance > 0 && p.MaxIterations > 0 {
			e.params = p
		}
	}
}

// WithDecayRate sets the deviation growth per round of inactivity.
func WithDecayRate(c float64) Option {
	return func(e *Engine) {
		if c > 0 {
			e.decayRate = c
		}
	}
}

// New constructs an Engine with default constants.
func New(opts ...Option) *Engine {
	e := &Engine{
		params:    glicko.DefaultParameters(),
		decayRate: decay.DefaultRate,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Update is the changeset produced by one submission: the recorded score,
// the new state for every touched player, and the history snapshots to
// append. The submitter's snapshot is a strict insert (the idempotency
// guard); an opponent's snapshot for the same round refines any earlier
// one in place.
type Update struct {
	Score        model.NormalizedScore
	Ratings      map[string]model.PlayerRating
	Snapshots    []model.RatingSnapshot // submitter first, then opponents in submission order
	NonConverged int                    // volatility solves that hit the iteration cap
}

func snapshotOf(player string, round int64, r model.PlayerRating) model.RatingSnapshot {
	return model.RatingSnapshot{
		Player:       player,
		Round:        round,
		Rating:       r.Rating,
		Deviation:    r.Deviation,
		Conservative: r.Conservative(),
	}
}

func stateOf(states map[string]model.PlayerRating, player string) model.PlayerRating {
	if s, ok := states[player]; ok {
		return s
	}
	return model.NewPlayerRating()
}

// decayed applies inactivity decay to a stored state as of the given round.
// A player who has never been rated keeps the default deviation.
func (e *Engine) decayed(s model.PlayerRating, round int64) model.PlayerRating {
	if s.LastPlayed == 0 {
		return s
	}
	s.Deviation = decay.Deviation(s.Deviation, float64(round-s.LastPlayed), e.decayRate)
	return s
}

// Apply processes one submission against the current states of the
// submitter and the round's earlier participants.
//
// The submitter is updated against the full batch of derived outcomes.
// Each opponent is then updated against a single-result batch holding only
// the new outcome versus the submitter's fresh state. That incremental
// path is order-sensitive by design; Recalculate is the canonical
// authority when the two disagree.
func (e *Engine) Apply(score model.NormalizedScore, states map[string]model.PlayerRating, participants []model.NormalizedScore) Update {
	upd := Update{
		Score:   score,
		Ratings: make(map[string]model.PlayerRating, len(participants)+1),
	}

	sub := e.decayed(stateOf(states, score.Player), score.Round)
	pairings := match.Derive(score, participants)

	// Decay opponents once and build the submitter's batch.
	oppStates := make(map[string]model.PlayerRating, len(pairings))
	results := make([]glicko.Result, 0, len(pairings))
	for _, pr := range pairings {
		os := e.decayed(stateOf(states, pr.Opponent), score.Round)
		oppStates[pr.Opponent] = os
		results = append(results, glicko.Result{R: os.Rating, RD: os.Deviation, Outcome: pr.Outcome})
	}

	newSub, converged := glicko.Update(e.params, glicko.Rating{R: sub.Rating, RD: sub.Deviation, Sigma: sub.Volatility}, results)
	if !converged {
		upd.NonConverged++
	}
	subState := model.PlayerRating{
		Rating:     newSub.R,
		Deviation:  newSub.RD,
		Volatility: newSub.Sigma,
		LastPlayed: score.Round,
	}
	upd.Ratings[score.Player] = subState
	upd.Snapshots = append(upd.Snapshots, snapshotOf(score.Player, score.Round, subState))

	// Each opponent gains exactly one new result: theirs versus the
	// submitter's updated state.
	for _, pr := range pairings {
		os := oppStates[pr.Opponent]
		res := glicko.Result{
			R:       subState.Rating,
			RD:      subState.Deviation,
			Outcome: match.Outcome(pr.Score, score.Score),
		}
		newOpp, ok := glicko.Update(e.params, glicko.Rating{R: os.Rating, RD: os.Deviation, Sigma: os.Volatility}, []glicko.Result{res})
		if !ok {
			upd.NonConverged++
		}
		oppState := model.PlayerRating{
			Rating:     newOpp.R,
			Deviation:  newOpp.RD,
			Volatility: newOpp.Sigma,
			LastPlayed: score.Round,
		}
		upd.Ratings[pr.Opponent] = oppState
		upd.Snapshots = append(upd.Snapshots, snapshotOf(pr.Opponent, score.Round, oppState))
	}

	return upd
}
