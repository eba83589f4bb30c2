// Package glicko implements the Glicko-2 rating update.
//
// Reference: http://www.glicko.net/glicko/glicko2.pdf
package glicko

import (
	"math"

	"github.com/okian/glade/internal/domain/model"
)

// Scale converts between the display scale (1500-centered) and the
// internal Glicko-2 scale.
const Scale = 173.7178

// Default solver parameters.
const (
	DefaultTau           = 0.5
	DefaultTolerance     = 1e-6
	DefaultMaxIterations = 100
)

// Parameters tune the volatility solver.
type Parameters struct {
	// Tau bounds how fast volatility can change per update.
	Tau float64
	// Tolerance is the convergence threshold for the iteration.
	Tolerance float64
	// MaxIterations caps the iteration; hitting the cap keeps the
	// previous volatility rather than failing the update.
	MaxIterations int
}

// DefaultParameters returns the standard system constants.
func DefaultParameters() Parameters {
	return Parameters{
		Tau:           DefaultTau,
		Tolerance:     DefaultTolerance,
		MaxIterations: DefaultMaxIterations,
	}
}

// Rating holds display-scale values: rating, deviation (RD), volatility.
type Rating struct {
	R     float64
	RD    float64
	Sigma float64
}

// Result is one opponent comparison: the opponent's display-scale rating
// and deviation, and the outcome from the updated player's perspective
// (1 win, 0.5 draw, 0 loss).
type Result struct {
	R       float64
	RD      float64
	Outcome float64
}

func toInternal(r, rd float64) (mu, phi float64) {
	return (r - model.DefaultRating) / Scale, rd / Scale
}

func fromInternal(mu, phi float64) (r, rd float64) {
	return mu*Scale + model.DefaultRating, phi * Scale
}

// g reduces the impact of uncertain opponents.
func g(phi float64) float64 {
	return 1 / math.Sqrt(1+3*phi*phi/(math.Pi*math.Pi))
}

// expect is the expected outcome E(mu, muJ, phiJ).
func expect(mu, muJ, phiJ float64) float64 {
	return 1 / (1 + math.Exp(-g(phiJ)*(mu-muJ)))
}

func clampDeviation(rd float64) float64 {
	return math.Min(math.Max(rd, model.MinDeviation), model.MaxDeviation)
}

// Update applies one rating period with the given batch of results and
// returns the new rating plus whether the volatility solver converged.
// A non-converged solve keeps the previous volatility and still updates
// rating and deviation; it is a degradation, not an error.
//
// With an empty batch only uncertainty widens: phi' = sqrt(phi^2 + sigma^2),
// rating and volatility unchanged. This leaves a player who has no
// same-round opponent yet in a deferred, uncertainty-only state.
func Update(p Parameters, r Rating, results []Result) (Rating, bool) {
	mu, phi := toInternal(r.R, r.RD)

	if len(results) == 0 {
		phiStar := math.Sqrt(phi*phi + r.Sigma*r.Sigma)
		nr, nrd := fromInternal(mu, phiStar)
		return Rating{R: nr, RD: clampDeviation(nrd), Sigma: r.Sigma}, true
	}

	// Estimated variance and improvement over the batch.
	var varInv, improvement float64
	for _, res := range results {
		muJ, phiJ := toInternal(res.R, res.RD)
		gJ := g(phiJ)
		eJ := expect(mu, muJ, phiJ)
		varInv += gJ * gJ * eJ * (1 - eJ)
		improvement += gJ * (res.Outcome - eJ)
	}
	v := 1 / varInv
	delta := v * improvement

	sigma, converged := solveVolatility(p, r.Sigma, phi, v, delta)

	phiStar := math.Sqrt(phi*phi + sigma*sigma)
	phiNew := 1 / math.Sqrt(1/(phiStar*phiStar)+1/v)
	muNew := mu + phiNew*phiNew*improvement

	nr, nrd := fromInternal(muNew, phiNew)
	return Rating{R: nr, RD: clampDeviation(nrd), Sigma: sigma}, converged
}
