// Package decay grows rating uncertainty with elapsed inactivity.
package decay

import (
	"math"

	"github.com/okian/glade/internal/domain/model"
)

// DefaultRate is how fast deviation grows per round of inactivity
// (one round = one day of the shared puzzle).
const DefaultRate = 15.0

// Deviation widens rd by elapsed rounds of inactivity at rate c:
//
//	rd' = min(sqrt(rd^2 + c^2*elapsed), 350)
//
// Identity at elapsed <= 0, non-decreasing in elapsed, clamped at the
// maximum deviation.
func Deviation(rd, elapsed, c float64) float64 {
	if elapsed <= 0 {
		return rd
	}
	widened := math.Sqrt(rd*rd + c*c*elapsed)
	return math.Min(widened, model.MaxDeviation)
}
