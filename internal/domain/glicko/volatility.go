package glicko

import "math"

// solveVolatility finds the new volatility by locating the root of the
// Glicko-2 volatility function over the log-variance domain with an
// Illinois-style secant/bisection iteration. Inputs are internal-scale:
// sigma is the current volatility, phi the deviation, v the estimated
// variance and delta the estimated improvement.
//
// The iteration is bounded: when the cap is reached before |B-A| drops
// under the tolerance, the previous volatility is returned with a false
// converged flag.
func solveVolatility(p Parameters, sigma, phi, v, delta float64) (float64, bool) {
	a := math.Log(sigma * sigma)
	deltaSq := delta * delta
	phiSq := phi * phi

	f := func(x float64) float64 {
		ex := math.Exp(x)
		num := ex * (deltaSq - phiSq - v - ex)
		den := 2 * (phiSq + v + ex) * (phiSq + v + ex)
		return num/den - (x-a)/(p.Tau*p.Tau)
	}

	// Initial bracket [A, B].
	A := a
	var B float64
	if deltaSq > phiSq+v {
		B = math.Log(deltaSq - phiSq - v)
	} else {
		k := 1
		for f(a-float64(k)*p.Tau) < 0 {
			k++
			if k > p.MaxIterations {
				return sigma, false
			}
		}
		B = a - float64(k)*p.Tau
	}

	fA := f(A)
	fB := f(B)

	for i := 0; i < p.MaxIterations; i++ {
		if math.Abs(B-A) <= p.Tolerance {
			return math.Exp(A / 2), true
		}

		C := A + (A-B)*fA/(fB-fA)
		fC := f(C)
		if math.IsNaN(fC) || math.IsInf(fC, 0) {
			return sigma, false
		}

		if fC*fB <= 0 {
			A, fA = B, fB
		} else {
			// Illinois step: halve the retained side to force progress.
			fA /= 2
		}
		B, fB = C, fC
	}

	if math.Abs(B-A) <= p.Tolerance {
		return math.Exp(A / 2), true
	}
	return sigma, false
}
