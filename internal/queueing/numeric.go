package queueing

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/guimove/queuefit/internal/model"
)

// DefaultTolerance is the distance from 1 at which a load is treated as
// exactly saturated.
const DefaultTolerance = 1e-9

// logFactorial returns ln(n!).
func logFactorial(n int) float64 {
	v, _ := math.Lgamma(float64(n) + 1)
	return v
}

// logErlang returns ln(a^n / n!). a^0 is 1 even when a has underflowed to 0.
func logErlang(a float64, n int) float64 {
	if n == 0 {
		return 0
	}
	if a == 0 {
		return math.Inf(-1)
	}
	return float64(n)*math.Log(a) - logFactorial(n)
}

// logPow returns ln(x^n) with x^0 = 1 for every x.
func logPow(x float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return float64(n) * math.Log(x)
}

// normalize turns unnormalized log-weights into a probability vector.
func normalize(logWeights []float64) []float64 {
	lse := floats.LogSumExp(logWeights)
	probs := make([]float64, len(logWeights))
	copy(probs, logWeights)
	floats.AddConst(-lse, probs)
	for i, v := range probs {
		probs[i] = math.Exp(v)
	}
	return probs
}

// occupancy returns L = sum n*Pn and Lq = sum (n-s)+ * Pn over a finite
// distribution indexed by state.
func occupancy(probs []float64, servers int) (l, lq float64) {
	counts := make([]float64, len(probs))
	queued := make([]float64, len(probs))
	for n := range probs {
		counts[n] = float64(n)
		if n > servers {
			queued[n] = float64(n - servers)
		}
	}
	return floats.Dot(counts, probs), floats.Dot(queued, probs)
}

// tailAbove returns P(n > r) on a finite distribution.
func tailAbove(probs []float64, r int) float64 {
	switch {
	case r < 0:
		return 1
	case r >= len(probs)-1:
		return 0
	}
	return floats.Sum(probs[r+1:])
}

// noteUnderflow flags a P0 that float64 cannot represent. The other measures
// come from log-space weights and stay accurate.
func noteUnderflow(res *model.Result) {
	if res.P0 == 0 {
		res.AddNote("P0 is below the smallest float64 and reported as 0; the remaining measures are unaffected")
	}
}

func nearOne(x, tol float64) bool {
	return math.Abs(x-1) < tol
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
