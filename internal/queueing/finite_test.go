package queueing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gonum.org/v1/gonum/floats"

	"github.com/guimove/queuefit/internal/model"
)

func TestMM1K_ConcreteScenario(t *testing.T) {
	res, err := MM1K(3, 4, 5)
	require.NoError(t, err)

	rho := 0.75
	require.Len(t, res.States, 6)
	assert.InDelta(t, 1, floats.Sum(res.States), eps)
	assert.InDelta(t, res.P0*math.Pow(rho, 5), res.Blocking, 1e-13)

	// Closed-form cross-check of the summation.
	p0 := (1 - rho) / (1 - math.Pow(rho, 6))
	l := rho * (1 - 6*math.Pow(rho, 5) + 5*math.Pow(rho, 6)) / ((1 - rho) * (1 - math.Pow(rho, 6)))
	assert.InDelta(t, p0, res.P0, eps)
	assert.InDelta(t, l, res.L, eps)
	assert.InDelta(t, l-(1-p0), res.Lq, eps)

	lambdaEff := 3 * (1 - res.Blocking)
	assert.InDelta(t, lambdaEff, res.LambdaEff, eps)
	assert.InDelta(t, res.L/lambdaEff, res.W, eps)
	assert.InDelta(t, res.W-0.25, res.Wq, eps)
	assert.Empty(t, res.Notes)
}

func TestMM1K_RhoExactlyOne(t *testing.T) {
	res, err := MM1K(2, 2, 4)
	require.NoError(t, err)

	for n, p := range res.States {
		assert.InDelta(t, 0.2, p, eps, "P%d", n)
	}
	assert.InDelta(t, 2, res.L, eps, "L = K/2")
	assert.InDelta(t, 0.2, res.Blocking, eps)
	require.Len(t, res.Notes, 1)
	assert.Contains(t, res.Notes[0], "rho = 1")
}

func TestMMSK_OverloadIsAdvisory(t *testing.T) {
	res, err := MMSK(10, 2, 2, 6)
	require.NoError(t, err, "finite systems never fail on load")

	assert.InDelta(t, 2.5, res.Rho, eps)
	assert.InDelta(t, 1, floats.Sum(res.States), eps)
	assert.Greater(t, res.Blocking, 0.5)
	require.NotEmpty(t, res.Notes)
	assert.Contains(t, res.Notes[0], "rho >= 1")
}

func TestMMSK_ConvergesToMMS(t *testing.T) {
	for _, tc := range []struct {
		lambda, mu float64
		s          int
	}{
		{4, 2, 3},
		{1, 1, 2},
		{8, 1, 10},
	} {
		inf, err := MMS(tc.lambda, tc.mu, tc.s)
		require.NoError(t, err)
		fin, err := MMSK(tc.lambda, tc.mu, tc.s, 1000)
		require.NoError(t, err)

		assert.InDelta(t, inf.P0, fin.P0, eps)
		assert.InDelta(t, inf.L, fin.L, eps)
		assert.InDelta(t, inf.Lq, fin.Lq, eps)
		assert.InDelta(t, inf.W, fin.W, eps)
		assert.InDelta(t, inf.Wq, fin.Wq, eps)
		assert.Less(t, fin.Blocking, 1e-12)
	}
}

func TestMMSK_Invariants(t *testing.T) {
	tests := []struct {
		name       string
		lambda, mu float64
		s, k       int
	}{
		{"light", 1, 3, 2, 5},
		{"balanced", 6, 2, 3, 3},
		{"rho one", 6, 2, 3, 9},
		{"heavy", 20, 1, 4, 30},
		{"huge capacity overload", 50, 1, 2, 5000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := MMSK(tt.lambda, tt.mu, tt.s, tt.k)
			require.NoError(t, err)

			assert.InDelta(t, 1, floats.Sum(res.States), eps)
			assert.True(t, res.P0 >= 0 && res.P0 <= 1, "P0 in [0,1]")
			assert.GreaterOrEqual(t, res.L, res.Lq)
			assert.GreaterOrEqual(t, res.Lq, 0.0)
			assert.GreaterOrEqual(t, res.W, res.Wq)
			assert.InDelta(t, res.Wq+1/tt.mu, res.W, 1e-9*math.Max(1, res.W))
			// Flow balance: busy servers = lambda_eff / mu.
			assert.InDelta(t, res.LambdaEff/tt.mu, res.L-res.Lq, 1e-9*math.Max(1, res.L))
		})
	}
}

func TestMMSK_InvalidParameters(t *testing.T) {
	_, err := MMSK(1, 1, 3, 2)
	require.ErrorIs(t, err, ErrInvalidParameter)

	_, err = MMSK(1, 1, 0, 2)
	require.ErrorIs(t, err, ErrInvalidParameter)

	_, err = MM1K(1, 0, 2)
	require.ErrorIs(t, err, ErrInvalidParameter)
}

func TestMM1N_SmallPopulation(t *testing.T) {
	// N=3, lambda=1, mu=2: weights 1, 1.5, 1.5, 0.75 (sum 4.75).
	res, err := MM1N(1, 2, 3)
	require.NoError(t, err)

	assert.InDelta(t, 1/4.75, res.P0, eps)
	assert.InDelta(t, 0.75/4.75, res.Blocking, eps)
	assert.InDelta(t, 6.75/4.75, res.L, eps)
	assert.InDelta(t, 3/4.75, res.Lq, eps)
	assert.InDelta(t, 3-6.75/4.75, res.LambdaEff, eps)
	assert.InDelta(t, 0.9, res.W, eps)
	assert.InDelta(t, 0.4, res.Wq, eps)
	assert.Equal(t, model.KindMM1N, res.Model)
	assert.Equal(t, 1, res.Params.Servers)
}

func TestMMSN_Invariants(t *testing.T) {
	tests := []struct {
		name       string
		lambda, mu float64
		s, n       int
	}{
		{"machine repair", 0.1, 0.5, 2, 10},
		{"servers equal population", 1, 1, 4, 4},
		{"heavy demand", 2, 1, 3, 40},
		{"large population", 0.01, 1, 5, 2000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := MMSN(tt.lambda, tt.mu, tt.s, tt.n)
			require.NoError(t, err)

			require.Len(t, res.States, tt.n+1)
			assert.InDelta(t, 1, floats.Sum(res.States), eps)
			assert.InDelta(t, tt.lambda*(float64(tt.n)-res.L), res.LambdaEff, 1e-9*math.Max(1, res.LambdaEff))
			assert.GreaterOrEqual(t, res.L, res.Lq)
			assert.InDelta(t, res.Wq+1/tt.mu, res.W, 1e-9*math.Max(1, res.W))
			assert.LessOrEqual(t, res.Rho, 1+1e-9)
		})
	}

	res, err := MMSN(1, 1, 4, 4)
	require.NoError(t, err)
	assert.Zero(t, res.Lq, "nobody queues when every customer has a server")
}

func TestMMSN_HeavyDemandNote(t *testing.T) {
	res, err := MMSN(2, 1, 3, 40)
	require.NoError(t, err)
	require.NotEmpty(t, res.Notes)
	assert.Contains(t, res.Notes[0], "full-population demand")

	light, err := MMSN(0.01, 1, 2, 10)
	require.NoError(t, err)
	assert.Empty(t, light.Notes)
}

func TestMMSN_InvalidParameters(t *testing.T) {
	_, err := MMSN(1, 1, 3, 2)
	require.ErrorIs(t, err, ErrInvalidParameter)

	_, err = MM1N(1, 1, 0)
	require.ErrorIs(t, err, ErrInvalidParameter)
}

func TestTailAbove(t *testing.T) {
	probs := []float64{0.5, 0.25, 0.125, 0.125}
	assert.Equal(t, 1.0, tailAbove(probs, -1))
	assert.InDelta(t, 0.5, tailAbove(probs, 0), eps)
	assert.InDelta(t, 0.125, tailAbove(probs, 2), eps)
	assert.Zero(t, tailAbove(probs, 3))
	assert.Zero(t, tailAbove(probs, 10))
}

func TestMMSK_LargeCapacity(t *testing.T) {
	res, err := MMSK(60, 1, 50, 2000)
	require.NoError(t, err)

	for _, p := range res.States {
		require.False(t, math.IsNaN(p) || math.IsInf(p, 0))
	}
	assert.InDelta(t, 1, floats.Sum(res.States), eps)

	// With rho > 1 and a deep buffer the servers stay busy, so throughput
	// approaches s*mu and blocking approaches 1 - 1/rho.
	assert.InDelta(t, 1.0/6, res.Blocking, 1e-6)
	assert.InDelta(t, 50, res.LambdaEff, 1e-4)
	assert.NotEmpty(t, res.Notes)
}

func TestMMSK_P0UnderflowIsReported(t *testing.T) {
	// True P0 is about 25^-4998, far below the smallest float64.
	res, err := MMSK(50, 1, 2, 5000)
	require.NoError(t, err)

	assert.Zero(t, res.P0)
	assert.InDelta(t, 1, floats.Sum(res.States), eps)
	assert.InDelta(t, 2, res.LambdaEff, 1e-9, "both servers stay busy")
	assert.Contains(t, res.Notes, "P0 is below the smallest float64 and reported as 0; the remaining measures are unaffected")

	normal, err := MMSK(1, 3, 2, 5)
	require.NoError(t, err)
	assert.Empty(t, normal.Notes)
}

func TestMMSK_UnderflowedOfferedLoad(t *testing.T) {
	// lambda/mu rounds to 0; a^0 must still count as 1.
	res, err := MMSK(1e-200, 1e200, 2, 5)
	require.NoError(t, err)

	for _, v := range append([]float64{res.P0, res.L, res.Lq, res.W, res.Wq, res.Blocking, res.LambdaEff}, res.States...) {
		require.False(t, math.IsNaN(v) || math.IsInf(v, 0), "non-finite measure %v", v)
	}
	assert.Equal(t, 1.0, res.P0)
	assert.Zero(t, res.Blocking)
	assert.Zero(t, res.L)
}
