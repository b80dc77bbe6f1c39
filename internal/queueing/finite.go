package queueing

import (
	"math"

	"github.com/guimove/queuefit/internal/model"
)

// MM1K evaluates the single-server queue with system capacity K.
func MM1K(lambda, mu float64, capacity int) (*model.Result, error) {
	return finiteCapacity(model.KindMM1K, lambda, mu, 1, capacity, DefaultTolerance)
}

// MMSK evaluates the s-server queue with system capacity K >= s.
func MMSK(lambda, mu float64, servers, capacity int) (*model.Result, error) {
	return finiteCapacity(model.KindMMSK, lambda, mu, servers, capacity, DefaultTolerance)
}

// MM1N evaluates the single-server queue fed by a closed population of N.
func MM1N(lambda, mu float64, population int) (*model.Result, error) {
	return finitePopulation(model.KindMM1N, lambda, mu, 1, population, DefaultTolerance)
}

// MMSN evaluates the s-server queue fed by a closed population of N >= s.
func MMSN(lambda, mu float64, servers, population int) (*model.Result, error) {
	return finitePopulation(model.KindMMSN, lambda, mu, servers, population, DefaultTolerance)
}

// finiteCapacity builds the truncated birth-death distribution over 0..K by
// direct summation and derives every metric from it. A finite system is always
// stable; loads at or above one only produce a note.
func finiteCapacity(k model.Kind, lambda, mu float64, servers, capacity int, tol float64) (*model.Result, error) {
	if err := checkRates(k, lambda, mu); err != nil {
		return nil, err
	}
	if servers < 1 {
		return nil, invalid(k, "servers must be >= 1, got %d", servers)
	}
	if capacity < servers {
		return nil, invalid(k, "capacity K must be >= servers (K %d, s %d)", capacity, servers)
	}

	a := lambda / mu
	rho := a / float64(servers)

	logW := make([]float64, capacity+1)
	for n := range logW {
		if n < servers {
			logW[n] = logErlang(a, n)
		} else {
			logW[n] = logErlang(a, servers) + logPow(rho, n-servers)
		}
	}
	probs := normalize(logW)
	l, lq := occupancy(probs, servers)

	blocking := probs[capacity]
	lambdaEff := lambda * (1 - blocking)
	w := l / lambdaEff

	res := &model.Result{
		Model:       k,
		Params:      model.Params{Lambda: lambda, Mu: mu, Servers: servers, Capacity: capacity},
		Rho:         rho,
		OfferedLoad: a,
		P0:          probs[0],
		L:           l,
		Lq:          lq,
		W:           w,
		Wq:          math.Max(w-1/mu, 0),
		LambdaEff:   lambdaEff,
		Blocking:    blocking,
		States:      probs,
		Exact:       true,
	}

	switch {
	case nearOne(rho, tol):
		res.AddNote("rho = 1 within tolerance: queue states are equally likely; finite capacity keeps the system well-defined")
	case rho > 1:
		res.AddNote("rho >= 1: arrivals exceed service capacity; the system is held stable only by capacity K, expect heavy blocking")
	}
	noteUnderflow(res)
	return res, nil
}

// finitePopulation builds the finite-source distribution over 0..N by forward
// recursion: raw[n] = raw[n-1] * (N-n+1)lambda / (min(n,s)mu).
func finitePopulation(k model.Kind, lambda, mu float64, servers, population int, tol float64) (*model.Result, error) {
	if err := checkRates(k, lambda, mu); err != nil {
		return nil, err
	}
	if servers < 1 {
		return nil, invalid(k, "servers must be >= 1, got %d", servers)
	}
	if population < servers {
		return nil, invalid(k, "population N must be >= servers (N %d, s %d)", population, servers)
	}

	arrivalAt := func(n int) float64 { return float64(population-n) * lambda }
	serviceAt := func(n int) float64 { return float64(min(n, servers)) * mu }

	logW := make([]float64, population+1)
	for n := 1; n <= population; n++ {
		logW[n] = logW[n-1] + math.Log(arrivalAt(n-1)) - math.Log(serviceAt(n))
	}
	probs := normalize(logW)
	l, lq := occupancy(probs, servers)

	lambdaEff := lambda * (float64(population) - l)
	var w, wq float64
	if lambdaEff > 0 {
		w = l / lambdaEff
		wq = lq / lambdaEff
	}

	res := &model.Result{
		Model:       k,
		Params:      model.Params{Lambda: lambda, Mu: mu, Servers: servers, Population: population},
		Rho:         lambdaEff / (float64(servers) * mu),
		OfferedLoad: lambda / mu,
		P0:          probs[0],
		L:           l,
		Lq:          lq,
		W:           w,
		Wq:          wq,
		LambdaEff:   lambdaEff,
		Blocking:    probs[population],
		States:      probs,
		Exact:       true,
	}

	demand := float64(population) * lambda / (float64(servers) * mu)
	if demand >= 1 || nearOne(demand, tol) {
		res.AddNote("full-population demand N*lambda/(s*mu) >= 1: servers saturate, the finite source keeps the system well-defined")
	}
	noteUnderflow(res)
	return res, nil
}
