package queueing

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/guimove/queuefit/internal/model"
)

// MM1 evaluates the single-server infinite-capacity queue.
func MM1(lambda, mu float64) (*model.Result, error) {
	if err := checkRates(model.KindMM1, lambda, mu); err != nil {
		return nil, err
	}
	rho := lambda / mu
	if rho >= 1 {
		return nil, unstable(model.KindMM1, "rho = %.6g >= 1 (lambda %g, mu %g)", rho, lambda, mu)
	}

	return &model.Result{
		Model:       model.KindMM1,
		Params:      model.Params{Lambda: lambda, Mu: mu, Servers: 1},
		Rho:         rho,
		OfferedLoad: rho,
		P0:          1 - rho,
		L:           rho / (1 - rho),
		Lq:          rho * rho / (1 - rho),
		W:           1 / (mu - lambda),
		Wq:          lambda / (mu * (mu - lambda)),
		ProbWait:    rho,
		Exact:       true,
	}, nil
}

// MMS evaluates the s-server infinite-capacity queue using the Erlang C form.
func MMS(lambda, mu float64, servers int) (*model.Result, error) {
	const k = model.KindMMS
	if err := checkRates(k, lambda, mu); err != nil {
		return nil, err
	}
	if servers < 1 {
		return nil, invalid(k, "servers must be >= 1, got %d", servers)
	}

	s := float64(servers)
	a := lambda / mu
	rho := a / s
	if rho >= 1 {
		return nil, unstable(k, "rho = %.6g >= 1 (lambda %g, mu %g, s %d)", rho, lambda, mu, servers)
	}

	logP0 := mmsLogP0(a, rho, servers)
	p0 := math.Exp(logP0)
	saturated := math.Exp(logP0 + logErlang(a, servers)) // P0 * a^s / s!
	lq := saturated * rho / ((1 - rho) * (1 - rho))
	wq := lq / lambda

	res := &model.Result{
		Model:       k,
		Params:      model.Params{Lambda: lambda, Mu: mu, Servers: servers},
		Rho:         rho,
		OfferedLoad: a,
		P0:          p0,
		Lq:          lq,
		L:           lq + a,
		Wq:          wq,
		W:           wq + 1/mu,
		ProbWait:    saturated / (1 - rho),
		Exact:       true,
	}
	noteUnderflow(res)
	return res, nil
}

// mmsLogP0 returns ln P0 for M/M/s, where
// P0 = 1 / (sum_{n<s} a^n/n! + a^s/(s!(1-rho))).
func mmsLogP0(a, rho float64, servers int) float64 {
	logTerms := make([]float64, 0, servers+1)
	for n := 0; n < servers; n++ {
		logTerms = append(logTerms, logErlang(a, n))
	}
	logTerms = append(logTerms, logErlang(a, servers)-math.Log1p(-rho))
	return -floats.LogSumExp(logTerms)
}

// MMInf evaluates the infinite-server queue. It never fails on load: no queue
// forms, and Rho reports the offered load a = lambda/mu.
func MMInf(lambda, mu float64) (*model.Result, error) {
	if err := checkRates(model.KindMMInf, lambda, mu); err != nil {
		return nil, err
	}
	a := lambda / mu
	return &model.Result{
		Model:       model.KindMMInf,
		Params:      model.Params{Lambda: lambda, Mu: mu},
		Rho:         a,
		OfferedLoad: a,
		P0:          math.Exp(-a),
		L:           a,
		W:           1 / mu,
		Exact:       true,
	}, nil
}

// erlangState returns Pn for M/M/s (and M/M/1 with s = 1). P0 is rebuilt
// in log space because the stored value may have underflowed.
func erlangState(r *model.Result, n int) float64 {
	s, a := r.Params.Servers, r.OfferedLoad
	return math.Exp(erlangLogState(a, r.Rho, mmsLogP0(a, r.Rho, s), s, n))
}

func erlangLogState(a, rho, logP0 float64, s, n int) float64 {
	if n < s {
		return logP0 + logErlang(a, n)
	}
	return logP0 + logErlang(a, s) + logPow(rho, n-s)
}

// erlangTail returns P(n > rr) for M/M/s.
func erlangTail(r *model.Result, rr int) float64 {
	if rr < 0 {
		return 1
	}
	s, a, rho := r.Params.Servers, r.OfferedLoad, r.Rho
	logP0 := mmsLogP0(a, rho, s)
	if rr < s-1 {
		cum := 0.0
		for n := 0; n <= rr; n++ {
			cum += math.Exp(erlangLogState(a, rho, logP0, s, n))
		}
		return math.Max(1-cum, 0)
	}
	// P0 * a^s/(s!(1-rho)) * rho^(r+1-s)
	return math.Exp(logP0 + logErlang(a, s) - math.Log1p(-rho) + logPow(rho, rr+1-s))
}

// erlangWaitTail returns the exact P(W > t) and P(Wq > t) for M/M/s.
func erlangWaitTail(r *model.Result, t, tol float64) *model.WaitTail {
	mu := r.Params.Mu
	s := float64(r.Params.Servers)
	c := r.ProbWait
	pq := c * math.Exp(-(s*mu-r.Params.Lambda)*t)

	var pw float64
	if d := s - 1 - r.OfferedLoad; math.Abs(d) < tol {
		pw = math.Exp(-mu*t) * (1 + c*mu*t)
	} else {
		pw = math.Exp(-mu*t) * (1 + c*(1-math.Exp(-mu*t*d))/d)
	}
	return &model.WaitTail{T: t, System: pw, Queue: pq}
}

// poissonState returns Pn for M/M/inf.
func poissonState(r *model.Result, n int) float64 {
	return math.Exp(-r.OfferedLoad + logErlang(r.OfferedLoad, n))
}

func poissonTail(r *model.Result, rr int) float64 {
	if rr < 0 {
		return 1
	}
	cum := 0.0
	for n := 0; n <= rr; n++ {
		cum += poissonState(r, n)
	}
	return math.Max(1-cum, 0)
}

func checkRates(k model.Kind, lambda, mu float64) error {
	if !finite(lambda, mu) {
		return invalid(k, "rates must be finite numbers (lambda %g, mu %g)", lambda, mu)
	}
	if lambda <= 0 {
		return invalid(k, "lambda must be > 0, got %g", lambda)
	}
	if mu <= 0 {
		return invalid(k, "mu must be > 0, got %g", mu)
	}
	return nil
}
