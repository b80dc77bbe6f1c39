package queueing

import (
	"math"

	"github.com/guimove/queuefit/internal/model"
)

// MG1 evaluates the single-server queue with general service times of the
// given variance, using the Pollaczek-Khinchine mean-value formula.
func MG1(lambda, mu, variance float64) (*model.Result, error) {
	const k = model.KindMG1
	if err := checkRates(k, lambda, mu); err != nil {
		return nil, err
	}
	if !finite(variance) || variance < 0 {
		return nil, invalid(k, "service-time variance must be >= 0, got %g", variance)
	}

	es := 1 / mu
	es2 := variance + es*es
	rho := lambda * es
	if rho >= 1 {
		return nil, unstable(k, "rho = %.6g >= 1 (lambda %g, mu %g)", rho, lambda, mu)
	}

	lq := lambda * lambda * es2 / (2 * (1 - rho))
	wq := lq / lambda
	w := wq + es

	return &model.Result{
		Model:               k,
		Params:              model.Params{Lambda: lambda, Mu: mu, Servers: 1, Variance: model.Float(variance)},
		Rho:                 rho,
		OfferedLoad:         rho,
		P0:                  1 - rho,
		Lq:                  lq,
		Wq:                  wq,
		W:                   w,
		L:                   lambda * w,
		ProbWait:            rho,
		ServiceMean:         es,
		ServiceSecondMoment: es2,
		Exact:               true,
	}, nil
}

// mg1WaitTail approximates the waiting-time tails with the M/M/1 exponential
// shape. Exact only when service is exponential.
func mg1WaitTail(r *model.Result, t float64) *model.WaitTail {
	decay := math.Exp(-(1 - r.Rho) * r.Params.Mu * t)
	return &model.WaitTail{
		T:      t,
		System: decay,
		Queue:  r.Rho * decay,
		Approx: true,
	}
}
