package queueing

import (
	"gonum.org/v1/gonum/floats"

	"github.com/guimove/queuefit/internal/model"
)

// NonPreemptiveNote marks results computed with the Kleinrock approximation.
const NonPreemptiveNote = "non-preemptive priority uses the Kleinrock approximation; per-class waits are not exact"

// Priority evaluates a multi-class M/G/1 priority queue. Classes are ordered
// highest priority first. With preemptive set, a higher-class arrival suspends
// the job in service, which later resumes where it left off.
func Priority(classes []model.ClassInput, preemptive bool) (*model.Result, error) {
	const k = model.KindPriority
	if len(classes) == 0 {
		return nil, invalid(k, "at least one priority class is required")
	}

	m := len(classes)
	lams := make([]float64, m)
	es := make([]float64, m)
	es2 := make([]float64, m)
	rhos := make([]float64, m)
	for i, c := range classes {
		if !finite(c.Lambda, c.Mu, c.Variance) {
			return nil, invalid(k, "class %d: parameters must be finite numbers", i+1)
		}
		if c.Lambda < 0 || c.Mu <= 0 || c.Variance < 0 {
			return nil, invalid(k, "class %d: need lambda >= 0, mu > 0, variance >= 0 (got %g, %g, %g)",
				i+1, c.Lambda, c.Mu, c.Variance)
		}
		lams[i] = c.Lambda
		es[i] = 1 / c.Mu
		es2[i] = c.Variance + es[i]*es[i]
		rhos[i] = c.Lambda * es[i]
	}

	lambdaTotal := floats.Sum(lams)
	if lambdaTotal <= 0 {
		return nil, invalid(k, "total arrival rate must be > 0")
	}
	rhoTotal := floats.Sum(rhos)
	if rhoTotal >= 1 {
		return nil, unstable(k, "total load rho_total = %.6f >= 1", rhoTotal)
	}

	var (
		ws, wqs []float64
		err     error
	)
	if preemptive {
		ws, wqs, err = preemptiveWaits(lams, es, es2, rhos)
	} else {
		ws, wqs, err = nonPreemptiveWaits(lams, es, es2, rhos, rhoTotal)
	}
	if err != nil {
		return nil, err
	}

	res := &model.Result{
		Model: k,
		Params: model.Params{
			Classes:    append([]model.ClassInput(nil), classes...),
			Preemptive: preemptive,
		},
		Rho:         rhoTotal,
		OfferedLoad: rhoTotal,
		P0:          1 - rhoTotal,
		Classes:     make([]model.ClassResult, m),
		Exact:       preemptive,
	}

	totals := &model.PriorityTotals{Rho: rhoTotal, Lambda: lambdaTotal}
	for i, c := range classes {
		cr := model.ClassResult{
			Class:               i + 1,
			Lambda:              c.Lambda,
			Mu:                  c.Mu,
			Variance:            c.Variance,
			Rho:                 rhos[i],
			ServiceMean:         es[i],
			ServiceSecondMoment: es2[i],
			W:                   ws[i],
			Wq:                  wqs[i],
			L:                   c.Lambda * ws[i],
			Lq:                  c.Lambda * wqs[i],
		}
		res.Classes[i] = cr
		totals.L += cr.L
		totals.Lq += cr.Lq
	}
	totals.W = floats.Dot(lams, ws) / lambdaTotal
	totals.Wq = floats.Dot(lams, wqs) / lambdaTotal

	res.Totals = totals
	res.L, res.Lq, res.W, res.Wq = totals.L, totals.Lq, totals.W, totals.Wq
	if !preemptive {
		res.AddNote(NonPreemptiveNote)
	}
	return res, nil
}

// preemptiveWaits applies the preemptive-resume recursion over priority
// prefixes:
//
//	W_i = sum_{j<=i} lambda_j E[S_j^2] / (2 (1 - sigma_{i-1}) (1 - sigma_i))
//
// where sigma_i is the cumulative load of classes 1..i.
func preemptiveWaits(lams, es, es2, rhos []float64) (ws, wqs []float64, err error) {
	m := len(lams)
	ws = make([]float64, m)
	wqs = make([]float64, m)

	var residual, sigmaBefore float64
	for i := 0; i < m; i++ {
		residual += lams[i] * es2[i]
		sigmaUpTo := sigmaBefore + rhos[i]

		denom := 2 * (1 - sigmaBefore) * (1 - sigmaUpTo)
		if denom <= 0 {
			return nil, nil, numerical(model.KindPriority,
				"class %d: prefix load %.6f saturates the server for lower classes", i+1, sigmaUpTo)
		}
		ws[i] = residual / denom
		wqs[i] = max(ws[i]-es[i], 0)
		sigmaBefore = sigmaUpTo
	}
	return ws, wqs, nil
}

// nonPreemptiveWaits shares one residual-service delay
// D = sum_j lambda_j E[S_j^2] / (2 (1 - rho_total)) across classes and scales
// it by each class's prefix load.
func nonPreemptiveWaits(lams, es, es2, rhos []float64, rhoTotal float64) (ws, wqs []float64, err error) {
	m := len(lams)
	ws = make([]float64, m)
	wqs = make([]float64, m)

	delay := floats.Dot(lams, es2) / (2 * (1 - rhoTotal))
	var sigma float64
	for i := 0; i < m; i++ {
		sigma += rhos[i]
		if sigma >= 1 {
			return nil, nil, numerical(model.KindPriority,
				"class %d: prefix load %.6f saturates the server", i+1, sigma)
		}
		wqs[i] = delay / (1 - sigma)
		ws[i] = wqs[i] + es[i]
	}
	return ws, wqs, nil
}
