package queueing

import (
	"fmt"
	"math"

	"github.com/guimove/queuefit/internal/model"
)

// Evaluator resolves inputs and dispatches them to the model entry points.
// It holds no state between calls.
type Evaluator struct {
	// Tolerance decides when a load counts as exactly one.
	Tolerance float64
}

// NewEvaluator creates an evaluator; a non-positive tolerance selects
// DefaultTolerance.
func NewEvaluator(tolerance float64) *Evaluator {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Evaluator{Tolerance: tolerance}
}

// Evaluate runs one model evaluation, including any state, tail and
// waiting-time queries carried by the input.
func (e *Evaluator) Evaluate(in model.Input) (*model.Result, error) {
	in, err := Resolve(in)
	if err != nil {
		return nil, err
	}

	tol := e.Tolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}

	var res *model.Result
	switch in.Model {
	case model.KindMM1:
		res, err = MM1(in.Lambda, in.Mu)
	case model.KindMMS:
		res, err = MMS(in.Lambda, in.Mu, in.Servers)
	case model.KindMMInf:
		res, err = MMInf(in.Lambda, in.Mu)
	case model.KindMM1K, model.KindMMSK:
		res, err = finiteCapacity(in.Model, in.Lambda, in.Mu, in.Servers, in.Capacity, tol)
	case model.KindMM1N, model.KindMMSN:
		res, err = finitePopulation(in.Model, in.Lambda, in.Mu, in.Servers, in.Population, tol)
	case model.KindMG1:
		res, err = MG1(in.Lambda, in.Mu, *in.Variance)
	case model.KindPriority:
		res, err = Priority(in.Classes, in.Preemptive)
	default:
		return nil, invalid(in.Model, "no evaluator for model")
	}
	if err != nil {
		return nil, err
	}

	e.answerQueries(res, in, tol)
	return res, nil
}

func (e *Evaluator) answerQueries(res *model.Result, in model.Input, tol float64) {
	if in.State != nil {
		if p, ok := stateProbability(res, *in.State); ok {
			res.State = &model.StateProb{N: *in.State, P: p}
		} else {
			res.AddNote(fmt.Sprintf("P(n=%d) has no closed form for %s", *in.State, res.Model.Notation()))
		}
	}

	if in.TailAbove != nil {
		if p, ok := tailProbability(res, *in.TailAbove); ok {
			res.Tail = &model.TailProb{R: *in.TailAbove, P: p}
		} else {
			res.AddNote(fmt.Sprintf("P(n>%d) has no closed form for %s", *in.TailAbove, res.Model.Notation()))
		}
	}

	if in.WaitTime != nil {
		t := *in.WaitTime
		switch res.Model {
		case model.KindMM1, model.KindMMS:
			res.WaitTail = erlangWaitTail(res, t, tol)
		case model.KindMMInf:
			res.WaitTail = &model.WaitTail{T: t, System: math.Exp(-res.Params.Mu * t)}
		case model.KindMG1:
			res.WaitTail = mg1WaitTail(res, t)
			res.AddNote("P(W>t) and P(Wq>t) assume an exponential tail; approximate unless service is exponential")
		default:
			res.AddNote(fmt.Sprintf("waiting-time tail is not available for %s", res.Model.Notation()))
		}
	}
}

func stateProbability(res *model.Result, n int) (float64, bool) {
	switch res.Model {
	case model.KindMM1, model.KindMMS:
		return erlangState(res, n), true
	case model.KindMMInf:
		return poissonState(res, n), true
	case model.KindMM1K, model.KindMMSK, model.KindMM1N, model.KindMMSN:
		if n >= len(res.States) {
			return 0, true
		}
		return res.States[n], true
	case model.KindMG1, model.KindPriority:
		if n == 0 {
			return res.P0, true
		}
	}
	return 0, false
}

func tailProbability(res *model.Result, r int) (float64, bool) {
	switch res.Model {
	case model.KindMM1, model.KindMMS:
		return erlangTail(res, r), true
	case model.KindMMInf:
		return poissonTail(res, r), true
	case model.KindMM1K, model.KindMMSK, model.KindMM1N, model.KindMMSN:
		return tailAbove(res.States, r), true
	case model.KindMG1, model.KindPriority:
		if r < 0 {
			return 1, true
		}
		if r == 0 {
			return res.Rho, true
		}
	}
	return 0, false
}
