package planning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/guimove/queuefit/internal/model"
	"github.com/guimove/queuefit/internal/queueing"
)

// ErrUnsupportedModel is returned for kinds without a server count to sweep.
var ErrUnsupportedModel = errors.New("capacity planning needs a multi-server model (mms, mmsk, mmsn)")

// Evaluator evaluates one input. *queueing.Evaluator satisfies it.
type Evaluator interface {
	Evaluate(in model.Input) (*model.Result, error)
}

// Request describes the system to size.
type Request struct {
	Model      model.Kind
	Lambda     float64
	Mu         float64
	Capacity   int // M/M/s/K only
	Population int // M/M/s/N only

	MinServers int // defaults to 1
	MaxServers int

	// TargetWq rejects candidates whose mean queueing delay exceeds it; 0
	// disables the filter.
	TargetWq float64
}

// Planner sweeps server counts and ranks them by total cost per unit time:
// s*server + L*waiting + lambda*blocking*loss.
type Planner struct {
	Evaluator Evaluator
	Costs     model.CostRates
	TopN      int
	Logger    *slog.Logger
}

// NewPlanner creates a planner with the given cost rates.
func NewPlanner(ev Evaluator, costs model.CostRates, topN int, logger *slog.Logger) *Planner {
	return &Planner{Evaluator: ev, Costs: costs, TopN: topN, Logger: logger}
}

// Plan evaluates every server count in range and returns the cheapest
// feasible ones. Unstable counts are rejected, not errors; an input that is
// invalid for every count is returned as an error.
func (p *Planner) Plan(ctx context.Context, req Request) (*model.Plan, error) {
	kind, err := model.ParseKind(string(req.Model))
	if err != nil {
		return nil, err
	}
	switch kind {
	case model.KindMMS, model.KindMMSK, model.KindMMSN:
	default:
		return nil, fmt.Errorf("%w: got %s", ErrUnsupportedModel, kind.Notation())
	}

	lo, hi := req.MinServers, req.MaxServers
	if lo < 1 {
		lo = 1
	}
	switch kind {
	case model.KindMMSK:
		hi = min(hi, req.Capacity)
	case model.KindMMSN:
		hi = min(hi, req.Population)
	}
	if hi < lo {
		return nil, fmt.Errorf("empty server range [%d, %d]", lo, hi)
	}

	logger := p.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	plan := &model.Plan{
		Model:    kind,
		Lambda:   req.Lambda,
		Mu:       req.Mu,
		Costs:    p.Costs,
		TargetWq: req.TargetWq,
	}

	var feasible []model.Candidate
	for s := lo; s <= hi; s++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		c, err := p.evaluate(kind, req, s)
		if err != nil {
			return nil, fmt.Errorf("evaluating s=%d: %w", s, err)
		}
		logger.Debug("candidate evaluated", "servers", s, "stable", c.Stable, "cost", c.TotalCost, "reason", c.Reason)

		if c.Feasible() {
			feasible = append(feasible, c)
		} else {
			plan.Rejected = append(plan.Rejected, c)
		}
	}

	plan.Ranked = p.rank(feasible)
	logger.Info("capacity plan complete",
		"model", kind,
		"range", fmt.Sprintf("%d-%d", lo, hi),
		"feasible", len(feasible),
		"rejected", len(plan.Rejected))
	return plan, nil
}

// evaluate prices one server count. Only errors other than instability are
// returned.
func (p *Planner) evaluate(kind model.Kind, req Request, servers int) (model.Candidate, error) {
	c := model.Candidate{Servers: servers}

	res, err := p.Evaluator.Evaluate(model.Input{
		Model:      kind,
		Lambda:     req.Lambda,
		Mu:         req.Mu,
		Servers:    servers,
		Capacity:   req.Capacity,
		Population: req.Population,
	})
	if errors.Is(err, queueing.ErrInstability) {
		c.Reason = "unstable: " + err.Error()
		return c, nil
	}
	if err != nil {
		return c, err
	}

	c.Stable = true
	c.Result = res
	c.ServerCost = float64(servers) * p.Costs.Server
	c.WaitingCost = res.L * p.Costs.Waiting
	if kind == model.KindMMSK {
		c.LossCost = req.Lambda * res.Blocking * p.Costs.Loss
	}
	c.TotalCost = c.ServerCost + c.WaitingCost + c.LossCost

	if req.TargetWq > 0 && res.Wq > req.TargetWq {
		c.Reason = fmt.Sprintf("Wq %.6g exceeds target %.6g", res.Wq, req.TargetWq)
	}
	return c, nil
}

// rank scores feasible candidates, sorts them cheapest first and keeps the
// top N.
func (p *Planner) rank(cands []model.Candidate) []model.Candidate {
	if len(cands) == 0 {
		return nil
	}

	// cands arrive in sweep order, so the first is the smallest server count.
	minimal := cands[0].TotalCost

	minCost, maxCost := cands[0].TotalCost, cands[0].TotalCost
	for _, c := range cands[1:] {
		minCost = min(minCost, c.TotalCost)
		maxCost = max(maxCost, c.TotalCost)
	}

	costRange := maxCost - minCost
	for i := range cands {
		c := &cands[i]
		// Cost score: 100 = cheapest, 0 = most expensive
		if costRange > 0 {
			c.CostScore = (1.0 - (c.TotalCost-minCost)/costRange) * 100
		} else {
			c.CostScore = 100
		}
		if minimal > 0 {
			c.CostVsMinimal = (c.TotalCost - minimal) / minimal * 100
		}
	}

	// Ties keep the smaller server count first.
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].TotalCost < cands[j].TotalCost
	})

	if p.TopN > 0 && len(cands) > p.TopN {
		cands = cands[:p.TopN]
	}
	for i := range cands {
		cands[i].Rank = i + 1
	}
	return cands
}
