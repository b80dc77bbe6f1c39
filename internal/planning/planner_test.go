package planning

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guimove/queuefit/internal/model"
	"github.com/guimove/queuefit/internal/queueing"
)

func newTestPlanner(costs model.CostRates, topN int) *Planner {
	return NewPlanner(queueing.NewEvaluator(0), costs, topN, nil)
}

func servers(cands []model.Candidate) []int {
	out := make([]int, len(cands))
	for i, c := range cands {
		out[i] = c.Servers
	}
	return out
}

func TestPlan_RanksByTotalCost(t *testing.T) {
	p := newTestPlanner(model.CostRates{Server: 10, Waiting: 25}, 0)
	plan, err := p.Plan(context.Background(), Request{Model: "mms", Lambda: 4, Mu: 2, MaxServers: 8})
	require.NoError(t, err)

	// s=1 and s=2 cannot keep up with a = 2.
	assert.Equal(t, []int{1, 2}, servers(plan.Rejected))
	for _, c := range plan.Rejected {
		assert.False(t, c.Stable)
		assert.Contains(t, c.Reason, "unstable")
	}

	require.Len(t, plan.Ranked, 6)
	assert.Equal(t, []int{4, 5, 3}, servers(plan.Ranked)[:3])

	best := plan.Best()
	require.NotNil(t, best)
	assert.Equal(t, 1, best.Rank)
	assert.InDelta(t, 40, best.ServerCost, 1e-9)
	// s=4, a=2: P0 = 3/23, Lq = 4/23, L = 50/23.
	assert.InDelta(t, 25*50.0/23, best.WaitingCost, 1e-9)
	assert.InDelta(t, best.ServerCost+best.WaitingCost, best.TotalCost, 1e-9)
	assert.Equal(t, 100.0, best.CostScore)

	for i := 1; i < len(plan.Ranked); i++ {
		assert.LessOrEqual(t, plan.Ranked[i-1].TotalCost, plan.Ranked[i].TotalCost)
		assert.Equal(t, i+1, plan.Ranked[i].Rank)
	}
}

func TestPlan_CostVsMinimal(t *testing.T) {
	p := newTestPlanner(model.CostRates{Server: 10, Waiting: 25}, 0)
	plan, err := p.Plan(context.Background(), Request{Model: "mms", Lambda: 4, Mu: 2, MaxServers: 6})
	require.NoError(t, err)

	var minimal model.Candidate
	for _, c := range plan.Ranked {
		if c.Servers == 3 {
			minimal = c
		}
	}
	require.Equal(t, 3, minimal.Servers)
	assert.Zero(t, minimal.CostVsMinimal)

	best := plan.Best()
	want := (best.TotalCost - minimal.TotalCost) / minimal.TotalCost * 100
	assert.InDelta(t, want, best.CostVsMinimal, 1e-9)
	assert.Less(t, best.CostVsMinimal, 0.0)
}

func TestPlan_TopN(t *testing.T) {
	p := newTestPlanner(model.CostRates{Server: 1, Waiting: 1}, 2)
	plan, err := p.Plan(context.Background(), Request{Model: "mms", Lambda: 1, Mu: 1, MaxServers: 10})
	require.NoError(t, err)
	assert.Len(t, plan.Ranked, 2)
}

func TestPlan_TargetWq(t *testing.T) {
	p := newTestPlanner(model.CostRates{Server: 1, Waiting: 0}, 0)
	plan, err := p.Plan(context.Background(), Request{Model: "mms", Lambda: 4, Mu: 2, MaxServers: 6, TargetWq: 0.05})
	require.NoError(t, err)

	// Server cost alone favours the fewest servers that meet the target.
	best := plan.Best()
	require.NotNil(t, best)
	assert.Equal(t, 4, best.Servers)
	assert.LessOrEqual(t, best.Result.Wq, 0.05)

	var targetMisses int
	for _, c := range plan.Rejected {
		if c.Stable {
			targetMisses++
			assert.Contains(t, c.Reason, "exceeds target")
			assert.False(t, c.Feasible())
		}
	}
	assert.Equal(t, 1, targetMisses, "s=3 misses the target")
}

func TestPlan_FiniteCapacityLossCost(t *testing.T) {
	p := newTestPlanner(model.CostRates{Server: 5, Waiting: 1, Loss: 100}, 0)
	plan, err := p.Plan(context.Background(), Request{Model: "mmsk", Lambda: 6, Mu: 2, Capacity: 5, MaxServers: 10})
	require.NoError(t, err)

	assert.Empty(t, plan.Rejected, "finite capacity is always stable")
	assert.Len(t, plan.Ranked, 5, "servers capped at capacity")
	for _, c := range plan.Ranked {
		assert.InDelta(t, 6*c.Result.Blocking*100, c.LossCost, 1e-9)
		assert.Greater(t, c.LossCost, 0.0)
	}
}

func TestPlan_FinitePopulationIgnoresLoss(t *testing.T) {
	p := newTestPlanner(model.CostRates{Server: 5, Waiting: 1, Loss: 100}, 0)
	plan, err := p.Plan(context.Background(), Request{Model: "mmsn", Lambda: 0.2, Mu: 1, Population: 3, MaxServers: 10})
	require.NoError(t, err)

	assert.Len(t, plan.Ranked, 3)
	for _, c := range plan.Ranked {
		assert.Zero(t, c.LossCost)
	}
}

func TestPlan_Errors(t *testing.T) {
	p := newTestPlanner(model.CostRates{Server: 1, Waiting: 1}, 0)

	_, err := p.Plan(context.Background(), Request{Model: "mm1", Lambda: 1, Mu: 2, MaxServers: 3})
	assert.ErrorIs(t, err, ErrUnsupportedModel)

	_, err = p.Plan(context.Background(), Request{Model: "nope", Lambda: 1, Mu: 2, MaxServers: 3})
	assert.Error(t, err)

	_, err = p.Plan(context.Background(), Request{Model: "mms", Lambda: 1, MaxServers: 3})
	assert.ErrorIs(t, err, queueing.ErrInvalidParameter)

	_, err = p.Plan(context.Background(), Request{Model: "mms", Lambda: 1, Mu: 1, MinServers: 5, MaxServers: 3})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Plan(ctx, Request{Model: "mms", Lambda: 1, Mu: 1, MaxServers: 3})
	assert.True(t, errors.Is(err, context.Canceled))
}
