package batch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/guimove/queuefit/internal/model"
	"github.com/guimove/queuefit/internal/queueing"
)

// Evaluator evaluates one input. *queueing.Evaluator satisfies it.
type Evaluator interface {
	Evaluate(in model.Input) (*model.Result, error)
}

// Runner evaluates independent scenarios on a bounded worker pool.
type Runner struct {
	Evaluator   Evaluator
	Parallelism int
	Logger      *slog.Logger
}

// NewRunner creates a runner sized to the machine.
func NewRunner(ev Evaluator, logger *slog.Logger) *Runner {
	return &Runner{
		Evaluator:   ev,
		Parallelism: runtime.NumCPU(),
		Logger:      logger,
	}
}

// Run evaluates every scenario and returns outcomes in input order. A failed
// scenario is reported in its outcome and does not stop the others. When ctx
// is cancelled no further scenarios are dispatched and ctx's error is returned.
func (r *Runner) Run(ctx context.Context, scenarios []model.Scenario) ([]model.Outcome, error) {
	if len(scenarios) == 0 {
		return nil, ErrNoScenarios
	}

	parallelism := r.Parallelism
	if parallelism <= 0 {
		parallelism = 1
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	start := time.Now()
	outcomes := make([]model.Outcome, len(scenarios))

	sem := make(chan struct{}, parallelism)
	var wg sync.WaitGroup

	for i, sc := range scenarios {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return nil, fmt.Errorf("batch stopped after %d of %d scenarios: %w", i, len(scenarios), err)
		}
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			wg.Wait()
			return nil, fmt.Errorf("batch stopped after %d of %d scenarios: %w", i, len(scenarios), ctx.Err())
		}

		wg.Add(1)
		go func(idx int, scenario model.Scenario) {
			defer wg.Done()
			defer func() { <-sem }()

			outcomes[idx] = r.runOne(scenario, logger)
		}(i, sc)
	}

	wg.Wait()

	logger.Info("batch complete",
		"scenarios", len(scenarios),
		"failed", lo.CountBy(outcomes, model.Outcome.Failed),
		"parallelism", parallelism,
		"duration", time.Since(start))

	return outcomes, nil
}

// runOne evaluates a single scenario, converting an error into the outcome.
func (r *Runner) runOne(sc model.Scenario, logger *slog.Logger) model.Outcome {
	out := model.Outcome{Name: sc.Name}

	res, err := r.Evaluator.Evaluate(sc.Input)
	if err != nil {
		out.ErrorKind = queueing.KindOf(err)
		out.Error = err.Error()
		logger.Debug("scenario failed", "scenario", sc.Name, "kind", out.ErrorKind, "error", err)
		return out
	}

	out.Result = res
	logger.Debug("scenario evaluated", "scenario", sc.Name, "model", res.Model, "notes", len(res.Notes))
	return out
}
