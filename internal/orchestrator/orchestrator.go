package orchestrator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/guimove/queuefit/internal/batch"
	"github.com/guimove/queuefit/internal/config"
	"github.com/guimove/queuefit/internal/metrics"
	"github.com/guimove/queuefit/internal/model"
	"github.com/guimove/queuefit/internal/planning"
	"github.com/guimove/queuefit/internal/queueing"
	"github.com/guimove/queuefit/internal/report"
)

// Orchestrator wires inputs to the engine and the engine to a reporter.
type Orchestrator struct {
	Source    metrics.RateSource // only needed by Observe
	Evaluator *queueing.Evaluator
	Config    config.Config
	Writer    io.Writer
	Logger    *slog.Logger
}

// New creates an orchestrator with the given dependencies.
func New(source metrics.RateSource, cfg config.Config, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = config.Discard()
	}
	return &Orchestrator{
		Source:    source,
		Evaluator: queueing.NewEvaluator(cfg.Engine.Tolerance),
		Config:    cfg,
		Writer:    os.Stdout,
		Logger:    logger,
	}
}

func (o *Orchestrator) reporter() report.Reporter {
	return report.NewReporter(o.Config.Output.Format, o.Writer)
}

func (o *Orchestrator) meta(source string) report.ReportMeta {
	return report.ReportMeta{
		GeneratedAt: time.Now(),
		Source:      source,
		Precision:   o.Config.Output.Precision,
		MaxStates:   o.Config.Output.MaxStates,
	}
}

// Evaluate runs a single model evaluation and reports it.
func (o *Orchestrator) Evaluate(ctx context.Context, in model.Input, source string) (*model.Result, error) {
	start := time.Now()
	res, err := o.Evaluator.Evaluate(in)
	if err != nil {
		o.Logger.Debug("evaluation failed", "model", in.Model, "kind", queueing.KindOf(err), "error", err)
		return nil, fmt.Errorf("evaluating %s: %w", in.Model, err)
	}
	o.Logger.Debug("evaluated",
		"model", res.Label(),
		"rho", res.Rho,
		"notes", len(res.Notes),
		"duration", time.Since(start))
	for _, n := range res.Notes {
		o.Logger.Warn("advisory", "model", res.Label(), "note", n)
	}

	if err := o.reporter().ReportResult(ctx, res, o.meta(source)); err != nil {
		return nil, fmt.Errorf("writing report: %w", err)
	}
	return res, nil
}

// Batch evaluates every scenario in a file and reports the outcomes.
// Failed scenarios do not fail the batch.
func (o *Orchestrator) Batch(ctx context.Context, path string) ([]model.Outcome, error) {
	scenarios, err := batch.LoadScenarios(path)
	if err != nil {
		return nil, err
	}
	o.Logger.Info("loaded scenarios", "file", path, "count", len(scenarios))

	runner := batch.NewRunner(o.Evaluator, o.Logger)
	runner.Parallelism = o.Config.Batch.Parallelism

	outcomes, err := runner.Run(ctx, scenarios)
	if err != nil {
		return nil, fmt.Errorf("running batch: %w", err)
	}

	if err := o.reporter().ReportBatch(ctx, outcomes, o.meta(path)); err != nil {
		return nil, fmt.Errorf("writing report: %w", err)
	}
	return outcomes, nil
}

// Plan sweeps server counts for req, priced with the configured costs.
func (o *Orchestrator) Plan(ctx context.Context, req planning.Request) (*model.Plan, error) {
	cfg := o.Config.Planning
	if req.MaxServers == 0 {
		req.MaxServers = cfg.MaxServers
	}

	planner := planning.NewPlanner(o.Evaluator, model.CostRates{
		Server:  cfg.ServerCost,
		Waiting: cfg.WaitingCost,
		Loss:    cfg.LossCost,
	}, cfg.TopN, o.Logger)

	plan, err := planner.Plan(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("planning capacity: %w", err)
	}
	if plan.Best() == nil {
		o.Logger.Warn("no feasible server count", "model", plan.Model, "max_servers", req.MaxServers)
	}

	if err := o.reporter().ReportPlan(ctx, plan, o.meta("")); err != nil {
		return nil, fmt.Errorf("writing report: %w", err)
	}
	return plan, nil
}

// Observe reads live rates from the configured source and evaluates in with
// them. Rates in the template are replaced; a zero server count takes the
// observed one.
func (o *Orchestrator) Observe(ctx context.Context, in model.Input) (*model.Result, error) {
	if o.Source == nil {
		return nil, fmt.Errorf("no rate source configured")
	}

	o.Logger.Info("collecting rates", "backend", o.Source.BackendType())
	if err := o.Source.Ping(ctx); err != nil {
		return nil, fmt.Errorf("checking rate source: %w", err)
	}

	rates, err := o.Source.Rates(ctx, metrics.RateOptions{})
	if err != nil {
		return nil, fmt.Errorf("collecting rates: %w", err)
	}
	o.Logger.Info("observed rates",
		"lambda", rates.Lambda,
		"mu", rates.Mu,
		"servers", rates.Servers,
		"source", rates.Source)
	if metrics.Stale(rates, time.Now()) {
		o.Logger.Warn("observed rates are more than a day old", "collected_at", rates.CollectedAt)
	}

	in.Lambda, in.Mu, in.Rho = rates.Lambda, rates.Mu, 0
	if in.Servers == 0 {
		in.Servers = rates.Servers
	}

	res, err := o.Evaluator.Evaluate(in)
	if err != nil {
		return nil, fmt.Errorf("evaluating observed %s: %w", in.Model, err)
	}

	meta := o.meta(rates.Source)
	meta.Observed = rates
	if err := o.reporter().ReportResult(ctx, res, meta); err != nil {
		return nil, fmt.Errorf("writing report: %w", err)
	}
	return res, nil
}

// Models lists the supported model variants.
func (o *Orchestrator) Models(ctx context.Context) error {
	return o.reporter().ReportModels(ctx, model.Kinds())
}
