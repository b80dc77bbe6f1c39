package report

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/guimove/queuefit/internal/model"
)

// TableReporter outputs results as formatted terminal tables.
type TableReporter struct {
	w io.Writer
}

func (r *TableReporter) header(title string, meta ReportMeta) {
	fmt.Fprintf(r.w, "\n")
	fmt.Fprintf(r.w, "%s\n", title)
	fmt.Fprintf(r.w, "%s\n", strings.Repeat("=", 60))
	if meta.Source != "" {
		fmt.Fprintf(r.w, "Source:      %s\n", meta.Source)
	}
	if o := meta.Observed; o != nil {
		prec := precisionOf(meta)
		fmt.Fprintf(r.w, "Observed:    λ=%s  μ=%s  s=%d at %s\n",
			formatFloat(o.Lambda, prec), formatFloat(o.Mu, prec), o.Servers,
			o.CollectedAt.Format("2006-01-02 15:04:05"))
	}
}

func (r *TableReporter) ReportResult(ctx context.Context, res *model.Result, meta ReportMeta) error {
	prec := precisionOf(meta)

	r.header("QueueFit: "+res.Label(), meta)
	if res.Model != model.KindPriority {
		fmt.Fprintf(r.w, "Parameters:  %s\n", paramsLine(res.Params, prec))
	}
	fmt.Fprintf(r.w, "Accuracy:    %s\n", exactness(res))
	fmt.Fprintf(r.w, "%s\n\n", strings.Repeat("=", 60))

	fmt.Fprintf(r.w, "%-32s %s\n", "Metric", "Value")
	fmt.Fprintf(r.w, "%s\n", strings.Repeat("-", 60))
	for _, row := range resultMetrics(res) {
		fmt.Fprintf(r.w, "%-32s %s\n", row.Label, formatFloat(row.Value, prec))
	}
	fmt.Fprintf(r.w, "%s\n", strings.Repeat("-", 60))

	if len(res.Classes) > 0 {
		fmt.Fprintf(r.w, "\n%-6s %10s %10s %10s %10s %10s %10s %10s\n",
			"Class", "λ", "μ", "ρ", "L", "Lq", "W", "Wq")
		fmt.Fprintf(r.w, "%s\n", strings.Repeat("-", 84))
		for _, c := range res.Classes {
			fmt.Fprintf(r.w, "#%-5d %10s %10s %10s %10s %10s %10s %10s\n",
				c.Class,
				formatFloat(c.Lambda, prec),
				formatFloat(c.Mu, prec),
				formatFloat(c.Rho, prec),
				formatFloat(c.L, prec),
				formatFloat(c.Lq, prec),
				formatFloat(c.W, prec),
				formatFloat(c.Wq, prec),
			)
		}
		fmt.Fprintf(r.w, "%s\n", strings.Repeat("-", 84))
	}

	if states, truncated := visibleStates(res.States, meta.MaxStates); len(states) > 0 {
		fmt.Fprintf(r.w, "\nState distribution:\n")
		for n, p := range states {
			fmt.Fprintf(r.w, "  P%-4d %s\n", n, formatFloat(p, prec))
		}
		if truncated {
			fmt.Fprintf(r.w, "  ... %d more states\n", len(res.States)-len(states))
		}
	}

	if len(res.Notes) > 0 {
		fmt.Fprintf(r.w, "\n  Notes:\n")
		for _, n := range res.Notes {
			fmt.Fprintf(r.w, "    - %s\n", n)
		}
	}

	fmt.Fprintf(r.w, "\n")
	return nil
}

func (r *TableReporter) ReportBatch(ctx context.Context, outcomes []model.Outcome, meta ReportMeta) error {
	prec := precisionOf(meta)

	r.header("QueueFit Batch", meta)
	fmt.Fprintf(r.w, "Scenarios:   %d (%d failed)\n", len(outcomes), failedCount(outcomes))
	fmt.Fprintf(r.w, "%s\n\n", strings.Repeat("=", 60))

	if len(outcomes) == 0 {
		fmt.Fprintf(r.w, "No scenarios evaluated.\n")
		return nil
	}

	fmt.Fprintf(r.w, "%-20s %-22s %10s %10s %10s %10s %s\n",
		"Scenario", "Model", "ρ", "L", "W", "Wq", "Status")
	fmt.Fprintf(r.w, "%s\n", strings.Repeat("-", 100))
	for _, o := range outcomes {
		name := o.Name
		if len(name) > 20 {
			name = name[:17] + "..."
		}
		if o.Failed() {
			fmt.Fprintf(r.w, "%-20s %-22s %10s %10s %10s %10s %s: %s\n",
				name, "-", "-", "-", "-", "-", o.ErrorKind, o.Error)
			continue
		}
		res := o.Result
		status := "ok"
		if len(res.Notes) > 0 {
			status = fmt.Sprintf("ok (%d notes)", len(res.Notes))
		}
		fmt.Fprintf(r.w, "%-20s %-22s %10s %10s %10s %10s %s\n",
			name,
			res.Label(),
			formatFloat(res.Rho, prec),
			formatFloat(res.L, prec),
			formatFloat(res.W, prec),
			formatFloat(res.Wq, prec),
			status,
		)
	}
	fmt.Fprintf(r.w, "%s\n\n", strings.Repeat("-", 100))
	return nil
}

func (r *TableReporter) ReportPlan(ctx context.Context, plan *model.Plan, meta ReportMeta) error {
	prec := precisionOf(meta)

	r.header("QueueFit Capacity Plan", meta)
	fmt.Fprintf(r.w, "Model:       %s  λ=%s  μ=%s\n",
		plan.Model.Notation(), formatFloat(plan.Lambda, prec), formatFloat(plan.Mu, prec))
	fmt.Fprintf(r.w, "Costs:       server %s, waiting %s, loss %s\n",
		formatFloat(plan.Costs.Server, prec), formatFloat(plan.Costs.Waiting, prec), formatFloat(plan.Costs.Loss, prec))
	if plan.TargetWq > 0 {
		fmt.Fprintf(r.w, "Target Wq:   <= %s\n", formatFloat(plan.TargetWq, prec))
	}
	fmt.Fprintf(r.w, "%s\n\n", strings.Repeat("=", 60))

	if len(plan.Ranked) == 0 {
		fmt.Fprintf(r.w, "No feasible server count found.\n")
	} else {
		fmt.Fprintf(r.w, "%-4s %7s %10s %10s %10s %12s %6s %s\n",
			"Rank", "Servers", "ρ", "L", "Wq", "Cost", "Score", "Notes")
		fmt.Fprintf(r.w, "%s\n", strings.Repeat("-", 90))
		for _, c := range plan.Ranked {
			notes := ""
			if c.CostVsMinimal < 0 {
				notes = fmt.Sprintf("%.1f%% cheaper than minimal", -c.CostVsMinimal)
			} else if c.CostVsMinimal > 0 {
				notes = fmt.Sprintf("+%.1f%% vs minimal", c.CostVsMinimal)
			}
			fmt.Fprintf(r.w, "#%-3d %7d %10s %10s %10s %12s %6.1f %s\n",
				c.Rank,
				c.Servers,
				formatFloat(c.Result.Rho, prec),
				formatFloat(c.Result.L, prec),
				formatFloat(c.Result.Wq, prec),
				formatFloat(c.TotalCost, prec),
				c.CostScore,
				notes,
			)
		}
		fmt.Fprintf(r.w, "%s\n", strings.Repeat("-", 90))

		best := plan.Best()
		fmt.Fprintf(r.w, "\nRecommended: %s\n", best.Result.Label())
		fmt.Fprintf(r.w, "  Server cost:   %s\n", formatFloat(best.ServerCost, prec))
		fmt.Fprintf(r.w, "  Waiting cost:  %s\n", formatFloat(best.WaitingCost, prec))
		if best.LossCost > 0 {
			fmt.Fprintf(r.w, "  Loss cost:     %s\n", formatFloat(best.LossCost, prec))
		}
		fmt.Fprintf(r.w, "  Total cost:    %s\n", formatFloat(best.TotalCost, prec))
	}

	if len(plan.Rejected) > 0 {
		fmt.Fprintf(r.w, "\n  Rejected:\n")
		for _, c := range plan.Rejected {
			fmt.Fprintf(r.w, "    - s=%d: %s\n", c.Servers, c.Reason)
		}
	}

	fmt.Fprintf(r.w, "\n")
	return nil
}

func (r *TableReporter) ReportModels(ctx context.Context, kinds []model.KindInfo) error {
	fmt.Fprintf(r.w, "%-9s %-15s %-34s %s\n", "Kind", "Notation", "Parameters", "Description")
	fmt.Fprintf(r.w, "%s\n", strings.Repeat("-", 100))
	for _, k := range kinds {
		fmt.Fprintf(r.w, "%-9s %-15s %-34s %s\n", k.Kind, k.Notation, strings.Join(k.Params, ", "), k.Description)
	}
	return nil
}
