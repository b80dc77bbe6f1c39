package report

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/guimove/queuefit/internal/model"
)

// MarkdownReporter outputs GitHub-flavored markdown, for pasting into docs
// and pull requests.
type MarkdownReporter struct {
	w io.Writer
}

func (r *MarkdownReporter) ReportResult(ctx context.Context, res *model.Result, meta ReportMeta) error {
	prec := precisionOf(meta)

	fmt.Fprintf(r.w, "## %s\n\n", res.Label())
	if res.Model != model.KindPriority {
		fmt.Fprintf(r.w, "Parameters: `%s` (%s)\n\n", paramsLine(res.Params, prec), exactness(res))
	}
	r.source(meta)

	fmt.Fprintf(r.w, "| Metric | Value |\n")
	fmt.Fprintf(r.w, "|---|---:|\n")
	for _, row := range resultMetrics(res) {
		fmt.Fprintf(r.w, "| %s | %s |\n", escape(row.Label), formatFloat(row.Value, prec))
	}

	if len(res.Classes) > 0 {
		fmt.Fprintf(r.w, "\n| Class | λ | μ | ρ | L | Lq | W | Wq |\n")
		fmt.Fprintf(r.w, "|---:|---:|---:|---:|---:|---:|---:|---:|\n")
		for _, c := range res.Classes {
			fmt.Fprintf(r.w, "| %d | %s | %s | %s | %s | %s | %s | %s |\n",
				c.Class,
				formatFloat(c.Lambda, prec), formatFloat(c.Mu, prec), formatFloat(c.Rho, prec),
				formatFloat(c.L, prec), formatFloat(c.Lq, prec),
				formatFloat(c.W, prec), formatFloat(c.Wq, prec))
		}
	}

	if states, truncated := visibleStates(res.States, meta.MaxStates); len(states) > 0 {
		fmt.Fprintf(r.w, "\n| n | P(n) |\n|---:|---:|\n")
		for n, p := range states {
			fmt.Fprintf(r.w, "| %d | %s |\n", n, formatFloat(p, prec))
		}
		if truncated {
			fmt.Fprintf(r.w, "\n_%d more states omitted._\n", len(res.States)-len(states))
		}
	}

	r.notes(res.Notes)
	return nil
}

func (r *MarkdownReporter) ReportBatch(ctx context.Context, outcomes []model.Outcome, meta ReportMeta) error {
	prec := precisionOf(meta)

	fmt.Fprintf(r.w, "## Batch results\n\n")
	r.source(meta)
	if len(outcomes) == 0 {
		fmt.Fprintf(r.w, "No scenarios evaluated.\n")
		return nil
	}

	fmt.Fprintf(r.w, "| Scenario | Model | ρ | L | W | Wq | Status |\n")
	fmt.Fprintf(r.w, "|---|---|---:|---:|---:|---:|---|\n")
	for _, o := range outcomes {
		if o.Failed() {
			fmt.Fprintf(r.w, "| %s | - | - | - | - | - | **%s**: %s |\n",
				escape(o.Name), o.ErrorKind, escape(o.Error))
			continue
		}
		res := o.Result
		fmt.Fprintf(r.w, "| %s | %s | %s | %s | %s | %s | ok |\n",
			escape(o.Name), escape(res.Label()),
			formatFloat(res.Rho, prec), formatFloat(res.L, prec),
			formatFloat(res.W, prec), formatFloat(res.Wq, prec))
	}
	return nil
}

func (r *MarkdownReporter) ReportPlan(ctx context.Context, plan *model.Plan, meta ReportMeta) error {
	prec := precisionOf(meta)

	fmt.Fprintf(r.w, "## Capacity plan: %s\n\n", plan.Model.Notation())
	fmt.Fprintf(r.w, "λ = %s, μ = %s; cost per server %s, per waiting customer %s, per lost customer %s\n\n",
		formatFloat(plan.Lambda, prec), formatFloat(plan.Mu, prec),
		formatFloat(plan.Costs.Server, prec), formatFloat(plan.Costs.Waiting, prec), formatFloat(plan.Costs.Loss, prec))
	r.source(meta)

	if len(plan.Ranked) == 0 {
		fmt.Fprintf(r.w, "No feasible server count found.\n")
	} else {
		fmt.Fprintf(r.w, "| Rank | Servers | ρ | L | Wq | Total cost | Score |\n")
		fmt.Fprintf(r.w, "|---:|---:|---:|---:|---:|---:|---:|\n")
		for _, c := range plan.Ranked {
			fmt.Fprintf(r.w, "| %d | %d | %s | %s | %s | %s | %.1f |\n",
				c.Rank, c.Servers,
				formatFloat(c.Result.Rho, prec), formatFloat(c.Result.L, prec), formatFloat(c.Result.Wq, prec),
				formatFloat(c.TotalCost, prec), c.CostScore)
		}
	}

	if len(plan.Rejected) > 0 {
		fmt.Fprintf(r.w, "\n**Rejected:**\n\n")
		for _, c := range plan.Rejected {
			fmt.Fprintf(r.w, "- s=%d: %s\n", c.Servers, escape(c.Reason))
		}
	}
	return nil
}

func (r *MarkdownReporter) ReportModels(ctx context.Context, kinds []model.KindInfo) error {
	fmt.Fprintf(r.w, "| Kind | Notation | Parameters | Description |\n")
	fmt.Fprintf(r.w, "|---|---|---|---|\n")
	for _, k := range kinds {
		fmt.Fprintf(r.w, "| `%s` | %s | %s | %s |\n",
			k.Kind, k.Notation, strings.Join(k.Params, ", "), escape(k.Description))
	}
	return nil
}

func (r *MarkdownReporter) source(meta ReportMeta) {
	if meta.Source != "" {
		fmt.Fprintf(r.w, "Source: `%s`\n\n", meta.Source)
	}
	if o := meta.Observed; o != nil {
		prec := precisionOf(meta)
		fmt.Fprintf(r.w, "Observed: λ = %s, μ = %s, s = %d at %s\n\n",
			formatFloat(o.Lambda, prec), formatFloat(o.Mu, prec), o.Servers,
			o.CollectedAt.Format("2006-01-02 15:04:05"))
	}
}

func (r *MarkdownReporter) notes(notes []string) {
	if len(notes) == 0 {
		return
	}
	fmt.Fprintf(r.w, "\n> **Notes**\n")
	for _, n := range notes {
		fmt.Fprintf(r.w, "> - %s\n", escape(n))
	}
}

// escape keeps pipes from breaking table cells.
func escape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
