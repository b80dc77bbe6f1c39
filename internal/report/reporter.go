package report

import (
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/samber/lo"

	"github.com/guimove/queuefit/internal/model"
)

// Reporter formats and writes evaluation output to a destination.
type Reporter interface {
	ReportResult(ctx context.Context, res *model.Result, meta ReportMeta) error
	ReportBatch(ctx context.Context, outcomes []model.Outcome, meta ReportMeta) error
	ReportPlan(ctx context.Context, plan *model.Plan, meta ReportMeta) error
	ReportModels(ctx context.Context, kinds []model.KindInfo) error
}

// ReportMeta contains contextual metadata for the report.
type ReportMeta struct {
	GeneratedAt time.Time `json:"generated_at"`
	Source      string    `json:"source,omitempty"` // input file or rate source

	// Observed rates behind an observe run (nil otherwise)
	Observed *model.ObservedRates `json:"observed,omitempty"`

	// Presentation only; not encoded.
	Precision int `json:"-"`
	MaxStates int `json:"-"`
}

// NewReporter creates a reporter for the given format writing to w.
func NewReporter(format string, w io.Writer) Reporter {
	switch format {
	case "json":
		return &JSONReporter{w: w}
	case "markdown":
		return &MarkdownReporter{w: w}
	case "csv":
		return &CSVReporter{w: w}
	default:
		return &TableReporter{w: w}
	}
}

// metricRow is one scalar output with its machine key and display label.
type metricRow struct {
	Key   string
	Label string
	Value float64
}

// resultMetrics lists the scalar metrics that apply to res, in display order.
func resultMetrics(res *model.Result) []metricRow {
	rows := []metricRow{
		{"rho", "ρ  utilization", res.Rho},
		{"offered_load", "a  offered load λ/μ", res.OfferedLoad},
		{"p0", "P0 idle probability", res.P0},
		{"l", "L  mean in system", res.L},
		{"lq", "Lq mean in queue", res.Lq},
		{"w", "W  mean time in system", res.W},
		{"wq", "Wq mean wait in queue", res.Wq},
	}

	switch res.Model {
	case model.KindMM1K, model.KindMMSK:
		rows = append(rows,
			metricRow{"lambda_eff", "λeff effective arrival rate", res.LambdaEff},
			metricRow{"blocking", "PK blocking probability", res.Blocking},
		)
	case model.KindMM1N, model.KindMMSN:
		rows = append(rows,
			metricRow{"lambda_eff", "λeff effective arrival rate", res.LambdaEff},
			metricRow{"blocking", "PN all customers present", res.Blocking},
		)
	case model.KindMM1, model.KindMMS:
		rows = append(rows, metricRow{"prob_wait", "C  probability of waiting", res.ProbWait})
	case model.KindMG1:
		rows = append(rows,
			metricRow{"service_mean", "E[S] mean service time", res.ServiceMean},
			metricRow{"service_second_moment", "E[S²] second moment", res.ServiceSecondMoment},
		)
	}

	if res.State != nil {
		rows = append(rows, metricRow{
			fmt.Sprintf("p_n_%d", res.State.N), fmt.Sprintf("P(n=%d)", res.State.N), res.State.P,
		})
	}
	if res.Tail != nil {
		rows = append(rows, metricRow{
			fmt.Sprintf("p_n_gt_%d", res.Tail.R), fmt.Sprintf("P(n>%d)", res.Tail.R), res.Tail.P,
		})
	}
	if wt := res.WaitTail; wt != nil {
		suffix := ""
		if wt.Approx {
			suffix = " ≈"
		}
		t := strconv.FormatFloat(wt.T, 'g', -1, 64)
		rows = append(rows,
			metricRow{"p_w_gt_t", fmt.Sprintf("P(W>%s)%s", t, suffix), wt.System},
			metricRow{"p_wq_gt_t", fmt.Sprintf("P(Wq>%s)%s", t, suffix), wt.Queue},
		)
	}
	return rows
}

// formatFloat renders v with prec significant decimals, switching to
// exponent form for very small or very large magnitudes.
func formatFloat(v float64, prec int) string {
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0):
		return strconv.FormatFloat(v, 'g', -1, 64)
	case v == 0:
		return "0"
	}
	abs := math.Abs(v)
	if abs < 1e-4 || abs >= 1e7 {
		return strconv.FormatFloat(v, 'e', prec, 64)
	}
	return strconv.FormatFloat(v, 'f', prec, 64)
}

// visibleStates trims the distribution to at most limit entries.
func visibleStates(states []float64, limit int) ([]float64, bool) {
	if limit <= 0 {
		return nil, len(states) > 0
	}
	if len(states) > limit {
		return states[:limit], true
	}
	return states, false
}

func precisionOf(meta ReportMeta) int {
	if meta.Precision <= 0 {
		return 4
	}
	return meta.Precision
}

func exactness(res *model.Result) string {
	if res.Exact {
		return "exact"
	}
	return "approximate"
}

func paramsLine(p model.Params, prec int) string {
	s := fmt.Sprintf("λ=%s  μ=%s", formatFloat(p.Lambda, prec), formatFloat(p.Mu, prec))
	if p.Servers > 0 {
		s += fmt.Sprintf("  s=%d", p.Servers)
	}
	if p.Capacity > 0 {
		s += fmt.Sprintf("  K=%d", p.Capacity)
	}
	if p.Population > 0 {
		s += fmt.Sprintf("  N=%d", p.Population)
	}
	if p.Variance != nil {
		s += fmt.Sprintf("  σ²=%s", formatFloat(*p.Variance, prec))
	}
	return s
}

func failedCount(outcomes []model.Outcome) int {
	return lo.CountBy(outcomes, func(o model.Outcome) bool { return o.Failed() })
}
