package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/guimove/queuefit/internal/model"
)

// CSVReporter outputs comma-separated rows for spreadsheets. Values are
// written at full precision.
type CSVReporter struct {
	w io.Writer
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func (r *CSVReporter) ReportResult(ctx context.Context, res *model.Result, meta ReportMeta) error {
	rows := [][]string{{"model", "metric", "value"}}
	label := res.Label()
	for _, m := range resultMetrics(res) {
		rows = append(rows, []string{label, m.Key, num(m.Value)})
	}
	for _, c := range res.Classes {
		prefix := fmt.Sprintf("class_%d_", c.Class)
		rows = append(rows,
			[]string{label, prefix + "rho", num(c.Rho)},
			[]string{label, prefix + "l", num(c.L)},
			[]string{label, prefix + "lq", num(c.Lq)},
			[]string{label, prefix + "w", num(c.W)},
			[]string{label, prefix + "wq", num(c.Wq)},
		)
	}
	states, _ := visibleStates(res.States, meta.MaxStates)
	for n, p := range states {
		rows = append(rows, []string{label, fmt.Sprintf("p_%d", n), num(p)})
	}
	return r.write(rows)
}

func (r *CSVReporter) ReportBatch(ctx context.Context, outcomes []model.Outcome, meta ReportMeta) error {
	rows := [][]string{{"scenario", "model", "rho", "p0", "l", "lq", "w", "wq", "notes", "error_kind", "error"}}
	for _, o := range outcomes {
		if o.Failed() {
			rows = append(rows, []string{o.Name, "", "", "", "", "", "", "", "", o.ErrorKind, o.Error})
			continue
		}
		res := o.Result
		rows = append(rows, []string{
			o.Name, res.Label(),
			num(res.Rho), num(res.P0), num(res.L), num(res.Lq), num(res.W), num(res.Wq),
			strings.Join(res.Notes, "; "), "", "",
		})
	}
	return r.write(rows)
}

func (r *CSVReporter) ReportPlan(ctx context.Context, plan *model.Plan, meta ReportMeta) error {
	rows := [][]string{{"rank", "servers", "feasible", "rho", "l", "wq",
		"server_cost", "waiting_cost", "loss_cost", "total_cost", "reason"}}
	for _, c := range plan.Ranked {
		rows = append(rows, candidateRow(c))
	}
	for _, c := range plan.Rejected {
		rows = append(rows, candidateRow(c))
	}
	return r.write(rows)
}

func candidateRow(c model.Candidate) []string {
	rank := ""
	if c.Rank > 0 {
		rank = strconv.Itoa(c.Rank)
	}
	rho, l, wq := "", "", ""
	if c.Result != nil {
		rho, l, wq = num(c.Result.Rho), num(c.Result.L), num(c.Result.Wq)
	}
	return []string{
		rank, strconv.Itoa(c.Servers), strconv.FormatBool(c.Feasible()),
		rho, l, wq,
		num(c.ServerCost), num(c.WaitingCost), num(c.LossCost), num(c.TotalCost),
		c.Reason,
	}
}

func (r *CSVReporter) ReportModels(ctx context.Context, kinds []model.KindInfo) error {
	rows := [][]string{{"kind", "notation", "params", "description"}}
	for _, k := range kinds {
		rows = append(rows, []string{string(k.Kind), k.Notation, strings.Join(k.Params, " "), k.Description})
	}
	return r.write(rows)
}

func (r *CSVReporter) write(rows [][]string) error {
	cw := csv.NewWriter(r.w)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("writing CSV output: %w", err)
	}
	return nil
}
