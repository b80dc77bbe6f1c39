package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/guimove/queuefit/internal/model"
)

// JSONReporter outputs machine-readable JSON.
type JSONReporter struct {
	w io.Writer
}

type jsonResult struct {
	Meta   ReportMeta    `json:"meta"`
	Result *model.Result `json:"result"`
}

type jsonBatch struct {
	Meta     ReportMeta      `json:"meta"`
	Failed   int             `json:"failed"`
	Outcomes []model.Outcome `json:"outcomes"`
}

type jsonPlan struct {
	Meta ReportMeta  `json:"meta"`
	Plan *model.Plan `json:"plan"`
}

type jsonKind struct {
	Kind        model.Kind `json:"kind"`
	Notation    string     `json:"notation"`
	Description string     `json:"description"`
	Params      []string   `json:"params"`
}

func (r *JSONReporter) ReportResult(ctx context.Context, res *model.Result, meta ReportMeta) error {
	return r.encode(jsonResult{Meta: meta, Result: res})
}

func (r *JSONReporter) ReportBatch(ctx context.Context, outcomes []model.Outcome, meta ReportMeta) error {
	out := jsonBatch{Meta: meta, Outcomes: outcomes}
	if out.Outcomes == nil {
		out.Outcomes = []model.Outcome{}
	}
	out.Failed = failedCount(outcomes)
	return r.encode(out)
}

func (r *JSONReporter) ReportPlan(ctx context.Context, plan *model.Plan, meta ReportMeta) error {
	return r.encode(jsonPlan{Meta: meta, Plan: plan})
}

func (r *JSONReporter) ReportModels(ctx context.Context, kinds []model.KindInfo) error {
	out := make([]jsonKind, len(kinds))
	for i, k := range kinds {
		out[i] = jsonKind(k)
	}
	return r.encode(out)
}

func (r *JSONReporter) encode(v any) error {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}
	return nil
}
