package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/guimove/queuefit/internal/model"
)

// StaticSource loads observed rates from a JSON or YAML file.
// Used for testing, offline analysis, and CI pipelines.
type StaticSource struct {
	filePath string
	rates    *model.ObservedRates
}

// NewStaticSource creates a source that reads from a file.
func NewStaticSource(filePath string) *StaticSource {
	return &StaticSource{filePath: filePath}
}

// NewStaticSourceFromRates creates a source from fixed rates.
func NewStaticSourceFromRates(rates *model.ObservedRates) *StaticSource {
	return &StaticSource{rates: rates}
}

// Ping checks that the file exists.
func (s *StaticSource) Ping(ctx context.Context) error {
	if s.rates != nil {
		return nil
	}
	if _, err := os.Stat(s.filePath); err != nil {
		return fmt.Errorf("static rates file: %w", err)
	}
	return nil
}

// BackendType returns "static".
func (s *StaticSource) BackendType() string {
	return "static"
}

// Rates loads the rates from the file.
func (s *StaticSource) Rates(ctx context.Context, opts RateOptions) (*model.ObservedRates, error) {
	rates := s.rates
	if rates == nil {
		var err error
		if rates, err = s.load(); err != nil {
			return nil, err
		}
	}

	if rates.Lambda <= 0 || rates.Mu <= 0 {
		return nil, fmt.Errorf("%w (lambda %g, mu %g)", ErrNoRates, rates.Lambda, rates.Mu)
	}

	out := *rates
	if out.Source == "" {
		out.Source = "static " + s.filePath
	}
	if out.CollectedAt.IsZero() {
		out.CollectedAt = opts.at()
	}
	return &out, nil
}

func (s *StaticSource) load() (*model.ObservedRates, error) {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return nil, fmt.Errorf("reading static rates file: %w", err)
	}

	var rates model.ObservedRates
	if strings.EqualFold(filepath.Ext(s.filePath), ".json") {
		err = json.Unmarshal(data, &rates)
	} else {
		err = yaml.Unmarshal(data, &rates)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing static rates file: %w", err)
	}
	return &rates, nil
}

// compile-time interface checks
var (
	_ RateSource = (*StaticSource)(nil)
	_ RateSource = (*PrometheusSource)(nil)
)

// staleAfter is how old a static observation may be before callers are warned.
const staleAfter = 24 * time.Hour

// Stale reports whether rates were collected longer ago than a day.
func Stale(r *model.ObservedRates, now time.Time) bool {
	return !r.CollectedAt.IsZero() && now.Sub(r.CollectedAt) > staleAfter
}
