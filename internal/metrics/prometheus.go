package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	promapi "github.com/prometheus/client_golang/api"
	promv1 "github.com/prometheus/client_golang/api/prometheus/v1"
	prommodel "github.com/prometheus/common/model"

	"github.com/guimove/queuefit/internal/model"
)

// PrometheusSource reads observed rates from Prometheus, Thanos, or Cortex.
type PrometheusSource struct {
	api      promv1.API
	endpoint string
	backend  string
	timeout  time.Duration
	queries  Queries
	logger   *slog.Logger
}

// PrometheusOption configures the Prometheus source.
type PrometheusOption func(*PrometheusSource)

// WithTimeout sets the query timeout.
func WithTimeout(d time.Duration) PrometheusOption {
	return func(s *PrometheusSource) { s.timeout = d }
}

// WithLogger sets the logger for query diagnostics.
func WithLogger(l *slog.Logger) PrometheusOption {
	return func(s *PrometheusSource) { s.logger = l }
}

// NewPrometheusSource creates a source connected to the given endpoint.
func NewPrometheusSource(endpoint string, queries Queries, opts ...PrometheusOption) (*PrometheusSource, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("prometheus url is required")
	}
	if queries.Arrival == "" || queries.Service == "" {
		return nil, fmt.Errorf("arrival and service queries are required")
	}

	client, err := promapi.NewClient(promapi.Config{
		Address: endpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("creating prometheus client: %w", err)
	}

	s := &PrometheusSource{
		api:      promv1.NewAPI(client),
		endpoint: endpoint,
		backend:  "prometheus",
		timeout:  30 * time.Second,
		queries:  queries,
		logger:   slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Ping checks connectivity and detects the backend type.
func (s *PrometheusSource) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, min(s.timeout, 10*time.Second))
	defer cancel()

	if _, _, err := s.api.Query(ctx, "up", time.Now()); err != nil {
		return fmt.Errorf("%w: %v", ErrPrometheusUnreachable, err)
	}

	s.detectBackend(ctx)
	return nil
}

// Endpoint returns the URL the queries are sent to.
func (s *PrometheusSource) Endpoint() string {
	return s.endpoint
}

// BackendType returns the detected backend type.
func (s *PrometheusSource) BackendType() string {
	return s.backend
}

// detectBackend tries to identify Thanos or Cortex.
func (s *PrometheusSource) detectBackend(ctx context.Context) {
	result, _, err := s.api.Query(ctx, "thanos_store_nodes_total", time.Now())
	if err == nil && result != nil && result.String() != "" {
		s.backend = "thanos"
		return
	}

	result, _, err = s.api.Query(ctx, "cortex_ingester_active_series", time.Now())
	if err == nil && result != nil && result.String() != "" {
		s.backend = "cortex"
	}
}

// Rates runs the configured queries in parallel and sums their samples.
func (s *PrometheusSource) Rates(ctx context.Context, opts RateOptions) (*model.ObservedRates, error) {
	type queryResult struct {
		name string
		data prommodel.Value
		err  error
	}

	queries := map[string]string{
		"arrival": s.queries.Arrival,
		"service": s.queries.Service,
	}
	if s.queries.Servers != "" {
		queries["servers"] = s.queries.Servers
	}

	at := opts.at()
	results := make(chan queryResult, len(queries))
	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	for name, q := range queries {
		go func(n, query string) {
			data, warnings, err := s.api.Query(queryCtx, query, at)
			for _, w := range warnings {
				s.logger.Warn("prometheus query warning", "query", n, "warning", w)
			}
			results <- queryResult{name: n, data: data, err: err}
		}(name, q)
	}

	values := make(map[string]float64)
	var errs []string
	for i := 0; i < len(queries); i++ {
		r := <-results
		if r.err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", r.name, r.err))
			continue
		}
		v, ok := sumValue(r.data)
		if !ok {
			errs = append(errs, fmt.Sprintf("%s: empty or non-finite result", r.name))
			continue
		}
		s.logger.Debug("prometheus query", "query", r.name, "value", v)
		values[r.name] = v
	}

	lambda, okArrival := values["arrival"]
	mu, okService := values["service"]
	if !okArrival || !okService || lambda <= 0 || mu <= 0 {
		errDetail := ""
		if len(errs) > 0 {
			errDetail = "; query errors: " + strings.Join(errs, ", ")
		}
		return nil, fmt.Errorf("%w (lambda %g, mu %g)%s", ErrNoRates, lambda, mu, errDetail)
	}

	rates := &model.ObservedRates{
		Lambda:      lambda,
		Mu:          mu,
		Source:      fmt.Sprintf("%s %s", s.backend, s.endpoint),
		CollectedAt: at,
	}
	if n, ok := values["servers"]; ok && n >= 1 {
		rates.Servers = int(math.Round(n))
	}
	return rates, nil
}

// sumValue reduces an instant query result to one number: scalars as-is,
// vectors summed over their samples.
func sumValue(v prommodel.Value) (float64, bool) {
	var total float64
	switch val := v.(type) {
	case *prommodel.Scalar:
		total = float64(val.Value)
	case prommodel.Vector:
		if len(val) == 0 {
			return 0, false
		}
		for _, sample := range val {
			total += float64(sample.Value)
		}
	default:
		return 0, false
	}
	if math.IsNaN(total) || math.IsInf(total, 0) {
		return 0, false
	}
	return total, true
}
