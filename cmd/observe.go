package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/guimove/queuefit/internal/metrics"
	"github.com/guimove/queuefit/internal/orchestrator"
)

var observeCmd = &cobra.Command{
	Use:   "observe",
	Short: "Evaluate a model with rates observed in Prometheus",
	Long: `Queries Prometheus (or Thanos/Cortex) for the current arrival and service
rates and evaluates the chosen model with them. The server count comes from
--servers, or from the servers query when one is configured.

Without --prometheus-url, --discover searches the current Kubernetes cluster
for a Prometheus-compatible service and port-forwards to it when run from
outside the cluster.

Use --rates-file to read the rates from a JSON or YAML file instead, for
offline analysis or CI.

Examples:
  queuefit observe -m mms --prometheus-url http://prometheus:9090
  queuefit observe -m mms --discover --kube-context prod
  queuefit observe -m mm1k -k 20 --rates-file rates.yaml`,
	RunE: runObserve,
}

func init() {
	addObserveFlags(observeCmd.Flags())

	_ = viper.BindPFlag("kubernetes.enabled", observeCmd.Flags().Lookup("discover"))
	_ = viper.BindPFlag("kubernetes.kubeconfig", observeCmd.Flags().Lookup("kubeconfig"))
	_ = viper.BindPFlag("kubernetes.context", observeCmd.Flags().Lookup("kube-context"))
	_ = viper.BindPFlag("kubernetes.discovery_namespace", observeCmd.Flags().Lookup("discovery-namespace"))

	_ = observeCmd.MarkFlagRequired("model")
	rootCmd.AddCommand(observeCmd)
}

func addObserveFlags(f *pflag.FlagSet) {
	addRateFlags(f)
	f.String("rates-file", "", "read observed rates from a JSON or YAML file")
	f.String("arrival-query", "", "PromQL for the arrival rate (default from config)")
	f.String("service-query", "", "PromQL for the per-server service rate (default from config)")
	f.String("servers-query", "", "PromQL for the server count (optional)")
	f.Duration("window", 5*time.Minute, "rate window for the built-in queries")
	f.Duration("cache-ttl", 0, "reuse observed rates for this long (default from config)")
	f.Bool("refresh", false, "drop cached rates and query the backend again")
	f.BoolP("discover", "d", false, "discover the Prometheus endpoint in Kubernetes when no URL is set")
	f.String("kubeconfig", "", "path to kubeconfig file")
	f.String("kube-context", "", "Kubernetes context name")
	f.String("discovery-namespace", "", "namespace to search for the metrics service (default: all)")
}

func runObserve(cmd *cobra.Command, args []string) error {
	in, err := inputFromFlags(cmd)
	if err != nil {
		return err
	}

	source, cleanup, err := resolveSource(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	orch := orchestrator.New(source, cfg, logger)
	_, err = orch.Observe(cmd.Context(), in)
	return err
}

// resolveSource picks the rate source: a static file when --rates-file is
// set, Prometheus otherwise. The cleanup func is never nil.
func resolveSource(cmd *cobra.Command) (metrics.RateSource, func(), error) {
	f := cmd.Flags()
	if path, _ := f.GetString("rates-file"); path != "" {
		return metrics.NewStaticSource(path), func() {}, nil
	}

	if ttl, _ := f.GetDuration("cache-ttl"); f.Changed("cache-ttl") {
		cfg.Prometheus.CacheTTL = ttl
	}

	ep, err := resolveEndpoint(cmd.Context())
	if err != nil {
		return nil, nil, err
	}

	queries := queriesFromFlags(f)
	source, err := metrics.NewPrometheusSource(ep.URL, queries,
		metrics.WithTimeout(cfg.Prometheus.Timeout),
		metrics.WithLogger(logger),
	)
	if err != nil {
		ep.Close()
		return nil, nil, err
	}

	if cfg.Prometheus.CacheTTL <= 0 {
		return source, ep.Close, nil
	}
	dir := cfg.Prometheus.CacheDir
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			ep.Close()
			return nil, nil, fmt.Errorf("locating cache directory: %w", err)
		}
		dir = filepath.Join(base, "queuefit")
	}

	cached := metrics.NewCachedSource(source, dir, metrics.CacheKey(ep.Key, queries), cfg.Prometheus.CacheTTL, logger)
	if refresh, _ := f.GetBool("refresh"); refresh {
		if err := cached.Clear(); err != nil {
			ep.Close()
			return nil, nil, fmt.Errorf("clearing rates cache: %w", err)
		}
		logger.Debug("cleared rates cache", "dir", dir)
	}
	return cached, ep.Close, nil
}

// queriesFromFlags layers the query flags over the configured queries.
func queriesFromFlags(f *pflag.FlagSet) metrics.Queries {
	queries := metrics.Queries{
		Arrival: cfg.Prometheus.ArrivalQuery,
		Service: cfg.Prometheus.ServiceQuery,
		Servers: cfg.Prometheus.ServersQuery,
	}
	if q, _ := f.GetString("arrival-query"); q != "" {
		queries.Arrival = q
	}
	if q, _ := f.GetString("service-query"); q != "" {
		queries.Service = q
	}
	if q, _ := f.GetString("servers-query"); q != "" {
		queries.Servers = q
	}
	window, _ := f.GetDuration("window")
	if f.Changed("window") {
		// An explicit window rebuilds the built-in expressions.
		d := metrics.DefaultQueries(window)
		if !f.Changed("arrival-query") {
			queries.Arrival = d.Arrival
		}
		if !f.Changed("service-query") {
			queries.Service = d.Service
		}
	}
	return queries.WithDefaults(window)
}
