package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/guimove/queuefit/internal/config"
	"github.com/guimove/queuefit/internal/orchestrator"
)

var (
	cfgFile  string
	cfg      config.Config
	logger   *slog.Logger
	closeLog = func() error { return nil }
)

var rootCmd = &cobra.Command{
	Use:   "queuefit",
	Short: "Analytical queueing-model calculator",
	Long: `QueueFit evaluates classic Markovian and M/G/1 queueing models in closed form:
utilization, idle probability, mean queue lengths and waiting times, state
probabilities and waiting-time tails.

It also sizes server pools by economic cost, runs scenario files in batch,
and evaluates models against rates observed in Prometheus.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}
		return setupLogging()
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeLog()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: queuefit.yaml)")

	// Global flags that map to config
	rootCmd.PersistentFlags().StringP("output", "o", "", "output format: table, json, markdown, csv")
	rootCmd.PersistentFlags().Int("precision", 0, "decimal places in table and markdown output")
	rootCmd.PersistentFlags().Int("max-states", 0, "state probabilities to print for finite models (0 hides them)")
	rootCmd.PersistentFlags().Float64("tolerance", 0, "tolerance for treating a load as exactly 1")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-file", "", "also write JSON logs to this file")
	rootCmd.PersistentFlags().String("prometheus-url", "", "Prometheus/Thanos endpoint URL")

	_ = viper.BindPFlag("output.format", rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag("output.precision", rootCmd.PersistentFlags().Lookup("precision"))
	_ = viper.BindPFlag("output.max_states", rootCmd.PersistentFlags().Lookup("max-states"))
	_ = viper.BindPFlag("engine.tolerance", rootCmd.PersistentFlags().Lookup("tolerance"))
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.file", rootCmd.PersistentFlags().Lookup("log-file"))
	_ = viper.BindPFlag("prometheus.url", rootCmd.PersistentFlags().Lookup("prometheus-url"))
}

func loadConfig() error {
	// Start with defaults
	cfg = config.Default()
	setDefaults(cfg)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("queuefit")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.queuefit")
	}

	// Environment variable overrides, e.g. QUEUEFIT_PROMETHEUS_URL
	viper.SetEnvPrefix("QUEUEFIT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file (not an error if missing)
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || cfgFile != "" {
			return fmt.Errorf("reading config file: %w", err)
		}
	}

	// Unmarshal into config struct
	if err := viper.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}

	return cfg.Validate()
}

// setDefaults registers every key with viper so that environment variables
// reach Unmarshal even without a config file. Flags left at their zero value
// do not override these.
func setDefaults(d config.Config) {
	defaults := map[string]any{
		"engine.tolerance":               d.Engine.Tolerance,
		"output.format":                  d.Output.Format,
		"output.precision":               d.Output.Precision,
		"output.max_states":              d.Output.MaxStates,
		"batch.parallelism":              d.Batch.Parallelism,
		"planning.server_cost":           d.Planning.ServerCost,
		"planning.waiting_cost":          d.Planning.WaitingCost,
		"planning.loss_cost":             d.Planning.LossCost,
		"planning.max_servers":           d.Planning.MaxServers,
		"planning.top_n":                 d.Planning.TopN,
		"prometheus.url":                 d.Prometheus.URL,
		"prometheus.timeout":             d.Prometheus.Timeout,
		"prometheus.arrival_query":       d.Prometheus.ArrivalQuery,
		"prometheus.service_query":       d.Prometheus.ServiceQuery,
		"prometheus.servers_query":       d.Prometheus.ServersQuery,
		"prometheus.cache_ttl":           d.Prometheus.CacheTTL,
		"prometheus.cache_dir":           d.Prometheus.CacheDir,
		"kubernetes.enabled":             d.Kubernetes.Enabled,
		"kubernetes.kubeconfig":          d.Kubernetes.Kubeconfig,
		"kubernetes.context":             d.Kubernetes.Context,
		"kubernetes.discovery_namespace": d.Kubernetes.DiscoveryNamespace,
		"log.level":                      d.Log.Level,
		"log.file":                       d.Log.File,
	}
	for k, v := range defaults {
		viper.SetDefault(k, v)
	}
}

func setupLogging() error {
	l, cleanup, err := config.SetupLogger(cfg.Log)
	if err != nil {
		return err
	}
	logger, closeLog = l, cleanup
	slog.SetDefault(logger)
	return nil
}

// newOrchestrator builds the orchestrator the subcommands share.
func newOrchestrator() *orchestrator.Orchestrator {
	return orchestrator.New(nil, cfg, logger)
}
