package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Config is the top-level configuration for QueueFit.
type Config struct {
	Engine     EngineConfig     `yaml:"engine" mapstructure:"engine"`
	Output     OutputConfig     `yaml:"output" mapstructure:"output"`
	Batch      BatchConfig      `yaml:"batch" mapstructure:"batch"`
	Planning   PlanningConfig   `yaml:"planning" mapstructure:"planning"`
	Prometheus PrometheusConfig `yaml:"prometheus" mapstructure:"prometheus"`
	Kubernetes KubernetesConfig `yaml:"kubernetes" mapstructure:"kubernetes"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

type EngineConfig struct {
	// Tolerance decides when a load is treated as exactly 1.
	Tolerance float64 `yaml:"tolerance" mapstructure:"tolerance"`
}

type OutputConfig struct {
	Format    string `yaml:"format" mapstructure:"format"`
	Precision int    `yaml:"precision" mapstructure:"precision"`
	MaxStates int    `yaml:"max_states" mapstructure:"max_states"` // 0 hides the distribution
}

type BatchConfig struct {
	Parallelism int `yaml:"parallelism" mapstructure:"parallelism"`
}

type PlanningConfig struct {
	ServerCost  float64 `yaml:"server_cost" mapstructure:"server_cost"`
	WaitingCost float64 `yaml:"waiting_cost" mapstructure:"waiting_cost"`
	LossCost    float64 `yaml:"loss_cost" mapstructure:"loss_cost"`
	MaxServers  int     `yaml:"max_servers" mapstructure:"max_servers"`
	TopN        int     `yaml:"top_n" mapstructure:"top_n"`
}

type PrometheusConfig struct {
	URL          string        `yaml:"url" mapstructure:"url"`
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	ArrivalQuery string        `yaml:"arrival_query" mapstructure:"arrival_query"`
	ServiceQuery string        `yaml:"service_query" mapstructure:"service_query"`
	ServersQuery string        `yaml:"servers_query" mapstructure:"servers_query"` // optional

	// Observed rates are reused for CacheTTL; 0 disables the cache.
	CacheTTL time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
	CacheDir string        `yaml:"cache_dir" mapstructure:"cache_dir"` // empty = user cache dir
}

// KubernetesConfig controls discovery of the rate backend when no
// Prometheus URL is configured.
type KubernetesConfig struct {
	Enabled            bool   `yaml:"enabled" mapstructure:"enabled"`
	Kubeconfig         string `yaml:"kubeconfig" mapstructure:"kubeconfig"`
	Context            string `yaml:"context" mapstructure:"context"`
	DiscoveryNamespace string `yaml:"discovery_namespace" mapstructure:"discovery_namespace"` // empty = all namespaces
}

type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
	File  string `yaml:"file" mapstructure:"file"` // empty = stderr only
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Engine: EngineConfig{
			Tolerance: 1e-9,
		},
		Output: OutputConfig{
			Format:    "table",
			Precision: 4,
			MaxStates: 10,
		},
		Batch: BatchConfig{
			Parallelism: 4,
		},
		Planning: PlanningConfig{
			ServerCost:  1,
			WaitingCost: 1,
			LossCost:    0,
			MaxServers:  32,
			TopN:        5,
		},
		Prometheus: PrometheusConfig{
			Timeout:      30 * time.Second,
			ArrivalQuery: `sum(rate(http_requests_total[5m]))`,
			ServiceQuery: `1 / (sum(rate(http_request_duration_seconds_sum[5m])) / sum(rate(http_request_duration_seconds_count[5m])))`,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks the config for consistency.
func (c *Config) Validate() error {
	if c.Engine.Tolerance <= 0 || c.Engine.Tolerance >= 1e-2 {
		return fmt.Errorf("engine tolerance must be in (0, 0.01), got %v", c.Engine.Tolerance)
	}
	validFormats := map[string]bool{"table": true, "json": true, "markdown": true, "csv": true}
	if !validFormats[c.Output.Format] {
		return fmt.Errorf("output format must be table, json, markdown, or csv, got %q", c.Output.Format)
	}
	if c.Output.Precision < 0 || c.Output.Precision > 15 {
		return fmt.Errorf("output precision must be between 0 and 15, got %d", c.Output.Precision)
	}
	if c.Output.MaxStates < 0 {
		return fmt.Errorf("max_states must be non-negative, got %d", c.Output.MaxStates)
	}
	if c.Batch.Parallelism <= 0 {
		c.Batch.Parallelism = 4
	}
	if c.Planning.ServerCost < 0 || c.Planning.WaitingCost < 0 || c.Planning.LossCost < 0 {
		return fmt.Errorf("planning costs must be non-negative, got server %v, waiting %v, loss %v",
			c.Planning.ServerCost, c.Planning.WaitingCost, c.Planning.LossCost)
	}
	if c.Planning.MaxServers < 1 {
		return fmt.Errorf("max_servers must be at least 1, got %d", c.Planning.MaxServers)
	}
	if c.Planning.TopN <= 0 {
		c.Planning.TopN = 5
	}
	if c.Prometheus.Timeout <= 0 {
		return fmt.Errorf("prometheus timeout must be positive, got %v", c.Prometheus.Timeout)
	}
	if c.Prometheus.CacheTTL < 0 {
		return fmt.Errorf("prometheus cache_ttl must be non-negative, got %v", c.Prometheus.CacheTTL)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("log level must be debug, info, warn, or error, got %q", s)
}
