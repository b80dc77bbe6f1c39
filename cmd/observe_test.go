package cmd

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/guimove/queuefit/internal/config"
	"github.com/guimove/queuefit/internal/kube"
	"github.com/guimove/queuefit/internal/metrics"
	"github.com/guimove/queuefit/internal/model"
)

func newObserveCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	c := &cobra.Command{Use: "observe", RunE: func(*cobra.Command, []string) error { return nil }}
	addObserveFlags(c.Flags())
	if err := c.ParseFlags(args); err != nil {
		t.Fatal(err)
	}
	c.SetContext(context.Background())
	return c
}

func useConfig(t *testing.T, c config.Config) {
	t.Helper()
	prevCfg, prevLogger := cfg, logger
	cfg, logger = c, slog.New(slog.DiscardHandler)
	t.Cleanup(func() { cfg, logger = prevCfg, prevLogger })
}

// seedCache writes fresh rates where a CachedSource keyed by endpoint looks.
func seedCache(t *testing.T, dir, endpoint string, q metrics.Queries) string {
	t.Helper()
	data, err := json.Marshal(model.ObservedRates{Lambda: 3, Mu: 4, Source: "seeded", CollectedAt: time.Now()})
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, metrics.CacheKey(endpoint, q)+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestResolveSource_Refresh(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		wantEntry bool
	}{
		{"cache kept", nil, true},
		{"refresh clears", []string{"--refresh"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			c := config.Default()
			c.Prometheus.URL = "http://prometheus.invalid:9090"
			c.Prometheus.CacheTTL = time.Hour
			c.Prometheus.CacheDir = dir
			useConfig(t, c)

			cmd := newObserveCommand(t, tt.args...)
			entry := seedCache(t, dir, c.Prometheus.URL, queriesFromFlags(cmd.Flags()))
			other := filepath.Join(dir, "README")
			if err := os.WriteFile(other, []byte("keep"), 0o644); err != nil {
				t.Fatal(err)
			}

			source, cleanup, err := resolveSource(cmd)
			if err != nil {
				t.Fatalf("resolveSource: %v", err)
			}
			defer cleanup()

			if _, err := os.Stat(entry); (err == nil) != tt.wantEntry {
				t.Errorf("cache entry present = %v, want %v", err == nil, tt.wantEntry)
			}
			if _, err := os.Stat(other); err != nil {
				t.Errorf("unrelated file should survive: %v", err)
			}
			if !tt.wantEntry {
				return
			}
			rates, err := source.Rates(context.Background(), metrics.RateOptions{})
			if err != nil {
				t.Fatalf("Rates: %v", err)
			}
			if rates.Source != "seeded" {
				t.Errorf("expected cached rates, got %+v", rates)
			}
		})
	}
}

func TestResolveSource_NoEndpoint(t *testing.T) {
	useConfig(t, config.Default())

	if _, _, err := resolveSource(newObserveCommand(t)); err == nil {
		t.Error("expected error without URL, rates file, or discovery")
	}
}

func TestResolveSource_RatesFileWins(t *testing.T) {
	useConfig(t, config.Default())

	source, cleanup, err := resolveSource(newObserveCommand(t, "--rates-file", "rates.yaml"))
	if err != nil {
		t.Fatalf("resolveSource: %v", err)
	}
	cleanup()
	if _, ok := source.(*metrics.StaticSource); !ok {
		t.Errorf("expected a static source, got %T", source)
	}
}

func promService() *corev1.Service {
	return &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{
			Name:      "prometheus-server",
			Namespace: "monitoring",
			Labels:    map[string]string{"app": "prometheus-server"},
		},
		Spec: corev1.ServiceSpec{
			Selector: map[string]string{"app": "prometheus"},
			Ports: []corev1.ServicePort{{
				Name:       "http",
				Port:       9090,
				TargetPort: intstr.FromString("web"),
				Protocol:   corev1.ProtocolTCP,
			}},
		},
	}
}

func stubKubeClient(t *testing.T, inCluster bool) {
	t.Helper()
	client := fake.NewSimpleClientset( //nolint:staticcheck // NewClientset requires generated apply configs
		promService(),
		&corev1.Pod{
			ObjectMeta: metav1.ObjectMeta{Name: "prometheus-0", Namespace: "monitoring", Labels: map[string]string{"app": "prometheus"}},
			Spec: corev1.PodSpec{Containers: []corev1.Container{{
				Name:  "prometheus",
				Ports: []corev1.ContainerPort{{Name: "web", ContainerPort: 9091}},
			}}},
			Status: corev1.PodStatus{Phase: corev1.PodRunning},
		},
	)

	prev := newKubeClient
	newKubeClient = func(string, string) (*kube.Client, error) {
		return &kube.Client{Clientset: client, Context: "test", InCluster: inCluster}, nil
	}
	t.Cleanup(func() { newKubeClient = prev })
}

func TestResolveSource_DiscoversInCluster(t *testing.T) {
	c := config.Default()
	c.Kubernetes.Enabled = true
	useConfig(t, c)
	stubKubeClient(t, true)

	source, cleanup, err := resolveSource(newObserveCommand(t))
	if err != nil {
		t.Fatalf("resolveSource: %v", err)
	}
	defer cleanup()

	prom, ok := source.(*metrics.PrometheusSource)
	if !ok {
		t.Fatalf("expected a Prometheus source, got %T", source)
	}
	if prom.Endpoint() != "http://prometheus-server.monitoring.svc:9090" {
		t.Errorf("Endpoint() = %s", prom.Endpoint())
	}
}

func TestResolveSource_PortForwardsOutsideCluster(t *testing.T) {
	dir := t.TempDir()
	c := config.Default()
	c.Kubernetes.Enabled = true
	c.Prometheus.CacheTTL = time.Hour
	c.Prometheus.CacheDir = dir
	useConfig(t, c)
	stubKubeClient(t, false)

	var forwarded *kube.Target
	closed := false
	prev := startPortForward
	startPortForward = func(_ *kube.Client, target *kube.Target) (string, func(), error) {
		forwarded = target
		return "http://127.0.0.1:41234", func() { closed = true }, nil
	}
	t.Cleanup(func() { startPortForward = prev })

	cmd := newObserveCommand(t)
	// The cache is keyed by the service URL, not the tunnel's local port.
	seedCache(t, dir, "http://prometheus-server.monitoring.svc:9090", queriesFromFlags(cmd.Flags()))

	source, cleanup, err := resolveSource(cmd)
	if err != nil {
		t.Fatalf("resolveSource: %v", err)
	}

	if forwarded == nil || forwarded.PodName != "prometheus-0" || forwarded.Port != 9091 {
		t.Errorf("unexpected port-forward target: %+v", forwarded)
	}
	rates, err := source.Rates(context.Background(), metrics.RateOptions{})
	if err != nil {
		t.Fatalf("Rates: %v", err)
	}
	if rates.Source != "seeded" {
		t.Errorf("expected rates cached under the service URL, got %+v", rates)
	}

	cleanup()
	if !closed {
		t.Error("cleanup should close the tunnel")
	}
}
