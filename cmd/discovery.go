package cmd

import (
	"context"
	"fmt"

	"github.com/guimove/queuefit/internal/kube"
)

// Swapped in tests.
var (
	newKubeClient    = kube.NewClient
	startPortForward = func(c *kube.Client, t *kube.Target) (string, func(), error) {
		tunnel, err := kube.StartPortForward(c, t)
		if err != nil {
			return "", nil, err
		}
		return tunnel.URL(), tunnel.Close, nil
	}
)

// rateEndpoint is where the rate queries go. Key names the backend for the
// rates cache; it stays the service URL when URL is a port-forward, whose
// local port changes on every run.
type rateEndpoint struct {
	URL   string
	Key   string
	Close func()
}

// resolveEndpoint returns the explicit --prometheus-url, or discovers a
// Prometheus-compatible service in the cluster when discovery is enabled.
// Outside the cluster the service is reached through a port-forward to one
// of its pods; Close tears it down.
func resolveEndpoint(ctx context.Context) (*rateEndpoint, error) {
	noop := func() {}
	if cfg.Prometheus.URL != "" {
		return &rateEndpoint{URL: cfg.Prometheus.URL, Key: cfg.Prometheus.URL, Close: noop}, nil
	}
	if !cfg.Kubernetes.Enabled {
		return nil, fmt.Errorf("no rate source: set --prometheus-url, --rates-file or --discover")
	}

	client, err := newKubeClient(cfg.Kubernetes.Kubeconfig, cfg.Kubernetes.Context)
	if err != nil {
		return nil, fmt.Errorf("connecting to Kubernetes: %w", err)
	}

	backend, err := kube.Discover(ctx, client.Clientset, kube.DiscoveryOptions{
		Namespace: cfg.Kubernetes.DiscoveryNamespace,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("discovered rate backend",
		"type", backend.Type,
		"service", backend.Namespace+"/"+backend.ServiceName,
		"url", backend.URL,
		"context", client.Context,
	)

	if client.InCluster {
		return &rateEndpoint{URL: backend.URL, Key: backend.URL, Close: noop}, nil
	}

	// Service DNS does not resolve from outside the cluster.
	target, err := kube.FindTarget(ctx, client.Clientset, backend)
	if err != nil {
		return nil, fmt.Errorf("finding pod for port-forward: %w", err)
	}
	url, closeTunnel, err := startPortForward(client, target)
	if err != nil {
		return nil, fmt.Errorf("starting port-forward: %w", err)
	}
	logger.Info("port-forwarding rate backend", "pod", target.Namespace+"/"+target.PodName, "url", url)

	return &rateEndpoint{URL: url, Key: backend.URL, Close: closeTunnel}, nil
}
