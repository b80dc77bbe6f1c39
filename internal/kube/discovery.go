package kube

import (
	"context"
	"errors"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

// ErrNoBackend is returned when no rate backend matches any known selector.
var ErrNoBackend = errors.New("no Prometheus-compatible service found in the cluster; use --prometheus-url or --rates-file")

// Backend is a metrics service that can answer the rate queries.
type Backend struct {
	URL         string // in-cluster service URL
	Type        string // "thanos", "victoria-metrics", "mimir", "cortex", "prometheus"
	ServiceName string
	Namespace   string
	Port        int32
}

// DiscoveryOptions narrows the search.
type DiscoveryOptions struct {
	Namespace string // empty = all namespaces
}

type candidate struct {
	backendType string
	selectors   []string
}

// Query frontends come first: they see every replica's series, so their
// rates cover the whole server pool.
var candidates = []candidate{
	{"thanos", []string{
		"app.kubernetes.io/component=query,app.kubernetes.io/name=thanos",
		"app.kubernetes.io/name=thanos-query",
		"app=thanos-query",
		"app=thanos-querier",
	}},
	{"victoria-metrics", []string{
		"app.kubernetes.io/name=vmsingle",
		"app.kubernetes.io/name=victoria-metrics-single",
		"app.kubernetes.io/name=vmselect",
		"app=vmselect",
	}},
	{"mimir", []string{
		"app.kubernetes.io/name=mimir,app.kubernetes.io/component=query-frontend",
	}},
	{"cortex", []string{
		"app.kubernetes.io/name=cortex,app.kubernetes.io/component=query-frontend",
	}},
	{"prometheus", []string{
		"app=kube-prometheus-stack-prometheus",
		"app=prometheus,component=server",
		"app=prometheus-server",
		"app=prometheus-operator-prometheus",
		"app=prometheus-prometheus",
		"app.kubernetes.io/name=prometheus",
	}},
}

// Discover returns the first service matching the known selectors, tried in
// candidate order. Services without a usable port are skipped. When every
// list call failed the last API error is returned alongside ErrNoBackend.
func Discover(ctx context.Context, client kubernetes.Interface, opts DiscoveryOptions) (*Backend, error) {
	var lastErr error
	for _, c := range candidates {
		for _, selector := range c.selectors {
			list, err := client.CoreV1().Services(opts.Namespace).List(ctx, metav1.ListOptions{
				LabelSelector: selector,
			})
			if err != nil {
				lastErr = err
				continue
			}
			for _, svc := range list.Items {
				port := servicePort(svc)
				if port == 0 {
					continue
				}
				return &Backend{
					URL:         fmt.Sprintf("http://%s.%s.svc:%d", svc.Name, svc.Namespace, port),
					Type:        c.backendType,
					ServiceName: svc.Name,
					Namespace:   svc.Namespace,
					Port:        port,
				}, nil
			}
		}
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w (last error: %v)", ErrNoBackend, lastErr)
	}
	return nil, ErrNoBackend
}

// servicePort picks the HTTP port of svc: a port named http, web or
// http-web, else the first TCP port, else 0.
func servicePort(svc corev1.Service) int32 {
	for _, p := range svc.Spec.Ports {
		switch p.Name {
		case "http", "web", "http-web":
			return p.Port
		}
	}
	for _, p := range svc.Spec.Ports {
		if p.Protocol == corev1.ProtocolTCP || p.Protocol == "" {
			return p.Port
		}
	}
	return 0
}
