package kube

import (
	"fmt"
	"os"
	"path/filepath"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// Client bundles a clientset with the REST config it was built from. The
// config is needed again to open port-forward tunnels.
type Client struct {
	Clientset  kubernetes.Interface
	RestConfig *rest.Config
	Context    string // empty when in-cluster
	InCluster  bool
}

// NewClient connects to the cluster named by kubeconfig and kubeContext.
// The kubeconfig is resolved in order: explicit path, $KUBECONFIG,
// ~/.kube/config. Without any of them the in-cluster service account is used.
func NewClient(kubeconfig, kubeContext string) (*Client, error) {
	restConfig, current, inCluster, err := buildConfig(kubeconfig, kubeContext)
	if err != nil {
		return nil, fmt.Errorf("building kubernetes config: %w", err)
	}

	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("creating kubernetes client: %w", err)
	}

	return &Client{
		Clientset:  clientset,
		RestConfig: restConfig,
		Context:    current,
		InCluster:  inCluster,
	}, nil
}

func buildConfig(kubeconfig, kubeContext string) (*rest.Config, string, bool, error) {
	path := kubeconfigPath(kubeconfig)
	if path == "" {
		restConfig, err := rest.InClusterConfig()
		if err != nil {
			return nil, "", false, fmt.Errorf("no kubeconfig found and not running in-cluster: %w", err)
		}
		return restConfig, "", true, nil
	}

	rules := &clientcmd.ClientConfigLoadingRules{ExplicitPath: path}
	overrides := &clientcmd.ConfigOverrides{CurrentContext: kubeContext}
	clientConfig := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, overrides)

	raw, err := clientConfig.RawConfig()
	if err != nil {
		return nil, "", false, fmt.Errorf("reading kubeconfig %s: %w", path, err)
	}
	current := raw.CurrentContext
	if kubeContext != "" {
		if _, ok := raw.Contexts[kubeContext]; !ok {
			return nil, "", false, fmt.Errorf("context %q not found in %s", kubeContext, path)
		}
		current = kubeContext
	}

	restConfig, err := clientConfig.ClientConfig()
	if err != nil {
		return nil, "", false, err
	}
	return restConfig, current, false, nil
}

// kubeconfigPath returns the kubeconfig file to load, or "" when none exists.
func kubeconfigPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv("KUBECONFIG"); env != "" {
		return env
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	p := filepath.Join(home, ".kube", "config")
	if _, err := os.Stat(p); err != nil {
		return ""
	}
	return p
}
