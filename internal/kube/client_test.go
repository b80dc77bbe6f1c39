package kube

import (
	"os"
	"path/filepath"
	"testing"
)

const twoContexts = `apiVersion: v1
kind: Config
clusters:
- name: dev
  cluster:
    server: https://dev.example.com:6443
- name: prod
  cluster:
    server: https://prod.example.com:6443
users:
- name: ops
  user:
    token: dummy
contexts:
- name: dev
  context:
    cluster: dev
    user: ops
- name: prod
  context:
    cluster: prod
    user: ops
current-context: dev
`

func writeKubeconfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config")
	if err := os.WriteFile(path, []byte(twoContexts), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBuildConfig_Contexts(t *testing.T) {
	path := writeKubeconfig(t)

	tests := []struct {
		context     string
		wantContext string
		wantHost    string
	}{
		{"", "dev", "https://dev.example.com:6443"},
		{"prod", "prod", "https://prod.example.com:6443"},
	}

	for _, tt := range tests {
		t.Run(tt.wantContext, func(t *testing.T) {
			rc, current, inCluster, err := buildConfig(path, tt.context)
			if err != nil {
				t.Fatalf("buildConfig: %v", err)
			}
			if inCluster {
				t.Error("kubeconfig mode should not report in-cluster")
			}
			if current != tt.wantContext {
				t.Errorf("context = %q, want %q", current, tt.wantContext)
			}
			if rc.Host != tt.wantHost {
				t.Errorf("host = %q, want %q", rc.Host, tt.wantHost)
			}
		})
	}
}

func TestBuildConfig_UnknownContext(t *testing.T) {
	if _, _, _, err := buildConfig(writeKubeconfig(t), "staging"); err == nil {
		t.Error("expected error for unknown context")
	}
}

func TestKubeconfigPath(t *testing.T) {
	path := writeKubeconfig(t)
	t.Setenv("KUBECONFIG", path)

	if got := kubeconfigPath(""); got != path {
		t.Errorf("kubeconfigPath() = %q, want $KUBECONFIG %q", got, path)
	}
	if got := kubeconfigPath("/explicit/config"); got != "/explicit/config" {
		t.Errorf("explicit path should win, got %q", got)
	}
}

func TestNewClient(t *testing.T) {
	c, err := NewClient(writeKubeconfig(t), "prod")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if c.Context != "prod" || c.InCluster {
		t.Errorf("unexpected client: context %q, in-cluster %v", c.Context, c.InCluster)
	}
	if c.RestConfig.Host != "https://prod.example.com:6443" {
		t.Errorf("host = %q", c.RestConfig.Host)
	}
}
