package kube

import (
	"context"
	"testing"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/client-go/kubernetes/fake"
)

func TestResolveTargetPort(t *testing.T) {
	namedPorts := &corev1.Pod{
		Spec: corev1.PodSpec{
			Containers: []corev1.Container{{
				Ports: []corev1.ContainerPort{
					{Name: "grpc", ContainerPort: 10901},
					{Name: "http", ContainerPort: 10902},
				},
			}},
		},
	}

	tests := []struct {
		name   string
		target intstr.IntOrString
		want   int32
	}{
		{"numeric", intstr.FromInt32(10902), 10902},
		{"named", intstr.FromString("http"), 10902},
		{"named not found falls back", intstr.FromString("unknown"), 9090},
		{"unset falls back", intstr.IntOrString{}, 9090},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sp := corev1.ServicePort{Port: 9090, TargetPort: tt.target}
			if got := resolveTargetPort(sp, namedPorts); got != tt.want {
				t.Errorf("resolveTargetPort() = %d, want %d", got, tt.want)
			}
		})
	}
}

func backendService() *corev1.Service {
	return &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{Name: "prometheus-server", Namespace: "monitoring"},
		Spec: corev1.ServiceSpec{
			Selector: map[string]string{"app": "prometheus"},
			Ports: []corev1.ServicePort{{
				Name:       "http",
				Port:       80,
				TargetPort: intstr.FromString("web"),
				Protocol:   corev1.ProtocolTCP,
			}},
		},
	}
}

func pod(name string, labels map[string]string, phase corev1.PodPhase) *corev1.Pod {
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: "monitoring", Labels: labels},
		Spec: corev1.PodSpec{
			Containers: []corev1.Container{{
				Name:  "prometheus",
				Ports: []corev1.ContainerPort{{Name: "web", ContainerPort: 9090}},
			}},
		},
		Status: corev1.PodStatus{Phase: phase},
	}
}

func TestFindTarget(t *testing.T) {
	client := fake.NewSimpleClientset( //nolint:staticcheck // NewClientset requires generated apply configs
		backendService(),
		pod("prometheus-pending", map[string]string{"app": "prometheus"}, corev1.PodPending),
		pod("grafana", map[string]string{"app": "grafana"}, corev1.PodRunning),
		pod("prometheus-0", map[string]string{"app": "prometheus"}, corev1.PodRunning),
	)
	b := &Backend{ServiceName: "prometheus-server", Namespace: "monitoring", Port: 80}

	target, err := FindTarget(context.Background(), client, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Target{PodName: "prometheus-0", Namespace: "monitoring", Port: 9090}
	if *target != want {
		t.Errorf("FindTarget() = %+v, want %+v", *target, want)
	}
}

func TestFindTarget_Errors(t *testing.T) {
	noSelector := backendService()
	noSelector.Spec.Selector = nil

	tests := []struct {
		name    string
		objects []*corev1.Service
		pods    []*corev1.Pod
		port    int32
	}{
		{"missing service", nil, nil, 80},
		{"no selector", []*corev1.Service{noSelector}, nil, 80},
		{"unknown port", []*corev1.Service{backendService()}, nil, 9999},
		{"no running pod", []*corev1.Service{backendService()},
			[]*corev1.Pod{pod("prometheus-0", map[string]string{"app": "prometheus"}, corev1.PodFailed)}, 80},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := fake.NewSimpleClientset() //nolint:staticcheck // NewClientset requires generated apply configs
			for _, s := range tt.objects {
				if _, err := client.CoreV1().Services(s.Namespace).Create(context.Background(), s, metav1.CreateOptions{}); err != nil {
					t.Fatal(err)
				}
			}
			for _, p := range tt.pods {
				if _, err := client.CoreV1().Pods(p.Namespace).Create(context.Background(), p, metav1.CreateOptions{}); err != nil {
					t.Fatal(err)
				}
			}

			b := &Backend{ServiceName: "prometheus-server", Namespace: "monitoring", Port: tt.port}
			if _, err := FindTarget(context.Background(), client, b); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestTunnel_CloseTwice(t *testing.T) {
	tunnel := &Tunnel{LocalPort: 40123, stop: make(chan struct{})}
	if got := tunnel.URL(); got != "http://127.0.0.1:40123" {
		t.Errorf("URL() = %s", got)
	}
	tunnel.Close()
	tunnel.Close()
	select {
	case <-tunnel.stop:
	default:
		t.Error("expected stop channel to be closed")
	}
}
