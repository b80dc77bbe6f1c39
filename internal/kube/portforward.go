package kube

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/portforward"
	"k8s.io/client-go/transport/spdy"
)

// Target is a running pod behind a service and the container port that the
// service port maps to.
type Target struct {
	PodName   string
	Namespace string
	Port      int32
}

// Tunnel is an open port-forward to a Target.
type Tunnel struct {
	LocalPort int32
	Target    Target

	stop chan struct{}
	once sync.Once
}

// URL is the local address that reaches the forwarded backend.
func (t *Tunnel) URL() string {
	return fmt.Sprintf("http://127.0.0.1:%d", t.LocalPort)
}

// Close stops the tunnel. It is safe to call more than once.
func (t *Tunnel) Close() {
	t.once.Do(func() { close(t.stop) })
}

// FindTarget resolves b to a running pod and the container port behind b.Port.
func FindTarget(ctx context.Context, client kubernetes.Interface, b *Backend) (*Target, error) {
	svc, err := client.CoreV1().Services(b.Namespace).Get(ctx, b.ServiceName, metav1.GetOptions{})
	if err != nil {
		return nil, fmt.Errorf("getting service %s/%s: %w", b.Namespace, b.ServiceName, err)
	}
	if len(svc.Spec.Selector) == 0 {
		return nil, fmt.Errorf("service %s/%s has no pod selector", b.Namespace, b.ServiceName)
	}

	var sp *corev1.ServicePort
	for i := range svc.Spec.Ports {
		if svc.Spec.Ports[i].Port == b.Port {
			sp = &svc.Spec.Ports[i]
			break
		}
	}
	if sp == nil {
		return nil, fmt.Errorf("service %s/%s has no port %d", b.Namespace, b.ServiceName, b.Port)
	}

	pods, err := client.CoreV1().Pods(b.Namespace).List(ctx, metav1.ListOptions{
		LabelSelector: metav1.FormatLabelSelector(&metav1.LabelSelector{MatchLabels: svc.Spec.Selector}),
	})
	if err != nil {
		return nil, fmt.Errorf("listing pods for service %s/%s: %w", b.Namespace, b.ServiceName, err)
	}
	for i := range pods.Items {
		pod := &pods.Items[i]
		if pod.Status.Phase != corev1.PodRunning || pod.DeletionTimestamp != nil {
			continue
		}
		return &Target{PodName: pod.Name, Namespace: pod.Namespace, Port: resolveTargetPort(*sp, pod)}, nil
	}
	return nil, fmt.Errorf("no running pod found for service %s/%s", b.Namespace, b.ServiceName)
}

// resolveTargetPort maps a service port to a container port. A numeric
// targetPort is used as is, a named one is looked up in the pod's containers,
// and an unset or unknown one falls back to the service port.
func resolveTargetPort(sp corev1.ServicePort, pod *corev1.Pod) int32 {
	tp := sp.TargetPort
	if v := tp.IntValue(); v != 0 {
		return int32(v)
	}
	if name := tp.String(); name != "" && name != "0" {
		for _, c := range pod.Spec.Containers {
			for _, cp := range c.Ports {
				if cp.Name == name {
					return cp.ContainerPort
				}
			}
		}
	}
	return sp.Port
}

// StartPortForward opens a tunnel from a random local port to target. It
// returns once the tunnel is ready; the caller must Close it.
func StartPortForward(c *Client, target *Target) (*Tunnel, error) {
	transport, upgrader, err := spdy.RoundTripperFor(c.RestConfig)
	if err != nil {
		return nil, fmt.Errorf("creating SPDY round-tripper: %w", err)
	}

	reqURL := c.Clientset.CoreV1().RESTClient().Post().
		Resource("pods").
		Namespace(target.Namespace).
		Name(target.PodName).
		SubResource("portforward").
		URL()
	dialer := spdy.NewDialer(upgrader, &http.Client{Transport: transport}, http.MethodPost, reqURL)

	stop := make(chan struct{})
	ready := make(chan struct{})
	fw, err := portforward.New(dialer, []string{fmt.Sprintf("0:%d", target.Port)}, stop, ready, io.Discard, io.Discard)
	if err != nil {
		return nil, fmt.Errorf("creating port-forwarder: %w", err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- fw.ForwardPorts() }()

	select {
	case <-ready:
	case err := <-errCh:
		return nil, fmt.Errorf("port-forward to %s/%s failed: %w", target.Namespace, target.PodName, err)
	}

	tunnel := &Tunnel{Target: *target, stop: stop}
	ports, err := fw.GetPorts()
	if err != nil {
		tunnel.Close()
		return nil, fmt.Errorf("getting forwarded ports: %w", err)
	}
	if len(ports) == 0 {
		tunnel.Close()
		return nil, fmt.Errorf("port-forward to %s/%s reported no ports", target.Namespace, target.PodName)
	}
	tunnel.LocalPort = int32(ports[0].Local)
	return tunnel, nil
}
