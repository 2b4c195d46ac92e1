package action

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/tools/remotecommand"
	executil "k8s.io/client-go/util/exec"

	"github.com/kush-sh/kush/internal/target"
)

// K8sClient runs a command inside a pod container over the
// Kubernetes exec subresource. It carries its own connection (the
// REST client and an SPDY upgrade), so it takes no transport.Factory
// at all.
type K8sClient struct {
	config    *rest.Config
	clientset kubernetes.Interface
	target    *target.Target

	namespace string
	pod       string
	container string
}

// NewK8sClient returns a K8sClient for t, built from a kubeconfig
// file path (empty meaning the client-go default loading rules).
func NewK8sClient(kubeconfig string, t *target.Target) (*K8sClient, error) {
	config, err := buildK8sConfig(kubeconfig)
	if err != nil {
		return nil, err
	}
	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("building kubernetes clientset: %w", err)
	}

	namespace, ok := t.K8sNamespace()
	if !ok {
		return nil, fmt.Errorf("k8s target has no namespace: %s", t)
	}
	pod, ok := t.K8sPod()
	if !ok {
		return nil, fmt.Errorf("k8s target has no pod: %s", t)
	}
	container, _ := t.K8sContainer()

	return &K8sClient{
		config:    config,
		clientset: clientset,
		target:    t,
		namespace: namespace,
		pod:       pod,
		container: container,
	}, nil
}

func buildK8sConfig(kubeconfig string) (*rest.Config, error) {
	if kubeconfig == "" {
		if config, err := rest.InClusterConfig(); err == nil {
			return config, nil
		}
		kubeconfig = clientcmd.NewDefaultClientConfigLoadingRules().GetDefaultFilename()
	}
	config, err := clientcmd.BuildConfigFromFlags("", kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("loading kubeconfig %s: %w", kubeconfig, err)
	}
	return config, nil
}

// Connect implements Client by fetching the pod, so a missing pod or
// an unreachable API server fails here rather than at Exec.
func (c *K8sClient) Connect(ctx context.Context) error {
	_, err := c.clientset.CoreV1().Pods(c.namespace).Get(ctx, c.pod, metav1.GetOptions{})
	if err != nil {
		return fmt.Errorf("pod %s/%s not reachable: %w", c.namespace, c.pod, err)
	}
	return nil
}

// Ping is not supported: a pod has no generic liveness probe outside
// of its configured health checks.
func (c *K8sClient) Ping(_ context.Context) ([]byte, error) {
	return nil, ErrNotSupported
}

// Auth implements Client. Kubernetes authentication already happened
// when the kubeconfig's credentials were loaded, so an AuthUser
// payload is accepted as a no-op and every SSH-specific payload is
// rejected.
func (c *K8sClient) Auth(_ context.Context, payload AuthPayload) error {
	if payload.Kind == AuthUser {
		return nil
	}
	return ErrNotSupported
}

// Exec implements Client, streaming command through the pod's exec
// subresource with no TTY attached.
func (c *K8sClient) Exec(ctx context.Context, command string) (*ExecOutput, error) {
	container := c.container
	if container == "" {
		pod, err := c.clientset.CoreV1().Pods(c.namespace).Get(ctx, c.pod, metav1.GetOptions{})
		if err != nil {
			return nil, fmt.Errorf("resolving default container: %w", err)
		}
		if len(pod.Spec.Containers) == 0 {
			return nil, fmt.Errorf("pod %s/%s has no containers", c.namespace, c.pod)
		}
		container = pod.Spec.Containers[0].Name
	}

	execOpts := &corev1.PodExecOptions{
		Container: container,
		Command:   []string{"/bin/sh", "-c", command},
		Stdout:    true,
		Stderr:    true,
		TTY:       false,
	}

	req := c.clientset.CoreV1().RESTClient().Post().
		Resource("pods").
		Name(c.pod).
		Namespace(c.namespace).
		SubResource("exec").
		VersionedParams(execOpts, scheme.ParameterCodec)

	executor, err := remotecommand.NewSPDYExecutor(c.config, http.MethodPost, req.URL())
	if err != nil {
		return nil, fmt.Errorf("building spdy executor: %w", err)
	}

	var stdout, stderr bytes.Buffer
	err = executor.StreamWithContext(ctx, remotecommand.StreamOptions{
		Stdout: &stdout,
		Stderr: &stderr,
		Tty:    false,
	})

	var exitStatus uint32
	if err != nil {
		var codeErr executil.CodeExitError
		if errors.As(err, &codeErr) {
			exitStatus = uint32(codeErr.Code)
		} else {
			return nil, fmt.Errorf("k8s exec failed: %w", err)
		}
	}
	return &ExecOutput{ExitStatus: exitStatus, Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}, nil
}

// Close implements Client. There is no persistent connection to tear
// down.
func (c *K8sClient) Close() error {
	return nil
}

// K8sClientFactory produces K8sClients for fully addressed k8s:
// targets (namespace and pod both present).
type K8sClientFactory struct {
	kubeconfig string
}

// NewK8sClientFactory returns a K8sClientFactory loading credentials
// from kubeconfig (empty meaning the client-go default rules).
func NewK8sClientFactory(kubeconfig string) *K8sClientFactory {
	return &K8sClientFactory{kubeconfig: kubeconfig}
}

// Client implements ClientFactory.
func (f *K8sClientFactory) Client(t *target.Target) (Client, bool) {
	if t.Kind() != target.K8s {
		return nil, false
	}
	if _, ok := t.K8sPod(); !ok {
		return nil, false
	}
	client, err := NewK8sClient(f.kubeconfig, t)
	if err != nil {
		return nil, false
	}
	return client, true
}
