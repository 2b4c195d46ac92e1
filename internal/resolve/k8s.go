package resolve

import (
	"context"
	"fmt"
	"iter"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/kush-sh/kush/internal/target"
)

// K8sResolver expands a k8s: namespace query into one target per pod
// listed in that namespace, whatever the pod's phase. A target that
// already names a
// specific pod resolves to nothing, leaving the chain to bounce it
// through unchanged.
type K8sResolver struct {
	clientset kubernetes.Interface
}

// NewK8sResolver builds a K8sResolver from the given kubeconfig path
// (empty uses the in-cluster config or default loading rules).
func NewK8sResolver(kubeconfig string) (*K8sResolver, error) {
	if kubeconfig == "" {
		if _, err := rest.InClusterConfig(); err != nil {
			kubeconfig = clientcmd.NewDefaultClientConfigLoadingRules().GetDefaultFilename()
		}
	}
	cfg, err := clientcmd.BuildConfigFromFlags("", kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("building kubeconfig: %w", err)
	}
	clientset, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("building k8s clientset: %w", err)
	}
	return &K8sResolver{clientset: clientset}, nil
}

// ResolveFallible implements Resolve.
func (k *K8sResolver) ResolveFallible(ctx context.Context, t *target.Target) iter.Seq2[*target.Target, error] {
	return func(yield func(*target.Target, error) bool) {
		if t.Kind() != target.K8s {
			return
		}
		if _, hasPod := t.K8sPod(); hasPod {
			return
		}
		namespace, ok := t.K8sNamespace()
		if !ok {
			namespace = "default"
		}
		cluster, _ := t.K8sCluster()
		user, _ := t.K8sUser()
		container, _ := t.K8sContainer()

		pods, err := k.clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{})
		if err != nil {
			yield(nil, err)
			return
		}
		for _, pod := range pods.Items {
			child, err := target.NewK8s(cluster, namespace, pod.Name, container, user)
			if err != nil {
				if !yield(nil, err) {
					return
				}
				continue
			}
			if !yield(child, nil) {
				return
			}
		}
	}
}
