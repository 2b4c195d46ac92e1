package resolve

import (
	"context"
	"testing"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/kush-sh/kush/internal/target"
)

func TestK8sResolverListsNamespacePods(t *testing.T) {
	clientset := fake.NewSimpleClientset(
		&corev1.Pod{ObjectMeta: metav1.ObjectMeta{Name: "coredns-0", Namespace: "kube-system"}},
		&corev1.Pod{ObjectMeta: metav1.ObjectMeta{Name: "coredns-1", Namespace: "kube-system"}},
		&corev1.Pod{ObjectMeta: metav1.ObjectMeta{Name: "other", Namespace: "default"}},
	)
	r := &K8sResolver{clientset: clientset}

	tg, err := target.Parse("k8s:kube-system/")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	set := ResolveSet(context.Background(), r, tg)
	if set.Len() != 2 {
		t.Fatalf("ResolveSet len = %d, want 2", set.Len())
	}
	for _, child := range set.Slice() {
		ns, ok := child.K8sNamespace()
		if !ok || ns != "kube-system" {
			t.Errorf("K8sNamespace() = %q, %v, want kube-system, true", ns, ok)
		}
	}
}

func TestK8sResolverSkipsTargetsThatAlreadyNamePod(t *testing.T) {
	clientset := fake.NewSimpleClientset(
		&corev1.Pod{ObjectMeta: metav1.ObjectMeta{Name: "coredns-0", Namespace: "kube-system"}},
	)
	r := &K8sResolver{clientset: clientset}

	tg, err := target.Parse("k8s:kube-system/coredns-0")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	set := ResolveSet(context.Background(), r, tg)
	if set.Len() != 0 {
		t.Errorf("expected no expansion for a target that already names a pod, got %d", set.Len())
	}
}

func TestK8sResolverIgnoresNonK8s(t *testing.T) {
	r := &K8sResolver{clientset: fake.NewSimpleClientset()}
	tg, err := target.Parse("127.0.0.1")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	set := ResolveSet(context.Background(), r, tg)
	if set.Len() != 0 {
		t.Errorf("expected no results for non-k8s target, got %d", set.Len())
	}
}

func TestK8sResolverDefaultsToDefaultNamespace(t *testing.T) {
	clientset := fake.NewSimpleClientset(
		&corev1.Pod{ObjectMeta: metav1.ObjectMeta{Name: "web-0", Namespace: "default"}},
	)
	r := &K8sResolver{clientset: clientset}

	tg, err := target.Parse("k8s://cluster/")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	set := ResolveSet(context.Background(), r, tg)
	if set.Len() != 1 {
		t.Fatalf("ResolveSet len = %d, want 1", set.Len())
	}
	for _, child := range set.Slice() {
		cluster, ok := child.K8sCluster()
		if !ok || cluster != "cluster" {
			t.Errorf("K8sCluster() = %q, %v, want cluster, true", cluster, ok)
		}
	}
}
