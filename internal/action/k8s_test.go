package action

import (
	"context"
	"testing"

	"github.com/kush-sh/kush/internal/target"
)

func TestK8sClientFactoryRejectsNonK8sTarget(t *testing.T) {
	factory := NewK8sClientFactory("")
	ipTarget, _ := target.Parse("ip://127.0.0.1")
	if _, ok := factory.Client(ipTarget); ok {
		t.Error("expected factory to reject a non-k8s target")
	}
}

func TestK8sClientFactoryRejectsNamespaceOnlyTarget(t *testing.T) {
	factory := NewK8sClientFactory("")
	nsTarget, _ := target.Parse("k8s:kube-system/")
	if _, ok := factory.Client(nsTarget); ok {
		t.Error("expected factory to reject a namespace-only target with no pod")
	}
}

func TestK8sClientAuthSemantics(t *testing.T) {
	client := &K8sClient{namespace: "default", pod: "web-0"}

	if err := client.Auth(context.Background(), UserAuth("any")); err != nil {
		t.Errorf("Auth(user) = %v, want nil", err)
	}
	if err := client.Auth(context.Background(), PasswordAuth("x")); err != ErrNotSupported {
		t.Errorf("Auth(password) = %v, want ErrNotSupported", err)
	}
}

func TestK8sClientPingNotSupported(t *testing.T) {
	client := &K8sClient{namespace: "default", pod: "web-0"}
	if _, err := client.Ping(context.Background()); err != ErrNotSupported {
		t.Errorf("Ping() = %v, want ErrNotSupported", err)
	}
}
