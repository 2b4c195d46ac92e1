package action

import (
	"testing"
	"time"

	"github.com/kush-sh/kush/internal/target"
	"github.com/kush-sh/kush/internal/transport"
)

func TestDynamicClientFactoryPicksFirstMatch(t *testing.T) {
	tcpFactory := transport.NewTcpFactory(time.Second)
	factory := NewDynamicClientFactory().
		With(NewTcpClientFactory(tcpFactory)).
		With(NewK8sClientFactory(""))

	ipTarget, _ := target.Parse("ip://127.0.0.1:22")
	client, ok := factory.Client(ipTarget)
	if !ok {
		t.Fatal("expected a client for a resolved ip target")
	}
	if _, isTCP := client.(*TcpClient); !isTCP {
		t.Errorf("client = %T, want *TcpClient (first matching factory)", client)
	}
}

func TestDynamicClientFactoryReturnsAbsentForUnclaimedTarget(t *testing.T) {
	factory := NewDynamicClientFactory().
		With(NewTcpClientFactory(transport.NewTcpFactory(time.Second)))

	dnsTarget, _ := target.Parse("dns://example.com")
	if _, ok := factory.Client(dnsTarget); ok {
		t.Error("expected no client for a target no factory claims")
	}
}

func TestEmptyDynamicClientFactory(t *testing.T) {
	factory := NewDynamicClientFactory()
	ipTarget, _ := target.Parse("ip://127.0.0.1:22")
	if _, ok := factory.Client(ipTarget); ok {
		t.Error("expected no client from an empty factory")
	}
}
