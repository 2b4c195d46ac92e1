package action

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"github.com/kush-sh/kush/internal/target"
	"github.com/kush-sh/kush/internal/transport"
)

func TestTcpClientPingTrimsTrailingWhitespace(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		conn.Write([]byte("hello \t\r\n"))
	}()

	tg, err := target.Parse(ln.Addr().String())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	factory := transport.NewTcpFactory(time.Second)
	client := NewTcpClient(factory, tg)
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer client.Close()

	got, err := client.Ping(context.Background())
	if err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if !bytes.Equal(got, []byte("hello")) {
		t.Errorf("Ping() = %q, want %q", got, "hello")
	}
}

func TestTcpClientAuthAndExecUnsupported(t *testing.T) {
	tg, _ := target.Parse("ip://127.0.0.1:9")
	client := NewTcpClient(transport.NewTcpFactory(time.Second), tg)

	if err := client.Auth(context.Background(), UserAuth("root")); err != ErrNotSupported {
		t.Errorf("Auth() error = %v, want ErrNotSupported", err)
	}
	if _, err := client.Exec(context.Background(), "true"); err != ErrNotSupported {
		t.Errorf("Exec() error = %v, want ErrNotSupported", err)
	}
}

func TestTcpClientFactory(t *testing.T) {
	factory := NewTcpClientFactory(transport.NewTcpFactory(time.Second))

	ipTarget, _ := target.Parse("ip://127.0.0.1:22")
	if _, ok := factory.Client(ipTarget); !ok {
		t.Error("expected factory to claim a resolved ip target")
	}

	dnsTarget, _ := target.Parse("dns://example.com")
	if _, ok := factory.Client(dnsTarget); ok {
		t.Error("expected factory to reject an unresolved dns target")
	}
}
