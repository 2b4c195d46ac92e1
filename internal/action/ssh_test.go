package action

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"net"
	"testing"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/kush-sh/kush/internal/target"
	"github.com/kush-sh/kush/internal/transport"
)

// startTestSSHServer runs a minimal loopback SSH server accepting
// exactly one password and replying to every exec request with a
// fixed banner and a zero exit status.
func startTestSSHServer(t *testing.T, user, password string) string {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate host key: %v", err)
	}
	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		t.Fatalf("signer from key: %v", err)
	}

	config := &ssh.ServerConfig{
		PasswordCallback: func(conn ssh.ConnMetadata, pass []byte) (*ssh.Permissions, error) {
			if conn.User() == user && string(pass) == password {
				return nil, nil
			}
			return nil, errors.New("password rejected")
		},
	}
	config.AddHostKey(signer)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			nConn, err := ln.Accept()
			if err != nil {
				return
			}
			go serveTestSSHConn(nConn, config)
		}
	}()

	return ln.Addr().String()
}

func serveTestSSHConn(nConn net.Conn, config *ssh.ServerConfig) {
	_, chans, reqs, err := ssh.NewServerConn(nConn, config)
	if err != nil {
		return
	}
	go ssh.DiscardRequests(reqs)

	for newChannel := range chans {
		if newChannel.ChannelType() != "session" {
			newChannel.Reject(ssh.UnknownChannelType, "unsupported channel type")
			continue
		}
		channel, requests, err := newChannel.Accept()
		if err != nil {
			continue
		}
		go func(in <-chan *ssh.Request) {
			for req := range in {
				if req.Type == "exec" {
					channel.Write([]byte("hello\n"))
					req.Reply(true, nil)
					channel.SendRequest("exit-status", false, ssh.Marshal(struct{ Status uint32 }{0}))
					channel.Close()
				} else {
					req.Reply(false, nil)
				}
			}
		}(requests)
	}
}

func TestSshClientAuthAndExec(t *testing.T) {
	addr := startTestSSHServer(t, "bob", "hunter2")

	tg, err := target.Parse("ip://" + addr)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	client := NewSshClient(transport.NewTcpFactory(time.Second), tg)
	ctx := context.Background()

	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer client.Close()

	if err := client.Auth(ctx, UserAuth("bob")); err != nil {
		t.Fatalf("Auth(user): %v", err)
	}
	if err := client.Auth(ctx, PasswordAuth("hunter2")); err != nil {
		t.Fatalf("Auth(password): %v", err)
	}

	out, err := client.Exec(ctx, "echo hello")
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if out.ExitStatus != 0 {
		t.Errorf("ExitStatus = %d, want 0", out.ExitStatus)
	}
	if string(out.Stdout) != "hello\n" {
		t.Errorf("Stdout = %q, want %q", out.Stdout, "hello\n")
	}
}

func TestSshClientAuthRequiresUserFirst(t *testing.T) {
	addr := startTestSSHServer(t, "bob", "hunter2")
	tg, _ := target.Parse("ip://" + addr)

	client := NewSshClient(transport.NewTcpFactory(time.Second), tg)
	ctx := context.Background()
	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer client.Close()

	if err := client.Auth(ctx, PasswordAuth("hunter2")); err == nil {
		t.Error("expected error authenticating before a user was set")
	}
}

func TestSshClientPingNotSupported(t *testing.T) {
	tg, _ := target.Parse("ip://127.0.0.1:22")
	client := NewSshClient(transport.NewTcpFactory(time.Second), tg)
	if _, err := client.Ping(context.Background()); err != ErrNotSupported {
		t.Errorf("Ping() error = %v, want ErrNotSupported", err)
	}
}

func TestSshClientFactoryDefaultsPort(t *testing.T) {
	factory := NewSshClientFactory(transport.NewTcpFactory(time.Second))

	ipTarget, _ := target.Parse("ip://10.0.0.5")
	client, ok := factory.Client(ipTarget)
	if !ok {
		t.Fatal("expected factory to claim a bare ip target")
	}
	sshClient := client.(*SshClient)
	port, ok := sshClient.target.Port()
	if !ok || port != 22 {
		t.Errorf("default port = %v (ok=%v), want 22", port, ok)
	}

	dnsTarget, _ := target.Parse("dns://example.com")
	if _, ok := factory.Client(dnsTarget); ok {
		t.Error("expected factory to reject a target with no resolved IP")
	}
}
