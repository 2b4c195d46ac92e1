// Package action runs the per-target operations kush exposes over a
// Transport: a liveness ping, an authentication handshake, and a
// one-shot command execution. Each target kind gets its own Client
// implementation; DynamicClientFactory picks the right one for a
// given Target.
package action

import (
	"context"
	"errors"

	"github.com/kush-sh/kush/internal/target"
)

// ErrNotSupported is returned by a Client method that has no
// meaningful implementation for that client kind (for example, Ping
// on an SshClient).
var ErrNotSupported = errors.New("action not supported by this client")

// ExecOutput is the folded result of a command execution: its exit
// status plus whatever it wrote to stdout and stderr.
type ExecOutput struct {
	ExitStatus uint32
	Stdout     []byte
	Stderr     []byte
}

// AuthKind discriminates the variant carried by an AuthPayload.
type AuthKind int

const (
	// AuthUser names the account to authenticate as, without yet
	// supplying any credential. It must precede every other payload
	// kind on a stateful client such as SshClient.
	AuthUser AuthKind = iota
	// AuthPassword authenticates with a plaintext password.
	AuthPassword
	// AuthSSHKey authenticates with an unencrypted private key in
	// PEM form.
	AuthSSHKey
	// AuthSSHCert authenticates with an SSH certificate and its
	// signing private key.
	AuthSSHCert
	// AuthSSHAgent authenticates by asking an ssh-agent at the given
	// socket path to sign a challenge with each of its identities in
	// turn.
	AuthSSHAgent
)

// AuthPayload is the tagged union of credentials a Client.Auth call
// may carry. Only the fields matching Kind are meaningful.
type AuthPayload struct {
	Kind AuthKind

	User           string
	Password       string
	SSHKey         string
	SSHCertKey     string
	SSHCert        string
	SSHAgentSocket string
}

// UserAuth names the account to authenticate as.
func UserAuth(user string) AuthPayload {
	return AuthPayload{Kind: AuthUser, User: user}
}

// PasswordAuth authenticates with a plaintext password.
func PasswordAuth(password string) AuthPayload {
	return AuthPayload{Kind: AuthPassword, Password: password}
}

// SSHKeyAuth authenticates with an unencrypted PEM private key.
func SSHKeyAuth(key string) AuthPayload {
	return AuthPayload{Kind: AuthSSHKey, SSHKey: key}
}

// SSHCertAuth authenticates with an SSH certificate and its signing
// key.
func SSHCertAuth(key, cert string) AuthPayload {
	return AuthPayload{Kind: AuthSSHCert, SSHCertKey: key, SSHCert: cert}
}

// SSHAgentAuth authenticates via the ssh-agent listening on socket.
func SSHAgentAuth(socket string) AuthPayload {
	return AuthPayload{Kind: AuthSSHAgent, SSHAgentSocket: socket}
}

// Client drives the lifecycle of a single action against a single
// target: connect, optionally authenticate, then ping or exec.
// Implementations are not safe for concurrent use.
type Client interface {
	// Connect establishes the underlying transport. It must be
	// called before any other method.
	Connect(ctx context.Context) error
	// Ping performs the client's liveness probe and returns whatever
	// bytes the remote end sent back.
	Ping(ctx context.Context) ([]byte, error)
	// Auth applies one authentication step. Stateful clients may
	// require a sequence of calls (for example, AuthUser before any
	// credential payload).
	Auth(ctx context.Context, payload AuthPayload) error
	// Exec runs command and folds its output.
	Exec(ctx context.Context, command string) (*ExecOutput, error)
	// Close releases any resources held by the client.
	Close() error
}

// ClientFactory builds a Client for a target, reporting whether this
// factory handles that target's kind at all.
type ClientFactory interface {
	Client(t *target.Target) (Client, bool)
}
