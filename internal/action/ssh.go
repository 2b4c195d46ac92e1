package action

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"

	"github.com/kush-sh/kush/internal/target"
	"github.com/kush-sh/kush/internal/transport"
)

// sshInactivityTimeout bounds how long one SSH handshake (key exchange
// plus authentication) may take on its connection.
const sshInactivityTimeout = 30 * time.Second

type sshState int

const (
	sshFresh sshState = iota
	sshConnected
	sshUserSet
	sshAuthenticated
	sshClosed
)

// SshClient walks a target through the stages golang.org/x/crypto/ssh
// bundles into one handshake: connect the transport, name the user,
// then authenticate. Because that package performs the key exchange
// and authentication together inside ssh.NewClientConn, authenticate
// redials the transport for every distinct auth attempt rather than
// reusing one half-open connection.
type SshClient struct {
	factory transport.Factory
	target  *target.Target

	state sshState
	user  string

	// conn holds a dialed-but-unauthenticated connection, set by
	// Connect and consumed by the first call to authenticate.
	conn net.Conn

	client *ssh.Client
}

// NewSshClient returns an SshClient dialing target through factory.
func NewSshClient(factory transport.Factory, t *target.Target) *SshClient {
	return &SshClient{factory: factory, target: t}
}

// Connect implements Client.
func (c *SshClient) Connect(ctx context.Context) error {
	if c.state != sshFresh {
		return fmt.Errorf("ssh client already connected")
	}
	conn, err := c.dial(ctx)
	if err != nil {
		return err
	}
	c.conn = conn
	c.state = sshConnected
	return nil
}

func (c *SshClient) dial(ctx context.Context) (net.Conn, error) {
	tr, err := c.factory.Connect(ctx, c.target)
	if err != nil {
		return nil, err
	}
	if tr.Opaque || tr.Conn == nil {
		return nil, fmt.Errorf("ssh client: unsupported transport for %s", c.target)
	}
	return tr.Conn, nil
}

// Ping is not supported over SSH: there is no handshake-free liveness
// probe that doesn't also attempt authentication.
func (c *SshClient) Ping(_ context.Context) ([]byte, error) {
	return nil, ErrNotSupported
}

// Auth implements Client. An AuthUser payload must be supplied exactly
// once before any credential payload.
func (c *SshClient) Auth(ctx context.Context, payload AuthPayload) error {
	switch payload.Kind {
	case AuthUser:
		if c.state != sshConnected {
			return fmt.Errorf("ssh client not connected or user already set")
		}
		c.user = payload.User
		c.state = sshUserSet
		return nil
	case AuthPassword:
		return c.authenticate(ctx, ssh.Password(payload.Password))
	case AuthSSHKey:
		signer, err := ssh.ParsePrivateKey([]byte(payload.SSHKey))
		if err != nil {
			return fmt.Errorf("parsing ssh private key: %w", err)
		}
		return c.authenticate(ctx, ssh.PublicKeys(signer))
	case AuthSSHCert:
		signer, err := certSigner(payload.SSHCertKey, payload.SSHCert)
		if err != nil {
			return err
		}
		return c.authenticate(ctx, ssh.PublicKeys(signer))
	case AuthSSHAgent:
		return c.authenticateWithAgent(ctx, payload.SSHAgentSocket)
	default:
		return fmt.Errorf("unsupported ssh auth payload")
	}
}

func certSigner(key, cert string) (ssh.Signer, error) {
	signer, err := ssh.ParsePrivateKey([]byte(key))
	if err != nil {
		return nil, fmt.Errorf("parsing ssh certificate key: %w", err)
	}
	pub, _, _, _, err := ssh.ParseAuthorizedKey([]byte(cert))
	if err != nil {
		return nil, fmt.Errorf("parsing ssh certificate: %w", err)
	}
	certificate, ok := pub.(*ssh.Certificate)
	if !ok {
		return nil, fmt.Errorf("ssh certificate payload is not a certificate")
	}
	certSigner, err := ssh.NewCertSigner(certificate, signer)
	if err != nil {
		return nil, fmt.Errorf("building ssh certificate signer: %w", err)
	}
	return certSigner, nil
}

// authenticate performs one full SSH handshake attempt using method,
// over c.conn if it hasn't been consumed yet, or a freshly dialed
// transport otherwise.
func (c *SshClient) authenticate(ctx context.Context, method ssh.AuthMethod) error {
	if c.state != sshUserSet {
		return fmt.Errorf("ssh client has no user set")
	}

	conn := c.conn
	c.conn = nil
	if conn == nil {
		var err error
		conn, err = c.dial(ctx)
		if err != nil {
			return err
		}
	}

	config := &ssh.ClientConfig{
		User:            c.user,
		Auth:            []ssh.AuthMethod{method},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         sshInactivityTimeout,
	}
	conn.SetDeadline(time.Now().Add(sshInactivityTimeout))
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, c.target.String(), config)
	if err != nil {
		conn.Close()
		return fmt.Errorf("ssh authentication failed: %w", err)
	}
	conn.SetDeadline(time.Time{})

	c.client = ssh.NewClient(sshConn, chans, reqs)
	c.state = sshAuthenticated
	return nil
}

// authenticateWithAgent tries every identity the agent at socket
// offers, in order, stopping at the first one the server accepts.
func (c *SshClient) authenticateWithAgent(ctx context.Context, socket string) error {
	agentConn, err := net.Dial("unix", socket)
	if err != nil {
		return fmt.Errorf("connecting to ssh agent: %w", err)
	}
	defer agentConn.Close()

	client := agent.NewClient(agentConn)
	signers, err := client.Signers()
	if err != nil {
		return fmt.Errorf("listing ssh agent identities: %w", err)
	}
	if len(signers) == 0 {
		return fmt.Errorf("ssh agent has no identities")
	}

	for _, signer := range signers {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := c.authenticate(ctx, ssh.PublicKeys(signer)); err == nil {
			return nil
		} else {
			slog.Debug("ssh agent identity denied", "user", c.user, "fingerprint", ssh.FingerprintSHA256(signer.PublicKey()), "error", err)
		}
	}
	return fmt.Errorf("ssh agent exhausted all identities without authenticating")
}

// Exec implements Client.
func (c *SshClient) Exec(ctx context.Context, command string) (*ExecOutput, error) {
	if c.state != sshAuthenticated {
		return nil, fmt.Errorf("ssh client not authenticated")
	}

	session, err := c.client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("opening ssh session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	done := make(chan error, 1)
	go func() { done <- session.Run(command) }()

	select {
	case <-ctx.Done():
		session.Close()
		return nil, ctx.Err()
	case runErr := <-done:
		var exitStatus uint32
		if runErr != nil {
			var exitErr *ssh.ExitError
			var missingErr *ssh.ExitMissingError
			switch {
			case errors.As(runErr, &exitErr):
				exitStatus = uint32(exitErr.ExitStatus())
			case errors.As(runErr, &missingErr):
				return nil, fmt.Errorf("ssh exec returned no exit status: %w", runErr)
			default:
				return nil, fmt.Errorf("ssh exec failed: %w", runErr)
			}
		}
		return &ExecOutput{ExitStatus: exitStatus, Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}, nil
	}
}

// Close implements Client.
func (c *SshClient) Close() error {
	c.state = sshClosed
	if c.client != nil {
		err := c.client.Close()
		c.client = nil
		return err
	}
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

// SshClientFactory produces SshClients, defaulting the port to 22
// when a target names a bare IP or ssh: host with none given.
type SshClientFactory struct {
	factory transport.Factory
}

// NewSshClientFactory returns an SshClientFactory dialing through
// factory.
func NewSshClientFactory(factory transport.Factory) *SshClientFactory {
	return &SshClientFactory{factory: factory}
}

// Client implements ClientFactory.
func (f *SshClientFactory) Client(t *target.Target) (Client, bool) {
	switch t.Kind() {
	case target.Ip, target.Ssh:
	default:
		return nil, false
	}

	ip, ok := t.IP()
	if !ok {
		return nil, false
	}
	port, ok := t.Port()
	if !ok {
		port = 22
	}
	user, _ := t.User()

	sshTarget, err := target.NewIP(ip, &port, user)
	if err != nil {
		return nil, false
	}
	return NewSshClient(f.factory, sshTarget), true
}
