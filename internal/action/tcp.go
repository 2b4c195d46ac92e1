package action

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net"
	"time"

	"github.com/kush-sh/kush/internal/target"
	"github.com/kush-sh/kush/internal/transport"
)

// TcpClient probes a target with a raw TCP connection: Ping reads
// whatever the remote end sends as a banner and Connect is the only
// other supported operation. Authentication and command execution
// have no meaning over a bare socket.
type TcpClient struct {
	factory transport.Factory
	target  *target.Target

	conn   net.Conn
	reader *bufio.Reader
}

// NewTcpClient returns a TcpClient dialing target through factory.
func NewTcpClient(factory transport.Factory, t *target.Target) *TcpClient {
	return &TcpClient{factory: factory, target: t}
}

// Connect implements Client.
func (c *TcpClient) Connect(ctx context.Context) error {
	if c.conn != nil {
		return fmt.Errorf("tcp client already connected")
	}
	tr, err := c.factory.Connect(ctx, c.target)
	if err != nil {
		return err
	}
	if tr.Opaque || tr.Conn == nil {
		return fmt.Errorf("tcp client: unsupported transport for %s", c.target)
	}
	c.conn = tr.Conn
	c.reader = bufio.NewReader(tr.Conn)
	return nil
}

// Ping reads a single line from the connection and returns it with
// trailing ASCII whitespace trimmed. The read honors ctx's deadline
// so a silent peer can't hold the action past its timeout.
func (c *TcpClient) Ping(ctx context.Context) ([]byte, error) {
	if c.reader == nil {
		return nil, fmt.Errorf("tcp client not connected")
	}
	if deadline, ok := ctx.Deadline(); ok {
		c.conn.SetReadDeadline(deadline)
		defer c.conn.SetReadDeadline(time.Time{})
	}
	line, err := c.reader.ReadBytes('\n')
	if err != nil && len(line) == 0 {
		return nil, fmt.Errorf("tcp ping read failed: %w", err)
	}
	return bytes.TrimRight(line, " \t\r\n"), nil
}

// Auth implements Client. TCP has no authentication step.
func (c *TcpClient) Auth(_ context.Context, _ AuthPayload) error {
	return ErrNotSupported
}

// Exec implements Client. A bare TCP socket has no command protocol.
func (c *TcpClient) Exec(_ context.Context, _ string) (*ExecOutput, error) {
	return nil, ErrNotSupported
}

// Close implements Client.
func (c *TcpClient) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.reader = nil
	return err
}

// TcpClientFactory produces TcpClients for any target that resolves
// to a concrete IP and port.
type TcpClientFactory struct {
	factory transport.Factory
}

// NewTcpClientFactory returns a TcpClientFactory dialing through
// factory.
func NewTcpClientFactory(factory transport.Factory) *TcpClientFactory {
	return &TcpClientFactory{factory: factory}
}

// Client implements ClientFactory.
func (f *TcpClientFactory) Client(t *target.Target) (Client, bool) {
	if _, ok := t.SocketAddr(); !ok {
		return nil, false
	}
	return NewTcpClient(f.factory, t), true
}
