package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/kush-sh/kush/internal/target"
)

// TcpFactory dials a plain TCP connection per target, letting the
// kernel pick a fresh ephemeral local port each time.
type TcpFactory struct {
	connectTimeout time.Duration
}

// NewTcpFactory returns a TcpFactory with the given connect timeout.
func NewTcpFactory(connectTimeout time.Duration) *TcpFactory {
	return &TcpFactory{connectTimeout: connectTimeout}
}

// Connect implements Factory.
func (f *TcpFactory) Connect(ctx context.Context, t *target.Target) (*Transport, error) {
	addr, ok := t.SocketAddr()
	if !ok {
		return nil, fmt.Errorf("tcp transport: unsupported target: %s", t)
	}

	dialCtx, cancel := context.WithTimeout(ctx, f.connectTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(dialCtx, "tcp", addr.String())
	if err != nil {
		if errors.Is(dialCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("tcp connect timed out: %w", err)
		}
		return nil, fmt.Errorf("tcp connect failed: %w", err)
	}
	return &Transport{Conn: conn}, nil
}
