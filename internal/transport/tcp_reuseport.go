package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/kush-sh/kush/internal/target"
)

// ReuseportFactory dials TCP connections that all share one local
// port per address family, bypassing the kernel's usual "new
// ephemeral port per outgoing connection" behavior via SO_REUSEPORT
// (SO_REUSEADDR on Windows). Each remote target can only be connected
// to once per instance of this factory, since the local 4-tuple would
// otherwise collide.
type ReuseportFactory struct {
	connectTimeout time.Duration
	reservedV4     net.Listener
	reservedV6     net.Listener
}

// NewReuseportFactory reserves one local port for IPv4 and one for
// IPv6 and returns a ReuseportFactory that dials through them.
func NewReuseportFactory(connectTimeout time.Duration) (*ReuseportFactory, error) {
	v4, err := reserveSocket(context.Background(), "tcp4", "0.0.0.0:0")
	if err != nil {
		return nil, fmt.Errorf("failed reserving local v4 socket address: %w", err)
	}
	v6, err := reserveSocket(context.Background(), "tcp6", "[::]:0")
	if err != nil {
		v4.Close()
		return nil, fmt.Errorf("failed reserving local v6 socket address: %w", err)
	}
	return &ReuseportFactory{connectTimeout: connectTimeout, reservedV4: v4, reservedV6: v6}, nil
}

// Close releases the reserved local sockets.
func (f *ReuseportFactory) Close() error {
	err4 := f.reservedV4.Close()
	err6 := f.reservedV6.Close()
	if err4 != nil {
		return err4
	}
	return err6
}

// Connect implements Factory.
func (f *ReuseportFactory) Connect(ctx context.Context, t *target.Target) (*Transport, error) {
	addr, ok := t.SocketAddr()
	if !ok {
		return nil, fmt.Errorf("tcp_reuseport transport: unsupported target: %s", t)
	}

	network := "tcp4"
	local := f.reservedV4.Addr()
	if addr.Addr().Is6() {
		network = "tcp6"
		local = f.reservedV6.Addr()
	}

	dialer := net.Dialer{
		LocalAddr: local,
		Control:   reuseportControl,
	}

	dialCtx, cancel := context.WithTimeout(ctx, f.connectTimeout)
	defer cancel()

	conn, err := dialer.DialContext(dialCtx, network, addr.String())
	if err != nil {
		if errors.Is(dialCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("tcp connect timed out: %w", err)
		}
		return nil, fmt.Errorf("tcp connect failed: %w", err)
	}
	return &Transport{Conn: conn}, nil
}

func reserveSocket(ctx context.Context, network, address string) (net.Listener, error) {
	lc := net.ListenConfig{Control: reuseportControl}
	return lc.Listen(ctx, network, address)
}
