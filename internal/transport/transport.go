// Package transport builds the byte streams action clients connect
// over: plain TCP, TCP bound to a shared reused local port, or no
// stream at all for clients (like the Kubernetes exec client) that
// manage their own connection.
package transport

import (
	"context"
	"net"

	"github.com/kush-sh/kush/internal/target"
)

// Transport is the byte stream a client will use to speak to a
// target. Opaque transports carry no stream; the client is
// responsible for establishing its own connection.
type Transport struct {
	Conn   net.Conn
	Opaque bool
}

// Factory builds a Transport to a target.
type Factory interface {
	Connect(ctx context.Context, t *target.Target) (*Transport, error)
}
