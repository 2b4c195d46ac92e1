package transport

import (
	"context"

	"github.com/kush-sh/kush/internal/target"
)

// OpaqueFactory produces no stream at all, for clients that establish
// their own connection out of band. The Kubernetes exec client does
// that without taking any transport.Factory, so none of the client
// factories in this module dial through it.
type OpaqueFactory struct{}

// NewOpaqueFactory returns an OpaqueFactory.
func NewOpaqueFactory() *OpaqueFactory {
	return &OpaqueFactory{}
}

// Connect implements Factory.
func (f *OpaqueFactory) Connect(_ context.Context, _ *target.Target) (*Transport, error) {
	return &Transport{Opaque: true}, nil
}
