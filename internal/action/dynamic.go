package action

import "github.com/kush-sh/kush/internal/target"

// DynamicClientFactory tries a fixed, ordered list of ClientFactory
// implementations and returns the first one that claims a target.
type DynamicClientFactory struct {
	factories []ClientFactory
}

// NewDynamicClientFactory returns an empty DynamicClientFactory; add
// factories with With, in priority order.
func NewDynamicClientFactory() *DynamicClientFactory {
	return &DynamicClientFactory{}
}

// With appends a factory and returns the receiver for chaining.
func (d *DynamicClientFactory) With(f ClientFactory) *DynamicClientFactory {
	d.factories = append(d.factories, f)
	return d
}

// Client implements ClientFactory.
func (d *DynamicClientFactory) Client(t *target.Target) (Client, bool) {
	for _, f := range d.factories {
		if c, ok := f.Client(t); ok {
			return c, true
		}
	}
	return nil, false
}
