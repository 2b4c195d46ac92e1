package resolve

import (
	"context"
	"iter"

	"github.com/kush-sh/kush/internal/target"
)

// ChainResolver flattens the results of a set of resolvers into one
// stream. If none of the constituent resolvers produce anything for a
// given target, the target itself is bounced through unchanged.
type ChainResolver struct {
	resolvers []Resolve
}

// NewChainResolver returns an empty chain.
func NewChainResolver() *ChainResolver {
	return &ChainResolver{}
}

// With appends a resolver to the chain and returns the chain for
// further chaining.
func (c *ChainResolver) With(r Resolve) *ChainResolver {
	c.resolvers = append(c.resolvers, r)
	return c
}

// ResolveFallible implements Resolve.
func (c *ChainResolver) ResolveFallible(ctx context.Context, t *target.Target) iter.Seq2[*target.Target, error] {
	return func(yield func(*target.Target, error) bool) {
		bounceOriginal := true
		for _, r := range c.resolvers {
			for v, err := range r.ResolveFallible(ctx, t) {
				bounceOriginal = false
				if !yield(v, err) {
					return
				}
			}
		}
		if bounceOriginal {
			yield(t, nil)
		}
	}
}
