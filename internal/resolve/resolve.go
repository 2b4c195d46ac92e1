// Package resolve expands target queries (CIDR blocks, DNS names,
// files of targets, Kubernetes namespaces) into concrete Targets, and
// assembles the results into sets or dependency graphs.
package resolve

import (
	"context"
	"iter"

	"github.com/kush-sh/kush/internal/target"
)

// Resolve maps a target query to the targets it expands to.
// Unsupported target kinds should yield nothing rather than erroring.
type Resolve interface {
	// ResolveFallible resolves a single target query, yielding each
	// result (or resolution error) in turn. Returning false from yield
	// stops iteration early.
	ResolveFallible(ctx context.Context, t *target.Target) iter.Seq2[*target.Target, error]
}

// ResolveOK is like Resolve.ResolveFallible but drops errors.
func ResolveOK(ctx context.Context, r Resolve, t *target.Target) iter.Seq[*target.Target] {
	return func(yield func(*target.Target) bool) {
		for v, err := range r.ResolveFallible(ctx, t) {
			if err != nil {
				continue
			}
			if !yield(v) {
				return
			}
		}
	}
}

// BulkResolveFallible resolves multiple target queries in serial,
// flattening each query's results in order.
func BulkResolveFallible(ctx context.Context, r Resolve, targets []*target.Target) iter.Seq2[*target.Target, error] {
	return func(yield func(*target.Target, error) bool) {
		for _, t := range targets {
			for v, err := range r.ResolveFallible(ctx, t) {
				if !yield(v, err) {
					return
				}
			}
		}
	}
}

// BulkResolveOK is like BulkResolveFallible but drops errors.
func BulkResolveOK(ctx context.Context, r Resolve, targets []*target.Target) iter.Seq[*target.Target] {
	return func(yield func(*target.Target) bool) {
		for v, err := range BulkResolveFallible(ctx, r, targets) {
			if err != nil {
				continue
			}
			if !yield(v) {
				return
			}
		}
	}
}

// ResolveSet resolves a target query into a new Set.
func ResolveSet(ctx context.Context, r Resolve, t *target.Target) *Set {
	s := NewSet()
	ResolveIntoSet(ctx, r, t, s)
	return s
}

// ResolveIntoSet resolves a target query into an existing Set.
func ResolveIntoSet(ctx context.Context, r Resolve, t *target.Target, set *Set) {
	for v := range ResolveOK(ctx, r, t) {
		set.Insert(v)
	}
}

// ResolveIntoGraph resolves a target query into an existing graph,
// recording the query as the parent of everything it resolves to.
func ResolveIntoGraph(ctx context.Context, r Resolve, t *target.Target, graph *TargetGraph) {
	graph.AddNode(t)
	for child := range ResolveOK(ctx, r, t) {
		if child.String() != t.String() {
			graph.AddEdge(t, child)
		}
	}
}

// ResolveIntoGraphReverse is like ResolveIntoGraph, but with the
// parent/child relationship reversed: each result is recorded as a
// parent of the query. This is used by reverse resolvers (e.g.
// reverse DNS) where the result is conceptually "above" the query.
func ResolveIntoGraphReverse(ctx context.Context, r Resolve, t *target.Target, graph *TargetGraph) {
	graph.AddNode(t)
	for parent := range ResolveOK(ctx, r, t) {
		if parent.String() != t.String() {
			graph.AddEdge(parent, t)
		}
	}
}

// BulkResolveSet resolves multiple target queries into a new Set.
func BulkResolveSet(ctx context.Context, r Resolve, targets []*target.Target) *Set {
	s := NewSet()
	BulkResolveIntoSet(ctx, r, targets, s)
	return s
}

// BulkResolveIntoSet resolves multiple target queries into an
// existing Set.
func BulkResolveIntoSet(ctx context.Context, r Resolve, targets []*target.Target, set *Set) {
	for _, t := range targets {
		ResolveIntoSet(ctx, r, t, set)
	}
}
