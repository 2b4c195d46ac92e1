package resolve

import (
	"fmt"
	"strings"

	"github.com/kush-sh/kush/internal/target"
)

// TargetGraph is a directed graph of unique targets, used to record
// how a set of seed queries expanded into the targets actions will
// run against.
type TargetGraph struct {
	nodes []*target.Target
	index map[string]int
	out   map[int][]int
	in    map[int][]int
}

// NewTargetGraph returns an empty graph.
func NewTargetGraph() *TargetGraph {
	return &TargetGraph{
		index: make(map[string]int),
		out:   make(map[int][]int),
		in:    make(map[int][]int),
	}
}

// AddNode adds t to the graph with no relation, returning its index.
// Adding the same target twice returns the same index.
func (g *TargetGraph) AddNode(t *target.Target) int {
	key := t.String()
	if idx, ok := g.index[key]; ok {
		return idx
	}
	idx := len(g.nodes)
	g.nodes = append(g.nodes, t)
	g.index[key] = idx
	return idx
}

// AddEdge records a parent->child relationship, creating either node
// if it doesn't already exist. Self-loops are dropped and repeated
// edges recorded once.
func (g *TargetGraph) AddEdge(parent, child *target.Target) {
	p := g.AddNode(parent)
	c := g.AddNode(child)
	if p == c {
		return
	}
	for _, existing := range g.out[p] {
		if existing == c {
			return
		}
	}
	g.out[p] = append(g.out[p], c)
	g.in[c] = append(g.in[c], p)
}

// Nodes returns every target in the graph, in insertion order.
func (g *TargetGraph) Nodes() []*target.Target {
	out := make([]*target.Target, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// LeafTargets returns the targets that have no further children, in
// insertion order.
func (g *TargetGraph) LeafTargets() []*target.Target {
	var out []*target.Target
	for i, t := range g.nodes {
		if len(g.out[i]) == 0 {
			out = append(out, t)
		}
	}
	return out
}

// Bucket groups leaf targets under their first recorded parent.
type Bucket struct {
	Parent   *target.Target
	Children []*target.Target
}

// Buckets groups leaf targets by their first parent. A target with
// multiple parents only appears under the first one recorded.
func (g *TargetGraph) Buckets() []Bucket {
	order := make([]int, 0)
	byParent := make(map[int]*Bucket)

	for i, t := range g.nodes {
		if len(g.out[i]) > 0 {
			continue
		}
		parents := g.in[i]
		if len(parents) == 0 {
			continue
		}
		pidx := parents[0]
		b, ok := byParent[pidx]
		if !ok {
			b = &Bucket{Parent: g.nodes[pidx]}
			byParent[pidx] = b
			order = append(order, pidx)
		}
		b.Children = append(b.Children, t)
	}

	result := make([]Bucket, len(order))
	for i, idx := range order {
		result[i] = *byParent[idx]
	}
	return result
}

// Graphviz renders the graph as a DOT document, left-to-right.
func (g *TargetGraph) Graphviz() string {
	var b strings.Builder
	b.WriteString("digraph {\n    rankdir=LR;\n")
	for i, t := range g.nodes {
		fmt.Fprintf(&b, "    %d [ label = \"%s\" ]\n", i, t.String())
	}
	for p, children := range g.out {
		for _, c := range children {
			fmt.Fprintf(&b, "    %d -> %d [ ]\n", p, c)
		}
	}
	b.WriteString("}\n")
	return b.String()
}
