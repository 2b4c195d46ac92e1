package resolve

import (
	"strings"
	"testing"

	"github.com/kush-sh/kush/internal/target"
)

func TestTargetGraphLeafTargets(t *testing.T) {
	g := NewTargetGraph()

	a, err := target.Parse("10.0.0.0/24")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	b, err := target.Parse("10.0.0.1")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	c, err := target.Parse("10.0.0.2")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	g.AddEdge(a, b)
	g.AddEdge(a, c)

	leaves := g.LeafTargets()
	if len(leaves) != 2 {
		t.Fatalf("LeafTargets() len = %d, want 2", len(leaves))
	}
	if leaves[0].String() != b.String() || leaves[1].String() != c.String() {
		t.Errorf("LeafTargets() = %v, want [%s %s]", leaves, b, c)
	}
}

func TestTargetGraphBuckets(t *testing.T) {
	g := NewTargetGraph()
	a, _ := target.Parse("10.0.0.0/24")
	b, _ := target.Parse("10.0.0.1")
	c, _ := target.Parse("10.0.0.2")
	g.AddEdge(a, b)
	g.AddEdge(a, c)

	buckets := g.Buckets()
	if len(buckets) != 1 {
		t.Fatalf("Buckets() len = %d, want 1", len(buckets))
	}
	if buckets[0].Parent.String() != a.String() {
		t.Errorf("Buckets()[0].Parent = %s, want %s", buckets[0].Parent, a)
	}
	if len(buckets[0].Children) != 2 {
		t.Errorf("Buckets()[0].Children len = %d, want 2", len(buckets[0].Children))
	}
}

func TestTargetGraphEdgeIdempotentAndNoSelfLoops(t *testing.T) {
	g := NewTargetGraph()
	a, _ := target.Parse("10.0.0.0/24")
	b, _ := target.Parse("10.0.0.1")

	g.AddEdge(a, b)
	g.AddEdge(a, b)
	g.AddEdge(b, b)

	if len(g.Nodes()) != 2 {
		t.Fatalf("Nodes() len = %d, want 2", len(g.Nodes()))
	}
	leaves := g.LeafTargets()
	if len(leaves) != 1 || leaves[0].String() != b.String() {
		t.Errorf("LeafTargets() = %v, want just %s", leaves, b)
	}
	buckets := g.Buckets()
	if len(buckets) != 1 || len(buckets[0].Children) != 1 {
		t.Errorf("Buckets() = %+v, want one bucket with one child", buckets)
	}
}

func TestTargetGraphGraphvizLayout(t *testing.T) {
	g := NewTargetGraph()
	a, _ := target.Parse("10.0.0.0/31")
	b, _ := target.Parse("10.0.0.1")
	g.AddEdge(a, b)

	dot := g.Graphviz()
	if !strings.Contains(dot, "rankdir=LR") {
		t.Error("Graphviz() missing left-to-right layout")
	}
	if !strings.Contains(dot, "cidr://10.0.0.0/31") || !strings.Contains(dot, "ip://10.0.0.1") {
		t.Errorf("Graphviz() missing node labels:\n%s", dot)
	}
	if !strings.Contains(dot, "0 -> 1") {
		t.Errorf("Graphviz() missing edge:\n%s", dot)
	}
}
