package cmd

import (
	"strings"
	"testing"
)

func TestReadTargetsExpandsStdin(t *testing.T) {
	stdin := strings.NewReader("10.0.0.1\n\n10.0.0.2\n")
	out, err := readTargets(stdin, []string{"-"})
	if err != nil {
		t.Fatalf("readTargets: %v", err)
	}
	want := []string{"10.0.0.1", "10.0.0.2"}
	if len(out) != len(want) {
		t.Fatalf("readTargets = %v, want %v", out, want)
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("out[%d] = %q, want %q", i, out[i], want[i])
		}
	}
}

func TestReadTargetsPassesThroughLiterals(t *testing.T) {
	out, err := readTargets(strings.NewReader(""), []string{"10.0.0.1", "dns://example.com"})
	if err != nil {
		t.Fatalf("readTargets: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("readTargets = %v, want 2 entries", out)
	}
}

func TestReadTargetsRequiresAtLeastOne(t *testing.T) {
	if _, err := readTargets(strings.NewReader(""), nil); err == nil {
		t.Error("expected error for empty target list")
	}
}
