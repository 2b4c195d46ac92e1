package idgen

import "testing"

func TestSonyflakeGeneratorProducesUniqueIDs(t *testing.T) {
	gen, err := NewSonyflakeGenerator()
	if err != nil {
		t.Fatalf("NewSonyflakeGenerator: %v", err)
	}

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := gen.NewID()
		if err != nil {
			t.Fatalf("NewID: %v", err)
		}
		if seen[id] {
			t.Fatalf("duplicate ID %q at iteration %d", id, i)
		}
		seen[id] = true
	}
}

func TestSonyflakeGeneratorCrockfordAlphabet(t *testing.T) {
	gen, err := NewSonyflakeGenerator()
	if err != nil {
		t.Fatalf("NewSonyflakeGenerator: %v", err)
	}
	id, err := gen.NewID()
	if err != nil {
		t.Fatalf("NewID: %v", err)
	}
	for _, r := range id {
		found := false
		for _, c := range crockford {
			if r == c {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("ID %q contains non-Crockford rune %q", id, r)
		}
	}
}

func TestFoldHostnameIsDeterministic(t *testing.T) {
	a := foldHostname("worker-1")
	b := foldHostname("worker-1")
	if a != b {
		t.Errorf("foldHostname not deterministic: %d != %d", a, b)
	}
	if foldHostname("worker-1") == foldHostname("worker-2") {
		t.Error("foldHostname collided for distinct hostnames (may be coincidental but worth investigating)")
	}
}

func TestUUIDGeneratorProducesUniqueIDs(t *testing.T) {
	gen := NewUUIDGenerator()
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		id, err := gen.NewID()
		if err != nil {
			t.Fatalf("NewID: %v", err)
		}
		if seen[id] {
			t.Fatalf("duplicate UUID %q", id)
		}
		seen[id] = true
	}
}
