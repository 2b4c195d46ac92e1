package resolve

import (
	"sort"

	"github.com/kush-sh/kush/internal/target"
)

// Set is an ordered collection of unique targets, deduplicated by
// string form.
type Set struct {
	items map[string]*target.Target
}

// NewSet returns an empty Set.
func NewSet() *Set {
	return &Set{items: make(map[string]*target.Target)}
}

// Insert adds t to the set, replacing any prior value with the same
// string form.
func (s *Set) Insert(t *target.Target) {
	s.items[t.String()] = t
}

// Len returns the number of distinct targets in the set.
func (s *Set) Len() int {
	return len(s.items)
}

// Slice returns the set's targets sorted by string form.
func (s *Set) Slice() []*target.Target {
	keys := make([]string, 0, len(s.items))
	for k := range s.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]*target.Target, len(keys))
	for i, k := range keys {
		out[i] = s.items[k]
	}
	return out
}
