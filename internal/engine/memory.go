package engine

import "sort"

// WorkingMemory holds the facts of one diagnosis session: the known
// facts supplied by the caller and the facts derived by inference. The
// two sets are disjoint by construction; rule applicability is checked
// against their union.
//
// A WorkingMemory belongs to exactly one session. Create a fresh one per
// run and discard it afterwards.
type WorkingMemory struct {
	known    map[Fact]struct{}
	inferred map[Fact]struct{}
}

// NewWorkingMemory returns an empty working memory.
func NewWorkingMemory() *WorkingMemory {
	return &WorkingMemory{
		known:    make(map[Fact]struct{}),
		inferred: make(map[Fact]struct{}),
	}
}

// AddKnown records a caller-supplied fact.
func (wm *WorkingMemory) AddKnown(f Fact) {
	wm.known[f] = struct{}{}
}

// AddInferred records a derived fact.
func (wm *WorkingMemory) AddInferred(f Fact) {
	wm.inferred[f] = struct{}{}
}

// Has reports whether f is in the union of known and inferred facts.
func (wm *WorkingMemory) Has(f Fact) bool {
	if _, ok := wm.known[f]; ok {
		return true
	}
	_, ok := wm.inferred[f]
	return ok
}

// HasAll reports whether every fact in facts is present.
func (wm *WorkingMemory) HasAll(facts []Fact) bool {
	for _, f := range facts {
		if !wm.Has(f) {
			return false
		}
	}
	return true
}

// Known returns the caller-supplied facts, sorted.
func (wm *WorkingMemory) Known() []Fact {
	return sortedFacts(wm.known)
}

// Inferred returns the derived facts, sorted.
func (wm *WorkingMemory) Inferred() []Fact {
	return sortedFacts(wm.inferred)
}

func sortedFacts(set map[Fact]struct{}) []Fact {
	out := make([]Fact, 0, len(set))
	for f := range set {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
