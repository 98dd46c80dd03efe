package chainstate

import (
	"testing"

	"github.com/eth2030/chainway/crypto"
	"github.com/eth2030/chainway/merkle"
)

func TestNewStateMatchesFreshLeavesRoot(t *testing.T) {
	s := New()
	want := merkle.Root(merkle.New())
	if s.Root() != want {
		t.Fatalf("New() root = %s, want %s", s.Root(), want)
	}
}

func TestDispatchUpdatesRoot(t *testing.T) {
	s := New()
	before := s.Root()
	s.Dispatch(1, 10)
	after := s.Root()
	if before == after {
		t.Fatal("Dispatch should change the cached root")
	}

	l := merkle.New()
	l.Set(1, crypto.LeafDigest(10))
	if after != merkle.Root(l) {
		t.Fatal("Dispatch root should match an equivalent direct Leaves mutation")
	}
}

func TestOverrideLeavesRecomputesRoot(t *testing.T) {
	s := New()
	s.Dispatch(5, 500)

	other := merkle.New()
	other.Set(9, crypto.LeafDigest(900))

	s.OverrideLeaves(other)
	if s.Root() != merkle.Root(other) {
		t.Fatal("OverrideLeaves should recompute the root from the new Leaves")
	}
}

func TestOverrideLeavesDoesNotAliasCaller(t *testing.T) {
	s := New()
	l := merkle.New()
	s.OverrideLeaves(l)

	l.Set(0, crypto.LeafDigest(1))
	if s.Root() == merkle.Root(l) {
		t.Fatal("State should have cloned the overridden Leaves")
	}
}

func TestLeavesReturnsIndependentCopy(t *testing.T) {
	s := New()
	cp := s.Leaves()
	cp.Set(0, crypto.LeafDigest(1))
	if s.Leaves().Get(0) == cp.Get(0) {
		t.Fatal("Leaves() should return a copy, not a live view")
	}
}

func TestDispatchSetsValueAndDigest(t *testing.T) {
	s := New()
	s.Dispatch(3, 30)
	if got := s.Value(3); got != 30 {
		t.Fatalf("Value(3) = %d, want 30", got)
	}
	if got := s.Digest(3); got != crypto.LeafDigest(30) {
		t.Fatal("Digest(3) should equal LeafDigest(30)")
	}
	if got := s.Value(4); got != 0 {
		t.Fatalf("untouched Value(4) = %d, want 0", got)
	}
}

func TestOverrideStateRestoresValuesAndDigests(t *testing.T) {
	s := New()
	s.Dispatch(1, 10)

	l := merkle.New()
	l.Set(9, crypto.LeafDigest(900))
	var values [merkle.NumLeaves]uint64
	values[9] = 900

	s.OverrideState(l, values)
	if s.Root() != merkle.Root(l) {
		t.Fatal("OverrideState should recompute the root from the new Leaves")
	}
	if got := s.Value(9); got != 900 {
		t.Fatalf("Value(9) after OverrideState = %d, want 900", got)
	}
	if got := s.Value(1); got != 0 {
		t.Fatalf("Value(1) after OverrideState = %d, want 0 (restored table has no entry)", got)
	}
}

func TestRootCheckedSucceeds(t *testing.T) {
	s := New()
	root, err := s.RootChecked()
	if err != nil {
		t.Fatalf("RootChecked: %v", err)
	}
	if root != s.Root() {
		t.Fatal("RootChecked should match Root")
	}
}
