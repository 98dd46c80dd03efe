// Package chainstate implements State: a Leaves table paired with its cached
// Merkle root, kept consistent with each other across every public
// operation boundary (the root is a cache of Leaves, recomputed with
// merkle.Root and never allowed to disagree with it).
package chainstate

import (
	"errors"

	"github.com/eth2030/chainway/core/types"
	"github.com/eth2030/chainway/crypto"
	"github.com/eth2030/chainway/merkle"
)

// ErrRootUnavailable is returned by RootChecked when the cached root could not be
// computed. At 256 leaves this should never occur; it exists because the
// contract-level operations this State backs (Node.trust_block) must be able
// to report a StateError rather than panic.
var ErrRootUnavailable = errors.New("chainstate: merkle root unavailable")

// State pairs a Leaves table with its cached Merkle root. The invariant that
// the cached root always reflects the current Leaves is maintained by this
// type alone: every mutator recomputes the root before returning.
//
// A digest is not invertible, so State also keeps the plaintext value behind
// each slot's digest -- Node.Get and Node.GetHistorical need the actual
// value, not just its hash. The original source's Leaf type carried value
// alongside the hash input for the same reason; the digest-only Leaves is
// what the wire format (and the Merkle root) is built from, values travel
// next to it.
type State struct {
	leaves merkle.Leaves
	values [merkle.NumLeaves]uint64
	root   types.Hash
}

// New creates a State from a fresh Leaves (every slot at H(BE64(0))) and its
// corresponding root.
func New() *State {
	l := merkle.New()
	return &State{
		leaves: l,
		root:   merkle.Root(l),
	}
}

// Dispatch sets slot k to H(BE64(v)) and recomputes the cached root. This is
// total: a byte key and a uint64 value can never fail to apply.
func (s *State) Dispatch(k byte, v uint64) {
	s.leaves.Set(k, crypto.LeafDigest(v))
	s.values[k] = v
	s.root = merkle.Root(s.leaves)
}

// Value reads the plaintext value at slot k.
func (s *State) Value(k byte) uint64 {
	return s.values[k]
}

// Values returns a copy of the full plaintext value table.
func (s *State) Values() [merkle.NumLeaves]uint64 {
	return s.values
}

// Digest reads the digest at slot k.
func (s *State) Digest(k byte) types.Hash {
	return s.leaves.Get(k)
}

// OverrideState replaces both the Leaves and the plaintext values wholesale
// and recomputes the root. Used when restoring a persisted snapshot, which
// carries both. The caller's Leaves is cloned so State never aliases
// storage-owned data.
func (s *State) OverrideState(l merkle.Leaves, values [merkle.NumLeaves]uint64) {
	s.leaves = l.Clone()
	s.values = values
	s.root = merkle.Root(s.leaves)
}

// Root returns the current cached root.
func (s *State) Root() types.Hash {
	return s.root
}

// RootChecked returns the current cached root, or ErrRootUnavailable if the
// backing Leaves has somehow lost its fixed 256-slot shape. Node.TrustBlock
// calls this rather than Root so that a StateError at that boundary has a
// real (if practically unreachable) path into existence.
func (s *State) RootChecked() (types.Hash, error) {
	if len(s.leaves.Items) != merkle.NumLeaves {
		return types.Hash{}, ErrRootUnavailable
	}
	return s.root, nil
}

// Leaves returns a copy of the current Leaves, safe for the caller to retain
// or mutate without affecting this State.
func (s *State) Leaves() merkle.Leaves {
	return s.leaves.Clone()
}

// OverrideLeaves replaces the Leaves wholesale and recomputes the root; the
// plaintext value table is left unchanged (Node.RevertBlocks restores both
// through OverrideState). The caller's Leaves is cloned so the State never
// aliases storage-owned data.
func (s *State) OverrideLeaves(l merkle.Leaves) {
	s.leaves = l.Clone()
	s.root = merkle.Root(s.leaves)
}
