package merkle

import (
	"github.com/eth2030/chainway/core/types"
	"github.com/eth2030/chainway/crypto"
)

// Root recomputes the Merkle root over leaves in index order. With exactly
// NumLeaves (a power of two) leaves the tree is perfect and no duplicate-last
// -node padding rule is needed: each level is simply paired off until a
// single node remains.
//
// This recomputes the whole tree on every call, which is O(NumLeaves) and
// acceptable at this scale (256 leaves); callers that dispatch one key at a
// time are free to maintain the tree incrementally so long as the resulting
// root is identical.
func Root(l Leaves) types.Hash {
	level := make([]types.Hash, len(l.Items))
	copy(level, l.Items)

	for len(level) > 1 {
		next := make([]types.Hash, len(level)/2)
		for i := range next {
			next[i] = crypto.NodeDigest(level[2*i], level[2*i+1])
		}
		level = next
	}
	return level[0]
}
