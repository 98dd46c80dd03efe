// Package merkle implements the fixed-size, 256-slot digest vector used as
// the leaves of chainway's per-stream Merkle tree, and the perfect binary
// tree built over it.
//
// The keyspace is a single byte (0..255) and is fully pre-populated: a fresh
// Leaves has every slot set to H(BE64(0)). The digest at slot k is always
// H(BE64(value_k)), so the Merkle tree built from Leaves is a perfect binary
// tree of depth 8 with no padding policy required.
package merkle

import (
	"encoding/json"
	"errors"

	"github.com/eth2030/chainway/core/types"
	"github.com/eth2030/chainway/crypto"
)

// NumLeaves is the fixed number of leaf slots: one per possible key byte.
const NumLeaves = 256

// ErrWrongLength is returned by Deserialize when the decoded Leaves does not
// carry exactly NumLeaves entries.
var ErrWrongLength = errors.New("merkle: leaves vector must have exactly 256 entries")

// Leaves is the length-256 ordered vector of per-key digests. Index k holds
// the digest for key k. The JSON shape ({"items": [[...32 bytes...], ...]})
// is part of the wire format: SnapshotStore persists exactly this encoding.
type Leaves struct {
	Items []types.Hash `json:"items"`
}

// New returns a Leaves with every slot set to H(BE64(0)), the digest of the
// default zero value.
func New() Leaves {
	zero := crypto.LeafDigest(0)
	items := make([]types.Hash, NumLeaves)
	for i := range items {
		items[i] = zero
	}
	return Leaves{Items: items}
}

// Set overwrites the digest at slot k. k is a byte, so no error is possible.
func (l *Leaves) Set(k byte, d types.Hash) {
	l.Items[k] = d
}

// Get reads the digest at slot k.
func (l Leaves) Get(k byte) types.Hash {
	return l.Items[k]
}

// Clone returns an independent copy of l, matching the "Leaves are cloned
// when written to SnapshotStore and when loaded back during revert" lifecycle
// rule: callers holding a live State must never alias a snapshot's Leaves.
func (l Leaves) Clone() Leaves {
	cp := make([]types.Hash, len(l.Items))
	copy(cp, l.Items)
	return Leaves{Items: cp}
}

// Serialize encodes Leaves as JSON of shape {"items": [[32 bytes], ...]}.
func (l Leaves) Serialize() ([]byte, error) {
	if len(l.Items) != NumLeaves {
		return nil, ErrWrongLength
	}
	return json.Marshal(l)
}

// Deserialize decodes Leaves from its JSON encoding, verifying the vector is
// exactly NumLeaves long.
func Deserialize(data []byte) (Leaves, error) {
	var l Leaves
	if err := json.Unmarshal(data, &l); err != nil {
		return Leaves{}, err
	}
	if len(l.Items) != NumLeaves {
		return Leaves{}, ErrWrongLength
	}
	return l, nil
}
