// Package crypto provides the single hash construction chainway uses to
// summarize leaves and build Merkle roots. The construction is fixed to
// SHA-256 (not Keccak) per the wire-level compatibility requirement on the
// produced Merkle root: leaf input is SHA-256(BE64(value)), internal nodes
// are SHA-256(left || right).
package crypto

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/eth2030/chainway/core/types"
)

// H computes the SHA-256 digest of the concatenation of data.
func H(data ...[]byte) []byte {
	d := sha256.New()
	for _, b := range data {
		d.Write(b)
	}
	return d.Sum(nil)
}

// HHash computes H and returns it as a types.Hash.
func HHash(data ...[]byte) types.Hash {
	return types.BytesToHash(H(data...))
}

// BE64 encodes v as its 8-byte big-endian representation.
func BE64(v uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return buf[:]
}

// LeafDigest computes the per-key leaf digest for a value: H(BE64(value)).
func LeafDigest(value uint64) types.Hash {
	return HHash(BE64(value))
}

// NodeDigest computes an internal Merkle node digest: H(left || right).
func NodeDigest(left, right types.Hash) types.Hash {
	return HHash(left[:], right[:])
}
