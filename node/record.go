package node

import (
	"encoding/json"

	"github.com/eth2030/chainway/core/types"
	"github.com/eth2030/chainway/merkle"
)

// record is the payload persisted under "{stream}-block-{n}". Its "items"
// field is exactly the wire shape the Merkle root's wire-level compatibility
// requires ({"items": [[32 bytes], ...]}); "values" rides alongside it,
// additively, since the digest in each item is not invertible and Get /
// GetHistorical need the plaintext value a historical snapshot held.
type record struct {
	Items  []types.Hash `json:"items"`
	Values []uint64     `json:"values"`
}

func newRecord(leaves merkle.Leaves, values [merkle.NumLeaves]uint64) record {
	items := make([]types.Hash, len(leaves.Items))
	copy(items, leaves.Items)
	vals := make([]uint64, len(values))
	copy(vals, values[:])
	return record{Items: items, Values: vals}
}

// freshRecord is the record an un-ingested block (block 0) implies: default
// Leaves, all values zero. No such record is ever written to storage; it is
// synthesized whenever a caller asks to load block 0.
func freshRecord() record {
	return newRecord(merkle.New(), [merkle.NumLeaves]uint64{})
}

func (r record) serialize() ([]byte, error) {
	return json.Marshal(r)
}

func deserializeRecord(data []byte) (record, error) {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return record{}, err
	}
	if len(r.Items) != merkle.NumLeaves || len(r.Values) != merkle.NumLeaves {
		return record{}, merkle.ErrWrongLength
	}
	return r, nil
}

func (r record) leaves() merkle.Leaves {
	items := make([]types.Hash, len(r.Items))
	copy(items, r.Items)
	return merkle.Leaves{Items: items}
}

func (r record) valuesArray() [merkle.NumLeaves]uint64 {
	var v [merkle.NumLeaves]uint64
	copy(v[:], r.Values)
	return v
}
