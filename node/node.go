// Package node implements Node: the pair of authenticated States (Sequencer,
// DA), the tracked NodeRoots (trusted / on-da / on-da-finalized), and the
// block counters and snapshotting operations the driver composes into the
// reconciliation protocol.
package node

import (
	"fmt"
	"strconv"

	"github.com/eth2030/chainway/chainerr"
	"github.com/eth2030/chainway/chainstate"
	"github.com/eth2030/chainway/core/types"
	"github.com/eth2030/chainway/log"
	"github.com/eth2030/chainway/snapshot"
)

// NodeRoots holds the three digests the reconciliation protocol tracks.
// OnDAFinalized is append-only in effect: callers never move it backward.
type NodeRoots struct {
	Trusted       types.Hash
	OnDA          types.Hash
	OnDAFinalized types.Hash
}

// FinalizationStatus classifies a Get result.
type FinalizationStatus int

const (
	// Trusted means the sequencer's current value at this key has not
	// yet been mirrored into the DA state.
	Trusted FinalizationStatus = iota
	// DaNotFinalized means DA has the same value at this key, but the DA
	// root that carries it has not been finalized.
	DaNotFinalized
	// DaFinalized means DA has the same value at this key, as of a DA
	// root that has been finalized.
	DaFinalized
)

func (s FinalizationStatus) String() string {
	switch s {
	case Trusted:
		return "Trusted"
	case DaNotFinalized:
		return "DaNotFinalized"
	case DaFinalized:
		return "DaFinalized"
	default:
		return "Unknown"
	}
}

// Node holds the dual States, the tracked roots, the per-stream block
// counters, and the SnapshotStore backing them. One Node is created per
// process and owned exclusively by the driver; it is never aliased.
type Node struct {
	storage snapshot.Store

	sequencerState *chainstate.State
	daState        *chainstate.State

	seqBlockNumber uint64
	daBlockNumber  uint64

	roots NodeRoots

	// finalizedDABlock is the da_block_number whose root last became
	// on_da_finalized; 0 means finalize_block has never run. RevertBlocks
	// on the DA stream refuses to cross below it.
	finalizedDABlock uint64

	log *log.Logger
}

// New creates a Node with fresh Sequencer and DA states, zero block
// counters, and zero-valued roots, backed by storage.
func New(storage snapshot.Store) *Node {
	return &Node{
		storage:        storage,
		sequencerState: chainstate.New(),
		daState:        chainstate.New(),
		log:            log.Default().Module("node"),
	}
}

// DispatchStateChange applies one (key, value) change to the named stream's
// State. No block is committed; no snapshot is written. Total: cannot fail.
func (n *Node) DispatchStateChange(stream Stream, k byte, v uint64) {
	n.stateFor(stream).Dispatch(k, v)
}

// SequencerBlockNumber returns the sequencer stream's current block number.
func (n *Node) SequencerBlockNumber() uint64 { return n.seqBlockNumber }

// DABlockNumber returns the DA stream's current block number.
func (n *Node) DABlockNumber() uint64 { return n.daBlockNumber }

// Roots returns the current NodeRoots.
func (n *Node) Roots() NodeRoots { return n.roots }

// SequencerRoot returns the sequencer State's current root.
func (n *Node) SequencerRoot() types.Hash { return n.sequencerState.Root() }

// DARoot returns the DA State's current root.
func (n *Node) DARoot() types.Hash { return n.daState.Root() }

// TrustBlock commits the current sequencer State as a new sequencer block:
// computes its root, advances seq_block_number, sets roots.Trusted, and
// persists the snapshot plus the updated current-block counter.
func (n *Node) TrustBlock() error {
	root, err := n.sequencerState.RootChecked()
	if err != nil {
		return chainerr.State(fmt.Errorf("trust_block: %w", err))
	}

	n.seqBlockNumber++
	n.roots.Trusted = root

	if err := n.writeSnapshot(StreamSequencer, n.seqBlockNumber, n.sequencerState); err != nil {
		n.seqBlockNumber--
		return err
	}

	n.log.Debug("trusted sequencer block", "block", n.seqBlockNumber, "root", root.Hex())
	return nil
}

// PublishBlock commits the current DA State as a new DA block, mirroring the
// sequencer's trusted root into roots.OnDA. Callers must ensure either
// IsStateMatch holds or the re-alignment path has just run.
func (n *Node) PublishBlock() error {
	n.daBlockNumber++
	n.roots.OnDA = n.roots.Trusted

	if err := n.writeSnapshot(StreamDA, n.daBlockNumber, n.daState); err != nil {
		n.daBlockNumber--
		return err
	}

	n.log.Debug("published DA block", "block", n.daBlockNumber, "root", n.roots.OnDA.Hex())
	return nil
}

// FinalizeBlock marks the DA State's current root as finalized. Idempotent:
// calling it twice without an intervening DA change leaves roots.OnDAFinalized
// and finalizedDABlock unchanged in effect (they are simply re-assigned the
// same values).
func (n *Node) FinalizeBlock() error {
	n.roots.OnDAFinalized = n.daState.Root()
	n.finalizedDABlock = n.daBlockNumber
	n.log.Debug("finalized DA block", "block", n.finalizedDABlock, "root", n.roots.OnDAFinalized.Hex())
	return nil
}

// IsStateMatch reports whether the Sequencer and DA states currently share a
// root.
func (n *Node) IsStateMatch() bool {
	return n.sequencerState.Root() == n.daState.Root()
}

// RevertBlocks reverts the named stream by count blocks: loads the snapshot
// at (current - count), restores it as the stream's State, and rewinds the
// stream's in-memory block counter. Reverting a finalized DA block, or
// reverting past the stream's genesis, is a fatal ProtocolError; a missing
// snapshot at the target block is a fatal StorageError.
func (n *Node) RevertBlocks(stream Stream, count uint64) error {
	current := n.blockNumber(stream)
	if count > current {
		return chainerr.Protocol(fmt.Errorf(
			"revert_blocks(%s, %d): current block %d is below revert depth", stream, count, current))
	}
	target := current - count

	if stream == StreamDA && target < n.finalizedDABlock {
		return chainerr.Protocol(fmt.Errorf(
			"revert_blocks(DA, %d): target block %d is below finalized block %d", count, target, n.finalizedDABlock))
	}

	rec, err := n.loadRecord(stream, target)
	if err != nil {
		return chainerr.Storage(fmt.Errorf("revert_blocks(%s, %d): load snapshot at block %d: %w", stream, count, target, err))
	}

	n.stateFor(stream).OverrideState(rec.leaves(), rec.valuesArray())
	n.setBlockNumber(stream, target)

	n.log.Debug("reverted blocks", "stream", stream, "count", count, "target_block", target)
	return nil
}

// Get returns the sequencer's current value at k and its finalization
// status, derived by comparing the sequencer and DA digests at k and
// checking whether the DA root that carries that digest has been finalized.
func (n *Node) Get(k byte) (uint64, FinalizationStatus) {
	value := n.sequencerState.Value(k)

	if n.sequencerState.Digest(k) != n.daState.Digest(k) {
		return value, Trusted
	}
	if n.daState.Root() == n.roots.OnDAFinalized {
		return value, DaFinalized
	}
	return value, DaNotFinalized
}

// GetHistorical rebuilds a transient sequencer snapshot at block and returns
// its value at key k, or 0 if no such snapshot exists (including block 0,
// the implicit pre-genesis state). Unlike RevertBlocks, a missing snapshot
// is not fatal here -- this is a read-only query, not a protocol step.
func (n *Node) GetHistorical(k byte, block uint64) uint64 {
	rec, err := n.loadRecord(StreamSequencer, block)
	if err != nil {
		return 0
	}
	return rec.valuesArray()[k]
}

// --- internals ---

func (n *Node) stateFor(stream Stream) *chainstate.State {
	if stream == StreamSequencer {
		return n.sequencerState
	}
	return n.daState
}

func (n *Node) blockNumber(stream Stream) uint64 {
	if stream == StreamSequencer {
		return n.seqBlockNumber
	}
	return n.daBlockNumber
}

func (n *Node) setBlockNumber(stream Stream, v uint64) {
	if stream == StreamSequencer {
		n.seqBlockNumber = v
	} else {
		n.daBlockNumber = v
	}
}

func (n *Node) writeSnapshot(stream Stream, block uint64, state *chainstate.State) error {
	rec := newRecord(state.Leaves(), state.Values())
	data, err := rec.serialize()
	if err != nil {
		return chainerr.Storage(fmt.Errorf("serialize snapshot for %s block %d: %w", stream, block, err))
	}
	if err := n.storage.Put(blockKey(stream, block), data); err != nil {
		return chainerr.Storage(fmt.Errorf("write snapshot for %s block %d: %w", stream, block, err))
	}
	if err := n.storage.Put(currentBlockKey(stream), encodeBlockNumber(block)); err != nil {
		return chainerr.Storage(fmt.Errorf("write current-block counter for %s: %w", stream, err))
	}
	return nil
}

// loadRecord loads the record for stream at block. Block 0 is the implicit
// pre-genesis state and is never actually persisted; it is synthesized.
func (n *Node) loadRecord(stream Stream, block uint64) (record, error) {
	if block == 0 {
		return freshRecord(), nil
	}
	data, err := n.storage.Get(blockKey(stream, block))
	if err != nil {
		return record{}, err
	}
	return deserializeRecord(data)
}

func blockKey(stream Stream, block uint64) []byte {
	return []byte(fmt.Sprintf("%s-block-%d", stream, block))
}

func currentBlockKey(stream Stream) []byte {
	return []byte(fmt.Sprintf("%s-current-block", stream))
}

func encodeBlockNumber(n uint64) []byte {
	return []byte(strconv.FormatUint(n, 10))
}
