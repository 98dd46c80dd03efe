// Package driver implements the single-threaded reconciliation loop: reading
// the sequencer stream line by line, interleaving a DA step every 5
// sequencer blocks, and applying the reorg/re-alignment/finalization
// policies that keep the two states reconciled.
package driver

import (
	"fmt"

	"github.com/eth2030/chainway/chainerr"
	"github.com/eth2030/chainway/ingest"
	"github.com/eth2030/chainway/log"
	"github.com/eth2030/chainway/node"
)

// daCadence is how many sequencer blocks elapse between DA steps.
const daCadence = 5

// finalizeThreshold and finalizeInterval gate the finalization cadence:
// finalize_block runs after a DA step when da_block_number exceeds
// finalizeThreshold and is a multiple of finalizeInterval.
const (
	finalizeThreshold = 5
	finalizeInterval  = 4
)

// Driver owns the Node and the two line readers for the process lifetime and
// runs the reconciliation loop described in the reconciliation protocol.
// There are no other writers of these readers or this Node.
type Driver struct {
	node *node.Node

	seqReader *ingest.LineReader
	daReader  *ingest.LineReader

	log *log.Logger
}

// New creates a Driver over an already-constructed Node and the two line
// readers.
func New(n *node.Node, seqReader, daReader *ingest.LineReader) *Driver {
	return &Driver{
		node:      n,
		seqReader: seqReader,
		daReader:  daReader,
		log:       log.Default().Module("driver"),
	}
}

// Run executes the reconciliation loop until the sequencer stream is
// exhausted. Any error returned is fatal per the propagation policy: the
// caller is expected to log it and exit non-zero, not retry.
func (d *Driver) Run() error {
	for {
		line, ok, err := d.seqReader.Next()
		if err != nil {
			return chainerr.Storage(fmt.Errorf("reading sequencer stream: %w", err))
		}
		if !ok {
			d.log.Info("sequencer stream exhausted, terminating")
			return nil
		}

		changes, err := ingest.ParseChanges(line)
		if err != nil {
			return err
		}
		for _, c := range changes {
			d.node.DispatchStateChange(node.StreamSequencer, c.Key, c.Value)
		}
		if err := d.node.TrustBlock(); err != nil {
			return err
		}

		if d.node.SequencerBlockNumber()%daCadence == 0 {
			if err := d.daStep(); err != nil {
				return err
			}
		}

		if err := d.maybeFinalize(); err != nil {
			return err
		}
	}
}

// daStep reads exactly one line from the DA stream and applies either the
// normal-batch or REORG sub-protocol.
func (d *Driver) daStep() error {
	line, ok, err := d.daReader.Next()
	if err != nil {
		return chainerr.Storage(fmt.Errorf("reading DA stream: %w", err))
	}
	if !ok {
		return chainerr.Protocol(fmt.Errorf("DA stream ended before a matching DA step was available"))
	}

	dl, err := ingest.ParseDALine(line)
	if err != nil {
		return err
	}

	if dl.Reorg {
		return d.handleReorg(dl.ReorgN)
	}
	return d.handleNormalBatch(dl.Batch)
}

// handleNormalBatch applies a DA batch and either publishes on a match or
// re-aligns the sequencer when the sequencer lied.
func (d *Driver) handleNormalBatch(batch []ingest.Change) error {
	for _, c := range batch {
		d.node.DispatchStateChange(node.StreamDA, c.Key, c.Value)
	}

	if d.node.IsStateMatch() {
		return d.node.PublishBlock()
	}

	d.log.Warn("sequencer/DA root mismatch, re-aligning", "da_block", d.node.DABlockNumber()+1)
	return d.realign(batch)
}

// realign implements the "sequencer lied" re-alignment: revert the last 5
// sequencer blocks, re-apply the DA batch to the sequencer stream, and
// re-commit 5 consecutive sequencer blocks with identical Leaves so the
// sequencer's block cadence stays in lockstep with the DA stream.
func (d *Driver) realign(batch []ingest.Change) error {
	if err := d.node.RevertBlocks(node.StreamSequencer, daCadence); err != nil {
		return err
	}
	for _, c := range batch {
		d.node.DispatchStateChange(node.StreamSequencer, c.Key, c.Value)
	}
	for i := 0; i < daCadence; i++ {
		if err := d.node.TrustBlock(); err != nil {
			return err
		}
	}

	if !d.node.IsStateMatch() {
		return chainerr.Protocol(fmt.Errorf("state mismatch persists after sequencer re-alignment"))
	}
	return d.node.PublishBlock()
}

// handleReorg implements "REORG n": revert n DA blocks and (n+1)*5 sequencer
// blocks (the +1 accounts for the about-to-be-overwritten current DA block),
// then replay n subsequent DA batches against both states.
func (d *Driver) handleReorg(n uint64) error {
	if err := d.node.RevertBlocks(node.StreamDA, n); err != nil {
		return err
	}
	if err := d.node.RevertBlocks(node.StreamSequencer, (n+1)*daCadence); err != nil {
		return err
	}

	for i := uint64(0); i < n; i++ {
		line, ok, err := d.daReader.Next()
		if err != nil {
			return chainerr.Storage(fmt.Errorf("reading DA stream during REORG replay: %w", err))
		}
		if !ok {
			return chainerr.Protocol(fmt.Errorf("DA stream ended during REORG replay"))
		}

		dl, err := ingest.ParseDALine(line)
		if err != nil {
			return err
		}
		if dl.Reorg {
			return chainerr.Protocol(fmt.Errorf("nested REORG during REORG replay at replay step %d", i+1))
		}

		for _, c := range dl.Batch {
			d.node.DispatchStateChange(node.StreamDA, c.Key, c.Value)
			d.node.DispatchStateChange(node.StreamSequencer, c.Key, c.Value)
		}
		for j := 0; j < daCadence; j++ {
			if err := d.node.TrustBlock(); err != nil {
				return err
			}
		}
	}

	if err := d.node.PublishBlock(); err != nil {
		return err
	}
	if !d.node.IsStateMatch() {
		return chainerr.Protocol(fmt.Errorf("state mismatch persists after REORG replay"))
	}

	d.log.Info("REORG replay complete", "blocks_reverted", n)
	return nil
}

// maybeFinalize runs the finalization cadence check after a DA step:
// finalize once da_block_number exceeds finalizeThreshold and is a multiple
// of finalizeInterval, and the DA root has actually moved since the last
// finalization. Per the design notes' recommendation, finalize_block is
// additionally gated on IsStateMatch: a mismatch here means a DA step is
// still pending reconciliation, and finalizing a root the sequencer
// disagrees with would finalize over the very condition the reconciliation
// protocol exists to catch.
func (d *Driver) maybeFinalize() error {
	da := d.node.DABlockNumber()
	if da <= finalizeThreshold || da%finalizeInterval != 0 {
		return nil
	}
	if d.node.Roots().OnDAFinalized == d.node.DARoot() {
		return nil
	}
	if !d.node.IsStateMatch() {
		d.log.Warn("skipping finalize_block while sequencer/DA roots disagree", "da_block", da)
		return nil
	}
	return d.node.FinalizeBlock()
}
