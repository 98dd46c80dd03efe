package driver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/eth2030/chainway/ingest"
	"github.com/eth2030/chainway/node"
	"github.com/eth2030/chainway/snapshot"
)

func writeLines(t *testing.T, dir, name string, lines []string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile(%s): %v", name, err)
	}
	return path
}

func runDriver(t *testing.T, seqLines, daLines []string) *node.Node {
	t.Helper()
	dir := t.TempDir()
	seqPath := writeLines(t, dir, "seq.txt", seqLines)
	daPath := writeLines(t, dir, "da.txt", daLines)

	seqReader, err := ingest.Open(seqPath)
	if err != nil {
		t.Fatalf("Open(seq): %v", err)
	}
	defer seqReader.Close()

	daReader, err := ingest.Open(daPath)
	if err != nil {
		t.Fatalf("Open(da): %v", err)
	}
	defer daReader.Close()

	n := node.New(snapshot.NewMemoryStore())
	d := New(n, seqReader, daReader)
	if err := d.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return n
}

// S2 -- 5 sequencer blocks then a matching DA batch.
func TestDriverScenarioS2(t *testing.T) {
	n := runDriver(t,
		[]string{"1 10", "2 20", "3 30", "4 40", "5 50"},
		[]string{"1 10, 2 20, 3 30, 4 40, 5 50"},
	)

	if !n.IsStateMatch() {
		t.Fatal("expected IsStateMatch")
	}
	if n.Roots().OnDA != n.Roots().Trusted {
		t.Fatal("roots.OnDA should equal roots.Trusted")
	}
	if n.DABlockNumber() != 1 {
		t.Fatalf("DABlockNumber = %d, want 1", n.DABlockNumber())
	}
	if n.SequencerBlockNumber() != 5 {
		t.Fatalf("SequencerBlockNumber = %d, want 5", n.SequencerBlockNumber())
	}
}

// S3 -- the sequencer lies; DA forces re-alignment.
func TestDriverScenarioS3(t *testing.T) {
	n := runDriver(t,
		[]string{"1 10", "1 10", "1 10", "1 10", "1 999"},
		[]string{"1 10"},
	)

	if !n.IsStateMatch() {
		t.Fatal("expected IsStateMatch after re-alignment")
	}
	if n.SequencerBlockNumber() != 5 {
		t.Fatalf("SequencerBlockNumber = %d, want 5", n.SequencerBlockNumber())
	}
	if n.DABlockNumber() != 1 {
		t.Fatalf("DABlockNumber = %d, want 1", n.DABlockNumber())
	}
	if v, _ := n.Get(1); v != 10 {
		t.Fatalf("Get(1) value = %d, want 10 (the DA-confirmed value, not the sequencer's lie)", v)
	}
}

// S4 -- REORG of depth 1.
//
// The REORG directive is itself read as the 4th DA line, which is only
// reached once the sequencer hits its 4th multiple-of-5 block (20): the
// first 15 sequencer blocks only account for the 3 DA batches preceding the
// REORG. revert_blocks(Sequencer, (1+1)*5=10) then rewinds from 20 to 10
// (discarding the 3rd batch's blocks entirely, not just the REORG-triggering
// ones), and the single replay iteration's 5 trust_block calls bring it back
// to 15 -- matching the worked example.
func TestDriverScenarioS4Reorg(t *testing.T) {
	seqLines := []string{
		"1 10", "2 20", "3 30", "4 40", "5 50",
		"1 11", "2 21", "3 31", "4 41", "5 51",
		"1 12", "2 22", "3 32", "4 42", "5 52",
		"1 13", "2 23", "3 33", "4 43", "5 53",
	}
	daLines := []string{
		"1 10, 2 20, 3 30, 4 40, 5 50",
		"1 11, 2 21, 3 31, 4 41, 5 51",
		"1 12, 2 22, 3 32, 4 42, 5 52",
		"REORG 1",
		"7 77",
	}
	n := runDriver(t, seqLines, daLines)

	if n.DABlockNumber() != 3 {
		t.Fatalf("DABlockNumber = %d, want 3", n.DABlockNumber())
	}
	if n.SequencerBlockNumber() != 15 {
		t.Fatalf("SequencerBlockNumber = %d, want 15", n.SequencerBlockNumber())
	}
	if !n.IsStateMatch() {
		t.Fatal("expected IsStateMatch after REORG replay")
	}
	if v, _ := n.Get(7); v != 77 {
		t.Fatalf("Get(7) = %d, want 77 (the replayed batch)", v)
	}
	if v, _ := n.Get(1); v != 11 {
		t.Fatalf("Get(1) = %d, want 11 (the pre-reorg batch-2 value, batch 3 having been discarded)", v)
	}
}

// S5 -- finalization trigger at da_block_number == 8, and no retroactive
// change to on_da_finalized afterward.
func TestDriverScenarioS5Finalization(t *testing.T) {
	var seqLines, daLines []string
	for block := 1; block <= 45; block++ {
		key := (block-1)%5 + 1
		seqLines = append(seqLines, quickPair(key, block*10))
		if block%5 == 0 {
			batchIdx := block / 5
			start := (batchIdx-1)*5 + 1
			daLines = append(daLines, batchFor(start, block))
		}
	}

	n := runDriver(t, seqLines, daLines)

	if n.DABlockNumber() != 9 {
		t.Fatalf("DABlockNumber = %d, want 9", n.DABlockNumber())
	}
	if n.Roots().OnDAFinalized.IsZero() {
		t.Fatal("expected on_da_finalized to have been set by block 8")
	}
	if n.Roots().OnDAFinalized == n.DARoot() {
		t.Fatal("on_da_finalized should not have retroactively followed DA block 9's root")
	}
}

func quickPair(key, value int) string {
	return fmt.Sprintf("%d %d", key, value)
}

func batchFor(startBlock, endBlock int) string {
	var pairs []string
	for block := startBlock; block <= endBlock; block++ {
		key := (block-1)%5 + 1
		pairs = append(pairs, quickPair(key, block*10))
	}
	return strings.Join(pairs, ", ")
}
