// Command chainway runs the reconciliation node: it reads a sequencer
// stream and a DA stream from the paths named by its configuration,
// maintains the dual authenticated states described in the node package,
// and reports the final roots and block numbers once the sequencer stream
// is exhausted.
//
// chainway takes no CLI arguments. Its configuration comes from
// CHAINWAY_SEQUENCER_FILE, CHAINWAY_DA_FILE, CHAINWAY_DB_PATH, and
// CHAINWAY_VERBOSITY, defaulting to from_sequencer.txt, from_da.txt,
// chainway.db, and verbosity 3 respectively. See the config package.
package main

import (
	"fmt"
	"os"

	"github.com/eth2030/chainway/config"
	"github.com/eth2030/chainway/driver"
	"github.com/eth2030/chainway/ingest"
	"github.com/eth2030/chainway/log"
	"github.com/eth2030/chainway/node"
	"github.com/eth2030/chainway/snapshot"
)

// cacheBytes is the fastcache read-through cache size for the SnapshotStore.
const cacheBytes = 32 * 1024 * 1024

func main() {
	os.Exit(run())
}

// run is the actual entry point, returning a process exit code. Factored
// out of main so it can be exercised directly by tests.
func run() int {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "chainway: %v\n", err)
		return 1
	}

	log.SetDefault(log.New(log.SlogLevel(log.LevelFromString(config.VerbosityToLogLevel(cfg.Verbosity)))))
	l := log.Default().Module("main")

	store, err := snapshot.Open(cfg.DBPath, cacheBytes)
	if err != nil {
		l.Error("failed to open snapshot store", "path", cfg.DBPath, "err", err)
		return 1
	}
	defer store.Close()

	seqReader, err := ingest.Open(cfg.SequencerFile)
	if err != nil {
		l.Error("failed to open sequencer stream", "path", cfg.SequencerFile, "err", err)
		return 1
	}
	defer seqReader.Close()

	daReader, err := ingest.Open(cfg.DAFile)
	if err != nil {
		l.Error("failed to open DA stream", "path", cfg.DAFile, "err", err)
		return 1
	}
	defer daReader.Close()

	n := node.New(store)
	d := driver.New(n, seqReader, daReader)

	if err := d.Run(); err != nil {
		l.Error("reconciliation aborted", "err", err)
		return 1
	}

	roots := n.Roots()
	fmt.Printf("trusted:         %s\n", roots.Trusted.Hex())
	fmt.Printf("on_da:           %s\n", roots.OnDA.Hex())
	fmt.Printf("on_da_finalized: %s\n", roots.OnDAFinalized.Hex())
	fmt.Printf("seq_block_number: %d\n", n.SequencerBlockNumber())
	fmt.Printf("da_block_number:  %d\n", n.DABlockNumber())

	return 0
}
