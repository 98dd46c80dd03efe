// Package ingest implements the external-input grammar and line readers:
// pure collaborators the driver composes, not reconciliation logic itself.
package ingest

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/eth2030/chainway/chainerr"
)

// Change is one parsed (key, value) state change.
type Change struct {
	Key   byte
	Value uint64
}

// DALine is a parsed line from the DA stream: either a batch of Changes, or
// a REORG directive (Reorg true, ReorgN the revert depth).
type DALine struct {
	Reorg  bool
	ReorgN uint64
	Batch  []Change
}

// ParseChanges parses a sequencer (or DA batch) line: a non-empty,
// ", "-separated list of "<k> <v>" pairs. <k> is decimal in [0,255]; <v> is
// decimal uint64.
func ParseChanges(line string) ([]Change, error) {
	if line == "" {
		return nil, chainerr.Parse(fmt.Errorf("empty line"))
	}

	parts := strings.Split(line, ", ")
	changes := make([]Change, 0, len(parts))
	for _, p := range parts {
		fields := strings.Fields(p)
		if len(fields) != 2 {
			return nil, chainerr.Parse(fmt.Errorf("malformed state change %q in line %q", p, line))
		}

		k, err := strconv.ParseUint(fields[0], 10, 8)
		if err != nil {
			return nil, chainerr.Parse(fmt.Errorf("invalid key %q in line %q: %w", fields[0], line, err))
		}
		v, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return nil, chainerr.Parse(fmt.Errorf("invalid value %q in line %q: %w", fields[1], line, err))
		}

		changes = append(changes, Change{Key: byte(k), Value: v})
	}
	return changes, nil
}

// ParseDALine parses one DA-stream line: either the state-change grammar
// ParseChanges accepts, or "REORG <n>" with n >= 1.
func ParseDALine(line string) (DALine, error) {
	if strings.HasPrefix(line, "REORG") {
		fields := strings.Fields(line)
		if len(fields) != 2 || fields[0] != "REORG" {
			return DALine{}, chainerr.Parse(fmt.Errorf("malformed REORG line %q", line))
		}
		n, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil || n < 1 {
			return DALine{}, chainerr.Parse(fmt.Errorf("invalid REORG depth in line %q", line))
		}
		return DALine{Reorg: true, ReorgN: n}, nil
	}

	batch, err := ParseChanges(line)
	if err != nil {
		return DALine{}, err
	}
	return DALine{Batch: batch}, nil
}
