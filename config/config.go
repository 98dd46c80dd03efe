// Package config holds chainway's process configuration. The process takes
// no CLI arguments -- its three on-disk paths are fixed -- so this package
// exists only to give that fixed configuration a typed home, overridable by
// environment variable for testing and deployment, in a
// Config/DefaultConfig/Validate shape.
package config

import (
	"errors"
	"os"
	"strconv"
)

// Config holds chainway's full process configuration.
type Config struct {
	// SequencerFile is the sequencer input stream path.
	SequencerFile string
	// DAFile is the DA input stream path.
	DAFile string
	// DBPath is the SnapshotStore directory.
	DBPath string
	// Verbosity controls numeric log level (0 and 1=error, 2=warn, 3=info,
	// 4 and 5=debug; see VerbosityToLogLevel).
	Verbosity int
}

// DefaultConfig returns the fixed configuration the process uses when no
// environment override is present: from_sequencer.txt, from_da.txt, and
// chainway.db in the current working directory.
func DefaultConfig() Config {
	return Config{
		SequencerFile: "from_sequencer.txt",
		DAFile:        "from_da.txt",
		DBPath:        "chainway.db",
		Verbosity:     3,
	}
}

// FromEnv starts from DefaultConfig and applies any of
// CHAINWAY_SEQUENCER_FILE, CHAINWAY_DA_FILE, CHAINWAY_DB_PATH, and
// CHAINWAY_VERBOSITY found in the environment. No flags are parsed: the
// process accepts no CLI arguments.
func FromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv("CHAINWAY_SEQUENCER_FILE"); v != "" {
		cfg.SequencerFile = v
	}
	if v := os.Getenv("CHAINWAY_DA_FILE"); v != "" {
		cfg.DAFile = v
	}
	if v := os.Getenv("CHAINWAY_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("CHAINWAY_VERBOSITY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, errors.New("config: CHAINWAY_VERBOSITY must be an integer")
		}
		cfg.Verbosity = n
	}

	return cfg, cfg.Validate()
}

// Validate checks configuration values for correctness.
func (c *Config) Validate() error {
	if c.SequencerFile == "" {
		return errors.New("config: sequencer file path must not be empty")
	}
	if c.DAFile == "" {
		return errors.New("config: DA file path must not be empty")
	}
	if c.DBPath == "" {
		return errors.New("config: db path must not be empty")
	}
	if c.Verbosity < 0 || c.Verbosity > 5 {
		return errors.New("config: verbosity must be 0-5")
	}
	return nil
}

// VerbosityToLogLevel converts a numeric verbosity level to a log level
// string: 0 and 1 both map to error-only, 4 and 5 both map to debug.
func VerbosityToLogLevel(v int) string {
	switch {
	case v <= 1:
		return "error"
	case v == 2:
		return "warn"
	case v == 3:
		return "info"
	default:
		return "debug"
	}
}
