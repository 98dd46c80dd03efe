// Package snapshot implements the block-indexed SnapshotStore: a persistent
// ordered byte-map with get/put, used to persist per-stream Leaves at every
// committed block number and to restore them on revert.
//
// The store itself treats keys and values as opaque bytes (decimal-ASCII
// counters, JSON-encoded Leaves); it has no notion of streams or blocks --
// that addressing scheme belongs to the node package, which is the only
// caller that knows what "{stream}-block-{n}" means.
package snapshot

import (
	"errors"

	"github.com/cockroachdb/pebble"

	"github.com/eth2030/chainway/log"
)

// ErrNotFound is returned by Get when the key has never been written.
var ErrNotFound = errors.New("snapshot: key not found")

// Store is a persistent ordered byte-map: put is an idempotent overwrite,
// get returns ErrNotFound for an absent key. Implementations are owned
// exclusively by one Node for the process lifetime; there are no external
// concurrent writers.
type Store interface {
	Put(key []byte, value []byte) error
	Get(key []byte) ([]byte, error)
	Close() error
}

// PebbleStore is the production Store backed by Pebble, an embedded ordered
// LSM key-value engine. A ReadCache sits in front of it so that the hot path
// for revert_blocks and get_historical -- repeatedly reloading recent
// snapshots -- doesn't pay an LSM read on every call.
type PebbleStore struct {
	db    *pebble.DB
	cache *ReadCache
	log   *log.Logger
}

// Open opens (creating if absent) a PebbleStore at dir, with a read cache of
// cacheBytes bytes in front of it.
func Open(dir string, cacheBytes int) (*PebbleStore, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &PebbleStore{
		db:    db,
		cache: NewReadCache(cacheBytes),
		log:   log.Default().Module("snapshot"),
	}, nil
}

// Put stores a key-value pair, overwriting any prior value for key. It is
// idempotent: writing the same value twice is a no-op from the caller's
// perspective.
func (s *PebbleStore) Put(key, value []byte) error {
	if err := s.db.Set(key, value, pebble.Sync); err != nil {
		return err
	}
	s.cache.Set(key, value)
	return nil
}

// Get retrieves the value for key, returning ErrNotFound if it was never
// written (or was written and the process never recovers it -- per §4.4,
// the Node does not attempt crash recovery of the last uncommitted write).
func (s *PebbleStore) Get(key []byte) ([]byte, error) {
	if v, ok := s.cache.Get(key); ok {
		return v, nil
	}

	v, closer, err := s.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	if cerr := closer.Close(); cerr != nil {
		return nil, cerr
	}

	s.cache.Set(key, cp)
	return cp, nil
}

// Close releases the underlying Pebble handle.
func (s *PebbleStore) Close() error {
	return s.db.Close()
}
