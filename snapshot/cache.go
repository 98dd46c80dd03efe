package snapshot

import (
	"github.com/VictoriaMetrics/fastcache"
)

// ReadCache is a fixed-size in-memory read-through cache sitting in front of
// the durable engine, the same role fastcache plays in front of trie/state
// node reads: snapshots for recent blocks are re-read far more often than
// they are written (every revert_blocks and get_historical call reloads
// one), so caching the stored (still serialized) bytes avoids an LSM read
// on the common path.
type ReadCache struct {
	c *fastcache.Cache
}

// NewReadCache creates a ReadCache with the given capacity in bytes.
func NewReadCache(maxBytes int) *ReadCache {
	if maxBytes <= 0 {
		maxBytes = 32 * 1024 * 1024
	}
	return &ReadCache{c: fastcache.New(maxBytes)}
}

// Get returns the cached value for key, if present.
func (r *ReadCache) Get(key []byte) ([]byte, bool) {
	v, ok := r.c.HasGet(nil, key)
	if !ok {
		return nil, false
	}
	return v, true
}

// Set stores value under key, overwriting any prior entry.
func (r *ReadCache) Set(key, value []byte) {
	r.c.Set(key, value)
}

// Del evicts key, used when a key's value becomes stale (not currently
// exercised -- every rewritten SnapshotStore key, whether a
// "{stream}-current-block" counter or a block snapshot written again after
// a revert, goes through Put, which overwrites it in both the cache and the
// engine).
func (r *ReadCache) Del(key []byte) {
	r.c.Del(key)
}
