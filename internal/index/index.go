// Package index provides the in-memory, concurrent key -> position mapping
// for the storage engine. It embodies the Bitcask architectural principle:
// keep all keys in memory with minimal per-key metadata, while the actual
// values stay on disk.
//
// The index is a derived cache: it is entirely rebuildable by replaying
// the on-disk log in segment order, and it is never the system of record.
package index

import (
	"context"
	stdErrors "errors"

	"github.com/ignitedb/ignite/pkg/errors"
)

var ErrIndexClosed = stdErrors.New("operation failed: cannot access closed index")

// New creates and initializes a new Index instance. The returned Index is
// immediately ready for concurrent use; its shards start out empty and are
// populated by the caller via Insert during startup replay.
func New(ctx context.Context, config *Config) (*Index, error) {
	if config == nil || config.DataDir == "" || config.Logger == nil {
		return nil, errors.NewValidationError(
			nil, errors.ErrorCodeInvalidInput, "Index configuration is required",
		).WithField("config").WithRule("required").WithProvided(config)
	}

	idx := &Index{log: config.Logger, dataDir: config.DataDir}
	for i := range idx.shards {
		idx.shards[i] = &shard{m: make(map[string]Position, 256)}
	}
	return idx, nil
}

// Get returns the position for key, if one is live.
func (idx *Index) Get(key string) (Position, bool) {
	s := idx.shards[shardFor(key)]
	s.mu.RLock()
	defer s.mu.RUnlock()
	pos, ok := s.m[key]
	return pos, ok
}

// Insert records key's position, overwriting whatever was there before. Used
// by the writer on a successful Set and by replay.
func (idx *Index) Insert(key string, pos Position) {
	s := idx.shards[shardFor(key)]
	s.mu.Lock()
	s.m[key] = pos
	s.mu.Unlock()
}

// Delete removes key's entry, if any, and reports whether one existed. Used
// by the writer on a successful Remove and by replay.
func (idx *Index) Delete(key string) (existed bool) {
	s := idx.shards[shardFor(key)]
	s.mu.Lock()
	defer s.mu.Unlock()
	_, existed = s.m[key]
	delete(s.m, key)
	return existed
}

// ReplaceIfMatches implements the compactor's conditional patch step: it
// replaces key's position with newPos only if the index currently maps key
// to exactly oldPos. If a concurrent writer has since pointed key at a newer
// segment, this is a no-op and returns false, which is the correct outcome
// since that newer Set already owns the key.
func (idx *Index) ReplaceIfMatches(key string, oldPos, newPos Position) bool {
	s := idx.shards[shardFor(key)]
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.m[key]
	if !ok || current != oldPos {
		return false
	}
	s.m[key] = newPos
	return true
}

// Clear empties every shard. Used by Reset.
func (idx *Index) Clear() {
	for _, s := range idx.shards {
		s.mu.Lock()
		clear(s.m)
		s.mu.Unlock()
	}
}

// Len returns the total number of live keys across all shards. It takes a
// read lock on each shard in turn rather than a single global lock, so the
// result can be stale by the time the caller observes it; callers needing
// an exact count under concurrent writers must provide their own external
// synchronization.
func (idx *Index) Len() int {
	total := 0
	for _, s := range idx.shards {
		s.mu.RLock()
		total += len(s.m)
		s.mu.RUnlock()
	}
	return total
}

// Close gracefully shuts down the Index, releasing the memory held by every
// shard. Only a second Close is rejected (with ErrIndexClosed); Get, Insert
// and the other methods do not check whether the index has been closed.
func (idx *Index) Close() error {
	if !idx.closed.CompareAndSwap(false, true) {
		return ErrIndexClosed
	}

	idx.log.Infow("closing index")
	for _, s := range idx.shards {
		s.mu.Lock()
		clear(s.m)
		s.mu.Unlock()
	}
	idx.log.Infow("index closed")
	return nil
}
