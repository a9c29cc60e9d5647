package index

import (
	"hash/fnv"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Position is the absolute minimum metadata required to locate a value on
// disk without scanning: which segment holds it, and the byte offset inside
// that segment at which the value's length prefix begins.
//
// Each Position serves as a precise "address" that tells the system exactly
// where to find a piece of data without requiring any scanning or additional
// lookups. Think of it as a bookmark that contains just enough information
// to jump directly to the right location in the right file.
type Position struct {
	// SegmentIdx identifies which segment file contains the value.
	SegmentIdx uint64

	// ValueOffset is the absolute byte offset inside that segment at which
	// the value's length prefix begins, not the start of the whole record.
	// This is what lets a read skip straight past the tag and key and decode
	// only the value.
	ValueOffset uint64
}

// shardCount is the number of independent map+mutex pairs the index splits
// its keyspace across. Contention is per-shard, not whole-map: two
// goroutines touching different keys only block each other if their keys
// hash into the same shard.
const shardCount = 16

type shard struct {
	mu sync.RWMutex
	m  map[string]Position
}

// Index is the concurrent key -> Position mapping. It is populated at
// startup by replaying segments in ascending order and mutated
// afterward only by the writer (Set/Remove) and the compactor's patch step
// (ReplaceIfMatches).
type Index struct {
	dataDir string
	log     *zap.SugaredLogger
	shards  [shardCount]*shard
	closed  atomic.Bool
}

// Config encapsulates the configuration parameters required to initialize an Index.
type Config struct {
	DataDir string
	Logger  *zap.SugaredLogger
}

// shardFor picks a deterministic shard for key via an FNV-1a hash, so the
// same key always lands in the same shard regardless of Index instance.
func shardFor(key string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return h.Sum32() % shardCount
}
