// Package compaction implements the background rewrite of sealed segments:
// it drops every Set that a later record in the same segment supersedes,
// keeps one Remove for each key whose last record in the segment is a
// Remove, then atomically swaps the rewritten file into place and patches
// the index positions it moved.
//
// Compaction never touches the active segment and never blocks a reader; it
// only borrows the writer lock (via storage.Storage.SwapCompacted) for the
// rename. The index patch runs after that lock is released, each key
// guarded by index.ReplaceIfMatches.
package compaction

import (
	"os"
	"sync"
	"time"

	"github.com/ignitedb/ignite/internal/index"
	"github.com/ignitedb/ignite/internal/metrics"
	"github.com/ignitedb/ignite/internal/record"
	pkgerrors "github.com/ignitedb/ignite/pkg/errors"
	"github.com/ignitedb/ignite/pkg/pool"
	"github.com/ignitedb/ignite/pkg/seginfo"
	"go.uber.org/zap"
)

// Storage is the narrow slice of *storage.Storage compaction depends on. It
// is declared here, rather than importing the storage package directly, so
// compaction and storage can be wired together by the engine without a
// circular import.
type Storage interface {
	DataDir() string
	SwapCompacted(segmentIdx uint64, tmpPath string) error
	DeleteSegment(segmentIdx uint64) error
}

// Config holds the dependencies a Compactor needs.
type Config struct {
	Storage Storage
	Index   *index.Index
	Logger  *zap.SugaredLogger
	Workers int
	Queue   int
	Metrics *metrics.Metrics
}

// Compactor owns the dedicated worker pool sealed segments are submitted to.
type Compactor struct {
	storage Storage
	idx     *index.Index
	log     *zap.SugaredLogger
	pool    pool.ThreadPool
	metrics *metrics.Metrics

	mu      sync.Mutex
	running map[uint64]struct{}
}

// New builds a Compactor backed by a pool.Shared sized per config. Compaction
// runs on its own pool so request load never slows down recompaction.
func New(config *Config) *Compactor {
	return &Compactor{
		storage: config.Storage,
		idx:     config.Index,
		log:     config.Logger,
		pool:    pool.NewShared(config.Workers, config.Queue, config.Logger),
		metrics: config.Metrics,
		running: make(map[uint64]struct{}),
	}
}

// Enqueue submits segmentIdx for compaction. It is fire-and-forget: a full
// queue is logged, not returned to the caller, because the write that
// triggered rotation already succeeded independently of compaction running.
func (c *Compactor) Enqueue(segmentIdx uint64) {
	if !c.claim(segmentIdx) {
		return
	}

	err := c.pool.Spawn(func() {
		defer c.release(segmentIdx)
		if err := c.compact(segmentIdx); err != nil {
			c.log.Warnw("compaction job failed", "segment", segmentIdx, "error", err)
		}
	})
	if err != nil {
		c.release(segmentIdx)
		c.log.Warnw("failed to enqueue compaction job", "segment", segmentIdx, "error", err)
	}
}

func (c *Compactor) claim(segmentIdx uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.running[segmentIdx]; ok {
		return false
	}
	c.running[segmentIdx] = struct{}{}
	return true
}

func (c *Compactor) release(segmentIdx uint64) {
	c.mu.Lock()
	delete(c.running, segmentIdx)
	c.mu.Unlock()
}

// patch is a single key's position, before and after rewriting segmentIdx.
type patch struct {
	key    string
	oldPos index.Position
	newPos index.Position
}

// compact rewrites one sealed segment, dropping Sets superseded by a later
// record in that same segment and patching the index for the keys that
// survive at a new offset.
func (c *Compactor) compact(segmentIdx uint64) error {
	if c.metrics != nil {
		start := time.Now()
		c.metrics.CompactionRun.Inc()
		defer func() { c.metrics.CompactionDur.Observe(time.Since(start).Seconds()) }()
	}

	path := seginfo.Path(c.storage.DataDir(), segmentIdx)

	alive, aliveOffsets, tombstones, count, err := scan(path, segmentIdx)
	if err != nil {
		return err
	}

	if count == len(alive)+len(tombstones) {
		return nil // nothing superseded; leave the segment untouched
	}

	if len(alive) == 0 && len(tombstones) == 0 {
		c.log.Infow("deleting fully-superseded segment", "segment", segmentIdx)
		return c.storage.DeleteSegment(segmentIdx)
	}

	tmpPath := seginfo.TmpPath(c.storage.DataDir(), segmentIdx)
	patches, err := writeCompacted(tmpPath, segmentIdx, alive, aliveOffsets, tombstones)
	if err != nil {
		os.Remove(tmpPath)
		return err
	}

	if err := c.storage.SwapCompacted(segmentIdx, tmpPath); err != nil {
		return err
	}

	for _, p := range patches {
		c.idx.ReplaceIfMatches(p.key, p.oldPos, p.newPos)
	}

	c.log.Infow("segment compacted", "segment", segmentIdx, "alive", len(alive), "tombstones", len(tombstones), "scanned", count)
	return nil
}

// scan reads every record in path and reduces it to the last-Set-per-key and
// last-Remove-per-key maps the compaction algorithm needs, the pre-compaction
// value offset of each alive key (so the patch step can compare-and-swap
// against the position the index currently holds), and the total record
// count scanned (step 1).
func scan(path string, segmentIdx uint64) (alive map[string]string, aliveOffsets map[string]uint64, tombstones map[string]struct{}, count int, err error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, 0, pkgerrors.ClassifyFileOpenError(err, path, path)
	}
	defer file.Close()

	alive = make(map[string]string)
	aliveOffsets = make(map[string]uint64)
	tombstones = make(map[string]struct{})

	var offset int64
	for {
		rec, err := record.Decode(file)
		if err != nil {
			return nil, nil, nil, 0, pkgerrors.NewCorruptSegmentError(int(segmentIdx), int(offset), err)
		}
		if rec == nil {
			break
		}

		switch rec.Kind {
		case record.KindSet:
			alive[rec.Key] = rec.Value
			if valOff, ok := record.ValueOffset(*rec); ok {
				aliveOffsets[rec.Key] = uint64(offset) + uint64(valOff)
			}
			delete(tombstones, rec.Key)
		case record.KindRemove:
			delete(alive, rec.Key)
			delete(aliveOffsets, rec.Key)
			tombstones[rec.Key] = struct{}{}
		}
		offset += int64(record.Size(*rec))
		count++
	}

	return alive, aliveOffsets, tombstones, count, nil
}

// writeCompacted writes every alive Set followed by every tombstone Remove
// to tmpPath, fsyncs it, and returns the patch list the caller applies to
// the index after the atomic rename.
func writeCompacted(tmpPath string, segmentIdx uint64, alive map[string]string, aliveOffsets map[string]uint64, tombstones map[string]struct{}) ([]patch, error) {
	file, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, pkgerrors.ClassifyFileOpenError(err, tmpPath, tmpPath)
	}
	defer file.Close()

	var patches []patch
	var offset int64

	for key, value := range alive {
		rec := record.NewSet(key, value)
		encoded, err := record.EncodeSegment(rec)
		if err != nil {
			return nil, err
		}
		if _, err := file.Write(encoded); err != nil {
			return nil, pkgerrors.NewIoError("write", tmpPath, err)
		}

		valOff, _ := record.ValueOffset(rec)
		patches = append(patches, patch{
			key:    key,
			oldPos: index.Position{SegmentIdx: segmentIdx, ValueOffset: aliveOffsets[key]},
			newPos: index.Position{SegmentIdx: segmentIdx, ValueOffset: uint64(offset) + uint64(valOff)},
		})
		offset += int64(len(encoded))
	}

	for key := range tombstones {
		encoded, err := record.EncodeSegment(record.NewRemove(key))
		if err != nil {
			return nil, err
		}
		if _, err := file.Write(encoded); err != nil {
			return nil, pkgerrors.NewIoError("write", tmpPath, err)
		}
		offset += int64(len(encoded))
	}

	if err := file.Sync(); err != nil {
		return nil, pkgerrors.NewIoError("sync", tmpPath, err)
	}

	return patches, nil
}

// Close stops accepting new compaction jobs and waits for in-flight ones to
// finish.
func (c *Compactor) Close() error {
	return c.pool.Close()
}
