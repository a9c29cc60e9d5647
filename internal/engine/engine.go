// Package engine provides the core database engine implementation for the
// Ignite storage system.
//
// The engine serves as the central coordinator and entry point for all
// database operations. It orchestrates the interaction between three main
// subsystems:
//   - Index: in-memory key -> position mapping for fast lookups
//   - Storage: persistent append-only segment files and the writer/reader path
//   - Compaction: background rewrite of sealed segments
//
// On Open, the engine scans the segment directory, replays every segment in
// ascending order to rebuild the index (the log is authoritative, the index
// is a derived cache), and only then accepts calls.
package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ignitedb/ignite/internal/compaction"
	"github.com/ignitedb/ignite/internal/index"
	"github.com/ignitedb/ignite/internal/metrics"
	"github.com/ignitedb/ignite/internal/record"
	"github.com/ignitedb/ignite/internal/storage"
	pkgerrors "github.com/ignitedb/ignite/pkg/errors"
	"github.com/ignitedb/ignite/pkg/options"
	"github.com/ignitedb/ignite/pkg/seginfo"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ErrEngineClosed is returned when attempting to perform operations on a
// closed engine.
var ErrEngineClosed = errors.New("operation failed: cannot access closed engine")

// Engine is the main database engine that coordinates all subsystems. It is
// safe for concurrent use: the storage writer lock serializes appends, the
// index is internally sharded, and compaction runs on its own pool.
type Engine struct {
	options *options.Options
	log     *zap.SugaredLogger
	metrics *metrics.Metrics
	closed  atomic.Bool
	index   *index.Index
	storage *storage.Storage

	// compaction is swapped out by Reset, and read by onSealed from inside
	// storage's writer-lock critical section, so it is never guarded by
	// resetMu directly: onSealed blocking on resetMu while Reset blocks on
	// the storage writer lock would deadlock the two against each other.
	compaction atomic.Pointer[compaction.Compactor]

	stopTicker chan struct{}
	tickerDone chan struct{}

	resetMu sync.Mutex
}

// Config holds all the parameters needed to initialize a new Engine instance.
type Config struct {
	Options *options.Options
	Logger  *zap.SugaredLogger
	Metrics *metrics.Metrics
}

// New opens (or creates) the storage directory named in config.Options,
// replays its segments to rebuild the index, and starts the compaction
// worker pool and the periodic recompaction ticker.
func New(ctx context.Context, config *Config) (*Engine, error) {
	if config == nil || config.Options == nil || config.Logger == nil {
		return nil, pkgerrors.NewConfigurationValidationError("config", "engine configuration is required")
	}

	idx, err := index.New(ctx, &index.Config{DataDir: config.Options.DataDir, Logger: config.Logger})
	if err != nil {
		return nil, err
	}

	e := &Engine{
		options:    config.Options,
		log:        config.Logger,
		metrics:    config.Metrics,
		index:      idx,
		stopTicker: make(chan struct{}),
		tickerDone: make(chan struct{}),
	}

	strg, err := storage.New(&storage.Config{
		Options:  config.Options,
		Logger:   config.Logger,
		Index:    idx,
		OnSealed: e.onSealed,
		Metrics:  config.Metrics,
	})
	if err != nil {
		return nil, err
	}
	e.storage = strg

	e.compaction.Store(compaction.New(&compaction.Config{
		Storage: strg,
		Index:   idx,
		Logger:  config.Logger,
		Workers: config.Options.CompactionWorkers,
		Queue:   config.Options.CompactionQueueSize,
		Metrics: config.Metrics,
	}))

	if err := e.replay(); err != nil {
		strg.Close()
		e.compaction.Load().Close()
		return nil, err
	}

	go e.runCompactionTicker()

	return e, nil
}

// onSealed is storage's SealedSegmentFunc: it hands rotated-away segments to
// the compactor pool.
func (e *Engine) onSealed(segmentIdx uint64) {
	e.compaction.Load().Enqueue(segmentIdx)
}

// replay rebuilds the index from the on-disk log, visiting segments in
// ascending index order and records within each in file order. A
// corrupt or truncated record anywhere in the log is fatal to Open: the
// engine never starts on data it cannot fully trust.
func (e *Engine) replay() error {
	dir := e.storage.DataDir()

	indices, err := seginfo.Scan(dir, e.log)
	if err != nil {
		return err
	}

	for _, segIdx := range indices {
		if err := e.replaySegment(dir, segIdx); err != nil {
			return err
		}
	}

	e.log.Infow("replay complete", "segments", len(indices), "keys", e.index.Len())
	return nil
}

func (e *Engine) replaySegment(dir string, segIdx uint64) error {
	path := seginfo.Path(dir, segIdx)

	file, err := os.Open(path)
	if err != nil {
		return pkgerrors.ClassifyFileOpenError(err, path, path)
	}
	defer file.Close()

	var offset int64
	for {
		rec, err := record.Decode(file)
		if err != nil {
			return pkgerrors.NewCorruptSegmentError(int(segIdx), int(offset), err)
		}
		if rec == nil {
			break
		}

		switch rec.Kind {
		case record.KindSet:
			valOff, _ := record.ValueOffset(*rec)
			e.index.Insert(rec.Key, index.Position{
				SegmentIdx:  segIdx,
				ValueOffset: uint64(offset) + uint64(valOff),
			})
		case record.KindRemove:
			e.index.Delete(rec.Key)
		default:
			return pkgerrors.NewCorruptSegmentError(int(segIdx), int(offset), fmt.Errorf("unexpected on-disk tag %q", byte(rec.Kind)))
		}

		offset += int64(record.Size(*rec))
	}

	return nil
}

// runCompactionTicker periodically resubmits every sealed segment to the
// compactor, catching tombstone ratios that rotation alone never triggers
// (a segment that stays sealed for a long time with no further rotation
// would otherwise never get a second look).
func (e *Engine) runCompactionTicker() {
	defer close(e.tickerDone)

	if e.options.CompactInterval <= 0 {
		return
	}

	ticker := time.NewTicker(e.options.CompactInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stopTicker:
			return
		case <-ticker.C:
			e.recompactAll()
		}
	}
}

func (e *Engine) recompactAll() {
	active := e.storage.ActiveIndex()
	indices, err := seginfo.Scan(e.storage.DataDir(), e.log)
	if err != nil {
		e.log.Warnw("periodic recompaction scan failed", "error", err)
		return
	}
	c := e.compaction.Load()
	for _, segIdx := range indices {
		if segIdx == active {
			continue
		}
		c.Enqueue(segIdx)
	}
}

// Set stores key/value durably. It returns once the record has been synced.
func (e *Engine) Set(key, value string) error {
	if e.closed.Load() {
		return ErrEngineClosed
	}
	return e.storage.Set(key, value)
}

// Get returns the value for key, and whether it was present.
func (e *Engine) Get(key string) (string, bool, error) {
	if e.closed.Load() {
		return "", false, ErrEngineClosed
	}
	return e.storage.Get(key)
}

// Remove deletes key, returning whether it existed. Removing an absent key
// is not an error.
func (e *Engine) Remove(key string) (bool, error) {
	if e.closed.Load() {
		return false, ErrEngineClosed
	}
	return e.storage.Remove(key)
}

// Reset discards all data: every segment file, every index entry, and resets
// the active segment back to 1. Per the engine's reset-vs-compaction
// contract, it closes the compactor (draining in-flight jobs) before
// touching storage, since a compaction job blocked on SwapCompacted would
// otherwise deadlock against Storage.Reset's writer lock. The periodic
// ticker keeps running; a sweep that fires while the compactor is closed
// has its jobs rejected and logged.
func (e *Engine) Reset() error {
	if e.closed.Load() {
		return ErrEngineClosed
	}

	e.resetMu.Lock()
	defer e.resetMu.Unlock()

	if err := e.compaction.Load().Close(); err != nil {
		return err
	}

	if err := e.storage.Reset(); err != nil {
		return err
	}
	e.index.Clear()

	e.compaction.Store(compaction.New(&compaction.Config{
		Storage: e.storage,
		Index:   e.index,
		Logger:  e.log,
		Workers: e.options.CompactionWorkers,
		Queue:   e.options.CompactionQueueSize,
		Metrics: e.metrics,
	}))

	return nil
}

// Close gracefully shuts down the engine: stops the recompaction ticker,
// drains the compactor, closes storage, and closes the index.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return ErrEngineClosed
	}

	close(e.stopTicker)
	<-e.tickerDone

	var err error
	err = multierr.Append(err, e.compaction.Load().Close())
	err = multierr.Append(err, e.storage.Close())
	err = multierr.Append(err, e.index.Close())
	return err
}
