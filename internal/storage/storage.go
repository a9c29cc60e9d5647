// Package storage owns the active segment file and the single writer mutex
// that serializes every Set and Remove. It also resolves reads by opening
// the segment an index lookup points at and decoding the value in place.
//
// The storage engine maintains exactly one active segment file at any given
// time, the only one new data is appended to. Once a write would push that
// segment past the cap, storage rotates to a new one and hands the sealed
// segment off to whatever SealedSegmentFunc the caller supplied; storage
// itself never compacts.
//
// On open, storage discovers existing segments and picks the one with the
// highest index as active, whatever its size; the first write that would
// not fit in it rotates to a new one. An empty directory bootstraps at
// segment 1.
package storage

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ignitedb/ignite/internal/index"
	"github.com/ignitedb/ignite/internal/metrics"
	"github.com/ignitedb/ignite/internal/record"
	pkgerrors "github.com/ignitedb/ignite/pkg/errors"
	"github.com/ignitedb/ignite/pkg/filesys"
	"github.com/ignitedb/ignite/pkg/options"
	"github.com/ignitedb/ignite/pkg/seginfo"
	"go.uber.org/zap"
)

// SealedSegmentFunc is invoked with the index of a segment that was just
// rotated away from active. Storage never compacts on its own behalf; it
// hands the sealed segment off and moves on, matching the fire-and-forget
// rotation contract: enqueue failures are the caller's problem to log, not
// storage's problem to retry.
type SealedSegmentFunc func(segmentIdx uint64)

// Config encapsulates all the configuration parameters required to
// initialize a Storage instance.
type Config struct {
	Options  *options.Options
	Logger   *zap.SugaredLogger
	Index    *index.Index
	OnSealed SealedSegmentFunc
	Metrics  *metrics.Metrics
}

// Storage manages the active segment and the writer-side half of the
// read/write/remove protocol. The writer mutex it owns is also the critical
// section the compactor borrows for its atomic rename (see SwapCompacted).
type Storage struct {
	dataDir  string
	log      *zap.SugaredLogger
	idx      *index.Index
	onSealed SealedSegmentFunc
	metrics  *metrics.Metrics

	mu         sync.Mutex
	activeIdx  uint64
	activeFile *os.File
	activeSize int64

	closed atomic.Bool
}

// New validates config, ensures the segment directory exists, discards any
// leftover compaction temp files, and opens (creating if necessary) the
// active segment: the one with the highest index, or kv_1.log if the
// directory was empty.
func New(config *Config) (*Storage, error) {
	if config == nil || config.Options == nil || config.Logger == nil || config.Index == nil {
		return nil, pkgerrors.NewConfigurationValidationError("config", "storage configuration is required")
	}

	segmentDirName := options.DefaultSegmentDirectory
	if config.Options.SegmentOptions != nil && config.Options.SegmentOptions.Directory != "" {
		segmentDirName = config.Options.SegmentOptions.Directory
	}
	dataDir := filepath.Join(config.Options.DataDir, segmentDirName)

	config.Logger.Infow("initializing storage", "dataDir", dataDir)

	if err := filesys.CreateDir(dataDir, 0755, true); err != nil {
		if err == filesys.ErrIsNotDir {
			return nil, pkgerrors.NewBadPathError(dataDir, err)
		}
		return nil, pkgerrors.ClassifyDirectoryCreationError(err, dataDir)
	}

	if err := seginfo.RemoveTempDebris(dataDir, config.Logger); err != nil {
		return nil, err
	}

	indices, err := seginfo.Scan(dataDir, config.Logger)
	if err != nil {
		return nil, err
	}

	activeIdx := uint64(1)
	if len(indices) > 0 {
		activeIdx = indices[len(indices)-1]
	}

	s := &Storage{
		dataDir:   dataDir,
		log:       config.Logger,
		idx:       config.Index,
		onSealed:  config.OnSealed,
		metrics:   config.Metrics,
		activeIdx: activeIdx,
	}

	if err := s.openActive(); err != nil {
		return nil, err
	}

	s.log.Infow("storage initialized", "activeSegment", activeIdx, "activeSize", s.activeSize)
	return s, nil
}

// DataDir returns the segment directory storage operates on.
func (s *Storage) DataDir() string { return s.dataDir }

// ActiveIndex returns the current active segment index, for diagnostics.
func (s *Storage) ActiveIndex() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeIdx
}

func (s *Storage) openActive() error {
	path := seginfo.Path(s.dataDir, s.activeIdx)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return pkgerrors.ClassifyFileOpenError(err, path, filepath.Base(path))
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return pkgerrors.NewIoError("stat", path, err)
	}

	s.activeFile = file
	s.activeSize = stat.Size()
	return nil
}

// Set encodes and appends a Set record for key/value, rotating the active
// segment first if necessary.
func (s *Storage) Set(key, value string) error {
	return s.append(record.NewSet(key, value))
}

// Remove appends a tombstone for key unless the index already has no entry
// for it, in which case no record is written and existed is false. Removing
// a missing key is not an error.
func (s *Storage) Remove(key string) (existed bool, err error) {
	if _, ok := s.idx.Get(key); !ok {
		return false, nil
	}
	if err := s.append(record.NewRemove(key)); err != nil {
		return false, err
	}
	return true, nil
}

// append is the serialized write path shared by Set and Remove: encode and
// cap-check, then rotate-if-needed, write, sync and index update under the
// single writer mutex.
func (s *Storage) append(rec record.Record) error {
	if s.metrics != nil {
		start := time.Now()
		defer func() { s.metrics.WriteLatency.Observe(time.Since(start).Seconds()) }()
	}

	encoded, err := record.EncodeSegment(rec)
	if err != nil {
		return err
	}

	size := len(encoded)
	if size > options.SegmentCap {
		return pkgerrors.NewRecordTooLargeError(size, options.SegmentCap)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.activeSize+int64(size) > options.SegmentCap {
		if err := s.rotateLocked(); err != nil {
			return err
		}
	}

	path := s.activeFile.Name()
	offset := s.activeSize

	n, err := s.activeFile.Write(encoded)
	if err != nil {
		return pkgerrors.NewIoError("write", path, err)
	}
	if n != size {
		return pkgerrors.NewIoError("short_write", path, nil)
	}

	// Sync data durability before the write is considered complete. The
	// stdlib does not expose fdatasync directly; File.Sync is the closest
	// portable equivalent and is treated as meeting the "sync data" bar.
	if err := s.activeFile.Sync(); err != nil {
		return pkgerrors.ClassifySyncError(err, filepath.Base(path), path, int(offset))
	}

	s.activeSize += int64(size)

	switch rec.Kind {
	case record.KindSet:
		valOff, _ := record.ValueOffset(rec)
		s.idx.Insert(rec.Key, index.Position{
			SegmentIdx:  s.activeIdx,
			ValueOffset: uint64(offset) + uint64(valOff),
		})
	case record.KindRemove:
		s.idx.Delete(rec.Key)
	}

	return nil
}

// rotateLocked implements segment rotation. Caller must hold s.mu.
func (s *Storage) rotateLocked() error {
	sealed := s.activeIdx

	if err := s.activeFile.Close(); err != nil {
		s.log.Warnw("error closing sealed segment file", "segment", sealed, "error", err)
	}

	s.activeIdx = sealed + 1
	s.activeSize = 0

	if err := s.openActive(); err != nil {
		return err
	}

	s.log.Infow("segment rotated", "sealed", sealed, "active", s.activeIdx)

	if s.onSealed != nil {
		s.onSealed(sealed)
	}
	return nil
}

// SwapCompacted atomically renames tmpPath over segment segmentIdx. It is
// the only point where the compactor touches storage's writer-lock critical
// section: the rename happens while holding the same mutex that serializes
// writer appends, so a concurrent Set can never observe a half-renamed
// segment.
func (s *Storage) SwapCompacted(segmentIdx uint64, tmpPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	finalPath := seginfo.Path(s.dataDir, segmentIdx)
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return pkgerrors.NewIoError("rename", finalPath, err)
	}
	return nil
}

// DeleteSegment removes segment segmentIdx's file entirely; the compactor
// calls this when a scanned segment yields neither a live Set nor a
// tombstone.
func (s *Storage) DeleteSegment(segmentIdx uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filesys.DeleteFile(seginfo.Path(s.dataDir, segmentIdx))
}

// Reset removes every segment file and reopens a fresh kv_1.log. It does
// not touch the index; the engine clears it once Reset returns. Callers
// must drain any in-flight compaction before calling Reset: Reset only
// holds the writer lock, and a compaction job waiting on that same lock for
// SwapCompacted would deadlock against it otherwise.
func (s *Storage) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.activeFile.Close(); err != nil {
		s.log.Warnw("error closing active segment during reset", "error", err)
	}

	indices, err := seginfo.Scan(s.dataDir, s.log)
	if err != nil {
		return err
	}
	for _, idx := range indices {
		path := seginfo.Path(s.dataDir, idx)
		if err := filesys.DeleteFile(path); err != nil {
			return pkgerrors.NewIoError("delete", path, err)
		}
	}

	s.activeIdx = 1
	s.activeSize = 0
	return s.openActive()
}

// Close flushes and closes the active segment file. It does not touch the
// index or stop any compactor; the engine orchestrates full shutdown.
func (s *Storage) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.activeFile == nil {
		return nil
	}
	if err := s.activeFile.Sync(); err != nil {
		s.log.Warnw("error syncing active segment on close", "error", err)
	}
	return s.activeFile.Close()
}
