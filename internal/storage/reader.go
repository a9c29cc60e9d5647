package storage

import (
	"encoding/binary"
	"os"
	"time"

	"github.com/ignitedb/ignite/internal/index"
	pkgerrors "github.com/ignitedb/ignite/pkg/errors"
	"github.com/ignitedb/ignite/pkg/seginfo"
	"github.com/tysonmote/gommap"
)

// Get resolves key through the index and, if present, reads its value
// straight out of the segment file the index points at. The segment is
// memory-mapped read-only for the duration of the call; nothing is cached
// across calls, since a Get that loses a race against compaction's rename
// simply reopens and tries the position the index hands it next time the
// caller asks.
func (s *Storage) Get(key string) (string, bool, error) {
	pos, ok := s.idx.Get(key)
	if !ok {
		return "", false, nil
	}

	if s.metrics != nil {
		start := time.Now()
		defer func() { s.metrics.ReadLatency.Observe(time.Since(start).Seconds()) }()
	}

	value, err := s.readAt(key, pos)
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// readAt opens the segment pos.SegmentIdx names and decodes the
// length-prefixed value starting at pos.ValueOffset. If the segment the
// index points at is gone, the index itself is inconsistent with what is
// on disk (it should have been patched or cleared by whatever deleted the
// segment), so that case is reported as an index error rather than a plain
// storage one.
func (s *Storage) readAt(key string, pos index.Position) (string, error) {
	path := seginfo.Path(s.dataDir, pos.SegmentIdx)

	file, err := os.OpenFile(path, os.O_RDONLY, 0644)
	if err != nil {
		if os.IsNotExist(err) {
			return "", pkgerrors.NewSegmentIDError(pos.SegmentIdx, key).WithOperation("Get")
		}
		return "", pkgerrors.ClassifyFileOpenError(err, path, path)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return "", pkgerrors.NewIoError("stat", path, err)
	}
	if stat.Size() == 0 {
		return "", pkgerrors.NewCorruptSegmentError(int(pos.SegmentIdx), int(pos.ValueOffset), nil)
	}

	mapping, err := gommap.MapRegion(file.Fd(), stat.Size(), gommap.PROT_READ, gommap.MAP_SHARED, 0)
	if err != nil {
		return "", pkgerrors.NewIoError("mmap", path, err)
	}
	defer mapping.UnsafeUnmap()

	const lenSize = 4
	start := pos.ValueOffset

	if start+lenSize > uint64(len(mapping)) {
		return "", pkgerrors.NewCorruptSegmentError(int(pos.SegmentIdx), int(pos.ValueOffset), nil)
	}

	valLen := uint64(binary.BigEndian.Uint32(mapping[start : start+lenSize]))
	valStart := start + lenSize
	valEnd := valStart + valLen

	if valEnd > uint64(len(mapping)) {
		return "", pkgerrors.NewCorruptSegmentError(int(pos.SegmentIdx), int(pos.ValueOffset), nil)
	}

	value := make([]byte, valLen)
	copy(value, mapping[valStart:valEnd])
	return string(value), nil
}
