package errors

import "fmt"

// NewBadPathError reports that the configured storage directory exists and
// is not a directory, or could not be created.
func NewBadPathError(path string, cause error) *StorageError {
	return NewStorageError(cause, ErrorCodeBadPath, "storage path is not usable as a directory").
		WithPath(path).
		WithDetail("operation", "open")
}

// NewCorruptSegmentError reports an unknown tag byte or a truncated record
// discovered while replaying segment segmentIdx at the given byte offset.
// Replay treats this as fatal: the repository refuses to start rather than
// silently dropping data.
func NewCorruptSegmentError(segmentIdx int, offset int, cause error) *StorageError {
	return NewStorageError(
		cause, ErrorCodeCorruptSegment,
		fmt.Sprintf("segment %d is corrupt at offset %d", segmentIdx, offset),
	).WithSegmentID(segmentIdx).WithOffset(offset).WithDetail("operation", "replay")
}

// NewRecordTooLargeError reports that a single encoded record exceeds the
// segment cap and can never be written, even to a fresh segment.
func NewRecordTooLargeError(size, cap int) *StorageError {
	return NewStorageError(nil, ErrorCodeRecordTooLarge, "record exceeds segment cap").
		WithDetail("record_size", size).
		WithDetail("segment_cap", cap)
}

// NewIoError wraps an arbitrary I/O failure with the kind of operation being
// performed and the path involved, when known.
func NewIoError(kind string, path string, cause error) *StorageError {
	return NewStorageError(cause, ErrorCodeIO, fmt.Sprintf("i/o error during %s", kind)).
		WithPath(path).
		WithDetail("kind", kind)
}

// IsCorruptSegment reports whether err is (or wraps) a corrupt-segment error.
func IsCorruptSegment(err error) bool {
	se, ok := AsStorageError(err)
	return ok && se.Code() == ErrorCodeCorruptSegment
}

// IsRecordTooLarge reports whether err is (or wraps) a record-too-large error.
func IsRecordTooLarge(err error) bool {
	se, ok := AsStorageError(err)
	return ok && se.Code() == ErrorCodeRecordTooLarge
}

// IsBadPath reports whether err is (or wraps) a bad-path error.
func IsBadPath(err error) bool {
	se, ok := AsStorageError(err)
	return ok && se.Code() == ErrorCodeBadPath
}
