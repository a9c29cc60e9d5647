package errors

// IndexError carries the in-memory key->position index's own failure
// context: the key involved, the segment it pointed at, and which index
// operation was running. It is distinct from StorageError because an
// index failure usually means the index and the on-disk log have drifted
// apart, not that a disk I/O call itself failed.
type IndexError struct {
	*baseError

	key       string
	segmentID uint64
	operation string
}

// NewIndexError creates a new index-specific error with the provided context.
func NewIndexError(err error, code ErrorCode, msg string) *IndexError {
	return &IndexError{baseError: NewBaseError(err, code, msg)}
}

func (ie *IndexError) WithMessage(msg string) *IndexError {
	ie.baseError.WithMessage(msg)
	return ie
}

func (ie *IndexError) WithCode(code ErrorCode) *IndexError {
	ie.baseError.WithCode(code)
	return ie
}

func (ie *IndexError) WithDetail(key string, value any) *IndexError {
	ie.baseError.WithDetail(key, value)
	return ie
}

// WithKey records which key was being resolved when the error occurred.
func (ie *IndexError) WithKey(key string) *IndexError {
	ie.key = key
	return ie
}

// WithSegmentID records which segment the index pointed at.
func (ie *IndexError) WithSegmentID(segmentID uint64) *IndexError {
	ie.segmentID = segmentID
	return ie
}

// WithOperation records which index-facing operation was running.
func (ie *IndexError) WithOperation(operation string) *IndexError {
	ie.operation = operation
	return ie
}

// Key returns the key that was being resolved when the error occurred.
func (ie *IndexError) Key() string {
	return ie.key
}

// SegmentID returns the segment the index pointed at.
func (ie *IndexError) SegmentID() uint64 {
	return ie.segmentID
}

// Operation returns the name of the operation that was running.
func (ie *IndexError) Operation() string {
	return ie.operation
}

// NewSegmentIDError reports that the index points key at a segment that no
// longer exists on disk. This means the index has drifted from the log: a
// segment was removed (by compaction or Reset) without the index entries
// that pointed at it being patched or cleared first.
func NewSegmentIDError(segmentID uint64, key string) *IndexError {
	return NewIndexError(nil, ErrorCodeIndexInvalidSegmentID, "index points at a segment that no longer exists").
		WithSegmentID(segmentID).
		WithKey(key)
}
