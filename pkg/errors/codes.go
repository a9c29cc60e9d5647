package errors

// ErrorCode categorizes an error for programmatic handling, independent of
// its human-readable message.
type ErrorCode string

const (
	// ErrorCodeIO covers file and syscall failures that aren't one of the
	// more specific codes below.
	ErrorCodeIO ErrorCode = "IO_ERROR"

	// ErrorCodeInvalidInput covers malformed configuration or arguments
	// caught before any I/O is attempted.
	ErrorCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// ErrorCodeInternal is the fallback for failures that don't fit any
	// other code.
	ErrorCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Storage-specific error codes.
const (
	// ErrorCodePermissionDenied means the process lacks the filesystem
	// permissions the operation needs.
	ErrorCodePermissionDenied ErrorCode = "PERMISSION_DENIED"

	// ErrorCodeDiskFull means the underlying device is out of space.
	ErrorCodeDiskFull ErrorCode = "DISK_FULL"

	// ErrorCodeFilesystemReadonly means the data directory's filesystem is
	// mounted read-only.
	ErrorCodeFilesystemReadonly ErrorCode = "FILESYSTEM_READONLY"

	// ErrorCodeBadPath means the configured storage directory exists and is
	// not a directory, or could not be created.
	ErrorCodeBadPath ErrorCode = "BAD_PATH"

	// ErrorCodeCorruptSegment means replay hit an unknown record tag or a
	// truncated record while scanning a segment file.
	ErrorCodeCorruptSegment ErrorCode = "CORRUPT_SEGMENT"

	// ErrorCodeRecordTooLarge means a single encoded record exceeds the
	// segment cap and can never be written, even to a fresh segment.
	ErrorCodeRecordTooLarge ErrorCode = "RECORD_TOO_LARGE"
)

// ErrorCodeIndexInvalidSegmentID means an index entry points at a segment
// that no longer exists on disk: the index has drifted from the log.
const ErrorCodeIndexInvalidSegmentID ErrorCode = "INDEX_INVALID_SEGMENT_ID"
