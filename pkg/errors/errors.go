// Package errors provides the typed error hierarchy used throughout the
// storage engine: a common baseError for wrapping and structured detail,
// and three domain-specific error types (ValidationError, StorageError,
// IndexError) that each carry the context a caller in that layer actually
// needs to react to a failure instead of just logging it.
package errors

import (
	stdErrors "errors"
	"os"
	"syscall"
)

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return stdErrors.As(err, &ve)
}

// IsStorageError reports whether err is (or wraps) a StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return stdErrors.As(err, &se)
}

// IsIndexError reports whether err is (or wraps) an IndexError.
func IsIndexError(err error) bool {
	var ie *IndexError
	return stdErrors.As(err, &ie)
}

// AsValidationError extracts a ValidationError from err's chain, if present.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if stdErrors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// AsStorageError extracts a StorageError from err's chain, if present.
func AsStorageError(err error) (*StorageError, bool) {
	var se *StorageError
	if stdErrors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// AsIndexError extracts an IndexError from err's chain, if present.
func AsIndexError(err error) (*IndexError, bool) {
	var ie *IndexError
	if stdErrors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}

// GetErrorCode returns err's ErrorCode, trying ValidationError, then
// StorageError, then IndexError, falling back to ErrorCodeInternal for any
// other error.
func GetErrorCode(err error) ErrorCode {
	if ve, ok := AsValidationError(err); ok {
		return ve.Code()
	}
	if se, ok := AsStorageError(err); ok {
		return se.Code()
	}
	if ie, ok := AsIndexError(err); ok {
		return ie.Code()
	}
	return ErrorCodeInternal
}

// GetErrorDetails returns err's structured detail map, trying each error
// type in the same order as GetErrorCode, or an empty map if none match.
func GetErrorDetails(err error) map[string]any {
	if ve, ok := AsValidationError(err); ok {
		if details := ve.Details(); details != nil {
			return details
		}
	}
	if se, ok := AsStorageError(err); ok {
		if details := se.Details(); details != nil {
			return details
		}
	}
	if ie, ok := AsIndexError(err); ok {
		if details := ie.Details(); details != nil {
			return details
		}
	}
	return make(map[string]any)
}

// ClassifyDirectoryCreationError turns a failure to create the storage
// directory into a StorageError with the specific code its syscall errno
// implies, so callers can tell a permissions problem from a full disk
// without parsing the message.
func ClassifyDirectoryCreationError(err error, path string) error {
	if os.IsPermission(err) {
		return NewStorageError(
			err, ErrorCodePermissionDenied, "insufficient permissions to create segment directory",
		).WithPath(path).WithDetail("operation", "directory_creation")
	}

	if pathErr, ok := err.(*os.PathError); ok {
		if errno, ok := pathErr.Err.(syscall.Errno); ok {
			switch errno {
			case syscall.ENOSPC:
				return NewStorageError(
					err, ErrorCodeDiskFull, "insufficient disk space to create segment directory",
				).WithPath(path).WithDetail("operation", "directory_creation")
			case syscall.EROFS:
				return NewStorageError(
					err, ErrorCodeFilesystemReadonly, "cannot create directory on read-only filesystem",
				).WithPath(path).WithDetail("operation", "directory_creation")
			}
		}
	}

	return NewStorageError(err, ErrorCodeIO, "failed to create segment directory").
		WithPath(path).WithDetail("operation", "directory_creation")
}

// ClassifyFileOpenError turns a failure to open a segment file into a
// StorageError with the specific code its syscall errno implies.
func ClassifyFileOpenError(err error, filePath, fileName string) error {
	if os.IsPermission(err) {
		return NewStorageError(
			err, ErrorCodePermissionDenied, "insufficient permissions to open segment file",
		).WithPath(filePath).WithFileName(fileName).WithDetail("operation", "file_open")
	}

	if pathErr, ok := err.(*os.PathError); ok {
		if errno, ok := pathErr.Err.(syscall.Errno); ok {
			switch errno {
			case syscall.ENOSPC:
				return NewStorageError(
					err, ErrorCodeDiskFull, "insufficient disk space to create segment file",
				).WithPath(filePath).WithFileName(fileName).WithDetail("operation", "file_open")
			case syscall.EROFS:
				return NewStorageError(
					err, ErrorCodeFilesystemReadonly, "cannot create file on read-only filesystem",
				).WithPath(filePath).WithFileName(fileName).WithDetail("operation", "file_open")
			}
		}
	}

	return NewStorageError(err, ErrorCodeIO, "failed to open segment file").
		WithPath(filePath).WithFileName(fileName).WithDetail("operation", "file_open")
}

// ClassifySyncError turns a failure to fsync a segment file into a
// StorageError with the specific code its syscall errno implies.
func ClassifySyncError(err error, fileName, filePath string, offset int) error {
	if pathErr, ok := err.(*os.PathError); ok {
		if errno, ok := pathErr.Err.(syscall.Errno); ok {
			switch errno {
			case syscall.ENOSPC:
				return NewStorageError(
					err, ErrorCodeDiskFull, "cannot sync file: insufficient disk space",
				).WithFileName(fileName).WithPath(filePath).WithOffset(offset).WithDetail("operation", "file_sync")
			case syscall.EROFS:
				return NewStorageError(
					err, ErrorCodeFilesystemReadonly, "cannot sync file: filesystem is read-only",
				).WithFileName(fileName).WithPath(filePath).WithOffset(offset).WithDetail("operation", "file_sync")
			case syscall.EIO:
				return NewStorageError(
					err, ErrorCodeIO, "i/o error during file sync, possible hardware or corruption issue",
				).WithFileName(fileName).WithPath(filePath).WithOffset(offset).WithDetail("operation", "file_sync")
			}
		}
	}

	return NewStorageError(err, ErrorCodeIO, "failed to sync segment file to disk").
		WithFileName(fileName).WithPath(filePath).WithOffset(offset).WithDetail("operation", "file_sync")
}
