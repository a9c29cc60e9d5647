package errors

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBaseError_ChainingAndUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := NewBaseError(cause, ErrorCodeIO, "write failed").
		WithDetail("path", "/tmp/x").
		WithDetail("retries", 3)

	require.Equal(t, "write failed", err.Error())
	require.Equal(t, ErrorCodeIO, err.Code())
	require.Equal(t, cause, err.Unwrap())
	require.Equal(t, "/tmp/x", err.Details()["path"])

	err.WithMessage("write failed after retries").WithCode(ErrorCodeInvalidInput)
	require.Equal(t, "write failed after retries", err.Error())
	require.Equal(t, ErrorCodeInvalidInput, err.Code())
}

func TestTaxonomy_BadPathCorruptSegmentRecordTooLargeIoError(t *testing.T) {
	cause := errors.New("eacces")

	badPath := NewBadPathError("/var/lib/ignitedb", cause)
	require.True(t, IsBadPath(badPath))
	require.False(t, IsCorruptSegment(badPath))

	corrupt := NewCorruptSegmentError(3, 128, cause)
	require.True(t, IsCorruptSegment(corrupt))
	se, ok := AsStorageError(corrupt)
	require.True(t, ok)
	require.Equal(t, 3, se.SegmentId())
	require.Equal(t, 128, se.Offset())

	tooLarge := NewRecordTooLargeError(5_000_000, 4_000_000)
	require.True(t, IsRecordTooLarge(tooLarge))

	io := NewIoError("sync", "/data/kv_1.log", cause)
	se, ok = AsStorageError(io)
	require.True(t, ok)
	require.Equal(t, "/data/kv_1.log", se.Path())
	require.ErrorIs(t, io, cause)
}

func TestStorageError_FluentBuilders(t *testing.T) {
	err := NewStorageError(nil, ErrorCodeIO, "i/o error").
		WithSegmentID(7).
		WithOffset(42).
		WithFileName("kv_7.log").
		WithPath("/data/kv_7.log")

	require.Equal(t, 7, err.SegmentId())
	require.Equal(t, 42, err.Offset())
	require.Equal(t, "kv_7.log", err.FileName())
	require.Equal(t, "/data/kv_7.log", err.Path())
}

func TestIndexError_SegmentIDMismatch(t *testing.T) {
	badSegment := NewSegmentIDError(9, "k").WithDetail("attempt", 1)

	ie, ok := AsIndexError(badSegment)
	require.True(t, ok)
	require.EqualValues(t, 9, ie.SegmentID())
	require.Equal(t, "k", ie.Key())
	require.Equal(t, ErrorCodeIndexInvalidSegmentID, ie.Code())

	ie.WithOperation("Get")
	require.Equal(t, "Get", ie.Operation())
}

func TestValidationError_Constructors(t *testing.T) {
	required := NewRequiredFieldError("dataDir")
	ve, ok := AsValidationError(required)
	require.True(t, ok)
	require.Equal(t, "dataDir", ve.Field())
	require.Equal(t, "required", ve.Rule())

	format := NewFieldFormatError("segmentDir", 123, "non-empty string")
	ve, ok = AsValidationError(format)
	require.True(t, ok)
	require.Equal(t, "format", ve.Rule())
	require.EqualValues(t, 123, ve.Provided())
	require.Equal(t, "non-empty string", ve.Expected())

	rangeErr := NewFieldRangeError("compactionWorkers", 0, 1, 64)
	ve, ok = AsValidationError(rangeErr)
	require.True(t, ok)
	require.Equal(t, "range", ve.Rule())
	require.Equal(t, 1, ve.Details()["minValue"])

	cfg := NewConfigurationValidationError("options", "engine configuration is required")
	ve, ok = AsValidationError(cfg)
	require.True(t, ok)
	require.Equal(t, "configuration_integrity", ve.Rule())
}

func TestClassifyFileOpenError_WrapsAsStorageError(t *testing.T) {
	_, err := os.Open(filepath.Join(t.TempDir(), "kv_1.log"))
	require.Error(t, err)

	classified := ClassifyFileOpenError(err, "/data/kv_1.log", "kv_1.log")

	se, ok := AsStorageError(classified)
	require.True(t, ok)
	require.Equal(t, "kv_1.log", se.FileName())
}
