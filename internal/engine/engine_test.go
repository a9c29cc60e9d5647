package engine

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ignitedb/ignite/pkg/logger"
	"github.com/ignitedb/ignite/pkg/options"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	opts := options.NewDefaultOptions()
	opts.DataDir = t.TempDir()
	opts.CompactInterval = 0

	e, err := New(context.Background(), &Config{Options: &opts, Logger: logger.NewNop()})
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func TestEngine_SetGetReopen(t *testing.T) {
	opts := options.NewDefaultOptions()
	opts.DataDir = t.TempDir()
	opts.CompactInterval = 0

	e1, err := New(context.Background(), &Config{Options: &opts, Logger: logger.NewNop()})
	require.NoError(t, err)

	require.NoError(t, e1.Set("key1", "value1"))
	require.NoError(t, e1.Set("key2", "value2"))

	v, ok, err := e1.Get("key1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "value1", v)

	require.NoError(t, e1.Close())

	e2, err := New(context.Background(), &Config{Options: &opts, Logger: logger.NewNop()})
	require.NoError(t, err)
	defer e2.Close()

	v, ok, err = e2.Get("key1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "value1", v)

	v, ok, err = e2.Get("key2")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "value2", v)
}

func TestEngine_OverwriteAndReopen(t *testing.T) {
	opts := options.NewDefaultOptions()
	opts.DataDir = t.TempDir()
	opts.CompactInterval = 0

	e1, err := New(context.Background(), &Config{Options: &opts, Logger: logger.NewNop()})
	require.NoError(t, err)

	require.NoError(t, e1.Set("k", "v1"))
	require.NoError(t, e1.Set("k", "v2"))

	v, ok, err := e1.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v2", v)
	require.NoError(t, e1.Close())

	e2, err := New(context.Background(), &Config{Options: &opts, Logger: logger.NewNop()})
	require.NoError(t, err)
	defer e2.Close()

	v, ok, err = e2.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v2", v)
}

func TestEngine_MissingKey(t *testing.T) {
	e := newTestEngine(t)

	_, ok, err := e.Get("absent")
	require.NoError(t, err)
	require.False(t, ok)

	existed, err := e.Remove("absent")
	require.NoError(t, err)
	require.False(t, existed)
}

func TestEngine_RemoveVisibilityAcrossReopen(t *testing.T) {
	opts := options.NewDefaultOptions()
	opts.DataDir = t.TempDir()
	opts.CompactInterval = 0

	e1, err := New(context.Background(), &Config{Options: &opts, Logger: logger.NewNop()})
	require.NoError(t, err)

	require.NoError(t, e1.Set("k", "v"))
	existed, err := e1.Remove("k")
	require.NoError(t, err)
	require.True(t, existed)

	_, ok, err := e1.Get("k")
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, e1.Close())

	e2, err := New(context.Background(), &Config{Options: &opts, Logger: logger.NewNop()})
	require.NoError(t, err)
	defer e2.Close()

	_, ok, err = e2.Get("k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestEngine_OversizeRecordRejected(t *testing.T) {
	e := newTestEngine(t)

	big := strings.Repeat("x", options.SegmentCap)
	err := e.Set("k", big)
	require.Error(t, err)

	_, ok, err := e.Get("k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestEngine_ResetIsIdempotent(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.Set("k", "v"))
	require.NoError(t, e.Reset())
	require.NoError(t, e.Reset())

	_, ok, err := e.Get("k")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, e.Set("k2", "v2"))
	v, ok, err := e.Get("k2")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v2", v)
}

func TestEngine_CloseRejectsFurtherUse(t *testing.T) {
	opts := options.NewDefaultOptions()
	opts.DataDir = t.TempDir()
	opts.CompactInterval = 0

	e, err := New(context.Background(), &Config{Options: &opts, Logger: logger.NewNop()})
	require.NoError(t, err)
	require.NoError(t, e.Close())

	err = e.Set("k", "v")
	require.ErrorIs(t, err, ErrEngineClosed)
}

func TestEngine_CompactionAfterManyOverwrites(t *testing.T) {
	opts := options.NewDefaultOptions()
	opts.DataDir = t.TempDir()
	opts.CompactInterval = 0
	opts.CompactionWorkers = 2
	opts.CompactionQueueSize = 8

	e, err := New(context.Background(), &Config{Options: &opts, Logger: logger.NewNop()})
	require.NoError(t, err)
	defer e.Close()

	value := strings.Repeat("v", options.SegmentCap/5)
	for iter := 0; iter < 8; iter++ {
		for i := 0; i < 4; i++ {
			require.NoError(t, e.Set(keyFor(i), value))
		}
	}

	// Give the asynchronous compactor a moment to run; compaction never
	// blocks the writer, so this is best-effort in a unit test.
	time.Sleep(50 * time.Millisecond)

	for i := 0; i < 4; i++ {
		v, ok, err := e.Get(keyFor(i))
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, value, v)
	}
}

func keyFor(i int) string {
	return string(rune('a' + i))
}
