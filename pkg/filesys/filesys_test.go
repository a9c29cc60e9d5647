package filesys

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateDir(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "segments")

	require.NoError(t, CreateDir(dir, 0755, true))
	stat, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, stat.IsDir())

	// idempotent with force=true
	require.NoError(t, CreateDir(dir, 0755, true))
}

func TestCreateDir_RejectsFileAtPath(t *testing.T) {
	base := t.TempDir()
	file := filepath.Join(base, "notadir")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	err := CreateDir(file, 0755, true)
	require.ErrorIs(t, err, ErrIsNotDir)
}

func TestDeleteFile_IdempotentOnMissing(t *testing.T) {
	base := t.TempDir()
	file := filepath.Join(base, "kv_1.log")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	require.NoError(t, DeleteFile(file))
	require.NoError(t, DeleteFile(file)) // already gone, still fine
}

func TestExists(t *testing.T) {
	base := t.TempDir()
	file := filepath.Join(base, "kv_1.log")

	ok, err := Exists(file)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))
	ok, err = Exists(file)
	require.NoError(t, err)
	require.True(t, ok)
}
