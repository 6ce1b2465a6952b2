package fileutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileAndDirectoryExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0600))

	assert.True(t, FileExists(file))
	assert.False(t, FileExists(dir))
	assert.False(t, FileExists(filepath.Join(dir, "missing")))

	assert.True(t, DirectoryExists(dir))
	assert.False(t, DirectoryExists(file))
}

func TestEnsureDirectoryExists(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, EnsureDirectoryExists(dir, 0750))
	assert.True(t, DirectoryExists(dir))
	require.NoError(t, EnsureDirectoryExists(dir, 0750))
}

func TestFileSize(t *testing.T) {
	dir := t.TempDir()
	size, exists, err := FileSize(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Zero(t, size)

	file := filepath.Join(dir, "f")
	require.NoError(t, os.WriteFile(file, []byte("abc"), 0600))
	size, exists, err = FileSize(file)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, int64(3), size)
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "nested", "doc.yaml")

	require.NoError(t, WriteFileAtomic(target, []byte("one"), 0600, 0750))
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "one", string(data))

	require.NoError(t, WriteFileAtomic(target, []byte("two"), 0600, 0750))
	data, err = os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(target))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestWriteFileAtomic_ParentIsFile(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0600))

	err := WriteFileAtomic(filepath.Join(blocker, "doc.yaml"), []byte("x"), 0600, 0750)
	require.Error(t, err)
}
