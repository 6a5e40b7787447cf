package local

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slarchive/linkarchive/internal/archive"
)

func TestBlobStorePutGet(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := New(Config{BaseDir: dir})
	require.NoError(t, err)

	ref, err := store.Put(context.Background(), "deadbeef", "archived text\nline two")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "file://"))
	assert.FileExists(t, filepath.Join(dir, "deadbeef.txt"))

	got, err := store.Get(context.Background(), "deadbeef")
	require.NoError(t, err)
	assert.Equal(t, "archived text\nline two", got)
}

func TestBlobStoreMissingBlob(t *testing.T) {
	t.Parallel()

	store, err := New(Config{BaseDir: t.TempDir()})
	require.NoError(t, err)

	_, err = store.Get(context.Background(), "deadbeef")
	assert.ErrorIs(t, err, archive.ErrArchiveMissing)
}

func TestBlobStoreDeletedBlob(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := New(Config{BaseDir: dir})
	require.NoError(t, err)

	_, err = store.Put(context.Background(), "deadbeef", "text")
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(dir, "deadbeef.txt")))

	_, err = store.Get(context.Background(), "deadbeef")
	assert.ErrorIs(t, err, archive.ErrArchiveMissing)
}

func TestBlobStoreCreatesBaseDir(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "archives")
	_, err := New(Config{BaseDir: dir})
	require.NoError(t, err)
	assert.DirExists(t, dir)
}

func TestBlobStoreRejectsEmptyBaseDir(t *testing.T) {
	t.Parallel()

	_, err := New(Config{BaseDir: "  "})
	require.Error(t, err)
}

func TestBlobStoreRejectsFileBaseDir(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	_, err := New(Config{BaseDir: path})
	require.Error(t, err)
}

func TestBlobStoreRejectsTraversalCode(t *testing.T) {
	t.Parallel()

	store, err := New(Config{BaseDir: t.TempDir()})
	require.NoError(t, err)

	_, err = store.Put(context.Background(), "../escape", "text")
	require.Error(t, err)

	_, err = store.Put(context.Background(), "", "text")
	require.Error(t, err)
}
