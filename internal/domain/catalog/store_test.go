package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleProducts() []map[string]any {
	return []map[string]any{
		{"product_code": "REF_001", "id": "11", "stock": 50},
		{"product_code": "REF_002", "id": "12", "stock": 3},
	}
}

func TestSnapshotStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")
	store := NewSnapshotStore(path)

	require.False(t, store.Exists())
	require.NoError(t, store.Replace(sampleProducts()))
	require.True(t, store.Exists())

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "REF_001", loaded[0]["product_code"])
}

func TestSnapshotStore_LoadMissing(t *testing.T) {
	store := NewSnapshotStore(filepath.Join(t.TempDir(), "products.json"))

	_, err := store.Load()
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestSnapshotStore_ReplaceCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".cache", "nested", "products.json")
	store := NewSnapshotStore(path)

	require.NoError(t, store.Replace(sampleProducts()))
	assert.True(t, store.Exists())
}

func TestSnapshotStore_ReplaceLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewSnapshotStore(filepath.Join(dir, "products.json"))

	require.NoError(t, store.Replace(sampleProducts()))
	require.NoError(t, store.Replace(sampleProducts()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "products.json", entries[0].Name())
}

func TestSnapshotStore_LoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")
	require.NoError(t, os.WriteFile(path, []byte("{{not json"), 0o644))

	_, err := NewSnapshotStore(path).Load()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSnapshot)
}

func TestSnapshotStore_ReplaceNilWritesEmptyList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")
	store := NewSnapshotStore(path)

	require.NoError(t, store.Replace(nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(string(data)))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, loaded)
}
