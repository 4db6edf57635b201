package catalog

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facturio/stocksync/pkg/remote"
)

func newCatalog(t *testing.T, handler http.HandlerFunc) (*Catalog, *SnapshotStore, *int) {
	t.Helper()
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := NewSnapshotStore(filepath.Join(t.TempDir(), "products.json"))
	client := NewListingClient(srv.URL+"/products", remote.New(remote.DefaultConfig(), logger), logger)
	return New(client, store, nil, logger), store, &hits
}

func TestCatalog_RefreshFailureLeavesSnapshotByteIdentical(t *testing.T) {
	c, store, _ := newCatalog(t, pagedHandler(
		`{"results": 50, "results_per_page": 10}`,
		map[string]string{
			"1": `{"data": [{"product_code": "NEW_1", "id": 100}]}`,
			"2": `{"data": [{"product_code": "NEW_2", "id": 101}]}`,
		}, "3"))

	require.NoError(t, store.Replace(sampleProducts()))
	before, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	require.NoError(t, c.Load())

	_, err = c.Refresh(context.Background())
	require.Error(t, err, "page 3 of 5 fails, so the refresh fails")

	after, readErr := os.ReadFile(store.Path())
	require.NoError(t, readErr)
	assert.Equal(t, before, after, "failed refresh must not touch the snapshot")

	// The in-memory index still serves the previous snapshot.
	e, ok := c.Get("REF_001")
	require.True(t, ok)
	assert.Equal(t, "11", e.ID)
	_, ok = c.Get("NEW_1")
	assert.False(t, ok, "partial pages from the failed refresh are discarded")
}

func TestCatalog_RefreshReplacesSnapshotAndIndex(t *testing.T) {
	c, store, _ := newCatalog(t, pagedHandler(
		`{"pages": 1}`,
		map[string]string{
			"1": `{"data": [{"product_code": "REF_900", "id": 900, "stock": 4}]}`,
		}, ""))

	require.NoError(t, store.Replace(sampleProducts()))
	require.NoError(t, c.Load())
	require.Equal(t, 2, c.Size())

	count, err := c.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, 1, c.Size())

	e, ok := c.Get("REF_900")
	require.True(t, ok)
	assert.Equal(t, "900", e.ID)
	require.True(t, e.Stock.Valid)
	assert.Equal(t, int64(4), e.Stock.Decimal.IntPart())

	_, ok = c.Get("REF_001")
	assert.False(t, ok, "old entries are replaced wholesale, not merged")

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
}

func TestCatalog_LoadWithoutSnapshotIsEmpty(t *testing.T) {
	c, _, hits := newCatalog(t, pagedHandler(`{}`, nil, ""))

	require.NoError(t, c.Load())
	assert.Equal(t, 0, c.Size())

	_, ok := c.Get("REF_001")
	assert.False(t, ok)
	assert.Equal(t, 0, *hits, "neither Load nor Get ever calls the listing endpoint")
}

func TestCatalog_GetNeverAutoRefreshes(t *testing.T) {
	c, store, hits := newCatalog(t, pagedHandler(`{}`, nil, ""))

	require.NoError(t, store.Replace(sampleProducts()))
	require.NoError(t, c.Load())

	for i := 0; i < 5; i++ {
		c.Get("MISSING_REF")
	}
	assert.Equal(t, 0, *hits)
}

func TestCatalog_SearchDisabled(t *testing.T) {
	c, _, _ := newCatalog(t, pagedHandler(`{}`, nil, ""))

	_, err := c.Search("chaise", 10)
	assert.ErrorIs(t, err, ErrSearchDisabled)
}

func TestCatalog_SuggestUsesIndex(t *testing.T) {
	c, store, _ := newCatalog(t, pagedHandler(`{}`, nil, ""))

	require.NoError(t, store.Replace(sampleProducts()))
	require.NoError(t, c.Load())

	got := c.Suggest("REF_O01", 3)
	require.NotEmpty(t, got)
	assert.Equal(t, "REF_001", got[0])
}
