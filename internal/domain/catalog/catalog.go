package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrSearchDisabled means the catalog was built without a search index.
var ErrSearchDisabled = errors.New("product search is disabled")

// Catalog is the in-memory view over the persisted product snapshot. Get
// never triggers a remote call: the index only changes through Load and
// Refresh, so one pipeline run always observes a single consistent
// snapshot.
type Catalog struct {
	client *ListingClient
	store  *SnapshotStore
	search *ProductSearch
	logger *slog.Logger

	mu    sync.RWMutex
	index *Index
}

// New creates an empty catalog. Call Load to hydrate it from the persisted
// snapshot, or Refresh to fetch a fresh one. The search index may be nil
// when full-text search is not needed.
func New(client *ListingClient, store *SnapshotStore, search *ProductSearch, logger *slog.Logger) *Catalog {
	return &Catalog{
		client: client,
		store:  store,
		search: search,
		logger: logger,
		index:  BuildIndex(nil),
	}
}

// Load hydrates the index from the persisted snapshot. A missing snapshot
// is not an error: the catalog simply stays empty and every Get misses.
func (c *Catalog) Load() error {
	products, err := c.store.Load()
	if errors.Is(err, ErrNoSnapshot) {
		c.logger.Info("no product snapshot yet", slog.String("path", c.store.Path()))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	c.install(products)
	c.logger.Info("product catalog loaded",
		slog.String("path", c.store.Path()),
		slog.Int("products", c.Size()))
	return nil
}

// Refresh fetches the complete listing and atomically replaces both the
// persisted snapshot and the in-memory index. On any fetch failure the
// previous snapshot stays exactly as it was.
func (c *Catalog) Refresh(ctx context.Context) (int, error) {
	products, err := c.client.FetchAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("catalog refresh: %w", err)
	}
	if err := c.store.Replace(products); err != nil {
		return 0, fmt.Errorf("catalog refresh: %w", err)
	}

	c.install(products)
	c.logger.Info("product catalog refreshed", slog.Int("products", len(products)))
	return len(products), nil
}

// Get returns the indexed entry for a reference.
func (c *Catalog) Get(reference string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.index.Get(reference)
}

// Size returns the number of indexed products.
func (c *Catalog) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.index.Len()
}

// Suggest returns references close to the given one, nearest first.
func (c *Catalog) Suggest(reference string, limit int) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.index.Suggest(reference, limit)
}

// Search runs a full-text query against the product search index.
func (c *Catalog) Search(query string, limit int) ([]SearchHit, error) {
	if c.search == nil {
		return nil, ErrSearchDisabled
	}
	return c.search.Search(query, limit)
}

func (c *Catalog) install(products []map[string]any) {
	ix := BuildIndex(products)

	c.mu.Lock()
	c.index = ix
	c.mu.Unlock()

	if c.search != nil {
		if err := c.search.Rebuild(ix.Entries()); err != nil {
			c.logger.Warn("failed to rebuild product search index", slog.Any("error", err))
		}
	}
}
