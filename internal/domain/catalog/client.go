package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/facturio/stocksync/pkg/remote"
)

// ErrNoProductsURL means the listing endpoint is not configured.
var ErrNoProductsURL = errors.New("products url is not configured")

// ListingClient fetches the full product listing page by page.
type ListingClient struct {
	productsURL string
	remote      *remote.Client
	logger      *slog.Logger
}

// NewListingClient creates a listing client for the given endpoint.
func NewListingClient(productsURL string, rc *remote.Client, logger *slog.Logger) *ListingClient {
	return &ListingClient{
		productsURL: productsURL,
		remote:      rc,
		logger:      logger,
	}
}

// FetchAll retrieves every catalog page and returns the accumulated raw
// products. Any page that cannot be fetched or decoded fails the whole
// fetch: a partial catalog must never replace a complete one.
func (c *ListingClient) FetchAll(ctx context.Context) ([]map[string]any, error) {
	if c.productsURL == "" {
		return nil, ErrNoProductsURL
	}

	pages := c.probePageCount(ctx)
	c.logger.Info("fetching product catalog",
		slog.String("url", c.productsURL),
		slog.Int("pages", pages))

	var products []map[string]any
	for page := 1; page <= pages; page++ {
		items, err := c.fetchPage(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("catalog page %d of %d: %w", page, pages, err)
		}
		products = append(products, items...)
	}
	return products, nil
}

// probePageCount asks the listing endpoint for its pagination counters.
// Some tenants return them nested under an "error" key next to a 403, so
// the probe reads the body regardless of status. A probe that yields no
// usable counters falls back to a single page.
func (c *ListingClient) probePageCount(ctx context.Context) int {
	resp, err := c.remote.Get(ctx, c.productsURL, nil)
	if err != nil {
		c.logger.Warn("catalog metadata probe failed", slog.Any("error", err))
		return 1
	}

	meta := parseMeta(resp.Body)
	if meta.pages > 0 {
		return meta.pages
	}
	if meta.total > 0 && meta.perPage > 0 {
		return int(math.Ceil(float64(meta.total) / float64(meta.perPage)))
	}
	return 1
}

// fetchPage retrieves one listing page. The page number travels both as a
// query parameter and as a "page" header; some endpoints only honor one of
// the two.
func (c *ListingClient) fetchPage(ctx context.Context, page int) ([]map[string]any, error) {
	url := c.productsURL
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	url += sep + "page=" + strconv.Itoa(page)

	resp, err := c.remote.Get(ctx, url, map[string]string{"page": strconv.Itoa(page)})
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, fmt.Errorf("unexpected status %d", resp.Status)
	}

	dec := json.NewDecoder(bytes.NewReader(resp.Body))
	dec.UseNumber()
	var body any
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("invalid page body: %w", err)
	}

	switch v := body.(type) {
	case map[string]any:
		list, ok := v["data"].([]any)
		if !ok {
			return nil, errors.New("page body carries no data list")
		}
		return objectItems(list), nil
	case []any:
		return objectItems(v), nil
	default:
		return nil, errors.New("unrecognized page body shape")
	}
}

// objectItems keeps the object elements of a page; scalar noise is dropped.
func objectItems(list []any) []map[string]any {
	items := make([]map[string]any, 0, len(list))
	for _, el := range list {
		if obj, ok := el.(map[string]any); ok {
			items = append(items, obj)
		}
	}
	return items
}

type listingMeta struct {
	total   int
	perPage int
	pages   int
}

// parseMeta pulls the pagination counters out of a probe body, looking
// under the "error" key first when present.
func parseMeta(body []byte) listingMeta {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var data any
	if err := dec.Decode(&data); err != nil {
		return listingMeta{}
	}

	block, ok := data.(map[string]any)
	if !ok {
		return listingMeta{}
	}
	if inner, ok := block["error"].(map[string]any); ok {
		block = inner
	}

	meta := listingMeta{
		total: asInt(block["results"]),
		pages: asInt(block["pages"]),
	}
	meta.perPage = asInt(block["results_per_page"])
	if meta.perPage == 0 {
		meta.perPage = asInt(block["results_perpage"])
	}
	return meta
}

func asInt(v any) int {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return int(i)
		}
		if f, err := t.Float64(); err == nil {
			return int(f)
		}
	case float64:
		return int(t)
	}
	return 0
}
