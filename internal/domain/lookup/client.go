// Package lookup resolves product references against the remote lookup
// endpoint. Lookups are best effort: every failure mode maps to a status
// string on the line, never to a pipeline error.
package lookup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/facturio/stocksync/pkg/remote"
)

// Lookup status values surfaced on lines and in verbose output.
const (
	StatusOK           = "ok"
	StatusFromCache    = "from_cache"
	StatusHTTPError    = "http_error"
	StatusInvalidJSON  = "invalid_json"
	StatusNoID         = "no_id"
	StatusSkippedNoRef = "skipped_no_reference"
	StatusSkippedNoURL = "skipped_no_lookup_url"
)

// Result is the outcome of one reference lookup. ID is empty whenever the
// status is anything but StatusOK or StatusFromCache.
type Result struct {
	ID     string
	Status string
	Info   string // diagnostic detail, shown in verbose mode
}

// Client calls the templated lookup endpoint.
type Client struct {
	urlTemplate string
	remote      *remote.Client
	logger      *slog.Logger
}

// NewClient creates a lookup client. An empty urlTemplate is allowed and
// turns every lookup into a skip.
func NewClient(urlTemplate string, rc *remote.Client, logger *slog.Logger) *Client {
	return &Client{
		urlTemplate: urlTemplate,
		remote:      rc,
		logger:      logger,
	}
}

// Lookup resolves one reference to a remote identifier. The response body is
// checked against the known shapes in priority order: a top-level "id", then
// "data.id", then the first element of a "data" list, then the first element
// of a bare list. The first shape carrying a usable id wins.
func (c *Client) Lookup(ctx context.Context, reference string) Result {
	if reference == "" {
		return Result{Status: StatusSkippedNoRef}
	}
	if c.urlTemplate == "" {
		return Result{Status: StatusSkippedNoURL}
	}

	url := strings.ReplaceAll(c.urlTemplate, "{reference}", reference)
	resp, err := c.remote.Get(ctx, url, nil)
	if err != nil {
		return Result{Status: StatusHTTPError, Info: err.Error()}
	}
	if !resp.OK() {
		return Result{Status: StatusHTTPError, Info: fmt.Sprintf("status %d", resp.Status)}
	}

	// UseNumber keeps large numeric ids intact instead of rounding them
	// through float64.
	dec := json.NewDecoder(bytes.NewReader(resp.Body))
	dec.UseNumber()
	var data any
	if err := dec.Decode(&data); err != nil {
		return Result{Status: StatusInvalidJSON, Info: err.Error()}
	}

	if id, ok := extractID(data); ok {
		c.logger.Debug("reference resolved", slog.String("reference", reference), slog.String("id", id))
		return Result{ID: id, Status: StatusOK}
	}
	return Result{Status: StatusNoID}
}

// extractID walks the known response shapes in priority order.
func extractID(data any) (string, bool) {
	switch v := data.(type) {
	case map[string]any:
		if id, ok := usableID(v["id"]); ok {
			return id, true
		}
		if inner, ok := v["data"].(map[string]any); ok {
			if id, ok := usableID(inner["id"]); ok {
				return id, true
			}
		}
		if list, ok := v["data"].([]any); ok {
			if id, ok := firstElementID(list); ok {
				return id, true
			}
		}
	case []any:
		return firstElementID(v)
	}
	return "", false
}

func firstElementID(list []any) (string, bool) {
	if len(list) == 0 {
		return "", false
	}
	first, ok := list[0].(map[string]any)
	if !ok {
		return "", false
	}
	return usableID(first["id"])
}

// usableID stringifies an id value. Null, missing and structured values are
// all unusable; they must never end up as a mutation target.
func usableID(raw any) (string, bool) {
	switch v := raw.(type) {
	case string:
		if v == "" {
			return "", false
		}
		return v, true
	case json.Number:
		return v.String(), true
	default:
		return "", false
	}
}
