// Package catalog maintains the local product catalog: a paginated fetch
// from the remote listing, an atomically replaced snapshot file, a
// reference index for cache-first lookups and a search layer on top.
package catalog

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Field fallbacks seen across product API tenants. The first present key
// wins; later keys are only consulted when the earlier ones are missing or
// unusable.
var (
	referenceKeys = []string{"product_code", "code", "reference"}
	idKeys        = []string{"id", "product_id"}
	stockKeys     = []string{"stock", "quantity", "stock_quantity", "stock_level"}
	nameKeys      = []string{"name", "label", "designation", "title"}
)

// Entry is one indexed catalog product.
type Entry struct {
	Reference string
	ID        string
	Stock     decimal.NullDecimal
	Name      string
}

// entryFromRaw extracts an Entry from a raw product object. Products
// without both a reference and an id are not indexable and return false.
func entryFromRaw(p map[string]any) (Entry, bool) {
	ref := firstString(p, referenceKeys)
	id := firstString(p, idKeys)
	if ref == "" || id == "" {
		return Entry{}, false
	}
	return Entry{
		Reference: ref,
		ID:        id,
		Stock:     firstDecimal(p, stockKeys),
		Name:      firstString(p, nameKeys),
	}, true
}

func firstString(p map[string]any, keys []string) string {
	for _, k := range keys {
		if s, ok := stringValue(p[k]); ok {
			return s
		}
	}
	return ""
}

func firstDecimal(p map[string]any, keys []string) decimal.NullDecimal {
	for _, k := range keys {
		v, ok := p[k]
		if !ok {
			continue
		}
		if d, ok := decimalValue(v); ok {
			return decimal.NullDecimal{Decimal: d, Valid: true}
		}
	}
	return decimal.NullDecimal{}
}

// stringValue renders scalar identifiers as trimmed strings. Zero is a real
// id; null, objects and empty strings are not.
func stringValue(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		return s, s != ""
	case json.Number:
		return t.String(), true
	case float64:
		d := decimal.NewFromFloat(t)
		return d.String(), true
	default:
		return "", false
	}
}

func decimalValue(v any) (decimal.Decimal, bool) {
	switch t := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(t.String())
		return d, err == nil
	case float64:
		return decimal.NewFromFloat(t), true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(t))
		return d, err == nil
	default:
		return decimal.Decimal{}, false
	}
}
