package catalog

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Index maps trimmed product references to catalog entries. It is rebuilt
// wholesale from a snapshot; entries are never merged field by field.
type Index struct {
	entries map[string]Entry
	refs    []string
}

// BuildIndex constructs the reference index from raw products. Products
// missing a reference or an id are skipped; a duplicated reference keeps
// the last occurrence, matching the listing order.
func BuildIndex(products []map[string]any) *Index {
	entries := make(map[string]Entry, len(products))
	for _, p := range products {
		if e, ok := entryFromRaw(p); ok {
			entries[e.Reference] = e
		}
	}

	refs := make([]string, 0, len(entries))
	for ref := range entries {
		refs = append(refs, ref)
	}
	sort.Strings(refs)

	return &Index{entries: entries, refs: refs}
}

// Get returns the entry for a reference, trimming the key first.
func (ix *Index) Get(reference string) (Entry, bool) {
	e, ok := ix.entries[strings.TrimSpace(reference)]
	return e, ok
}

// Len returns the number of indexed products.
func (ix *Index) Len() int {
	return len(ix.entries)
}

// References returns all indexed references in sorted order.
func (ix *Index) References() []string {
	return append([]string(nil), ix.refs...)
}

// Entries returns all entries in reference order.
func (ix *Index) Entries() []Entry {
	out := make([]Entry, 0, len(ix.refs))
	for _, ref := range ix.refs {
		out = append(out, ix.entries[ref])
	}
	return out
}

// Suggest returns catalog references close to the given one, nearest
// first. Useful when a parsed reference misses the index by a typo or an
// OCR artifact.
func (ix *Index) Suggest(reference string, limit int) []string {
	reference = strings.TrimSpace(reference)
	if reference == "" || len(ix.refs) == 0 {
		return nil
	}
	if limit <= 0 {
		limit = 5
	}

	maxDistance := 1 + len(reference)/4
	if maxDistance < 2 {
		maxDistance = 2
	}

	type scored struct {
		ref      string
		distance int
	}
	upper := strings.ToUpper(reference)
	candidates := make([]scored, 0, len(ix.refs))
	for _, ref := range ix.refs {
		d := fuzzy.LevenshteinDistance(upper, strings.ToUpper(ref))
		if d == 0 {
			return []string{ref}
		}
		if d <= maxDistance {
			candidates = append(candidates, scored{ref: ref, distance: d})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].distance != candidates[j].distance {
			return candidates[i].distance < candidates[j].distance
		}
		return candidates[i].ref < candidates[j].ref
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.ref
	}
	return out
}
