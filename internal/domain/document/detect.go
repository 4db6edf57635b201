package document

import (
	"regexp"
	"strings"

	"github.com/cloudflare/ahocorasick"
)

// Header, footer, and totals fragments that must never be mapped as line
// items. Matching is case-insensitive over the whole row text.
var noiseTerms = []string{
	"reference designation",
	"bon de livraison",
	"commande client",
	"sous total",
	"total ttc",
	"total ht",
	"rib",
}

// Keywords voting for each document kind during auto-detection.
var (
	invoiceTerms = []string{"facture", "invoice"}
	creditTerms  = []string{"avoir", "credit note", "credit memo", "note de credit", "note de crédit"}
)

// Filter drops noise rows (headers, footers, totals blocks) from a table
// using a single-pass multi-pattern matcher. The document kind's own title
// lines count as noise too, so "Facture N° ..." never reaches the mapper.
type Filter struct {
	matcher *ahocorasick.Matcher
}

// NewFilter builds a noise filter for the given document kind.
func NewFilter(kind Kind) *Filter {
	terms := make([]string, 0, len(noiseTerms)+2)
	terms = append(terms, noiseTerms...)
	switch kind {
	case KindCreditNote:
		terms = append(terms, "avoir")
	default:
		terms = append(terms, "facture")
	}
	return &Filter{matcher: ahocorasick.NewStringMatcher(terms)}
}

// IsNoise reports whether a row's joined text matches any noise term.
func (f *Filter) IsNoise(rowText string) bool {
	if rowText == "" {
		return true
	}
	return len(f.matcher.Match([]byte(strings.ToLower(rowText)))) > 0
}

// Strip returns the table with noise rows removed, preserving order.
func (f *Filter) Strip(t *Table) *Table {
	kept := make([]Row, 0, len(t.Rows))
	for _, row := range t.Rows {
		if f.IsNoise(strings.Join(row.Cells, " ")) {
			continue
		}
		kept = append(kept, row)
	}
	return &Table{Rows: kept, Text: t.Text}
}

var (
	noiseMatcher   = ahocorasick.NewStringMatcher(noiseTerms)
	invoiceMatcher = ahocorasick.NewStringMatcher(invoiceTerms)
	creditMatcher  = ahocorasick.NewStringMatcher(creditTerms)
)

// IsNoiseText reports whether text matches a kind-independent noise fragment.
// The per-kind Filter additionally drops the document's own title lines.
func IsNoiseText(text string) bool {
	return len(noiseMatcher.Match([]byte(strings.ToLower(text)))) > 0
}

// DetectKind infers the document kind from its free text. Credit notes often
// reference their originating invoice, so credit keywords win ties; with no
// keywords at all the default is invoice.
func DetectKind(text string) Kind {
	lower := []byte(strings.ToLower(text))
	creditHits := len(creditMatcher.Match(lower))
	invoiceHits := len(invoiceMatcher.Match(lower))
	if creditHits > 0 && creditHits >= invoiceHits {
		return KindCreditNote
	}
	return KindInvoice
}

// Document number patterns, tried in order per kind. French titles first,
// English fallbacks after.
var (
	invoiceNumberPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)facture\s+n[°º]?\s*([A-Z0-9_]+)`),
		regexp.MustCompile(`(?i)invoice\s+(?:no\.?|number|#)\s*:?\s*([A-Z0-9_-]+)`),
	}
	creditNumberPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)avoir\s+n[°º]?\s*([A-Z0-9_]+)`),
		regexp.MustCompile(`(?i)credit\s+note\s+(?:no\.?|number|#)\s*:?\s*([A-Z0-9_-]+)`),
	}
)

// ExtractNumber pulls the document number (e.g. "FAC_2024_0042") out of the
// document's free text. Returns "" when no pattern matches.
func ExtractNumber(text string, kind Kind) string {
	patterns := invoiceNumberPatterns
	if kind == KindCreditNote {
		patterns = creditNumberPatterns
	}
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}
