// Package document holds the shared model for tabular invoice documents:
// raw tables as extracted from a source file, the mapped line items derived
// from them, and the document kinds that drive stock delta signs.
package document

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

func init() {
	// Line payloads carry bare JSON numbers, matching the upstream API contract.
	decimal.MarshalJSONWithoutQuotes = true
}

// Kind identifies the two supported document kinds. An invoice decrements
// stock, a credit note increments it.
type Kind int

const (
	KindInvoice Kind = iota
	KindCreditNote
)

// String returns the canonical wire name for the kind.
func (k Kind) String() string {
	switch k {
	case KindCreditNote:
		return "credit_note"
	default:
		return "invoice"
	}
}

// Label returns the French document title used on the printed documents.
func (k Kind) Label() string {
	switch k {
	case KindCreditNote:
		return "avoir"
	default:
		return "facture"
	}
}

// DeltaSign returns the sign applied to quantities when mutating stock.
func (k Kind) DeltaSign() decimal.Decimal {
	if k == KindCreditNote {
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromInt(-1)
}

// ParseKind maps user-supplied kind names (French and English) onto a Kind.
// Unknown or empty input defaults to invoice, mirroring the upstream tooling.
func ParseKind(s string) Kind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "avoir", "credit_note", "credit-note", "credit note", "creditnote":
		return KindCreditNote
	default:
		return KindInvoice
	}
}

// Row is one raw table row: ordered cell text plus the page it came from.
// Rows may have unequal cell counts.
type Row struct {
	Page  int
	Cells []string
}

// Table is the raw extraction output for one document: its rows in source
// order and a free-text blob used for document number and kind detection.
type Table struct {
	Rows []Row
	Text string
}

// CellGrid returns just the cell matrix, in row order.
func (t *Table) CellGrid() [][]string {
	grid := make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		grid[i] = r.Cells
	}
	return grid
}

// StockUpdate records the outcome of one stock mutation attempt on a line.
type StockUpdate struct {
	Delta    decimal.Decimal `json:"delta"`
	NewStock decimal.Decimal `json:"new_stock"`
	Mode     string          `json:"mode"`
	Status   string          `json:"status"`
}

// Update modes. Known-base sends an absolute stock value computed from the
// cached snapshot; delta-fallback sends the raw delta and leaves the
// arithmetic to the remote side.
const (
	ModeKnownBase     = "known_base"
	ModeDeltaFallback = "delta_fallback"
)

// Stock update statuses as written to the audit log.
const (
	StatusPatched = "patched"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// Line is one structured line item produced from a raw row. Numeric fields
// are NullDecimals: an unparseable cell leaves the field invalid ("absent")
// rather than zero. Columns always retains the untouched raw cells.
type Line struct {
	Page int
	Row  int

	Columns []string
	Raw     string

	Reference   string
	Description string
	Quantity    decimal.NullDecimal
	UnitPrice   decimal.NullDecimal
	LineTotal   decimal.NullDecimal
	TVA         string

	LookupID     string
	LookupStatus string
	LookupInfo   string
	InitialStock decimal.NullDecimal

	StockUpdate *StockUpdate
}

// HasReference reports whether the line carries a product reference.
func (l *Line) HasReference() bool {
	return strings.TrimSpace(l.Reference) != ""
}

// MutationTarget returns the identifier a stock mutation should address:
// the resolved lookup ID when present, otherwise the raw reference.
// It never fabricates an identifier.
func (l *Line) MutationTarget() string {
	if l.LookupID != "" {
		return l.LookupID
	}
	return l.Reference
}

// Document bundles everything known about one parsed document.
type Document struct {
	Kind   Kind
	Number string
	Source string
	Table  *Table
	Lines  []*Line
}

// ReasonOrDefault returns the mutation reason for this document: its
// extracted number when present, otherwise the supplied fallback.
func (d *Document) ReasonOrDefault(fallback string) string {
	if d.Number != "" {
		return d.Number
	}
	return fallback
}

// Summary renders a short human-readable description for logs.
func (d *Document) Summary() string {
	return fmt.Sprintf("%s %s: %d lines", d.Kind.Label(), d.Number, len(d.Lines))
}
