// Package classify infers the semantic role of each column in a raw table.
// Roles are assigned once per table from whole-column statistics, never per
// row, so identical input always produces identical assignments.
package classify

import (
	"regexp"
	"strings"

	"github.com/facturio/stocksync/pkg/numeral"
)

// Role is the semantic meaning assigned to one table column.
type Role int

const (
	RoleUnknown Role = iota
	RoleDescription
	RoleQuantity
	RoleUnitPrice
	RoleLineTotal
	RoleReference
)

// String returns the snake_case role name used in diagnostics and exports.
func (r Role) String() string {
	switch r {
	case RoleDescription:
		return "description"
	case RoleQuantity:
		return "quantity"
	case RoleUnitPrice:
		return "unit_price"
	case RoleLineTotal:
		return "line_total"
	case RoleReference:
		return "reference"
	default:
		return "unknown"
	}
}

// ColumnStats aggregates per-column signals across every row of the table.
// Fractions are computed over non-empty cells only: a missing cell in a
// ragged row is no evidence about the column's meaning.
type ColumnStats struct {
	Index         int     // Column position, 0-based
	Samples       int     // Non-empty cells seen
	NumericFrac   float64 // Fraction of samples parsing as numbers
	ReferenceFrac float64 // Fraction of samples shaped like product codes
	AvgTextLen    float64 // Mean rune length of samples
}

// Assignment maps every column index to exactly one role. The roles slice is
// total: columns that fit nothing are RoleUnknown, never omitted.
type Assignment struct {
	Roles []Role
	Stats []ColumnStats
}

// IndexOf returns the column index holding the role, or -1 when the role is
// absent from the table.
func (a *Assignment) IndexOf(role Role) int {
	for i, r := range a.Roles {
		if r == role {
			return i
		}
	}
	return -1
}

// RoleAt returns the role of a column, RoleUnknown for out-of-range indices.
func (a *Assignment) RoleAt(idx int) Role {
	if idx < 0 || idx >= len(a.Roles) {
		return RoleUnknown
	}
	return a.Roles[idx]
}

// HasNumericRoles reports whether any of quantity/unit_price/line_total was
// assigned, i.e. whether the table cleared the numeric confidence threshold.
func (a *Assignment) HasNumericRoles() bool {
	return a.IndexOf(RoleQuantity) >= 0 || a.IndexOf(RoleUnitPrice) >= 0 || a.IndexOf(RoleLineTotal) >= 0
}

// Options tunes the classification thresholds.
type Options struct {
	// NumericThreshold is the minimum numeric-parse fraction for a column to
	// join the numeric block. Below it, quantity/unit_price/line_total stay
	// absent for the whole document rather than being guessed.
	NumericThreshold float64
	// ReferenceThreshold is the minimum reference-pattern fraction for a
	// column to be eligible as the reference column.
	ReferenceThreshold float64
}

// DefaultOptions returns the thresholds used in production.
func DefaultOptions() Options {
	return Options{
		NumericThreshold:   0.6,
		ReferenceThreshold: 0.6,
	}
}

// Product codes: alphanumeric tokens carrying at least one digit and no
// decimal separator ("REF_001", "A-404/B"). Pure numbers are excluded by the
// numeric check, not by this pattern.
var referencePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_/-]*$`)

// Classify assigns a role to every column of the table using DefaultOptions.
func Classify(rows [][]string) *Assignment {
	return ClassifyWithOptions(rows, DefaultOptions())
}

// ClassifyWithOptions assigns a role to every column of the table.
//
// The numeric block (columns whose numeric fraction clears the threshold) is
// ordered left to right: leftmost is quantity, rightmost is line_total, the
// first middle column is unit_price. Two numeric columns mean unit_price is
// absent; one means only quantity. The reference column is the strongest
// code-shaped column outside the numeric block, the description column the
// longest-text column of whatever remains. All ties go to the earlier column.
func ClassifyWithOptions(rows [][]string, opts Options) *Assignment {
	stats := collectStats(rows)
	roles := make([]Role, len(stats))

	// Numeric block, in column order.
	var numeric []int
	for _, st := range stats {
		if st.Samples > 0 && st.NumericFrac >= opts.NumericThreshold {
			numeric = append(numeric, st.Index)
		}
	}
	switch len(numeric) {
	case 0:
		// Degraded: no column is confidently numeric, invent nothing.
	case 1:
		roles[numeric[0]] = RoleQuantity
	case 2:
		roles[numeric[0]] = RoleQuantity
		roles[numeric[1]] = RoleLineTotal
	default:
		roles[numeric[0]] = RoleQuantity
		roles[numeric[1]] = RoleUnitPrice
		roles[numeric[len(numeric)-1]] = RoleLineTotal
	}

	// Reference: best code-shaped column outside the numeric block.
	refIdx := -1
	for _, st := range stats {
		if roles[st.Index] != RoleUnknown || st.Samples == 0 {
			continue
		}
		if st.NumericFrac >= opts.NumericThreshold || st.ReferenceFrac < opts.ReferenceThreshold {
			continue
		}
		if refIdx == -1 || st.ReferenceFrac > stats[refIdx].ReferenceFrac {
			refIdx = st.Index
		}
	}
	if refIdx >= 0 {
		roles[refIdx] = RoleReference
	}

	// Description: longest remaining text column.
	descIdx := -1
	for _, st := range stats {
		if roles[st.Index] != RoleUnknown || st.Samples == 0 || st.AvgTextLen <= 0 {
			continue
		}
		if descIdx == -1 || st.AvgTextLen > stats[descIdx].AvgTextLen {
			descIdx = st.Index
		}
	}
	if descIdx >= 0 {
		roles[descIdx] = RoleDescription
	}

	return &Assignment{Roles: roles, Stats: stats}
}

// collectStats walks the table once and aggregates the per-column signals.
func collectStats(rows [][]string) []ColumnStats {
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	stats := make([]ColumnStats, width)
	for i := range stats {
		stats[i].Index = i
	}

	type acc struct {
		numeric int
		refLike int
		runes   int
	}
	accs := make([]acc, width)

	for _, row := range rows {
		for j, cell := range row {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			stats[j].Samples++
			accs[j].runes += len([]rune(cell))
			if numeral.IsNumeric(cell) {
				accs[j].numeric++
				continue
			}
			if looksLikeReference(cell) {
				accs[j].refLike++
			}
		}
	}

	for j := range stats {
		if stats[j].Samples == 0 {
			continue
		}
		n := float64(stats[j].Samples)
		stats[j].NumericFrac = float64(accs[j].numeric) / n
		stats[j].ReferenceFrac = float64(accs[j].refLike) / n
		stats[j].AvgTextLen = float64(accs[j].runes) / n
	}
	return stats
}

// looksLikeReference reports whether a cell is shaped like a product code.
func looksLikeReference(cell string) bool {
	if len(cell) > 32 || !referencePattern.MatchString(cell) {
		return false
	}
	return strings.ContainsAny(cell, "0123456789")
}
