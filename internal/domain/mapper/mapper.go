// Package mapper converts classified table rows into structured document
// lines. Column roles come from the classifier and are applied per cell;
// the raw cell strings always survive untouched in the line's Columns copy.
package mapper

import (
	"regexp"
	"strings"

	"github.com/facturio/stocksync/internal/domain/classify"
	"github.com/facturio/stocksync/internal/domain/document"
	"github.com/facturio/stocksync/pkg/numeral"
)

// percentPattern matches VAT-rate tokens such as "20%" or "5,50%".
var percentPattern = regexp.MustCompile(`^\d+(?:[.,]\d+)?%$`)

var spaceRun = regexp.MustCompile(`\s+`)

// Config controls row filtering and classification.
type Config struct {
	MinNonEmptyCells int              // Rows with fewer non-empty cells are dropped (default: 1)
	Classify         classify.Options // Thresholds forwarded to the column classifier
}

// DefaultConfig returns the mapper defaults.
func DefaultConfig() Config {
	return Config{
		MinNonEmptyCells: 1,
		Classify:         classify.DefaultOptions(),
	}
}

// Result carries the mapped lines plus the column assignment they were
// derived from and row-level counters.
type Result struct {
	Lines       []*document.Line
	Assignment  *classify.Assignment
	TotalRows   int
	MappedRows  int
	SkippedRows int
}

// Mapper maps table rows to lines using a single table-wide column
// assignment.
type Mapper struct {
	cfg Config
}

// New creates a mapper with default configuration.
func New() *Mapper {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a mapper with a custom configuration.
func NewWithConfig(cfg Config) *Mapper {
	if cfg.MinNonEmptyCells < 1 {
		cfg.MinNonEmptyCells = 1
	}
	if cfg.Classify.NumericThreshold <= 0 {
		cfg.Classify = classify.DefaultOptions()
	}
	return &Mapper{cfg: cfg}
}

// MapTable classifies the table's columns once, then maps every row in
// source order. Rows below the minimum non-empty cell count are skipped.
// Row numbers restart at 1 on each page and count emitted lines only.
func (m *Mapper) MapTable(t *document.Table) *Result {
	res := &Result{}
	if t == nil || len(t.Rows) == 0 {
		res.Assignment = classify.ClassifyWithOptions(nil, m.cfg.Classify)
		return res
	}

	res.Assignment = classify.ClassifyWithOptions(t.CellGrid(), m.cfg.Classify)
	res.TotalRows = len(t.Rows)

	page := 0
	rowNum := 0
	for _, row := range t.Rows {
		if row.Page != page {
			page = row.Page
			rowNum = 0
		}
		if countNonEmpty(row.Cells) < m.cfg.MinNonEmptyCells {
			res.SkippedRows++
			continue
		}
		rowNum++
		res.Lines = append(res.Lines, m.mapRow(row, rowNum, res.Assignment))
		res.MappedRows++
	}
	return res
}

// mapRow applies the column assignment to a single row. Numeric cells that
// fail to parse leave the field absent; nothing here returns an error.
func (m *Mapper) mapRow(row document.Row, rowNum int, a *classify.Assignment) *document.Line {
	line := &document.Line{
		Page:    row.Page,
		Row:     rowNum,
		Columns: append([]string(nil), row.Cells...),
		Raw:     joinCells(row.Cells),
	}

	var leftovers []string
	for i, cell := range row.Cells {
		trimmed := strings.TrimSpace(cell)
		if trimmed == "" {
			continue
		}
		switch a.RoleAt(i) {
		case classify.RoleReference:
			line.Reference = trimmed
		case classify.RoleDescription:
			line.Description = CleanDescription(trimmed)
		case classify.RoleQuantity:
			line.Quantity = numeral.ParseNull(trimmed)
		case classify.RoleUnitPrice:
			line.UnitPrice = numeral.ParseNull(trimmed)
		case classify.RoleLineTotal:
			line.LineTotal = numeral.ParseNull(trimmed)
		default:
			if line.TVA == "" && percentPattern.MatchString(trimmed) {
				line.TVA = trimmed
				continue
			}
			leftovers = append(leftovers, trimmed)
		}
	}

	// No description column anywhere in the table: fall back to the row's
	// unclassified text so the line still says what it is.
	if a.IndexOf(classify.RoleDescription) < 0 && line.Description == "" {
		if len(leftovers) > 0 {
			line.Description = CleanDescription(strings.Join(leftovers, " "))
		} else if first := firstNonEmpty(row.Cells); first != "" {
			line.Description = CleanDescription(first)
		}
	}
	return line
}

// CleanDescription collapses runs of whitespace into single spaces and trims
// the ends. Cell content is otherwise preserved as-is.
func CleanDescription(raw string) string {
	return strings.TrimSpace(spaceRun.ReplaceAllString(raw, " "))
}

func countNonEmpty(cells []string) int {
	n := 0
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			n++
		}
	}
	return n
}

func firstNonEmpty(cells []string) string {
	for _, c := range cells {
		if t := strings.TrimSpace(c); t != "" {
			return t
		}
	}
	return ""
}

func joinCells(cells []string) string {
	parts := make([]string, 0, len(cells))
	for _, c := range cells {
		if t := strings.TrimSpace(c); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}
