package ingest

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"

	"github.com/facturio/stocksync/internal/domain/document"
)

// Visual geometry thresholds, in PDF points. Fragments whose baselines sit
// within rowTolerance of each other form one visual row; inside a row, a
// horizontal gap wider than cellGap starts a new cell and anything above
// wordGap is a word break.
const (
	rowTolerance = 2.0
	wordGap      = 1.0
	cellGap      = 7.5
)

// DecodePDF extracts positioned text from every page and rebuilds the visual
// table: fragments grouped into baseline rows, cells split on horizontal gaps.
// Rows without a single digit are wrapped description overflow and merge into
// the longest cell of the preceding item row on the same page.
func DecodePDF(data []byte) (*document.Table, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	table := &document.Table{}
	var blob strings.Builder
	for pageNum := 1; pageNum <= r.NumPage(); pageNum++ {
		page := r.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		appendPage(table, &blob, pageNum, page.Content().Text)
	}
	table.Text = blob.String()
	return table, nil
}

// appendPage converts one page's text fragments into table rows. Noise rows
// (headers, totals blocks) break the continuation chain so overflow text never
// leaks across them.
func appendPage(table *document.Table, blob *strings.Builder, pageNum int, texts []pdf.Text) {
	lastItem := -1
	for _, vr := range groupIntoRows(texts) {
		cells := splitCells(vr.frags)
		if len(cells) == 0 {
			continue
		}
		text := strings.Join(cells, " ")
		blob.WriteString(text)
		blob.WriteByte('\n')

		switch {
		case document.IsNoiseText(text):
			table.Rows = append(table.Rows, document.Row{Page: pageNum, Cells: cells})
			lastItem = -1
		case !containsDigit(text) && lastItem >= 0:
			mergeIntoLongestCell(&table.Rows[lastItem], text)
		default:
			table.Rows = append(table.Rows, document.Row{Page: pageNum, Cells: cells})
			if containsDigit(text) {
				lastItem = len(table.Rows) - 1
			}
		}
	}
}

type visualRow struct {
	y     float64
	frags []pdf.Text
}

// groupIntoRows buckets fragments by baseline, then orders rows top to bottom
// and each row's fragments left to right. PDF y grows upward.
func groupIntoRows(texts []pdf.Text) []visualRow {
	var rows []visualRow
	for _, t := range texts {
		if strings.TrimSpace(t.S) == "" {
			continue
		}
		placed := false
		for i := range rows {
			if math.Abs(rows[i].y-t.Y) < rowTolerance {
				rows[i].frags = append(rows[i].frags, t)
				placed = true
				break
			}
		}
		if !placed {
			rows = append(rows, visualRow{y: t.Y, frags: []pdf.Text{t}})
		}
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].y > rows[j].y })
	for i := range rows {
		frags := rows[i].frags
		sort.SliceStable(frags, func(a, b int) bool { return frags[a].X < frags[b].X })
	}
	return rows
}

// splitCells walks a row's fragments left to right and cuts cells on wide
// horizontal gaps.
func splitCells(frags []pdf.Text) []string {
	var cells []string
	var cur strings.Builder
	flush := func() {
		if c := CleanCell(cur.String()); c != "" {
			cells = append(cells, c)
		}
		cur.Reset()
	}

	lastEnd := 0.0
	for i, f := range frags {
		if i > 0 {
			gap := f.X - lastEnd
			switch {
			case gap > cellGap:
				flush()
			case gap > wordGap:
				cur.WriteByte(' ')
			}
		}
		cur.WriteString(f.S)
		end := f.X + f.W
		if end < f.X {
			end = f.X
		}
		lastEnd = end
	}
	flush()
	return cells
}

func mergeIntoLongestCell(row *document.Row, text string) {
	longest := 0
	for i, c := range row.Cells {
		if len(c) > len(row.Cells[longest]) {
			longest = i
		}
	}
	row.Cells[longest] += " " + text
}

func containsDigit(s string) bool {
	return strings.ContainsFunc(s, unicode.IsDigit)
}
