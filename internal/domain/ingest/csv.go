package ingest

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/facturio/stocksync/internal/domain/document"
)

// Delimiters probed during sniffing.
var csvDelimiters = []rune{';', '\t', ',', '|'}

// DecodeCSV parses delimiter-separated text into a table. A zero delimiter
// triggers sniffing; a leading byte-order mark is stripped; rows may carry
// unequal cell counts. Malformed lines are skipped, not fatal.
func DecodeCSV(data []byte, delimiter rune) (*document.Table, error) {
	text := strings.TrimPrefix(string(data), "﻿")
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyDocument
	}
	if delimiter == 0 {
		delimiter = sniffDelimiter(text)
	}

	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delimiter
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	table := &document.Table{}
	var blob strings.Builder
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		cells, ok := cleanCells(record)
		if !ok {
			continue
		}
		table.Rows = append(table.Rows, document.Row{Page: 1, Cells: cells})
		blob.WriteString(rowText(cells))
		blob.WriteByte('\n')
	}
	table.Text = blob.String()
	return table, nil
}

// sniffDelimiter counts candidate delimiters on the first non-empty line and
// keeps the most frequent one. Single-column files fall back to a comma.
func sniffDelimiter(text string) rune {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		best, bestCount := ',', 0
		for _, d := range csvDelimiters {
			if n := strings.Count(line, string(d)); n > bestCount {
				best, bestCount = d, n
			}
		}
		return best
	}
	return ','
}
