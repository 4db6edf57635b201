package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/facturio/stocksync/internal/domain/document"
)

// DecodeExcel parses the first sheet of an XLSX workbook into a table.
func DecodeExcel(data []byte) (*document.Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}

	table := &document.Table{}
	var blob strings.Builder
	for _, record := range rows {
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
