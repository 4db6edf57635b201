package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facturio/stocksync/internal/domain/document"
)

func TestDecodeCSV_SniffsSemicolon(t *testing.T) {
	data := []byte("REF_001;Chaise pliante bois;4;12,50;50,00\nREF_002;Table basse chene;2;45,00;90,00\n")

	table, err := DecodeCSV(data, 0)
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"REF_001", "Chaise pliante bois", "4", "12,50", "50,00"}, table.Rows[0].Cells)
	assert.Equal(t, 1, table.Rows[0].Page)
	assert.Contains(t, table.Text, "REF_002 Table basse chene")
}

func TestDecodeCSV_SniffsTab(t *testing.T) {
	data := []byte("REF_001\tChaise pliante\t4\nREF_002\tTable basse\t2\n")

	table, err := DecodeCSV(data, 0)
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"REF_001", "Chaise pliante", "4"}, table.Rows[0].Cells)
}

func TestDecodeCSV_SniffsPipe(t *testing.T) {
	data := []byte("REF_001|Chaise pliante|4|12,50|50,00\n")

	table, err := DecodeCSV(data, 0)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Len(t, table.Rows[0].Cells, 5)
}

func TestDecodeCSV_StripsByteOrderMark(t *testing.T) {
	data := []byte("﻿REF_001;Chaise;4\n")

	table, err := DecodeCSV(data, 0)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "REF_001", table.Rows[0].Cells[0])
}

func TestDecodeCSV_RaggedRowsSurvive(t *testing.T) {
	data := []byte("REF_001;Chaise pliante;4;12,50;50,00\nREF_002;Tabouret\n")

	table, err := DecodeCSV(data, 0)
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)
	assert.Len(t, table.Rows[0].Cells, 5)
	assert.Len(t, table.Rows[1].Cells, 2)
}

func TestDecodeCSV_InternalEmptyCellsKeepPositions(t *testing.T) {
	data := []byte("REF_001;;4;;50,00\n")

	table, err := DecodeCSV(data, 0)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, []string{"REF_001", "", "4", "", "50,00"}, table.Rows[0].Cells)
	assert.Contains(t, table.Text, "REF_001 4 50,00")
}

func TestDecodeCSV_DelimiterOverride(t *testing.T) {
	// Commas inside the description would win the sniff; the caller knows better.
	data := []byte("REF_001;Chaise, pliante, bois, rustique;4\n")

	table, err := DecodeCSV(data, ';')
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "Chaise, pliante, bois, rustique", table.Rows[0].Cells[1])
}

func TestDecodeCSV_QuotedCellsKeepDelimiter(t *testing.T) {
	data := []byte("REF_001;\"Chaise; pliante\";4\n")

	table, err := DecodeCSV(data, 0)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "Chaise; pliante", table.Rows[0].Cells[1])
}

func TestDecodeCSV_SkipsBlankRows(t *testing.T) {
	data := []byte("REF_001;Chaise;4\n;;\n\nREF_002;Table;2\n")

	table, err := DecodeCSV(data, 0)
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)
}

func TestDecodeCSV_NormalizesNonBreakingSpaces(t *testing.T) {
	data := []byte("REF_001;1 234,56\n")

	table, err := DecodeCSV(data, 0)
	require.NoError(t, err)
	assert.Equal(t, "1 234,56", table.Rows[0].Cells[1])
}

func TestDecodeCSV_Empty(t *testing.T) {
	_, err := DecodeCSV(nil, 0)
	assert.ErrorIs(t, err, ErrEmptyDocument)

	_, err = DecodeCSV([]byte("   \n  \n"), 0)
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestDecodeCSV_GeneratedDocumentRoundTrip(t *testing.T) {
	gen := document.NewTestDataGeneratorWithSeed(3)
	doc := gen.Invoice(12)

	table, err := DecodeCSV(doc.CSV(), 0)
	require.NoError(t, err)

	// Title row, twelve item rows, totals footer. Noise stripping is the
	// filter's job, not the decoder's.
	require.Len(t, table.Rows, 14)
	assert.Contains(t, table.Text, doc.Number)

	firstItem := table.Rows[1].Cells
	require.Len(t, firstItem, 5)
	assert.Equal(t, "REF_001", firstItem[0])
	assert.Equal(t, doc.Lines[0].Description, firstItem[1])
}

func TestSniffDelimiter(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want rune
	}{
		{"semicolon", "a;b;c\n", ';'},
		{"tab", "a\tb\tc\n", '\t'},
		{"comma", "a,b,c\n", ','},
		{"pipe", "a|b|c\n", '|'},
		{"semicolon beats single comma", "a;b;c,d\n", ';'},
		{"single column falls back to comma", "justonecell\n", ','},
		{"skips leading blank lines", "\n\na;b\n", ';'},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sniffDelimiter(tt.in))
		})
	}
}
