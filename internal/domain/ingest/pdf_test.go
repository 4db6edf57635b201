package ingest

import (
	"strings"
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facturio/stocksync/internal/domain/document"
)

func frag(s string, x, y, w float64) pdf.Text {
	return pdf.Text{S: s, X: x, Y: y, W: w}
}

// itemFrags lays out one invoice row: reference, two description words, and
// three numeric columns separated by wide gutters.
func itemFrags(y float64) []pdf.Text {
	return []pdf.Text{
		frag("REF_001", 40, y, 38),
		frag("Chaise", 110, y, 30),
		frag("pliante", 142.5, y, 32),
		frag("4", 300, y, 5),
		frag("12,50", 360, y, 26),
		frag("50,00", 440, y, 26),
	}
}

func TestGroupIntoRows_BaselineTolerance(t *testing.T) {
	texts := []pdf.Text{
		frag("b", 60, 700.9, 5),
		frag("a", 40, 700.0, 5),
		frag("c", 40, 680.0, 5),
	}

	rows := groupIntoRows(texts)
	require.Len(t, rows, 2)
	assert.Equal(t, 700.9, rows[0].y, "higher y comes first")
	require.Len(t, rows[0].frags, 2)
	assert.Equal(t, "a", rows[0].frags[0].S, "fragments sorted left to right")
	assert.Equal(t, "b", rows[0].frags[1].S)
	assert.Equal(t, "c", rows[1].frags[0].S)
}

func TestGroupIntoRows_DropsWhitespaceFragments(t *testing.T) {
	texts := []pdf.Text{
		frag("a", 40, 700, 5),
		frag("   ", 50, 700, 5),
	}

	rows := groupIntoRows(texts)
	require.Len(t, rows, 1)
	assert.Len(t, rows[0].frags, 1)
}

func TestSplitCells_GapsSeparateCellsAndWords(t *testing.T) {
	cells := splitCells(itemFrags(700))
	assert.Equal(t, []string{"REF_001", "Chaise pliante", "4", "12,50", "50,00"}, cells)
}

func TestSplitCells_TightFragmentsConcatenate(t *testing.T) {
	// Per-glyph output: "42" emitted as two touching fragments.
	cells := splitCells([]pdf.Text{
		frag("4", 300, 700, 5.2),
		frag("2", 305.2, 700, 5.2),
	})
	assert.Equal(t, []string{"42"}, cells)
}

func TestSplitCells_Empty(t *testing.T) {
	assert.Empty(t, splitCells(nil))
}

func TestAppendPage_MergesDigitlessOverflowIntoDescription(t *testing.T) {
	texts := append(itemFrags(700),
		frag("pieds", 110, 688, 25),
		frag("renforcés", 137, 688, 45),
	)

	table := &document.Table{}
	var blob strings.Builder
	appendPage(table, &blob, 1, texts)

	require.Len(t, table.Rows, 1)
	assert.Equal(t, "Chaise pliante pieds renforcés", table.Rows[0].Cells[1])
	assert.Contains(t, blob.String(), "pieds renforcés\n", "overflow text still reaches the blob")
}

func TestAppendPage_NoiseRowsBreakTheMergeChain(t *testing.T) {
	texts := append(itemFrags(700),
		frag("Sous", 40, 688, 22),
		frag("Total", 64.5, 688, 24),
		frag("mention", 40, 676, 38),
		frag("légale", 80.5, 676, 30),
	)

	table := &document.Table{}
	var blob strings.Builder
	appendPage(table, &blob, 1, texts)

	require.Len(t, table.Rows, 3)
	assert.Equal(t, "Chaise pliante", table.Rows[0].Cells[1], "nothing merged into the item")
	assert.Equal(t, []string{"Sous Total"}, table.Rows[1].Cells)
	assert.Equal(t, []string{"mention légale"}, table.Rows[2].Cells)
}

func TestAppendPage_LeadingTextRowsStandAlone(t *testing.T) {
	texts := append([]pdf.Text{
		frag("Menuiserie", 40, 760, 52),
		frag("Dupont", 95, 760, 35),
	}, itemFrags(700)...)

	table := &document.Table{}
	var blob strings.Builder
	appendPage(table, &blob, 1, texts)

	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"Menuiserie Dupont"}, table.Rows[0].Cells)
	assert.Len(t, table.Rows[1].Cells, 5)
}

func TestAppendPage_RowNumbersCarryThePage(t *testing.T) {
	table := &document.Table{}
	var blob strings.Builder
	appendPage(table, &blob, 3, itemFrags(700))

	require.Len(t, table.Rows, 1)
	assert.Equal(t, 3, table.Rows[0].Page)
}

func TestDecodePDF_Garbage(t *testing.T) {
	_, err := DecodePDF([]byte("%PDF-1.4 truncated nonsense"))
	assert.Error(t, err)
}
