package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func workbookBytes(t *testing.T, build func(f *excelize.File)) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	build(f)
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestDecodeExcel_FirstSheet(t *testing.T) {
	data := workbookBytes(t, func(f *excelize.File) {
		require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"REF_001", "Chaise pliante bois", "4", "12,50", "50,00"}))
		require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"REF_002", "Table basse chene", "2", "45,00", "90,00"}))
	})

	table, err := DecodeExcel(data)
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"REF_001", "Chaise pliante bois", "4", "12,50", "50,00"}, table.Rows[0].Cells)
	assert.Equal(t, 1, table.Rows[0].Page)
	assert.Contains(t, table.Text, "REF_002 Table basse chene")
}

func TestDecodeExcel_IgnoresSecondarySheets(t *testing.T) {
	data := workbookBytes(t, func(f *excelize.File) {
		require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"REF_001", "Chaise", "4"}))
		_, err := f.NewSheet("Annexe")
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Annexe", "A1", &[]any{"IGNORED", "row"}))
	})

	table, err := DecodeExcel(data)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "REF_001", table.Rows[0].Cells[0])
}

func TestDecodeExcel_SkipsEmptyRows(t *testing.T) {
	data := workbookBytes(t, func(f *excelize.File) {
		require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"REF_001", "Chaise", "4"}))
		// Row 2 left blank.
		require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]any{"REF_002", "Table", "2"}))
	})

	table, err := DecodeExcel(data)
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "REF_002", table.Rows[1].Cells[0])
}

func TestDecodeExcel_NumericCellsComeBackAsText(t *testing.T) {
	data := workbookBytes(t, func(f *excelize.File) {
		require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"REF_001", "Chaise", 4}))
	})

	table, err := DecodeExcel(data)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "4", table.Rows[0].Cells[2])
}

func TestDecodeExcel_Garbage(t *testing.T) {
	_, err := DecodeExcel([]byte("definitely not a zip archive"))
	assert.Error(t, err)
}
