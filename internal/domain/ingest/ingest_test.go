package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestDecode_DispatchesByExtension(t *testing.T) {
	table, err := Decode("facture.csv", []byte("REF_001;Chaise;4\n"))
	require.NoError(t, err)
	assert.Len(t, table.Rows, 1)

	xlsx := workbookBytes(t, func(f *excelize.File) {
		require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"REF_001", "Chaise", "4"}))
	})
	table, err = Decode("facture.xlsx", xlsx)
	require.NoError(t, err)
	assert.Len(t, table.Rows, 1)

	_, err = Decode("facture.pdf", []byte("not a pdf"))
	assert.Error(t, err)
}

func TestDecode_SniffsContentWithoutExtension(t *testing.T) {
	xlsx := workbookBytes(t, func(f *excelize.File) {
		require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"REF_001", "Chaise", "4"}))
	})
	table, err := Decode("upload.bin", xlsx)
	require.NoError(t, err)
	assert.Len(t, table.Rows, 1)

	table, err = Decode("upload", []byte("REF_001;Chaise;4\n"))
	require.NoError(t, err)
	assert.Len(t, table.Rows, 1)

	_, err = Decode("upload.dat", []byte("%PDF-1.4 nonsense"))
	assert.ErrorContains(t, err, "open pdf")
}

func TestDecode_RejectsUnknownBinary(t *testing.T) {
	_, err := Decode("upload.bin", []byte{0xff, 0xfe, 0x00, 0x01})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestDecodeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "facture.csv")
	require.NoError(t, os.WriteFile(path, []byte("REF_001;Chaise;4\n"), 0o644))

	table, err := DecodeFile(path)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)

	_, err = DecodeFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestCleanCell(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  Chaise   pliante  ", "Chaise pliante"},
		{"1 234,56", "1 234,56"},
		{"ligne\navec\tretours", "ligne avec retours"},
		{" 42 ", "42"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanCell(tt.in), "input %q", tt.in)
	}
}
