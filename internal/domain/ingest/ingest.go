// Package ingest turns source documents into raw tables for classification.
// Supported formats: PDF (positioned text rebuilt into visual rows), CSV/TSV
// (delimiter sniffing) and XLSX workbooks. Ingestion stays deliberately dumb:
// noise filtering and column role assignment happen downstream on the Table.
package ingest

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/facturio/stocksync/internal/domain/document"
)

var (
	ErrEmptyDocument     = errors.New("ingest: document is empty")
	ErrUnsupportedFormat = errors.New("ingest: unsupported document format")
)

// Decode picks a decoder from the file name extension, falling back to
// content sniffing when the extension is unknown.
func Decode(name string, data []byte) (*document.Table, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return DecodePDF(data)
	case ".csv", ".tsv", ".txt":
		return DecodeCSV(data, 0)
	case ".xlsx", ".xlsm":
		return DecodeExcel(data)
	}

	switch {
	case bytes.HasPrefix(data, []byte("%PDF-")):
		return DecodePDF(data)
	case bytes.HasPrefix(data, []byte("PK\x03\x04")):
		return DecodeExcel(data)
	case utf8.Valid(data) && len(bytes.TrimSpace(data)) > 0:
		return DecodeCSV(data, 0)
	}
	return nil, ErrUnsupportedFormat
}

// DecodeFile reads a document from disk and decodes it.
func DecodeFile(path string) (*document.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(filepath.Base(path), data)
}

// Whitespace runs, non-breaking spaces included.
var spaceRun = regexp.MustCompile(`[\s\x{00a0}\x{202f}]+`)

// CleanCell collapses whitespace runs into single spaces and trims the result.
func CleanCell(s string) string {
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}

// cleanCells cleans every cell in place-preserving order. Internal empty cells
// survive so column positions stay aligned; the bool reports whether anything
// non-empty remains.
func cleanCells(cells []string) ([]string, bool) {
	out := make([]string, len(cells))
	nonEmpty := false
	for i, c := range cells {
		out[i] = CleanCell(c)
		if out[i] != "" {
			nonEmpty = true
		}
	}
	return out, nonEmpty
}

// rowText joins the non-empty cells of a row for the free-text blob.
func rowText(cells []string) string {
	parts := make([]string, 0, len(cells))
	for _, c := range cells {
		if c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, " ")
}
