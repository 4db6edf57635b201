// Package export renders mapped document lines as JSON, NDJSON and CSV.
// The JSON record shape is the API body contract: every record carries the
// page/row position, the untouched raw cells and a structured payload.
package export

import (
	"encoding/json"
	"io"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"github.com/facturio/stocksync/internal/domain/document"
)

// Options controls which diagnostic fields make it into the payload.
type Options struct {
	// VerboseLookups includes lookup_status and lookup_info on each payload.
	VerboseLookups bool
}

// Column is one raw cell with its position in the source row.
type Column struct {
	Index int    `json:"index"`
	Value string `json:"value"`
}

// Payload is the structured part of a record. The six base fields are always
// emitted, with null for absent numerics; the rest appear only when set.
type Payload struct {
	Reference   string              `json:"reference"`
	Description string              `json:"description"`
	Quantity    decimal.NullDecimal `json:"quantity"`
	UnitPrice   decimal.NullDecimal `json:"unit_price"`
	LineTotal   decimal.NullDecimal `json:"line_total"`
	TVA         *string             `json:"tva"`

	LookupID      string                `json:"lookup_id,omitempty"`
	LookupStatus  string                `json:"lookup_status,omitempty"`
	LookupInfo    string                `json:"lookup_info,omitempty"`
	InitialStock  *decimal.Decimal      `json:"initial_stock,omitempty"`
	StockUpdate   *document.StockUpdate `json:"stock_update,omitempty"`
	InvoiceNumber string                `json:"invoice_number,omitempty"`
}

// Record is one exported line.
type Record struct {
	Page    int      `json:"page"`
	Row     int      `json:"row"`
	Columns []Column `json:"columns"`
	Payload Payload  `json:"payload"`
	Raw     string   `json:"raw"`
}

// Records converts a document's lines into export records.
func Records(doc *document.Document, opts Options) []Record {
	records := make([]Record, 0, len(doc.Lines))
	for _, line := range doc.Lines {
		records = append(records, newRecord(line, doc.Number, opts))
	}
	return records
}

func newRecord(line *document.Line, number string, opts Options) Record {
	cols := make([]Column, len(line.Columns))
	for i, v := range line.Columns {
		cols[i] = Column{Index: i, Value: v}
	}

	p := Payload{
		Reference:   line.Reference,
		Description: line.Description,
		Quantity:    line.Quantity,
		UnitPrice:   line.UnitPrice,
		LineTotal:   line.LineTotal,
		LookupID:    line.LookupID,
	}
	if line.TVA != "" {
		tva := line.TVA
		p.TVA = &tva
	}
	if opts.VerboseLookups {
		p.LookupStatus = line.LookupStatus
		p.LookupInfo = line.LookupInfo
	}
	if line.InitialStock.Valid {
		initial := line.InitialStock.Decimal
		p.InitialStock = &initial
	}
	if line.StockUpdate != nil {
		p.StockUpdate = line.StockUpdate
		// The document number rides along only once a mutation was attempted,
		// so parse-only output stays free of reconciliation fields.
		p.InvoiceNumber = number
	}

	return Record{
		Page:    line.Page,
		Row:     line.Row,
		Columns: cols,
		Payload: p,
		Raw:     line.Raw,
	}
}

// WriteJSON writes the records as one indented JSON array.
func WriteJSON(w io.Writer, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// WriteNDJSON writes one compact JSON object per line.
func WriteNDJSON(w io.Writer, records []Record) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}

// csvLine is the flat CSV projection of a record. Numeric fields are
// pre-rendered so absent values come out as empty cells rather than zeros.
type csvLine struct {
	Page        int    `csv:"page"`
	Row         int    `csv:"row"`
	Reference   string `csv:"reference"`
	Description string `csv:"description"`
	Quantity    string `csv:"quantity"`
	UnitPrice   string `csv:"unit_price"`
	LineTotal   string `csv:"line_total"`
	TVA         string `csv:"tva"`
	LookupID    string `csv:"lookup_id"`
}

// WriteCSV writes the records as CSV with a fixed header row. An empty record
// set still produces the header.
func WriteCSV(w io.Writer, records []Record) error {
	rows := make([]csvLine, 0, len(records))
	for _, r := range records {
		rows = append(rows, csvLine{
			Page:        r.Page,
			Row:         r.Row,
			Reference:   r.Payload.Reference,
			Description: r.Payload.Description,
			Quantity:    decimalCell(r.Payload.Quantity),
			UnitPrice:   decimalCell(r.Payload.UnitPrice),
			LineTotal:   decimalCell(r.Payload.LineTotal),
			TVA:         stringCell(r.Payload.TVA),
			LookupID:    r.Payload.LookupID,
		})
	}
	return gocsv.Marshal(&rows, w)
}

func decimalCell(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

func stringCell(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
