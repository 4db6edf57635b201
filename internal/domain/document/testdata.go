package document

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"
)

// TestDataGenerator builds synthetic documents for tests and demos using
// gofakeit.
type TestDataGenerator struct {
	faker *gofakeit.Faker
}

// NewTestDataGenerator creates a new generator with a random seed.
func NewTestDataGenerator() *TestDataGenerator {
	return &TestDataGenerator{faker: gofakeit.New(0)}
}

// NewTestDataGeneratorWithSeed creates a generator with a specific seed for
// reproducibility.
func NewTestDataGeneratorWithSeed(seed int64) *TestDataGenerator {
	return &TestDataGenerator{faker: gofakeit.New(seed)}
}

// TestLine is one generated document line.
type TestLine struct {
	Reference   string
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
}

// TestDocument is a generated document: a number plus its item lines.
type TestDocument struct {
	Kind   Kind
	Number string
	Lines  []TestLine
}

// Descriptions come from a fixed pool so generated rows never collide with
// the noise filter terms.
var testDescriptions = []string{
	"Chaise pliante",
	"Table basse",
	"Bureau ajustable",
	"Lampe de sol",
	"Etagere murale",
	"Tabouret de bar",
	"Fauteuil velours",
	"Caisson mobile",
}

// Invoice generates an invoice with n lines. References are sequential so a
// generated document never contains duplicates.
func (g *TestDataGenerator) Invoice(n int) TestDocument {
	doc := TestDocument{
		Kind:   KindInvoice,
		Number: "FAC_2024_" + g.faker.DigitN(4),
		Lines:  make([]TestLine, 0, n),
	}
	for i := 0; i < n; i++ {
		qty := g.faker.Number(1, 20)
		unit := decimal.NewFromFloat(g.faker.Price(5, 500)).Round(2)
		doc.Lines = append(doc.Lines, TestLine{
			Reference:   fmt.Sprintf("REF_%03d", i+1),
			Description: testDescriptions[g.faker.Number(0, len(testDescriptions)-1)],
			Quantity:    qty,
			UnitPrice:   unit,
			LineTotal:   unit.Mul(decimal.NewFromInt(int64(qty))),
		})
	}
	return doc
}

// CreditNote generates a credit note with n lines.
func (g *TestDataGenerator) CreditNote(n int) TestDocument {
	doc := g.Invoice(n)
	doc.Kind = KindCreditNote
	doc.Number = "AV_2024_" + g.faker.DigitN(4)
	return doc
}

// Total sums the generated line totals.
func (d TestDocument) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range d.Lines {
		total = total.Add(l.LineTotal)
	}
	return total
}

// Rows renders the item rows as raw table rows on a single page, amounts in
// French notation.
func (d TestDocument) Rows() []Row {
	rows := make([]Row, 0, len(d.Lines))
	for _, l := range d.Lines {
		rows = append(rows, Row{Page: 1, Cells: []string{
			l.Reference,
			l.Description,
			strconv.Itoa(l.Quantity),
			frenchAmount(l.UnitPrice),
			frenchAmount(l.LineTotal),
		}})
	}
	return rows
}

// CSV renders the document as a semicolon-separated export: title row first,
// item rows, then a totals footer, mirroring the layout of real exports.
func (d TestDocument) CSV() []byte {
	var b bytes.Buffer
	title := "Facture"
	if d.Kind == KindCreditNote {
		title = "Avoir"
	}
	fmt.Fprintf(&b, "%s N° %s;;;;\n", title, d.Number)
	for _, l := range d.Lines {
		fmt.Fprintf(&b, "%s;%s;%d;%s;%s\n",
			l.Reference, l.Description, l.Quantity,
			frenchAmount(l.UnitPrice), frenchAmount(l.LineTotal))
	}
	fmt.Fprintf(&b, "Sous Total;;;;%s\n", frenchAmount(d.Total()))
	return b.Bytes()
}

// frenchAmount renders a decimal with a comma separator, as French exports do.
func frenchAmount(d decimal.Decimal) string {
	return strings.ReplaceAll(d.StringFixed(2), ".", ",")
}
