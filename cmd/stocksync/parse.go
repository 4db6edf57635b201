package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/facturio/stocksync/internal/domain/document"
	"github.com/facturio/stocksync/internal/domain/export"
	"github.com/facturio/stocksync/internal/domain/lookup"
	"github.com/facturio/stocksync/internal/domain/mapper"
	pipelineservice "github.com/facturio/stocksync/internal/domain/pipeline/service"
	"github.com/facturio/stocksync/internal/domain/reconcile"
	"github.com/facturio/stocksync/pkg/money"
	"github.com/facturio/stocksync/pkg/notify"
)

var (
	templateType    string
	jsonPath        string
	ndjsonPath      string
	csvPath         string
	updateStock     bool
	updateReason    string
	refreshProducts bool
	verboseLookups  bool
)

var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Parse a document into line items, resolve them and optionally update stock",
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

func init() {
	parseCmd.Flags().StringVar(&templateType, "template-type", "",
		`document kind, "facture" or "avoir" (default: detect from the document text)`)
	parseCmd.Flags().StringVar(&jsonPath, "json", "",
		"write records as a JSON array to this path (default gen/<name>.json)")
	parseCmd.Flags().StringVar(&ndjsonPath, "ndjson", "",
		"write records as NDJSON to this path")
	parseCmd.Flags().StringVar(&csvPath, "csv", "",
		"write records as CSV to this path")
	parseCmd.Flags().BoolVar(&updateStock, "update-stock", false,
		"apply stock deltas to the remote product API")
	parseCmd.Flags().StringVar(&updateReason, "update-reason", "",
		"override the stock mutation reason sent with each update")
	parseCmd.Flags().BoolVar(&refreshProducts, "refresh-products", false,
		"refresh the product snapshot before parsing")
	parseCmd.Flags().BoolVar(&verboseLookups, "verbose-lookups", false,
		"include lookup status fields in exports and print per-line outcomes")
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	path := args[0]
	ctx := cmd.Context()

	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	if refreshProducts {
		if a.listing == nil {
			return errors.New("no products URL configured, set products_url or PRODUCTS_URL")
		}
		n, err := a.catalog.Refresh(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("product snapshot refreshed: %d products\n", n)
	}

	reason := updateReason
	if reason == "" {
		reason = a.cfg.Reconcile.UpdateReason
	}
	rec := reconcile.New(
		a.cfg.Endpoints.UpdateStockURL,
		reason,
		a.remote,
		reconcile.NewAuditLogger(a.cfg.Paths.AuditLog),
		a.logger,
	)
	lookups := lookup.NewClient(a.cfg.Endpoints.LookupURL, a.remote, a.logger)

	svc := pipelineservice.NewPipelineService(mapper.New(), lookups, a.catalog, rec, a.logger)
	if a.cfg.Notify.WebhookURL != "" {
		svc.WithNotifier(notify.New(a.cfg.Notify.WebhookURL, a.logger))
	}

	res, err := svc.ProcessFile(ctx, path, pipelineservice.Options{
		Kind:        templateType,
		UpdateStock: updateStock,
	})
	if err != nil {
		return err
	}

	doc := res.Document
	records := export.Records(doc, export.Options{VerboseLookups: verboseLookups})

	out := jsonPath
	if out == "" && ndjsonPath == "" && csvPath == "" {
		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		out = filepath.Join("gen", stem+".json")
	}
	if out != "" {
		if err := writeRecords(out, records, export.WriteJSON); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", out)
	}
	if ndjsonPath != "" {
		if err := writeRecords(ndjsonPath, records, export.WriteNDJSON); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", ndjsonPath)
	}
	if csvPath != "" {
		if err := writeRecords(csvPath, records, export.WriteCSV); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", csvPath)
	}

	printSummary(doc, res)
	if updateStock {
		fmt.Printf("audit log: %s\n", a.cfg.Paths.AuditLog)
	}
	return nil
}

func writeRecords(path string, records []export.Record, write func(io.Writer, []export.Record) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printSummary(doc *document.Document, res *pipelineservice.Result) {
	total := money.Zero()
	resolved := 0
	for _, line := range doc.Lines {
		if line.LineTotal.Valid {
			total = total.Add(money.FromDecimal(line.LineTotal.Decimal))
		}
		if line.LookupID != "" {
			resolved++
		}
	}

	fmt.Printf("parsed %s\n", doc.Summary())
	fmt.Printf("rows: %d mapped, %d skipped, %d resolved\n", res.MappedRows, res.SkippedRows, resolved)
	if !total.IsZero() {
		fmt.Printf("document total: %s\n", total.Display())
	}

	patched, failed, skipped := 0, 0, 0
	for _, line := range doc.Lines {
		if line.StockUpdate == nil {
			continue
		}
		switch line.StockUpdate.Status {
		case document.StatusPatched:
			patched++
		case document.StatusFailed:
			failed++
		default:
			skipped++
		}
	}
	if patched+failed+skipped > 0 {
		fmt.Printf("stock updates: %d patched, %d failed, %d skipped\n", patched, failed, skipped)
	}

	if verboseLookups {
		for _, line := range doc.Lines {
			detail := line.LookupID
			if detail == "" {
				detail = line.LookupInfo
			}
			fmt.Printf("  %-16s %-22s %s\n", line.Reference, line.LookupStatus, detail)
		}
	}
}
