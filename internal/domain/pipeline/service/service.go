// Package service provides the document pipeline orchestration logic:
// decode a source file into a raw table, detect kind and number, strip
// noise rows, map the rest to structured lines, resolve references against
// the catalog and the lookup endpoint, and optionally reconcile stock.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/facturio/stocksync/internal/domain/catalog"
	"github.com/facturio/stocksync/internal/domain/document"
	"github.com/facturio/stocksync/internal/domain/ingest"
	"github.com/facturio/stocksync/internal/domain/lookup"
	"github.com/facturio/stocksync/internal/domain/mapper"
	"github.com/facturio/stocksync/internal/domain/reconcile"
	"github.com/facturio/stocksync/pkg/metrics"
	"github.com/facturio/stocksync/pkg/notify"
)

var tracer = otel.Tracer("github.com/facturio/stocksync/internal/domain/pipeline/service")

// Options control a single pipeline run.
type Options struct {
	// Kind forces the document kind ("facture", "avoir", "invoice",
	// "credit_note"). Empty means detect it from the document text.
	Kind string

	// UpdateStock applies the computed deltas to the remote product API.
	UpdateStock bool
}

// Result carries the processed document plus row-level counters from the
// mapping stage.
type Result struct {
	Document    *document.Document
	TotalRows   int
	MappedRows  int
	SkippedRows int
}

// PipelineService runs the end-to-end document pipeline.
type PipelineService struct {
	mapper     *mapper.Mapper
	lookups    *lookup.Client
	catalog    *catalog.Catalog
	reconciler *reconcile.Reconciler
	notifier   *notify.Notifier
	logger     *slog.Logger
}

// NewPipelineService creates the orchestrator. The catalog may be empty but
// never nil; the reconciler is only exercised when Options.UpdateStock is
// set on a run.
func NewPipelineService(m *mapper.Mapper, lc *lookup.Client, cat *catalog.Catalog, rec *reconcile.Reconciler, logger *slog.Logger) *PipelineService {
	return &PipelineService{
		mapper:     m,
		lookups:    lc,
		catalog:    cat,
		reconciler: rec,
		logger:     logger,
	}
}

// WithNotifier adds webhook notifications for finished reconciliation runs.
func (s *PipelineService) WithNotifier(n *notify.Notifier) *PipelineService {
	s.notifier = n
	return s
}

// Process runs the pipeline over one in-memory source document.
func (s *PipelineService) Process(ctx context.Context, source string, data []byte, opts Options) (*Result, error) {
	ctx, span := tracer.Start(ctx, "pipeline.Process")
	defer span.End()
	span.SetAttributes(attribute.String("document.source", source))

	table, err := ingest.Decode(source, data)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("decode %s: %w", source, err)
	}

	kind := document.DetectKind(table.Text)
	if opts.Kind != "" {
		kind = document.ParseKind(opts.Kind)
	}
	number := document.ExtractNumber(table.Text, kind)

	filtered := document.NewFilter(kind).Strip(table)
	mapped := s.mapper.MapTable(filtered)

	doc := &document.Document{
		Kind:   kind,
		Number: number,
		Source: source,
		Table:  filtered,
		Lines:  mapped.Lines,
	}

	span.SetAttributes(
		attribute.String("document.kind", kind.String()),
		attribute.Int("document.lines", len(doc.Lines)),
	)
	metrics.DocumentsParsed.WithLabelValues(kind.String()).Inc()
	metrics.LinesExtracted.Add(float64(len(doc.Lines)))

	for _, line := range doc.Lines {
		s.resolveLine(ctx, line)
	}

	if opts.UpdateStock {
		s.reconcileLines(ctx, doc)
	}

	s.logger.Info("document processed",
		slog.String("source", source),
		slog.String("kind", kind.String()),
		slog.String("number", number),
		slog.Int("rows", mapped.TotalRows),
		slog.Int("lines", len(doc.Lines)),
		slog.Int("skipped_rows", mapped.SkippedRows))

	return &Result{
		Document:    doc,
		TotalRows:   mapped.TotalRows,
		MappedRows:  mapped.MappedRows,
		SkippedRows: mapped.SkippedRows,
	}, nil
}

// ProcessFile reads a document from disk and processes it.
func (s *PipelineService) ProcessFile(ctx context.Context, path string, opts Options) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return s.Process(ctx, filepath.Base(path), data, opts)
}

// resolveLine fills the line's lookup fields, consulting the local catalog
// before the remote endpoint. A cache hit also supplies the current stock,
// which later turns the mutation into a known-base update.
func (s *PipelineService) resolveLine(ctx context.Context, line *document.Line) {
	if !line.HasReference() {
		line.LookupStatus = lookup.StatusSkippedNoRef
		metrics.Lookups.WithLabelValues(line.LookupStatus).Inc()
		return
	}

	if entry, ok := s.catalog.Get(line.Reference); ok {
		line.LookupID = entry.ID
		line.LookupStatus = lookup.StatusFromCache
		line.InitialStock = entry.Stock
		metrics.Lookups.WithLabelValues(line.LookupStatus).Inc()
		return
	}

	res := s.lookups.Lookup(ctx, line.Reference)
	line.LookupID = res.ID
	line.LookupStatus = res.Status
	line.LookupInfo = res.Info
	metrics.Lookups.WithLabelValues(res.Status).Inc()
}

// reconcileLines applies every line's stock delta and reports the outcome
// tallies. Lines that cannot be applied are skipped, never fatal.
func (s *PipelineService) reconcileLines(ctx context.Context, doc *document.Document) {
	patched, failed, skipped := 0, 0, 0
	for _, line := range doc.Lines {
		update := s.reconciler.Reconcile(ctx, line, doc.Kind, doc.Number)
		metrics.StockUpdates.WithLabelValues(update.Status).Inc()
		switch update.Status {
		case document.StatusPatched:
			patched++
		case document.StatusFailed:
			failed++
		default:
			skipped++
		}
	}

	s.logger.Info("stock reconciliation finished",
		slog.String("source", doc.Source),
		slog.String("number", doc.Number),
		slog.Int("patched", patched),
		slog.Int("failed", failed),
		slog.Int("skipped", skipped))

	s.notifier.RunFinished(ctx, notify.RunSummary{
		RunID:         s.reconciler.RunID(),
		Source:        doc.Source,
		Kind:          doc.Kind.String(),
		InvoiceNumber: doc.Number,
		Lines:         len(doc.Lines),
		Patched:       patched,
		Failed:        failed,
		Skipped:       skipped,
	})
}

// RefreshCatalog fetches a fresh product listing and swaps the snapshot.
func (s *PipelineService) RefreshCatalog(ctx context.Context) (int, error) {
	n, err := s.catalog.Refresh(ctx)
	if err != nil {
		metrics.CatalogRefreshes.WithLabelValues("failed").Inc()
		return 0, err
	}
	metrics.CatalogRefreshes.WithLabelValues("ok").Inc()
	return n, nil
}

// CatalogSize returns the number of indexed products.
func (s *PipelineService) CatalogSize() int {
	return s.catalog.Size()
}

// SearchProducts queries the full-text product index.
func (s *PipelineService) SearchProducts(query string, limit int) ([]catalog.SearchHit, error) {
	return s.catalog.Search(query, limit)
}

// SuggestReferences returns catalog references close to the given one.
func (s *PipelineService) SuggestReferences(reference string, limit int) []string {
	return s.catalog.Suggest(reference, limit)
}
