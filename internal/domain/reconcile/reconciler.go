package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/facturio/stocksync/internal/domain/document"
	"github.com/facturio/stocksync/pkg/remote"
)

// DefaultReason is sent as update_reason when no document number was
// extracted and no override is configured.
const DefaultReason = "sync from pdf"

// patchBody is the wire format of a stock mutation.
type patchBody struct {
	Stock        float64 `json:"stock"`
	UpdateReason string  `json:"update_reason"`
}

// Reconciler applies line quantities to remote product stock. Invoices
// decrement, credit notes increment. Failures are recorded on the line and
// in the audit log, never retried and never raised.
type Reconciler struct {
	updateURL     string
	defaultReason string
	remote        *remote.Client
	audit         *AuditLogger
	logger        *slog.Logger
}

// New creates a reconciler. updateURL is the PATCH template containing a
// {product_id} placeholder; reason overrides DefaultReason when non-empty.
func New(updateURL, reason string, rc *remote.Client, audit *AuditLogger, logger *slog.Logger) *Reconciler {
	if reason == "" {
		reason = DefaultReason
	}
	return &Reconciler{
		updateURL:     updateURL,
		defaultReason: reason,
		remote:        rc,
		audit:         audit,
		logger:        logger,
	}
}

// RunID returns the audit run identifier shared by every record this
// reconciler writes.
func (r *Reconciler) RunID() string {
	return r.audit.RunID()
}

// Reconcile computes and sends the stock mutation for one line. The
// returned update is also attached to the line, and exactly one audit
// record is appended regardless of outcome.
//
// With a known base (the catalog supplied the current stock) the request
// carries the absolute value stock+delta. Without one it falls back to
// sending the raw delta; the remote side's interpretation of that mode is
// unverified, so the record flags it distinctly.
func (r *Reconciler) Reconcile(ctx context.Context, line *document.Line, kind document.Kind, docNumber string) *document.StockUpdate {
	reason := r.defaultReason
	if docNumber != "" {
		reason = docNumber
	}
	target := line.MutationTarget()

	if !line.Quantity.Valid || target == "" {
		update := &document.StockUpdate{Status: document.StatusSkipped}
		line.StockUpdate = update
		r.record(line, target, decimal.Zero, decimal.Zero, reason, docNumber, update.Status)
		return update
	}

	delta := line.Quantity.Decimal.Abs().Mul(kind.DeltaSign())

	var value decimal.Decimal
	var mode string
	if line.InitialStock.Valid {
		value = line.InitialStock.Decimal.Add(delta)
		mode = document.ModeKnownBase
	} else {
		value = delta
		mode = document.ModeDeltaFallback
	}

	status := document.StatusPatched
	if err := r.patch(ctx, target, value, reason); err != nil {
		status = document.StatusFailed
		r.logger.Warn("stock update failed",
			slog.String("reference", line.Reference),
			slog.String("product_id", target),
			slog.Any("error", err))
	}

	update := &document.StockUpdate{
		Delta:    delta,
		NewStock: value,
		Mode:     mode,
		Status:   status,
	}
	line.StockUpdate = update
	r.record(line, target, delta, value, reason, docNumber, status)
	return update
}

// patch sends the PATCH request. Any transport error or non-2xx status
// counts as a failure.
func (r *Reconciler) patch(ctx context.Context, productID string, value decimal.Decimal, reason string) error {
	url := strings.ReplaceAll(r.updateURL, "{product_id}", productID)
	resp, err := r.remote.Patch(ctx, url, patchBody{
		Stock:        value.InexactFloat64(),
		UpdateReason: reason,
	})
	if err != nil {
		return err
	}
	if !resp.OK() {
		return fmt.Errorf("unexpected status %d", resp.Status)
	}
	return nil
}

func (r *Reconciler) record(line *document.Line, target string, delta, value decimal.Decimal, reason, docNumber, status string) {
	rec := AuditRecord{
		Reference:     line.Reference,
		ProductID:     target,
		LookupID:      line.LookupID,
		Delta:         delta.InexactFloat64(),
		Reason:        reason,
		InvoiceNumber: docNumber,
		NewStock:      value.InexactFloat64(),
		Status:        status,
	}
	if line.InitialStock.Valid {
		initial := line.InitialStock.Decimal.InexactFloat64()
		rec.InitialStock = &initial
	}
	if err := r.audit.Append(rec); err != nil {
		r.logger.Warn("failed to append audit record",
			slog.String("path", r.audit.Path()),
			slog.Any("error", err))
	}
}
