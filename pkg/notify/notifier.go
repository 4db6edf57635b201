// Package notify posts run summaries to an operator webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// RequestTimeout for webhook requests.
const RequestTimeout = 10 * time.Second

// RunSummary is the webhook payload sent after a reconciliation run.
type RunSummary struct {
	RunID         string `json:"run_id"`
	Source        string `json:"source"`
	Kind          string `json:"kind"`
	InvoiceNumber string `json:"invoice_number,omitempty"`
	Lines         int    `json:"lines"`
	Patched       int    `json:"patched"`
	Failed        int    `json:"failed"`
	Skipped       int    `json:"skipped"`
}

// Notifier sends run summaries to a single webhook URL. A nil Notifier is
// valid and does nothing, so callers never need to branch.
type Notifier struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// New creates a notifier. An empty URL returns nil.
func New(url string, logger *slog.Logger) *Notifier {
	if url == "" {
		return nil
	}
	return &Notifier{
		url:    url,
		client: &http.Client{Timeout: RequestTimeout},
		logger: logger,
	}
}

// RunFinished posts the summary. Delivery is best effort: failures are
// logged, never returned to the pipeline.
func (n *Notifier) RunFinished(ctx context.Context, summary RunSummary) {
	if n == nil {
		return
	}
	if err := n.post(ctx, summary); err != nil {
		n.logger.Warn("run summary webhook failed",
			slog.String("url", n.url),
			slog.Any("error", err))
		return
	}
	n.logger.Debug("run summary delivered", slog.String("run_id", summary.RunID))
}

func (n *Notifier) post(ctx context.Context, summary RunSummary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal run summary: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send run summary: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
