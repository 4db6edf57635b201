// Package reconcile turns mapped lines into stock mutations against the
// product API and keeps an append-only audit trail of every attempt.
package reconcile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultLogPath is where stock mutation attempts are recorded.
const DefaultLogPath = "gen/update_stock.log"

// AuditRecord is one stock mutation attempt. One record is appended per
// attempt, whether it was patched, failed or skipped; records are never
// rewritten.
type AuditRecord struct {
	Timestamp     string   `json:"ts"`
	RunID         string   `json:"run_id"`
	Reference     string   `json:"reference"`
	ProductID     string   `json:"product_id"`
	LookupID      string   `json:"lookup_id,omitempty"`
	Delta         float64  `json:"delta"`
	Reason        string   `json:"reason"`
	InvoiceNumber string   `json:"invoice_number,omitempty"`
	InitialStock  *float64 `json:"initial_stock"`
	NewStock      float64  `json:"new_stock"`
	Status        string   `json:"status"`
}

// AuditLogger appends newline-delimited JSON records to a log file. Every
// logger instance carries a run id so one pipeline run can be grepped out
// of the shared log.
type AuditLogger struct {
	path  string
	runID string
	mu    sync.Mutex
}

// NewAuditLogger creates a logger writing to the given path, or
// DefaultLogPath when empty.
func NewAuditLogger(path string) *AuditLogger {
	if path == "" {
		path = DefaultLogPath
	}
	return &AuditLogger{
		path:  path,
		runID: uuid.New().String(),
	}
}

// RunID returns the identifier stamped on every record of this logger.
func (l *AuditLogger) RunID() string {
	return l.runID
}

// Path returns the log file path.
func (l *AuditLogger) Path() string {
	return l.path
}

// Append writes one record as a single JSON line. The record's timestamp
// and run id are filled in when empty.
func (l *AuditLogger) Append(rec AuditRecord) error {
	if rec.Timestamp == "" {
		rec.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	}
	if rec.RunID == "" {
		rec.RunID = l.runID
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode audit record: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("failed to create audit log directory: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to append audit record: %w", err)
	}
	return nil
}
