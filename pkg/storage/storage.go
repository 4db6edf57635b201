// Package storage archives uploaded source documents so any parse can be
// replayed later against the exact bytes it saw.
package storage

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// DocumentInfo is the metadata kept for one archived document.
type DocumentInfo struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	Kind       string    `json:"kind"`
	ReceivedAt time.Time `json:"received_at"`
	Path       string    `json:"path"` // archive-relative file name
}

// Archive stores uploaded documents and their metadata.
type Archive interface {
	// Save stores a document and returns its metadata.
	Save(ctx context.Context, name, kind string, r io.Reader) (*DocumentInfo, error)

	// Open returns the archived bytes and metadata for a document.
	Open(ctx context.Context, id uuid.UUID) (io.ReadCloser, *DocumentInfo, error)

	// List returns all archived documents, newest first.
	List(ctx context.Context) ([]*DocumentInfo, error)
}
