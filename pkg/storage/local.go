package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LocalArchive implements Archive on the local filesystem. Documents live
// under the base directory, metadata under its .meta subdirectory.
type LocalArchive struct {
	basePath string
}

// NewLocalArchive creates an archive rooted at basePath.
func NewLocalArchive(basePath string) (*LocalArchive, error) {
	if err := os.MkdirAll(filepath.Join(basePath, ".meta"), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}
	return &LocalArchive{basePath: basePath}, nil
}

// Save stores a document and returns its metadata.
func (a *LocalArchive) Save(ctx context.Context, name, kind string, r io.Reader) (*DocumentInfo, error) {
	id := uuid.New()

	storedName := fmt.Sprintf("%s_%s", id.String()[:8], sanitizeFilename(name))
	filePath := filepath.Join(a.basePath, storedName)

	f, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create archive file: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, r)
	if err != nil {
		os.Remove(filePath)
		return nil, fmt.Errorf("failed to write archive file: %w", err)
	}

	info := &DocumentInfo{
		ID:         id,
		Name:       name,
		Size:       size,
		Kind:       kind,
		ReceivedAt: time.Now().UTC(),
		Path:       storedName,
	}
	if err := a.saveMetadata(info); err != nil {
		os.Remove(filePath)
		return nil, err
	}
	return info, nil
}

// Open returns the archived bytes and metadata for a document.
func (a *LocalArchive) Open(ctx context.Context, id uuid.UUID) (io.ReadCloser, *DocumentInfo, error) {
	info, err := a.getInfo(id)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(filepath.Join(a.basePath, info.Path))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open archived document: %w", err)
	}
	return f, info, nil
}

// List returns all archived documents, newest first.
func (a *LocalArchive) List(ctx context.Context) ([]*DocumentInfo, error) {
	entries, err := os.ReadDir(filepath.Join(a.basePath, ".meta"))
	if err != nil {
		if os.IsNotExist(err) {
			return []*DocumentInfo{}, nil
		}
		return nil, fmt.Errorf("failed to list archive metadata: %w", err)
	}

	infos := make([]*DocumentInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		id, err := uuid.Parse(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			continue
		}
		info, err := a.getInfo(id)
		if err != nil {
			continue
		}
		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].ReceivedAt.After(infos[j].ReceivedAt)
	})
	return infos, nil
}

func (a *LocalArchive) getInfo(id uuid.UUID) (*DocumentInfo, error) {
	data, err := os.ReadFile(filepath.Join(a.basePath, ".meta", id.String()+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("document not found: %s", id)
		}
		return nil, fmt.Errorf("failed to read archive metadata: %w", err)
	}

	var info DocumentInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to parse archive metadata: %w", err)
	}
	return &info, nil
}

func (a *LocalArchive) saveMetadata(info *DocumentInfo) error {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal archive metadata: %w", err)
	}

	metaPath := filepath.Join(a.basePath, ".meta", info.ID.String()+".json")
	if err := os.WriteFile(metaPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write archive metadata: %w", err)
	}
	return nil
}

// sanitizeFilename strips path separators and shell-hostile characters from
// client-supplied names.
func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		"..", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
	)
	return replacer.Replace(name)
}
