package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/mapping"
)

// SearchDocument is the indexed form of a catalog product.
type SearchDocument struct {
	Reference string  `json:"reference"`
	Name      string  `json:"name"`
	ProductID string  `json:"product_id"`
	Stock     float64 `json:"stock"`
	HasStock  bool    `json:"has_stock"`
}

// SearchHit is a search result with its relevance score.
type SearchHit struct {
	Document SearchDocument
	Score    float64
}

// ProductSearch provides full-text search over the catalog using Bleve.
type ProductSearch struct {
	index   bleve.Index
	indexMu sync.RWMutex
	path    string // Path to index storage (empty for in-memory)
}

// NewProductSearch creates a search index. An empty path keeps the index
// in memory; otherwise it is created or opened at the given path.
func NewProductSearch(path string) (*ProductSearch, error) {
	ps := &ProductSearch{path: path}

	var index bleve.Index
	var err error

	indexMapping := buildIndexMapping()

	if path == "" {
		index, err = bleve.NewMemOnly(indexMapping)
	} else {
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			if mkdirErr := os.MkdirAll(filepath.Dir(path), 0o755); mkdirErr != nil {
				return nil, fmt.Errorf("failed to create index directory: %w", mkdirErr)
			}
			index, err = bleve.New(path, indexMapping)
		} else {
			index, err = bleve.Open(path)
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create/open index: %w", err)
	}

	ps.index = index
	return ps, nil
}

// buildIndexMapping creates the Bleve mapping for product documents.
func buildIndexMapping() mapping.IndexMapping {
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = simple.Name

	keywordFieldMapping := bleve.NewTextFieldMapping()
	keywordFieldMapping.Analyzer = keyword.Name

	numericFieldMapping := bleve.NewNumericFieldMapping()

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("reference", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("name", textFieldMapping)
	docMapping.AddFieldMappingsAt("product_id", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("stock", numericFieldMapping)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = simple.Name

	return indexMapping
}

// Rebuild replaces the indexed documents with the given catalog entries.
func (ps *ProductSearch) Rebuild(entries []Entry) error {
	ps.indexMu.Lock()
	defer ps.indexMu.Unlock()

	if err := ps.clearLocked(); err != nil {
		return err
	}

	batch := ps.index.NewBatch()
	for _, e := range entries {
		doc := SearchDocument{
			Reference: e.Reference,
			Name:      e.Name,
			ProductID: e.ID,
			HasStock:  e.Stock.Valid,
		}
		if e.Stock.Valid {
			doc.Stock = e.Stock.Decimal.InexactFloat64()
		}
		if err := batch.Index(e.Reference, doc); err != nil {
			return fmt.Errorf("failed to index product %s: %w", e.Reference, err)
		}
	}

	if err := ps.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to execute batch index: %w", err)
	}
	return nil
}

// Search performs a fuzzy full-text search over references and names.
func (ps *ProductSearch) Search(query string, limit int) ([]SearchHit, error) {
	ps.indexMu.RLock()
	defer ps.indexMu.RUnlock()

	if limit <= 0 {
		limit = 10
	}

	matchQuery := bleve.NewMatchQuery(query)
	matchQuery.SetFuzziness(1) // Allow 1 edit distance for typo tolerance

	searchRequest := bleve.NewSearchRequest(matchQuery)
	searchRequest.Size = limit
	searchRequest.Fields = []string{"*"}

	searchResults, err := ps.index.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	return convertHits(searchResults), nil
}

// SearchPrefix performs a prefix search, autocomplete style.
func (ps *ProductSearch) SearchPrefix(prefix string, limit int) ([]SearchHit, error) {
	ps.indexMu.RLock()
	defer ps.indexMu.RUnlock()

	if limit <= 0 {
		limit = 10
	}

	prefixQuery := bleve.NewPrefixQuery(prefix)

	searchRequest := bleve.NewSearchRequest(prefixQuery)
	searchRequest.Size = limit
	searchRequest.Fields = []string{"*"}

	searchResults, err := ps.index.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("prefix search failed: %w", err)
	}

	return convertHits(searchResults), nil
}

// DocCount returns the number of indexed products.
func (ps *ProductSearch) DocCount() (uint64, error) {
	ps.indexMu.RLock()
	defer ps.indexMu.RUnlock()

	return ps.index.DocCount()
}

// Close closes the underlying index.
func (ps *ProductSearch) Close() error {
	ps.indexMu.Lock()
	defer ps.indexMu.Unlock()

	if ps.index != nil {
		return ps.index.Close()
	}
	return nil
}

// clearLocked removes every document. Callers hold the write lock.
func (ps *ProductSearch) clearLocked() error {
	query := bleve.NewMatchAllQuery()
	searchRequest := bleve.NewSearchRequest(query)
	searchRequest.Size = 10000

	searchResults, err := ps.index.Search(searchRequest)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	batch := ps.index.NewBatch()
	for _, hit := range searchResults.Hits {
		batch.Delete(hit.ID)
	}

	if err := ps.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to delete documents: %w", err)
	}
	return nil
}

func convertHits(searchResults *bleve.SearchResult) []SearchHit {
	hits := make([]SearchHit, 0, len(searchResults.Hits))
	for _, hit := range searchResults.Hits {
		doc := SearchDocument{Reference: hit.ID}

		if reference, ok := hit.Fields["reference"].(string); ok {
			doc.Reference = reference
		}
		if name, ok := hit.Fields["name"].(string); ok {
			doc.Name = name
		}
		if productID, ok := hit.Fields["product_id"].(string); ok {
			doc.ProductID = productID
		}
		if stock, ok := hit.Fields["stock"].(float64); ok {
			doc.Stock = stock
		}
		if hasStock, ok := hit.Fields["has_stock"].(bool); ok {
			doc.HasStock = hasStock
		}

		hits = append(hits, SearchHit{Document: doc, Score: hit.Score})
	}
	return hits
}
