// Package search keeps a full-text index over processed document transcripts.
package search

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/FACorreiaa/finance-dashboard/internal/domain/document"
	"github.com/FACorreiaa/finance-dashboard/internal/domain/document/normalizer"
)

const defaultLimit = 10

// Document is the searchable view of a processed upload.
type Document struct {
	ID            string    `json:"id"`
	FileName      string    `json:"file_name"`
	Type          string    `json:"type"`
	Category      string    `json:"category"`
	Text          string    `json:"text"`
	ObligationKey string    `json:"obligation_key"`
	Status        string    `json:"status"`
	ProcessedAt   time.Time `json:"processed_at"`
}

// Result is a search hit with its relevance score.
type Result struct {
	Document Document `json:"document"`
	Score    float64  `json:"score"`
}

// Index provides full-text search over transcripts using Bleve.
type Index struct {
	index bleve.Index
	mu    sync.RWMutex
	path  string
}

// NewIndex opens the index at path, creating it when missing.
// An empty path creates an in-memory index.
func NewIndex(path string) (*Index, error) {
	var (
		index bleve.Index
		err   error
	)

	indexMapping := buildIndexMapping()

	if path == "" {
		index, err = bleve.NewMemOnly(indexMapping)
	} else if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		if mkdirErr := os.MkdirAll(filepath.Dir(path), 0o755); mkdirErr != nil {
			return nil, fmt.Errorf("failed to create index directory: %w", mkdirErr)
		}
		index, err = bleve.New(path, indexMapping)
	} else {
		index, err = bleve.Open(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create/open index: %w", err)
	}

	return &Index{index: index, path: path}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = standard.Name

	keywordFieldMapping := bleve.NewTextFieldMapping()
	keywordFieldMapping.Analyzer = keyword.Name

	dateFieldMapping := bleve.NewDateTimeFieldMapping()

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("file_name", textFieldMapping)
	docMapping.AddFieldMappingsAt("text", textFieldMapping)
	docMapping.AddFieldMappingsAt("type", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("category", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("obligation_key", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("status", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("processed_at", dateFieldMapping)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = standard.Name

	return indexMapping
}

// Put adds or replaces a document. The transcript is stored normalized so
// queries match regardless of accents.
func (i *Index) Put(doc Document) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	doc.Text = normalizer.Normalize(doc.Text)
	if err := i.index.Index(doc.ID, doc); err != nil {
		return fmt.Errorf("failed to index document %s: %w", doc.ID, err)
	}
	return nil
}

// Delete removes a document by ID.
func (i *Index) Delete(id string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	return i.index.Delete(id)
}

// Search runs a typo-tolerant match query over transcripts and file names.
func (i *Index) Search(text string, limit int) ([]Result, error) {
	text = normalizer.Normalize(text)

	textQuery := bleve.NewMatchQuery(text)
	textQuery.SetField("text")
	textQuery.SetFuzziness(1)

	nameQuery := bleve.NewMatchQuery(text)
	nameQuery.SetField("file_name")

	return i.run(bleve.NewDisjunctionQuery(textQuery, nameQuery), limit)
}

// SearchByType returns documents classified as t, newest first.
func (i *Index) SearchByType(t document.Type, limit int) ([]Result, error) {
	termQuery := bleve.NewTermQuery(string(t))
	termQuery.SetField("type")

	return i.run(termQuery, limit, "-processed_at")
}

func (i *Index) run(q query.Query, limit int, sortBy ...string) ([]Result, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if limit <= 0 {
		limit = defaultLimit
	}

	req := bleve.NewSearchRequest(q)
	req.Size = limit
	req.Fields = []string{"*"}
	if len(sortBy) > 0 {
		req.SortBy(sortBy)
	}

	res, err := i.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	return convertResults(res), nil
}

func convertResults(res *bleve.SearchResult) []Result {
	out := make([]Result, 0, len(res.Hits))
	for _, hit := range res.Hits {
		doc := Document{ID: hit.ID}

		if v, ok := hit.Fields["file_name"].(string); ok {
			doc.FileName = v
		}
		if v, ok := hit.Fields["type"].(string); ok {
			doc.Type = v
		}
		if v, ok := hit.Fields["category"].(string); ok {
			doc.Category = v
		}
		if v, ok := hit.Fields["text"].(string); ok {
			doc.Text = v
		}
		if v, ok := hit.Fields["obligation_key"].(string); ok {
			doc.ObligationKey = v
		}
		if v, ok := hit.Fields["status"].(string); ok {
			doc.Status = v
		}
		if v, ok := hit.Fields["processed_at"].(string); ok {
			if t, err := time.Parse(time.RFC3339, v); err == nil {
				doc.ProcessedAt = t
			}
		}

		out = append(out, Result{Document: doc, Score: hit.Score})
	}
	return out
}

// Count returns the number of indexed documents.
func (i *Index) Count() (uint64, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	return i.index.DocCount()
}

// Close closes the index
func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.index != nil {
		return i.index.Close()
	}
	return nil
}
