// Package keyword provides the Bleve implementation of KeywordIndex.
package keyword

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
)

// filenameBoost ranks filename hits above body hits, so searching "handbook"
// surfaces handbook.pdf before documents that merely mention handbooks.
const filenameBoost = 3.0

// keywordDoc is the shape Bleve indexes per document.
type keywordDoc struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// BleveIndex implements KeywordIndex using Bleve.
type BleveIndex struct {
	index bleve.Index
}

// NewBleveIndex creates or opens a Bleve index at path. An existing index is
// reused so already-ingested documents stay searchable across restarts. If
// the mapping changes in code, remove the index directory to force a rebuild.
func NewBleveIndex(path string) (*BleveIndex, error) {
	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &BleveIndex{index: index}, nil
	}

	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so queries match
	// exact words; the English analyzer stems "Bayesian" -> "bayesi" which
	// stops "bayes" from matching.
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("content", textFieldMapping)
	filenameFieldMapping := bleve.NewTextFieldMapping()
	filenameFieldMapping.Analyzer = standard.Name
	filenameFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("filename", filenameFieldMapping)
	im.DefaultMapping = docMapping

	index, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// Index adds or replaces a document. Underscores in the filename become
// spaces so "quarterly_report_2026.pdf" matches the query "quarterly report"
// (the standard analyzer does not split on underscore).
func (b *BleveIndex) Index(ctx context.Context, docID, filename, content string) error {
	return b.index.Index(docID, &keywordDoc{
		Filename: strings.ReplaceAll(filename, "_", " "),
		Content:  content,
	})
}

// Search runs a boosted disjunction of a filename match and a content match
// and returns up to limit results by descending score.
func (b *BleveIndex) Search(ctx context.Context, query string, limit int) ([]*Match, error) {
	filenameQuery := bleve.NewMatchQuery(query)
	filenameQuery.SetField("filename")
	filenameQuery.SetBoost(filenameBoost)
	contentQuery := bleve.NewMatchQuery(query)
	contentQuery.SetField("content")

	req := bleve.NewSearchRequest(bleve.NewDisjunctionQuery(filenameQuery, contentQuery))
	req.Size = limit
	req.Fields = []string{"filename"}
	results, err := b.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}

	out := make([]*Match, len(results.Hits))
	for i, hit := range results.Hits {
		m := &Match{DocID: hit.ID, Score: hit.Score}
		if name, ok := hit.Fields["filename"].(string); ok {
			m.Filename = name
		}
		out[i] = m
	}
	return out, nil
}

// Delete removes a document from the index.
func (b *BleveIndex) Delete(ctx context.Context, docID string) error {
	return b.index.Delete(docID)
}

// DocCount returns the total number of indexed documents.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}
