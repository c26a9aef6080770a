// Package keyword provides BM25 keyword search over indexed documents,
// complementing the semantic vector index for exact-term lookups.
package keyword

import "context"

// Match is a single keyword search hit.
type Match struct {
	DocID    string  `json:"doc_id"`
	Filename string  `json:"filename"`
	Score    float64 `json:"score"`
}

// KeywordIndex defines keyword search operations.
type KeywordIndex interface {
	Index(ctx context.Context, docID, filename, content string) error
	Search(ctx context.Context, query string, limit int) ([]*Match, error)
	Delete(ctx context.Context, docID string) error
	DocCount() (uint64, error)
	Close() error
}
