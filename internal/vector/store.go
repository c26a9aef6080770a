// Package vector provides the persistent flat vector index backing retrieval.
//
// The index is exact: every search scans all stored vectors and ranks them by
// squared Euclidean distance. Deleting a document only marks its records; the
// rows stay in the matrix until Compact rebuilds it. All reads and writes are
// serialized under a single mutex, and the index is written to disk inside the
// same critical section as the mutation, so on-disk state is never more than
// one operation behind memory.
package vector

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/kotae-ai/kotae/internal/embedding"
)

// Record is the per-vector metadata stored parallel to the matrix.
type Record struct {
	DocID      string `json:"doc_id"`
	DocName    string `json:"doc_name"`
	ChunkIndex int    `json:"chunk_index"`
	Text       string `json:"text"`
	Deleted    bool   `json:"deleted"`
}

// Candidate is a search hit: a copy of the matching record plus its distance.
type Candidate struct {
	Record
	// Score is the squared Euclidean distance to the query; lower is closer.
	// Scores are comparable within one search only.
	Score float64
}

// defaultOverfetch is the multiple of k fetched before filtering soft-deleted
// rows. It is a heuristic: with many deletions interleaved among the true
// top-k it does not guarantee k survivors, and callers must accept fewer.
const defaultOverfetch = 4

// Store is a flat vector index over document chunks.
type Store struct {
	dir       string
	embedder  embedding.Embedder
	dim       int
	overfetch int
	logger    *zap.Logger

	mu      sync.Mutex
	vectors [][]float32
	records []Record
	docs    map[string][]int
	deleted int
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets a logger for load warnings and debug events.
func WithLogger(l *zap.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// WithOverfetch sets the over-fetch factor used by Search (default 4).
func WithOverfetch(n int) StoreOption {
	return func(s *Store) {
		if n > 0 {
			s.overfetch = n
		}
	}
}

// NewStore creates a store persisted under dir, loading any previous state.
// The embedding dimension is fixed for the life of the store by the embedder.
// A corrupt or mismatched persisted state is discarded with a warning; it is
// never fatal.
func NewStore(dir string, embedder embedding.Embedder, opts ...StoreOption) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	s := &Store{
		dir:       dir,
		embedder:  embedder,
		dim:       embedder.Dimensions(),
		overfetch: defaultOverfetch,
		docs:      make(map[string][]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.load(); err != nil {
		if s.logger != nil {
			s.logger.Warn("discarding corrupt index state, starting empty",
				zap.String("dir", dir), zap.Error(err))
		}
		s.vectors = nil
		s.records = nil
		s.docs = make(map[string][]int)
		s.deleted = 0
	}
	return s, nil
}

// Insert embeds chunks and appends them to the index under docID. ChunkIndex
// is the 0-based position within chunks. If docID already owns positions, the
// new ones are appended to its set. Returns the number of vectors added; an
// empty chunks slice is a no-op. Embedding failure aborts the insert with no
// state change.
func (s *Store) Insert(ctx context.Context, docID, docName string, chunks []string) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}
	embs, err := s.embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("embed chunks: %w", err)
	}
	for i, emb := range embs {
		if len(emb) != s.dim {
			return 0, fmt.Errorf("embedding dimension mismatch at chunk %d: got %d, expected %d", i, len(emb), s.dim)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	start := len(s.records)
	for i, chunk := range chunks {
		vec := make([]float32, s.dim)
		copy(vec, embs[i])
		s.vectors = append(s.vectors, vec)
		s.records = append(s.records, Record{
			DocID:      docID,
			DocName:    docName,
			ChunkIndex: i,
			Text:       chunk,
		})
		s.docs[docID] = append(s.docs[docID], start+i)
	}
	if err := s.persistLocked(); err != nil {
		return len(chunks), fmt.Errorf("persist index: %w", err)
	}
	return len(chunks), nil
}

// Search embeds query and returns up to k non-deleted records by ascending
// distance. Only the overfetch*k nearest rows are considered before filtering
// soft-deleted ones, so fewer than k results may be returned. An index with no
// live vectors yields no results and no embedding call.
func (s *Store) Search(ctx context.Context, query string, k int) ([]*Candidate, error) {
	if k <= 0 {
		return nil, nil
	}
	s.mu.Lock()
	live := len(s.records) - s.deleted
	s.mu.Unlock()
	if live <= 0 {
		return nil, nil
	}

	q, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(q) != s.dim {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(q), s.dim)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	total := len(s.records)
	if total == 0 {
		return nil, nil
	}
	type scored struct {
		pos  int
		dist float64
	}
	scores := make([]scored, total)
	for i, vec := range s.vectors {
		scores[i] = scored{pos: i, dist: SquaredDistance(q, vec)}
	}
	sort.Slice(scores, func(i, j int) bool { return scores[i].dist < scores[j].dist })

	fetchK := k * s.overfetch
	if fetchK > total {
		fetchK = total
	}
	results := make([]*Candidate, 0, k)
	for _, sc := range scores[:fetchK] {
		rec := s.records[sc.pos]
		if rec.Deleted {
			continue
		}
		results = append(results, &Candidate{Record: rec, Score: sc.dist})
		if len(results) >= k {
			break
		}
	}
	return results, nil
}

// DeleteDocument soft-deletes every record owned by docID and removes the
// document from the ownership map. Vector rows are not reclaimed until
// Compact. Deleting an unknown document is a no-op.
func (s *Store) DeleteDocument(ctx context.Context, docID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	positions, ok := s.docs[docID]
	if !ok {
		return nil
	}
	delete(s.docs, docID)
	for _, pos := range positions {
		if pos < 0 || pos >= len(s.records) {
			continue
		}
		if !s.records[pos].Deleted {
			s.records[pos].Deleted = true
			s.deleted++
		}
	}
	if err := s.persistLocked(); err != nil {
		return fmt.Errorf("persist index: %w", err)
	}
	return nil
}

// Compact rebuilds the matrix and records with only non-deleted entries,
// re-embedding the surviving texts, and resets positions and the deleted
// counter. It is the only operation that shrinks storage. Expensive; intended
// for periodic maintenance. Returns the number of live vectors.
func (s *Store) Compact(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	alive := make([]Record, 0, len(s.records)-s.deleted)
	for _, rec := range s.records {
		if !rec.Deleted {
			alive = append(alive, rec)
		}
	}
	if len(alive) == 0 {
		s.vectors = nil
		s.records = nil
		s.docs = make(map[string][]int)
		s.deleted = 0
		if err := s.persistLocked(); err != nil {
			return 0, fmt.Errorf("persist index: %w", err)
		}
		return 0, nil
	}

	texts := make([]string, len(alive))
	for i, rec := range alive {
		texts[i] = rec.Text
	}
	embs, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("re-embed chunks: %w", err)
	}

	vectors := make([][]float32, len(alive))
	docs := make(map[string][]int)
	for i, rec := range alive {
		vec := make([]float32, s.dim)
		copy(vec, embs[i])
		vectors[i] = vec
		docs[rec.DocID] = append(docs[rec.DocID], i)
	}
	s.vectors = vectors
	s.records = alive
	s.docs = docs
	s.deleted = 0
	if err := s.persistLocked(); err != nil {
		return len(alive), fmt.Errorf("persist index: %w", err)
	}
	return len(alive), nil
}

// HasVectors reports whether any document currently owns positions. This is
// distinct from TotalVectors() > 0: soft-deleted documents leave stale rows.
func (s *Store) HasVectors() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs) > 0
}

// TotalVectors returns the number of matrix rows, including soft-deleted ones.
func (s *Store) TotalVectors() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// ActiveVectors returns the number of non-deleted rows.
func (s *Store) ActiveVectors() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records) - s.deleted
}

// Dimensions returns the embedding dimension fixed at store creation.
func (s *Store) Dimensions() int {
	return s.dim
}
