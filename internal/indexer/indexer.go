package indexer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kotae-ai/kotae/internal/extract"
	"github.com/kotae-ai/kotae/internal/keyword"
	"github.com/kotae-ai/kotae/internal/models"
	"github.com/kotae-ai/kotae/internal/storage"
	"github.com/kotae-ai/kotae/internal/vector"
)

// minExtractedLen guards against scanned PDFs and other files that open
// fine but yield no usable text.
const minExtractedLen = 10

// Indexer runs the ingestion flow: extract text, clean it, chunk it, embed
// it into the vector store, and mirror it into the keyword index, tracking
// status in the document registry throughout.
type Indexer struct {
	registry  storage.Storage
	store     *vector.Store
	keywords  keyword.KeywordIndex
	extractor *extract.Extractor
	chunker   *Chunker
	logger    *zap.Logger
}

// Option configures an Indexer.
type Option func(*Indexer)

// WithLogger sets a logger for ingestion events.
func WithLogger(logger *zap.Logger) Option {
	return func(idx *Indexer) {
		if logger != nil {
			idx.logger = logger
		}
	}
}

// NewIndexer creates an indexer over the given components.
func NewIndexer(
	registry storage.Storage,
	store *vector.Store,
	keywords keyword.KeywordIndex,
	extractor *extract.Extractor,
	chunker *Chunker,
	opts ...Option,
) *Indexer {
	idx := &Indexer{
		registry:  registry,
		store:     store,
		keywords:  keywords,
		extractor: extractor,
		chunker:   chunker,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// Supported returns the file extensions the indexer accepts.
func (idx *Indexer) Supported() []string {
	return idx.extractor.Supported()
}

// IsSupported reports whether a file with the given extension can be ingested.
func (idx *Indexer) IsSupported(ext string) bool {
	return idx.extractor.IsSupported(ext)
}

// Process indexes the file at path for an already-registered document and
// records the outcome in the registry. The registry row must exist with
// status processing; Process moves it to indexed or error. Used directly by
// the upload handler, which registers the document before responding.
func (idx *Indexer) Process(ctx context.Context, docID, filename, path string) error {
	chunkCount, err := idx.process(ctx, docID, filename, path)
	if err != nil {
		idx.logger.Warn("document processing failed",
			zap.String("doc_id", docID),
			zap.String("filename", filename),
			zap.Error(err))
		if statusErr := idx.registry.SetDocumentStatus(ctx, docID, models.StatusError, 0); statusErr != nil {
			idx.logger.Error("failed to record error status", zap.String("doc_id", docID), zap.Error(statusErr))
		}
		return err
	}
	if err := idx.registry.SetDocumentStatus(ctx, docID, models.StatusIndexed, chunkCount); err != nil {
		return fmt.Errorf("record indexed status: %w", err)
	}
	idx.logger.Info("document indexed",
		zap.String("doc_id", docID),
		zap.String("filename", filename),
		zap.Int("chunks", chunkCount))
	return nil
}

func (idx *Indexer) process(ctx context.Context, docID, filename, path string) (int, error) {
	text, err := idx.extractor.Extract(path)
	if err != nil {
		return 0, fmt.Errorf("extract text: %w", err)
	}
	text = Preprocess(text)
	if len(text) < minExtractedLen {
		return 0, fmt.Errorf("document appears empty or has no extractable text")
	}

	chunks := idx.chunker.Chunk(text)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("no chunks produced from document")
	}

	n, err := idx.store.Insert(ctx, docID, filename, chunks)
	if err != nil {
		return 0, fmt.Errorf("index vectors: %w", err)
	}
	if err := idx.keywords.Index(ctx, docID, filename, text); err != nil {
		return 0, fmt.Errorf("index keywords: %w", err)
	}
	return n, nil
}

// IngestFile registers and indexes a file from disk. Used by the CLI and the
// drop-directory watcher, which have no upload step to create the registry
// row first. The returned document reflects the final status.
func (idx *Indexer) IngestFile(ctx context.Context, path string) (*models.Document, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("not a regular file: %s", absPath)
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(absPath), "."))
	if !idx.IsSupported(ext) {
		return nil, fmt.Errorf("unsupported file type: %q", ext)
	}

	doc := &models.Document{
		ID:       uuid.New().String(),
		Filename: filepath.Base(absPath),
		FileType: ext,
		FileSize: info.Size(),
	}
	if err := idx.registry.CreateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("register document: %w", err)
	}
	if err := idx.Process(ctx, doc.ID, doc.Filename, absPath); err != nil {
		doc.Status = models.StatusError
		return doc, err
	}
	return idx.registry.GetDocument(ctx, doc.ID)
}

// IngestDirectory walks dir and ingests every supported file. Individual
// file failures are logged and skipped; the walk continues. Returns the
// number of files successfully indexed.
func (idx *Indexer) IngestDirectory(ctx context.Context, dir string) (int, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return 0, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("not a directory: %s", absDir)
	}

	n := 0
	err = filepath.WalkDir(absDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !idx.IsSupported(filepath.Ext(path)) {
			return nil
		}
		if _, ingestErr := idx.IngestFile(ctx, path); ingestErr != nil {
			idx.logger.Warn("skipping file", zap.String("path", path), zap.Error(ingestErr))
			return nil
		}
		n++
		return nil
	})
	return n, err
}

// Delete removes a document from the vector store, the keyword index and
// the registry. Unknown IDs are not an error; delete is idempotent end to
// end.
func (idx *Indexer) Delete(ctx context.Context, docID string) error {
	if err := idx.store.DeleteDocument(ctx, docID); err != nil {
		return fmt.Errorf("delete vectors: %w", err)
	}
	if err := idx.keywords.Delete(ctx, docID); err != nil {
		return fmt.Errorf("delete keywords: %w", err)
	}
	if err := idx.registry.DeleteDocument(ctx, docID); err != nil {
		return fmt.Errorf("delete registry row: %w", err)
	}
	idx.logger.Info("document deleted", zap.String("doc_id", docID))
	return nil
}

// DeleteByFilename removes every document registered under filename.
// Returns the number of documents deleted. Used by the watcher when a file
// disappears from a watched directory.
func (idx *Indexer) DeleteByFilename(ctx context.Context, filename string) (int, error) {
	docs, err := idx.registry.ListDocuments(ctx)
	if err != nil {
		return 0, fmt.Errorf("list documents: %w", err)
	}
	n := 0
	for _, doc := range docs {
		if doc.Filename != filename {
			continue
		}
		if err := idx.Delete(ctx, doc.ID); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
