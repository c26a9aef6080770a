// Package storage defines the persistence interface for the document
// registry, chat sessions and message history.
package storage

import (
	"context"
	"errors"

	"github.com/kotae-ai/kotae/internal/models"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Storage defines registry and chat persistence operations. The registry
// tracks upload metadata and indexing status; chunk text itself lives in the
// vector index, not here.
type Storage interface {
	// Document registry
	CreateDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	ListDocuments(ctx context.Context) ([]*models.Document, error)
	SetDocumentStatus(ctx context.Context, id, status string, chunkCount int) error
	DeleteDocument(ctx context.Context, id string) error

	// Chat sessions
	CreateSession(ctx context.Context, id string) (*models.Session, error)
	GetSession(ctx context.Context, id string) (*models.Session, error)
	ListSessions(ctx context.Context) ([]*models.Session, error)
	UpdateSessionTitle(ctx context.Context, id, title string) error
	DeleteSession(ctx context.Context, id string) error

	// Messages
	AddMessage(ctx context.Context, msg *models.Message) error
	GetMessages(ctx context.Context, sessionID string) ([]*models.Message, error)

	// Stats
	Stats(ctx context.Context) (*models.Stats, error)

	Close() error
}
