// Package models defines core data structures for documents, chat sessions, and answers.
package models

import "time"

// Document status lifecycle. A document is created as processing, and moves to
// indexed or errored once background ingestion finishes.
const (
	StatusProcessing = "processing"
	StatusIndexed    = "indexed"
	StatusError      = "error"
)

// Document represents an uploaded document in the registry.
// The extracted text itself is not stored here; chunks live in the vector store.
type Document struct {
	ID         string    `json:"id" db:"id"`
	Filename   string    `json:"filename" db:"filename"`
	FileType   string    `json:"file_type" db:"file_type"`
	FileSize   int64     `json:"file_size" db:"file_size"`
	ChunkCount int       `json:"chunk_count" db:"chunk_count"`
	Status     string    `json:"status" db:"status"`
	UploadedAt time.Time `json:"uploaded_at" db:"uploaded_at"`
}

// Session represents a chat session.
type Session struct {
	ID           string    `json:"id" db:"id"`
	Title        string    `json:"title" db:"title"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	MessageCount int       `json:"message_count" db:"message_count"`
}

// Message is a single chat turn within a session. Sources is populated for
// assistant messages with the provenance of the answer.
type Message struct {
	ID        int64     `json:"id" db:"id"`
	SessionID string    `json:"session_id" db:"session_id"`
	Role      string    `json:"role" db:"role"`
	Content   string    `json:"content" db:"content"`
	Sources   []string  `json:"sources" db:"sources"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Stats aggregates registry and index counters for the status endpoint.
type Stats struct {
	TotalDocuments int64 `json:"total_documents"`
	TotalChunks    int64 `json:"total_chunks"`
	TotalSizeBytes int64 `json:"total_size_bytes"`
	TotalSessions  int64 `json:"total_sessions"`
	TotalMessages  int64 `json:"total_messages"`
}
