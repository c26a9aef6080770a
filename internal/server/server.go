// Package server provides the HTTP API for kotae: chat, document management,
// sessions and status.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kotae-ai/kotae/internal/config"
	"github.com/kotae-ai/kotae/internal/indexer"
	"github.com/kotae-ai/kotae/internal/keyword"
	"github.com/kotae-ai/kotae/internal/rag"
	"github.com/kotae-ai/kotae/internal/storage"
	"github.com/kotae-ai/kotae/internal/vector"
)

// Server is the HTTP server for the kotae API.
type Server struct {
	pipeline *rag.Pipeline
	indexer  *indexer.Indexer
	storage  storage.Storage
	store    *vector.Store
	keywords keyword.KeywordIndex
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	pipeline *rag.Pipeline,
	idx *indexer.Indexer,
	store *vector.Store,
	keywords keyword.KeywordIndex,
	st storage.Storage,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		pipeline: pipeline,
		indexer:  idx,
		storage:  st,
		store:    store,
		keywords: keywords,
		config:   cfg,
		logger:   logger,
	}
}

// Router builds the chi router with all API routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/chat", s.handleChat)

	r.Post("/api/documents/upload", s.handleUploadDocument)
	r.Get("/api/documents", s.handleListDocuments)
	r.Get("/api/documents/search", s.handleSearchDocuments)
	r.Delete("/api/documents/{id}", s.handleDeleteDocument)

	r.Post("/api/index/compact", s.handleCompact)

	r.Post("/api/sessions", s.handleCreateSession)
	r.Get("/api/sessions", s.handleListSessions)
	r.Get("/api/sessions/{id}/messages", s.handleSessionMessages)
	r.Delete("/api/sessions/{id}", s.handleDeleteSession)

	r.Get("/api/status", s.handleStatus)
	r.Get("/health", s.handleHealth)

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
