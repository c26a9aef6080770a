package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kotae-ai/kotae/internal/models"
	"github.com/kotae-ai/kotae/internal/storage"
	"github.com/kotae-ai/kotae/pkg/utils"
)

// maxMessageLen bounds a single chat message.
const maxMessageLen = 4000

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// handleChat answers one question: it persists the user turn, runs the
// retrieval loop, persists the assistant turn with its sources, and
// auto-titles the session on the first exchange.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.SessionID == "" {
		s.respondError(w, http.StatusBadRequest, "session_id is required")
		return
	}
	if req.Message == "" {
		s.respondError(w, http.StatusBadRequest, "message is required")
		return
	}
	if len(req.Message) > maxMessageLen {
		s.respondError(w, http.StatusBadRequest, "message too long")
		return
	}
	if !s.store.HasVectors() {
		s.respondError(w, http.StatusBadRequest, "No documents are indexed. Please upload documents first.")
		return
	}
	s.logger.Debug("chat request",
		zap.String("session_id", req.SessionID),
		zap.String("message", utils.Truncate(req.Message, 120)))

	ctx := r.Context()
	if _, err := s.storage.CreateSession(ctx, req.SessionID); err != nil {
		s.logger.Error("create session failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	userMsg := &models.Message{SessionID: req.SessionID, Role: "user", Content: req.Message}
	if err := s.storage.AddMessage(ctx, userMsg); err != nil {
		s.logger.Error("save user message failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	answer, err := s.pipeline.Answer(ctx, req.Message)
	if err != nil {
		s.logger.Error("pipeline failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	assistantMsg := &models.Message{
		SessionID: req.SessionID,
		Role:      "assistant",
		Content:   answer.Answer,
		Sources:   answer.Sources,
	}
	if err := s.storage.AddMessage(ctx, assistantMsg); err != nil {
		s.logger.Error("save assistant message failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// First exchange names the session after the question.
	if msgs, err := s.storage.GetMessages(ctx, req.SessionID); err == nil && len(msgs) <= 2 {
		if err := s.storage.UpdateSessionTitle(ctx, req.SessionID, req.Message); err != nil {
			s.logger.Warn("auto-title failed", zap.Error(err))
		}
	}

	s.respondJSON(w, http.StatusOK, answer)
}

// handleUploadDocument accepts a multipart upload, registers the document as
// processing, and indexes it in the background so large files do not hold the
// request open.
func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	maxBytes := s.config.Upload.MaxFileSizeMB * 1024 * 1024
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if !s.indexer.IsSupported(ext) {
		s.respondError(w, http.StatusUnsupportedMediaType,
			"unsupported file type '"+ext+"'. Allowed: "+strings.Join(s.indexer.Supported(), ", "))
		return
	}
	if header.Size > maxBytes {
		s.respondError(w, http.StatusRequestEntityTooLarge,
			"file exceeds "+strconv.FormatInt(s.config.Upload.MaxFileSizeMB, 10)+" MB limit")
		return
	}

	docID := uuid.New().String()
	if err := os.MkdirAll(s.config.Storage.UploadDir, 0755); err != nil {
		s.logger.Error("create upload dir failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	savePath := filepath.Join(s.config.Storage.UploadDir, docID+"."+ext)
	dst, err := os.Create(savePath)
	if err != nil {
		s.logger.Error("create upload file failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	written, err := io.Copy(dst, io.LimitReader(file, maxBytes+1))
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(savePath)
		s.logger.Error("save upload failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if written > maxBytes {
		_ = os.Remove(savePath)
		s.respondError(w, http.StatusRequestEntityTooLarge,
			"file exceeds "+strconv.FormatInt(s.config.Upload.MaxFileSizeMB, 10)+" MB limit")
		return
	}

	doc := &models.Document{
		ID:       docID,
		Filename: filename,
		FileType: ext,
		FileSize: written,
	}
	if err := s.storage.CreateDocument(r.Context(), doc); err != nil {
		_ = os.Remove(savePath)
		s.logger.Error("register document failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Detached from the request context: the upload response returns
	// immediately while extraction and embedding run to completion.
	go func() {
		_ = s.indexer.Process(context.Background(), docID, filename, savePath)
	}()

	s.respondJSON(w, http.StatusAccepted, map[string]string{
		"doc_id":   docID,
		"filename": filename,
		"status":   models.StatusProcessing,
		"message":  "document queued for indexing",
	})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.storage.ListDocuments(r.Context())
	if err != nil {
		s.logger.Error("list documents failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, docs)
}

func (s *Server) handleSearchDocuments(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		s.respondError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	matches, err := s.keywords.Search(r.Context(), query, limit)
	if err != nil {
		s.logger.Error("keyword search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"query":   query,
		"results": matches,
	})
}

// handleDeleteDocument removes a document from every store it touched:
// vectors, keyword index, registry and the saved upload file.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, err := s.storage.GetDocument(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "document not found")
			return
		}
		s.logger.Error("get document failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := s.indexer.Delete(r.Context(), id); err != nil {
		s.logger.Error("delete document failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = os.Remove(filepath.Join(s.config.Storage.UploadDir, id+"."+doc.FileType))
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted", "doc_id": id})
}

// handleCompact rebuilds the vector index without soft-deleted rows.
func (s *Server) handleCompact(w http.ResponseWriter, r *http.Request) {
	n, err := s.store.Compact(r.Context())
	if err != nil {
		s.logger.Error("compact failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "compacted",
		"active_vectors": n,
	})
}

type sessionCreateRequest struct {
	SessionID string `json:"session_id"`
	Title     string `json:"title"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req sessionCreateRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	id := req.SessionID
	if id == "" {
		id = uuid.New().String()
	}
	sess, err := s.storage.CreateSession(r.Context(), id)
	if err != nil {
		s.logger.Error("create session failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if req.Title != "" {
		if err := s.storage.UpdateSessionTitle(r.Context(), id, req.Title); err == nil {
			sess, _ = s.storage.GetSession(r.Context(), id)
		}
	}
	s.respondJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.storage.ListSessions(r.Context())
	if err != nil {
		s.logger.Error("list sessions failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleSessionMessages(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.storage.GetSession(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "session not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	msgs, err := s.storage.GetMessages(r.Context(), id)
	if err != nil {
		s.logger.Error("get messages failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, msgs)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.storage.GetSession(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "session not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := s.storage.DeleteSession(r.Context(), id); err != nil {
		s.logger.Error("delete session failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleStatus reports registry stats, vector index totals and on-disk size.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats, err := s.storage.Stats(r.Context())
	if err != nil {
		s.logger.Error("stats failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]interface{}{
		"stats":          stats,
		"total_vectors":  s.store.TotalVectors(),
		"active_vectors": s.store.ActiveVectors(),
	}
	diskBytes, err := storage.DiskUsageBytes(
		s.config.Storage.DatabasePath,
		s.config.Storage.VectorIndexPath,
		s.config.Storage.KeywordIndexPath,
		s.config.Storage.UploadDir,
	)
	if err == nil {
		resp["disk_usage_bytes"] = diskBytes
	}
	resp["config"] = map[string]interface{}{
		"embedding_provider":   s.config.Embedding.Provider,
		"embedding_dimensions": s.config.Embedding.Dimensions,
		"chunk_size":           s.config.Retrieval.ChunkSize,
		"chunk_overlap":        s.config.Retrieval.ChunkOverlap,
		"top_k":                s.config.Retrieval.TopK,
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "ok",
		"model":             s.config.LLM.Model,
		"documents_indexed": s.store.HasVectors(),
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
