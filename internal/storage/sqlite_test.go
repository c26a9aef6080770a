package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/kotae-ai/kotae/internal/models"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	s, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "kotae.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStorage_DocumentLifecycle(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	doc := &models.Document{ID: "doc1", Filename: "report.pdf", FileType: "pdf", FileSize: 2048}
	if err := s.CreateDocument(ctx, doc); err != nil {
		t.Fatal(err)
	}
	if doc.Status != models.StatusProcessing {
		t.Errorf("status=%q, new documents start processing", doc.Status)
	}

	if err := s.SetDocumentStatus(ctx, "doc1", models.StatusIndexed, 12); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetDocument(ctx, "doc1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.StatusIndexed || got.ChunkCount != 12 {
		t.Errorf("status=%q chunks=%d", got.Status, got.ChunkCount)
	}
	if got.Filename != "report.pdf" || got.FileSize != 2048 {
		t.Errorf("round trip lost fields: %+v", got)
	}

	if err := s.DeleteDocument(ctx, "doc1"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetDocument(ctx, "doc1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err=%v, want ErrNotFound", err)
	}
}

func TestSQLiteStorage_ListDocumentsNewestFirst(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		if err := s.CreateDocument(ctx, &models.Document{
			ID: id, Filename: id + ".txt", FileType: "txt", FileSize: 1,
		}); err != nil {
			t.Fatal(err)
		}
	}
	docs, err := s.ListDocuments(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 3 {
		t.Fatalf("len=%d", len(docs))
	}
	for i := 1; i < len(docs); i++ {
		if docs[i].UploadedAt.After(docs[i-1].UploadedAt) {
			t.Errorf("documents not sorted newest first: %v before %v",
				docs[i-1].UploadedAt, docs[i].UploadedAt)
		}
	}
}

func TestSQLiteStorage_SetStatusUnknownDocument(t *testing.T) {
	s := newTestStorage(t)
	err := s.SetDocumentStatus(context.Background(), "ghost", models.StatusError, 0)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err=%v, want ErrNotFound", err)
	}
}

func TestSQLiteStorage_SessionLifecycle(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	sess, err := s.CreateSession(ctx, "sess1")
	if err != nil {
		t.Fatal(err)
	}
	if sess.Title != "New Chat" || sess.MessageCount != 0 {
		t.Errorf("fresh session: %+v", sess)
	}

	// Creating the same session again is a no-op, not an error.
	again, err := s.CreateSession(ctx, "sess1")
	if err != nil {
		t.Fatal(err)
	}
	if !again.CreatedAt.Equal(sess.CreatedAt) {
		t.Error("re-create replaced the existing session")
	}

	if err := s.UpdateSessionTitle(ctx, "sess1", "Billing questions"); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetSession(ctx, "sess1")
	if got.Title != "Billing questions" {
		t.Errorf("title=%q", got.Title)
	}

	if err := s.DeleteSession(ctx, "sess1"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetSession(ctx, "sess1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err=%v, want ErrNotFound", err)
	}
}

func TestSQLiteStorage_TitleTruncated(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	_, _ = s.CreateSession(ctx, "sess1")

	long := make([]byte, 300)
	for i := range long {
		long[i] = 'x'
	}
	if err := s.UpdateSessionTitle(ctx, "sess1", string(long)); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetSession(ctx, "sess1")
	if len(got.Title) != maxTitleLen {
		t.Errorf("title length=%d, want %d", len(got.Title), maxTitleLen)
	}
}

func TestSQLiteStorage_MessagesAndCascade(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	_, _ = s.CreateSession(ctx, "sess1")

	if err := s.AddMessage(ctx, &models.Message{
		SessionID: "sess1", Role: "user", Content: "what is the refund policy?",
	}); err != nil {
		t.Fatal(err)
	}
	if err := s.AddMessage(ctx, &models.Message{
		SessionID: "sess1", Role: "assistant", Content: "30 days.",
		Sources: []string{"policy.pdf (chunk #2)"},
	}); err != nil {
		t.Fatal(err)
	}

	sess, _ := s.GetSession(ctx, "sess1")
	if sess.MessageCount != 2 {
		t.Errorf("message_count=%d", sess.MessageCount)
	}

	msgs, err := s.GetMessages(ctx, "sess1")
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 {
		t.Fatalf("len=%d", len(msgs))
	}
	if msgs[0].Role != "user" || msgs[1].Role != "assistant" {
		t.Errorf("order wrong: %q then %q", msgs[0].Role, msgs[1].Role)
	}
	if len(msgs[0].Sources) != 0 {
		t.Errorf("user message sources=%v, want empty", msgs[0].Sources)
	}
	if len(msgs[1].Sources) != 1 || msgs[1].Sources[0] != "policy.pdf (chunk #2)" {
		t.Errorf("sources=%v", msgs[1].Sources)
	}

	if err := s.DeleteSession(ctx, "sess1"); err != nil {
		t.Fatal(err)
	}
	msgs, err = s.GetMessages(ctx, "sess1")
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 0 {
		t.Errorf("messages survived session delete: %d", len(msgs))
	}
}

func TestSQLiteStorage_StatsCountsIndexedOnly(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	_ = s.CreateDocument(ctx, &models.Document{ID: "a", Filename: "a.pdf", FileType: "pdf", FileSize: 100})
	_ = s.SetDocumentStatus(ctx, "a", models.StatusIndexed, 4)
	_ = s.CreateDocument(ctx, &models.Document{ID: "b", Filename: "b.pdf", FileType: "pdf", FileSize: 900})
	_ = s.SetDocumentStatus(ctx, "b", models.StatusError, 0)
	_ = s.CreateDocument(ctx, &models.Document{ID: "c", Filename: "c.pdf", FileType: "pdf", FileSize: 50})

	_, _ = s.CreateSession(ctx, "sess1")
	_ = s.AddMessage(ctx, &models.Message{SessionID: "sess1", Role: "user", Content: "hi"})

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalDocuments != 1 || stats.TotalChunks != 4 || stats.TotalSizeBytes != 100 {
		t.Errorf("document stats: %+v", stats)
	}
	if stats.TotalSessions != 1 || stats.TotalMessages != 1 {
		t.Errorf("chat stats: %+v", stats)
	}
}

func TestSQLiteStorage_ReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kotae.db")
	ctx := context.Background()

	s, err := NewSQLiteStorage(path)
	if err != nil {
		t.Fatal(err)
	}
	_ = s.CreateDocument(ctx, &models.Document{ID: "a", Filename: "a.txt", FileType: "txt", FileSize: 10})
	_ = s.Close()

	s2, err := NewSQLiteStorage(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	if _, err := s2.GetDocument(ctx, "a"); err != nil {
		t.Errorf("document lost across reopen: %v", err)
	}
}
