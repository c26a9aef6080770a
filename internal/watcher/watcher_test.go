package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kotae-ai/kotae/internal/extract"
)

type recorder struct {
	mu       sync.Mutex
	ingested []string
	removed  []string
}

func (r *recorder) onIngest(path string) {
	r.mu.Lock()
	r.ingested = append(r.ingested, path)
	r.mu.Unlock()
}

func (r *recorder) onRemove(path string) {
	r.mu.Lock()
	r.removed = append(r.removed, path)
	r.mu.Unlock()
}

func (r *recorder) ingestedPaths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ingested...)
}

func startWatcher(t *testing.T, roots []string, rec *recorder) *Watcher {
	t.Helper()
	w := NewWatcher(roots, extract.NewExtractor(), rec.onIngest, rec.onRemove,
		WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(w.Stop)
	return w
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
}

func TestWatcher_IngestsSettledFile(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	startWatcher(t, []string{dir}, rec)

	writeFile(t, filepath.Join(dir, "dropped.txt"), "hello")
	time.Sleep(300 * time.Millisecond)

	paths := rec.ingestedPaths()
	if len(paths) < 1 || !strings.HasSuffix(paths[0], "dropped.txt") {
		t.Errorf("ingested=%v", paths)
	}
}

func TestWatcher_IgnoresUnsupportedFiles(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	startWatcher(t, []string{dir}, rec)

	writeFile(t, filepath.Join(dir, "junk.exe"), "binary")
	time.Sleep(300 * time.Millisecond)

	if paths := rec.ingestedPaths(); len(paths) != 0 {
		t.Errorf("unsupported file ingested: %v", paths)
	}
}

func TestWatcher_RemoveCallback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doomed.md")
	writeFile(t, path, "content")

	rec := &recorder{}
	startWatcher(t, []string{dir}, rec)

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.removed) != 1 || !strings.HasSuffix(rec.removed[0], "doomed.md") {
		t.Errorf("removed=%v", rec.removed)
	}
}

func TestWatcher_SyncExisting(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "old.txt"), "already here")
	writeFile(t, filepath.Join(dir, "skip.bin"), "x")

	rec := &recorder{}
	w := startWatcher(t, []string{dir}, rec)
	w.SyncExisting()

	paths := rec.ingestedPaths()
	if len(paths) != 1 || !strings.HasSuffix(paths[0], "old.txt") {
		t.Errorf("ingested=%v", paths)
	}
}

func TestWatcher_CreatesMissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "drop", "here")

	rec := &recorder{}
	w := NewWatcher([]string{root}, extract.NewExtractor(), rec.onIngest, nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if _, err := os.Stat(root); err != nil {
		t.Errorf("root should exist after Start: %v", err)
	}
	if got := w.Roots(); len(got) != 1 {
		t.Errorf("Roots()=%v", got)
	}
}

func TestWatcher_NewSubdirectoryIngested(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	startWatcher(t, []string{dir}, rec)

	sub := filepath.Join(dir, "batch")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	// Give the watcher a moment to register the new directory.
	time.Sleep(200 * time.Millisecond)
	writeFile(t, filepath.Join(sub, "inside.md"), "nested content")
	time.Sleep(300 * time.Millisecond)

	found := false
	for _, p := range rec.ingestedPaths() {
		if strings.HasSuffix(p, "inside.md") {
			found = true
		}
	}
	if !found {
		t.Errorf("file in new subdirectory not ingested: %v", rec.ingestedPaths())
	}
}

func TestWatcher_DebounceCollapsesWrites(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	startWatcher(t, []string{dir}, rec)

	path := filepath.Join(dir, "busy.txt")
	for i := 0; i < 5; i++ {
		writeFile(t, path, strings.Repeat("x", i+1))
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(300 * time.Millisecond)

	count := 0
	for _, p := range rec.ingestedPaths() {
		if p == path {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected one ingest after write burst, got %d", count)
	}
}
