package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "/var/lib/kotae/kotae.db"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Storage.DatabasePath != "/var/lib/kotae/kotae.db" {
		t.Errorf("database_path = %s", cfg.Storage.DatabasePath)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_debugTrue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("debug: true\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
storage:
  database_path: "./data/kotae.db"
  upload_dir: "./data/uploads"
watch:
  directories: ["./drop"]
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "data", "kotae.db"); cfg.Storage.DatabasePath != want {
		t.Errorf("database_path = %s, want %s", cfg.Storage.DatabasePath, want)
	}
	if want := filepath.Join(dir, "data", "uploads"); cfg.Storage.UploadDir != want {
		t.Errorf("upload_dir = %s, want %s", cfg.Storage.UploadDir, want)
	}
	if len(cfg.Watch.Directories) != 1 || cfg.Watch.Directories[0] != filepath.Join(dir, "drop") {
		t.Errorf("watch directories = %v", cfg.Watch.Directories)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" || cfg.Server.Port != 8080 {
		t.Errorf("server defaults: %+v", cfg.Server)
	}
	if cfg.Embedding.Provider != "openai" {
		t.Errorf("embedding provider: got %s", cfg.Embedding.Provider)
	}
	if cfg.Embedding.Dimensions != 1536 {
		t.Errorf("openai embedding dimensions: got %d", cfg.Embedding.Dimensions)
	}
	if cfg.LLM.Model == "" || cfg.LLM.MaxTokens != 1024 {
		t.Errorf("llm defaults: %+v", cfg.LLM)
	}
	if cfg.Retrieval.ChunkSize != 512 || cfg.Retrieval.ChunkOverlap != 64 {
		t.Errorf("chunking defaults: %+v", cfg.Retrieval)
	}
	if cfg.Retrieval.TopK != 5 || cfg.Retrieval.OverfetchFactor != 4 {
		t.Errorf("retrieval defaults: %+v", cfg.Retrieval)
	}
	if cfg.Upload.MaxFileSizeMB != 50 {
		t.Errorf("upload limit: got %d", cfg.Upload.MaxFileSizeMB)
	}
}

func TestApplyDefaults_localProviderDimensions(t *testing.T) {
	cfg := &Config{Embedding: EmbeddingConfig{Provider: "local"}}
	ApplyDefaults(cfg)
	if cfg.Embedding.Dimensions != 384 {
		t.Errorf("local embedding dimensions: got %d", cfg.Embedding.Dimensions)
	}
}

func TestRetrievalConfig_MaxRewrites(t *testing.T) {
	r := &RetrievalConfig{}
	if got := r.MaxRewrites(); got != 2 {
		t.Errorf("unset MaxRewrites() = %d, want 2", got)
	}
	zero := 0
	r.MaxRewriteAttempts = &zero
	if got := r.MaxRewrites(); got != 0 {
		t.Errorf("explicit zero MaxRewrites() = %d, want 0", got)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default("/srv/kotae")
	if cfg.Storage.DatabasePath != filepath.Join("/srv/kotae", "kotae.db") {
		t.Errorf("database_path = %s", cfg.Storage.DatabasePath)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saved.yaml")
	cfg := &Config{
		Server:  ServerConfig{Host: "localhost", Port: 9090},
		Storage: StorageConfig{DatabasePath: "/tmp/db"},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("loaded port: got %d", loaded.Server.Port)
	}
}
