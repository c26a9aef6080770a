// Package config provides configuration loading and structs for the kotae
// server and CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Upload    UploadConfig    `yaml:"upload"`
	Watch     WatchConfig     `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds paths for the database, indices and uploads.
type StorageConfig struct {
	DatabasePath     string `yaml:"database_path"`
	VectorIndexPath  string `yaml:"vector_index_path"`
	KeywordIndexPath string `yaml:"keyword_index_path"`
	UploadDir        string `yaml:"upload_dir"`
}

// EmbeddingConfig selects and tunes the embedding backend.
type EmbeddingConfig struct {
	// Provider is "openai", "local" (ONNX runtime, requires cgo) or "mock"
	// (deterministic offline embedder for development).
	Provider string `yaml:"provider"`

	// openai provider settings. APIKey falls back to the OPENAI_API_KEY
	// environment variable when empty.
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`

	// local provider settings.
	ModelPath string `yaml:"model_path"`
	MaxTokens int    `yaml:"max_tokens"`
	CacheSize int    `yaml:"cache_size"`
}

// LLMConfig holds completion model settings. Any OpenAI-compatible chat
// completions endpoint works. APIKey falls back to OPENAI_API_KEY.
type LLMConfig struct {
	BaseURL     string  `yaml:"base_url"`
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

// RetrievalConfig tunes chunking and the retrieval loop.
type RetrievalConfig struct {
	ChunkSize    int `yaml:"chunk_size"`    // words per chunk
	ChunkOverlap int `yaml:"chunk_overlap"` // words carried between chunks
	TopK         int `yaml:"top_k"`         // candidates per retrieval pass
	// MaxRewriteAttempts is a pointer so an explicit 0 (no rewrites) can be
	// told apart from unset.
	MaxRewriteAttempts *int `yaml:"max_rewrite_attempts"`
	OverfetchFactor    int  `yaml:"overfetch_factor"` // soft-delete headroom per search
}

// MaxRewrites returns the rewrite budget, defaulting when unset.
func (r *RetrievalConfig) MaxRewrites() int {
	if r.MaxRewriteAttempts != nil {
		return *r.MaxRewriteAttempts
	}
	return 2
}

// UploadConfig holds upload limits.
type UploadConfig struct {
	MaxFileSizeMB int64 `yaml:"max_file_size_mb"`
}

// WatchConfig holds drop-directory settings. Files copied into these
// directories are ingested automatically.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
}

// Load reads and parses the config file at path, applies defaults, and
// expands relative paths.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.VectorIndexPath = expandPath(cfg.Storage.VectorIndexPath, configDir)
	cfg.Storage.KeywordIndexPath = expandPath(cfg.Storage.KeywordIndexPath, configDir)
	cfg.Storage.UploadDir = expandPath(cfg.Storage.UploadDir, configDir)
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	return &cfg, nil
}

// Default returns the stock configuration rooted at dataDir, for running
// without a config file.
func Default(dataDir string) *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.Storage.DatabasePath = filepath.Join(dataDir, "kotae.db")
	cfg.Storage.VectorIndexPath = filepath.Join(dataDir, "vectors")
	cfg.Storage.KeywordIndexPath = filepath.Join(dataDir, "keyword.bleve")
	cfg.Storage.UploadDir = filepath.Join(dataDir, "uploads")
	return cfg
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are
// relative to configDir; other relative paths are relative to the home
// directory.
func expandPath(path, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
