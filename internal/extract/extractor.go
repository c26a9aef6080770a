// Package extract provides text extraction from uploaded document formats.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// supportedExts lists the extensions the extractor accepts, without dots.
// The upload handler rejects anything else before the file touches disk.
var supportedExts = []string{"pdf", "txt", "md", "docx", "csv", "xlsx"}

// Extractor extracts plain text from document files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Supported returns the accepted file extensions, without leading dots.
func (e *Extractor) Supported() []string {
	out := make([]string, len(supportedExts))
	copy(out, supportedExts)
	return out
}

// IsSupported reports whether ext (with or without leading dot, any case)
// names a format the extractor can handle.
func (e *Extractor) IsSupported(ext string) bool {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, s := range supportedExts {
		if s == ext {
			return true
		}
	}
	return false
}

// Extract reads the file at path and returns its text content. The format
// is chosen by extension; unsupported extensions are an error rather than a
// plain-text fallback, so binary junk never reaches the chunker.
func (e *Extractor) Extract(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return e.ExtractBytes(content, filepath.Ext(path))
}

// ExtractBytes extracts text from content based on the given extension.
// ext may include the leading dot (e.g. ".pdf").
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, error) {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "pdf":
		return extractPDF(content)
	case "docx":
		return extractDOCX(content)
	case "xlsx":
		return extractExcel(content)
	case "csv":
		return extractCSV(content)
	case "txt", "md":
		return extractPlain(content)
	default:
		return "", fmt.Errorf("unsupported file type: %q", ext)
	}
}
