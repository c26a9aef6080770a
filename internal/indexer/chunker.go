// Package indexer turns uploaded documents into indexed, searchable chunks.
package indexer

import (
	"strings"
	"unicode"
)

// minChunkWords filters out fragments too short to carry meaning, such as a
// stray heading or page number.
const minChunkWords = 5

// Chunker splits text into overlapping chunks along sentence boundaries.
type Chunker struct {
	chunkSize int // max words per chunk
	overlap   int // words carried into the next chunk
}

// NewChunker creates a chunker with the given size and overlap, in words.
func NewChunker(chunkSize, overlap int) *Chunker {
	if overlap >= chunkSize {
		overlap = chunkSize / 2
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap}
}

// Chunk accumulates whole sentences until the word budget is exceeded, then
// flushes and seeds the next chunk with the last overlap words so context is
// not lost at the cut. Chunks shorter than minChunkWords are dropped.
func (c *Chunker) Chunk(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var chunks []string
	var current []string
	for _, sentence := range splitSentences(text) {
		words := strings.Fields(sentence)
		if len(current)+len(words) > c.chunkSize && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))
			tail := current
			if len(tail) > c.overlap {
				tail = tail[len(tail)-c.overlap:]
			}
			current = append(append([]string{}, tail...), words...)
		} else {
			current = append(current, words...)
		}
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}

	kept := chunks[:0]
	for _, chunk := range chunks {
		if len(strings.Fields(chunk)) >= minChunkWords {
			kept = append(kept, chunk)
		}
	}
	return kept
}

// splitSentences cuts text after sentence punctuation followed by
// whitespace. Dots inside tokens ("v1.2", "a.b@c.com") do not split.
func splitSentences(text string) []string {
	var sentences []string
	var b strings.Builder
	runes := []rune(text)
	for i, r := range runes {
		b.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') &&
			(i+1 >= len(runes) || unicode.IsSpace(runes[i+1])) {
			if s := strings.TrimSpace(b.String()); s != "" {
				sentences = append(sentences, s)
			}
			b.Reset()
		}
	}
	if s := strings.TrimSpace(b.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}
