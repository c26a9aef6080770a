// Package embedding provides the text embedding port and its implementations:
// a local ONNX model (cgo), an OpenAI-compatible HTTP client, and a
// deterministic mock for tests.
package embedding

import "context"

// Embedder converts text into fixed-dimension normalized vectors. The
// dimension is constant across calls for a given configuration; chunk and
// query embeddings from the same Embedder are directly comparable.
type Embedder interface {
	// Embed returns the vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch returns one vector per input text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	// Dimensions returns the embedding dimension.
	Dimensions() int
	Close() error
}
