// Package llm provides the completion port used for grading, query rewriting,
// and answer generation.
package llm

import "context"

// Completer turns a prompt into generated text. Implementations return an
// opaque error on transport or model failure and do not retry; retry policy
// belongs to callers.
type Completer interface {
	Complete(ctx context.Context, prompt string, temperature float64) (string, error)
}
