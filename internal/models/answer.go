package models

// Answer is the result of one full pipeline run for a user question.
type Answer struct {
	// Answer is the generated answer text, or the fixed not-found text when
	// no candidates were available at all.
	Answer string `json:"answer"`
	// Sources is the deduplicated set of "filename (chunk #N)" strings for the
	// candidates actually used during generation. Order is not significant.
	Sources []string `json:"sources"`
	// FinalQuery is the query text used for the last retrieval pass; it differs
	// from the user's question when the controller rewrote the query.
	FinalQuery string `json:"final_query"`
	// ChunkCount is the number of candidates handed to generation.
	ChunkCount int `json:"chunk_count"`
	// LatencyMS is the wall-clock duration of the whole run in milliseconds.
	LatencyMS int64 `json:"latency_ms"`
}
