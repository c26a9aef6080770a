package rag

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kotae-ai/kotae/internal/vector"
)

// notFoundAnswer is returned whenever the loop ends with nothing to ground an
// answer on. It is produced without calling the completion model.
const notFoundAnswer = "I couldn't find relevant information in your documents to answer this question. " +
	"Try rephrasing, or upload documents that contain this information."

// gradeExcerptLimit bounds how much of each chunk the grader sees. Grading
// only needs the gist; full chunks would blow up the prompt for large top-k.
const gradeExcerptLimit = 350

func gradePrompt(query string, candidates []*vector.Candidate) string {
	var b strings.Builder
	for i, c := range candidates {
		if i > 0 {
			b.WriteString("\n---\n")
		}
		text := c.Text
		if len(text) > gradeExcerptLimit {
			text = text[:gradeExcerptLimit]
		}
		fmt.Fprintf(&b, "[%d] %s", i, text)
	}
	return fmt.Sprintf(
		"You are a relevance grader. Given this question and document chunks, "+
			"output ONLY a comma-separated list of relevant chunk indices (0-based), or 'none'.\n\n"+
			"Question: %s\n\nChunks:\n%s\n\nRelevant indices:",
		query, b.String())
}

// parseGradeResponse maps the grader's reply onto the candidate slice.
// ok is false when the reply contains neither "none" nor any usable index;
// the caller then falls back to keeping every candidate.
func parseGradeResponse(raw string, candidates []*vector.Candidate) (relevant []*vector.Candidate, ok bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "none" {
		return nil, true
	}
	for _, part := range strings.Split(raw, ",") {
		idx, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		if idx >= 0 && idx < len(candidates) {
			relevant = append(relevant, candidates[idx])
			ok = true
		}
	}
	return relevant, ok
}

func rewritePrompt(original string) string {
	return fmt.Sprintf(
		"Rewrite this question to better match document terminology and improve retrieval. "+
			"Output ONLY the rewritten question.\n\nOriginal: %s\nRewritten:", original)
}

func generatePrompt(query string, candidates []*vector.Candidate) string {
	blocks := make([]string, len(candidates))
	for i, c := range candidates {
		blocks[i] = fmt.Sprintf("[Source: %s, chunk #%d]\n%s", c.DocName, c.ChunkIndex+1, c.Text)
	}
	return fmt.Sprintf(
		"You are a helpful document Q&A assistant. "+
			"Answer the question using ONLY the provided document context. "+
			"Be concise and accurate. Cite the document name when referencing information. "+
			"If the answer isn't in the context, say so clearly.\n\n"+
			"Context:\n%s\n\nQuestion: %s\n\nAnswer:",
		strings.Join(blocks, "\n\n---\n\n"), query)
}

// sourceLabels deduplicates "name (chunk #N)" labels, preserving first-seen
// order so answers cite sources in retrieval rank.
func sourceLabels(candidates []*vector.Candidate) []string {
	seen := make(map[string]struct{}, len(candidates))
	labels := make([]string, 0, len(candidates))
	for _, c := range candidates {
		label := fmt.Sprintf("%s (chunk #%d)", c.DocName, c.ChunkIndex+1)
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}
		labels = append(labels, label)
	}
	return labels
}
