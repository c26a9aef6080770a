// Package rag runs the adaptive retrieval loop: retrieve candidate chunks,
// grade them for relevance, rewrite the query when retrieval fails, and
// generate the final answer. The loop is an explicit state machine with a
// bounded rewrite budget, so it always terminates.
package rag

import "github.com/kotae-ai/kotae/internal/vector"

// phase is the controller's position in the retrieval loop.
type phase int

const (
	phaseRetrieve phase = iota
	phaseGrade
	phaseRewrite
	phaseGenerate // terminal
)

func (p phase) String() string {
	switch p {
	case phaseRetrieve:
		return "retrieve"
	case phaseGrade:
		return "grade"
	case phaseRewrite:
		return "rewrite"
	case phaseGenerate:
		return "generate"
	}
	return "unknown"
}

// queryState carries one in-flight question through the loop. It is created
// per call, mutated by each phase, and never shared between queries.
type queryState struct {
	originalQuery string
	currentQuery  string
	retrieved     []*vector.Candidate
	relevant      []*vector.Candidate
	rewriteCount  int
	needsRewrite  bool
}
