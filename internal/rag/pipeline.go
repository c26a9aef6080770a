package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kotae-ai/kotae/internal/llm"
	"github.com/kotae-ai/kotae/internal/models"
)

// Pipeline is the question-answering entry point used by the chat API and
// the CLI. It wraps the retrieval loop with input validation, the empty-index
// short circuit and latency accounting.
type Pipeline struct {
	controller *Controller
	retriever  Retriever
	logger     *zap.Logger
}

// NewPipeline wires a pipeline over a retriever and a completion client.
func NewPipeline(retriever Retriever, completer llm.Completer, cfg Config, opts ...Option) *Pipeline {
	c := NewController(retriever, completer, cfg, opts...)
	return &Pipeline{controller: c, retriever: retriever, logger: c.logger}
}

// Answer runs one question through the pipeline. When the index holds no
// live documents it answers immediately without touching the completion
// model, so an empty deployment costs nothing per question.
func (p *Pipeline) Answer(ctx context.Context, query string) (*models.Answer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query must not be empty")
	}

	start := time.Now()
	if !p.retriever.HasVectors() {
		p.logger.Debug("no indexed documents, skipping retrieval loop")
		return &models.Answer{
			Answer:     notFoundAnswer,
			Sources:    []string{},
			FinalQuery: query,
			LatencyMS:  time.Since(start).Milliseconds(),
		}, nil
	}

	res, err := p.controller.run(ctx, query)
	if err != nil {
		return nil, err
	}
	answer := &models.Answer{
		Answer:     res.answer,
		Sources:    res.sources,
		FinalQuery: res.finalQuery,
		ChunkCount: res.chunkCount,
		LatencyMS:  time.Since(start).Milliseconds(),
	}
	p.logger.Info("question answered",
		zap.Int("chunks", answer.ChunkCount),
		zap.Int("sources", len(answer.Sources)),
		zap.Int64("latency_ms", answer.LatencyMS))
	return answer, nil
}
