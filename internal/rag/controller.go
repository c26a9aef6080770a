package rag

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kotae-ai/kotae/internal/llm"
	"github.com/kotae-ai/kotae/internal/vector"
)

const (
	defaultTopK        = 5
	defaultMaxRewrites = 2
	defaultTemperature = 0.1

	gradeTemperature   = 0.0
	rewriteTemperature = 0.3
)

// Retriever is the slice of the vector store the loop needs.
type Retriever interface {
	Search(ctx context.Context, query string, k int) ([]*vector.Candidate, error)
	HasVectors() bool
}

// Config tunes the retrieval loop.
type Config struct {
	TopK               int     // candidates per retrieval pass
	MaxRewriteAttempts int     // rewrite budget before forced generation
	Temperature        float64 // sampling temperature for answer generation
}

// Controller drives one question through retrieve, grade, rewrite and
// generate. It holds no per-query state and is safe for concurrent use.
type Controller struct {
	retriever Retriever
	completer llm.Completer
	cfg       Config
	logger    *zap.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger attaches a logger for per-phase debug output.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewController creates the retrieval loop controller. Zero config fields
// take defaults; MaxRewriteAttempts of zero means no rewrites, so callers
// wanting the default budget should leave the field negative or use
// DefaultConfig.
func NewController(retriever Retriever, completer llm.Completer, cfg Config, opts ...Option) *Controller {
	if cfg.TopK <= 0 {
		cfg.TopK = defaultTopK
	}
	if cfg.MaxRewriteAttempts < 0 {
		cfg.MaxRewriteAttempts = defaultMaxRewrites
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = defaultTemperature
	}
	c := &Controller{
		retriever: retriever,
		completer: completer,
		cfg:       cfg,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DefaultConfig returns the stock loop tuning.
func DefaultConfig() Config {
	return Config{
		TopK:               defaultTopK,
		MaxRewriteAttempts: defaultMaxRewrites,
		Temperature:        defaultTemperature,
	}
}

// result is the loop's terminal output, before latency accounting.
type result struct {
	answer     string
	sources    []string
	finalQuery string
	chunkCount int
}

// run executes the state machine until the generate phase produces a result.
// Termination is structural: every grade either routes to generate or spends
// one unit of the rewrite budget, and an exhausted budget forces generate.
func (c *Controller) run(ctx context.Context, query string) (*result, error) {
	st := &queryState{originalQuery: query, currentQuery: query}
	cur := phaseRetrieve
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c.logger.Debug("retrieval loop phase",
			zap.String("phase", cur.String()),
			zap.Int("rewrite_count", st.rewriteCount))

		switch cur {
		case phaseRetrieve:
			if err := c.retrieve(ctx, st); err != nil {
				return nil, err
			}
			cur = phaseGrade
		case phaseGrade:
			c.grade(ctx, st)
			if st.needsRewrite {
				cur = phaseRewrite
			} else {
				cur = phaseGenerate
			}
		case phaseRewrite:
			c.rewrite(ctx, st)
			cur = phaseRetrieve
		case phaseGenerate:
			return c.generate(ctx, st)
		}
	}
}

func (c *Controller) retrieve(ctx context.Context, st *queryState) error {
	candidates, err := c.retriever.Search(ctx, st.currentQuery, c.cfg.TopK)
	if err != nil {
		return fmt.Errorf("retrieve candidates: %w", err)
	}
	st.retrieved = candidates
	return nil
}

// grade asks the model which candidates answer the question. Grading is
// advisory: any model or parse failure keeps all candidates rather than
// discarding retrieval work.
func (c *Controller) grade(ctx context.Context, st *queryState) {
	if len(st.retrieved) == 0 {
		st.relevant = nil
		st.needsRewrite = st.rewriteCount < c.cfg.MaxRewriteAttempts
		return
	}

	raw, err := c.completer.Complete(ctx, gradePrompt(st.currentQuery, st.retrieved), gradeTemperature)
	if err != nil {
		c.logger.Warn("grading failed, keeping all candidates", zap.Error(err))
		st.relevant = st.retrieved
		st.needsRewrite = false
		return
	}
	relevant, ok := parseGradeResponse(raw, st.retrieved)
	if !ok {
		c.logger.Warn("unparseable grading response, keeping all candidates",
			zap.String("response", raw))
		relevant = st.retrieved
	}
	st.relevant = relevant
	st.needsRewrite = len(relevant) == 0 && st.rewriteCount < c.cfg.MaxRewriteAttempts
}

// rewrite rephrases the original question. A failed rewrite keeps the
// current query but still consumes budget, so a dead model cannot loop.
func (c *Controller) rewrite(ctx context.Context, st *queryState) {
	rewritten, err := c.completer.Complete(ctx, rewritePrompt(st.originalQuery), rewriteTemperature)
	if err != nil || rewritten == "" {
		c.logger.Warn("query rewrite failed, retrying with unchanged query", zap.Error(err))
	} else {
		st.currentQuery = rewritten
	}
	st.rewriteCount++
	st.needsRewrite = false
}

func (c *Controller) generate(ctx context.Context, st *queryState) (*result, error) {
	candidates := st.relevant
	if len(candidates) == 0 {
		candidates = st.retrieved
	}
	if len(candidates) == 0 {
		return &result{
			answer:     notFoundAnswer,
			sources:    []string{},
			finalQuery: st.currentQuery,
		}, nil
	}

	answer, err := c.completer.Complete(ctx, generatePrompt(st.currentQuery, candidates), c.cfg.Temperature)
	if err != nil {
		return nil, fmt.Errorf("answer generation: %w", err)
	}
	return &result{
		answer:     answer,
		sources:    sourceLabels(candidates),
		finalQuery: st.currentQuery,
		chunkCount: len(candidates),
	}, nil
}
