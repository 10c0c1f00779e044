package retrieval

import (
	"context"
	"time"

	"go.uber.org/zap"

	"hoa-assistant-backend/models"
)

// Result is the outcome of one retrieval run
type Result struct {
	Clauses    []models.Clause
	NoMatches  bool // Clauses came from the soft fallback
	Candidates int  // raw candidates before deduplication
}

// Pipeline fetches, scores, deduplicates and selects the clauses that ground an answer
type Pipeline struct {
	fetcher  *Fetcher
	scorer   *Scorer
	fallback *SoftFallbackProvider
	topK     int
	observer Observer
}

// PipelineOption is a functional option for Pipeline
type PipelineOption func(*Pipeline)

// WithObserver reports pipeline measurements to o
func WithObserver(o Observer) PipelineOption {
	return func(p *Pipeline) {
		if o != nil {
			p.observer = o
		}
	}
}

// NewPipeline wires the pipeline stages over the given collaborators
func NewPipeline(embedder Embedder, searcher SemanticSearcher, store ClauseStore, opts Options, popts ...PipelineOption) (*Pipeline, error) {
	opts = opts.withDefaults()

	fetcher, err := NewFetcher(embedder, searcher, store, opts)
	if err != nil {
		return nil, err
	}
	fallback, err := NewSoftFallbackProvider(store, opts.SoftFallbackTags, opts.SoftFallbackLimit)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		fetcher:  fetcher,
		scorer:   NewScorer(opts.Weights),
		fallback: fallback,
		topK:     opts.TopK,
		observer: noopObserver{},
	}
	for _, opt := range popts {
		opt(p)
	}
	fetcher.observer = p.observer
	return p, nil
}

// Retrieve returns up to topK clauses for question. When nothing matches, the
// soft fallback supplies the clauses and NoMatches is set.
func (p *Pipeline) Retrieve(ctx context.Context, question string, filters models.Filters) (*Result, error) {
	candidates, err := p.fetcher.FetchCandidates(ctx, question, filters)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	scored := p.scorer.Rank(candidates, ScoringTokens(question))
	selected := SelectTop(scored, p.topK)
	p.observer.StageCompleted("rank", time.Since(start))

	result := &Result{Clauses: selected, Candidates: len(candidates)}
	if len(selected) > 0 {
		return result, nil
	}

	zap.L().Info("retrieval: no matching clauses, using soft fallback")
	fallback, err := p.fallback.SoftFallback(ctx)
	if err != nil {
		return nil, err
	}
	p.observer.SoftFallbackUsed(fallback[0].MatchSource)

	result.Clauses = fallback
	result.NoMatches = true
	return result, nil
}
