package retrieval

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"hoa-assistant-backend/models"
)

// Fetcher gathers candidate clauses from the semantic and keyword legs
type Fetcher struct {
	embedder Embedder
	searcher SemanticSearcher
	store    ClauseStore
	opts     Options
	observer Observer
}

// NewFetcher creates a fetcher. Zero-valued options fall back to DefaultOptions.
func NewFetcher(embedder Embedder, searcher SemanticSearcher, store ClauseStore, opts Options) (*Fetcher, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if searcher == nil {
		return nil, ErrSearcherRequired
	}
	if store == nil {
		return nil, ErrStoreRequired
	}
	return &Fetcher{
		embedder: embedder,
		searcher: searcher,
		store:    store,
		opts:     opts.withDefaults(),
		observer: noopObserver{},
	}, nil
}

// FetchCandidates runs both legs concurrently and returns the semantic hits
// followed by the keyword hits. Results are not deduplicated. Filters only
// restrict the keyword leg.
func (f *Fetcher) FetchCandidates(ctx context.Context, question string, filters models.Filters) ([]models.Clause, error) {
	var semantic, keyword []models.Clause

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		start := time.Now()
		var err error
		semantic, err = f.fetchSemantic(gctx, question)
		f.observer.StageCompleted("semantic", time.Since(start))
		return err
	})
	g.Go(func() error {
		start := time.Now()
		var err error
		keyword, err = f.fetchKeyword(gctx, question, filters)
		f.observer.StageCompleted("keyword", time.Since(start))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	f.observer.CandidatesFetched(models.SourceSemantic, len(semantic))
	f.observer.CandidatesFetched(models.SourceKeyword, len(keyword))
	zap.L().Debug("retrieval: candidates fetched",
		zap.Int("semantic", len(semantic)),
		zap.Int("keyword", len(keyword)),
	)

	candidates := make([]models.Clause, 0, len(semantic)+len(keyword))
	candidates = append(candidates, semantic...)
	candidates = append(candidates, keyword...)
	return candidates, nil
}

func (f *Fetcher) fetchSemantic(ctx context.Context, question string) ([]models.Clause, error) {
	embedding, err := f.embedder.EmbedText(ctx, question)
	if err != nil {
		return nil, classify(ErrEmbedding, err)
	}

	hits, err := f.searcher.SearchSimilar(ctx, embedding, f.opts.SimilarityThreshold, f.opts.SemanticLimit)
	if err != nil {
		return nil, classify(ErrSearch, err)
	}
	for i := range hits {
		hits[i].Tag(models.SourceSemantic)
	}
	return hits, nil
}

// keywordTerms returns the unique keywords, or the trimmed question itself
// when nothing survives stop-word filtering.
func keywordTerms(question string) []string {
	if terms := UniqueKeywords(question); len(terms) > 0 {
		return terms
	}
	if q := strings.TrimSpace(question); q != "" {
		return []string{q}
	}
	return nil
}

func (f *Fetcher) fetchKeyword(ctx context.Context, question string, filters models.Filters) ([]models.Clause, error) {
	terms := keywordTerms(question)
	if len(terms) == 0 {
		return []models.Clause{}, nil
	}

	rows, err := f.store.FindByKeywords(ctx, models.KeywordQuery{
		Terms:   terms,
		Filters: filters,
		Limit:   f.opts.KeywordLimit,
	})
	if errors.Is(err, ErrDisjunctionUnsupported) {
		zap.L().Debug("retrieval: store lacks disjunctive filters, querying per term",
			zap.Int("terms", len(terms)),
		)
		return f.fetchKeywordPerTerm(ctx, terms, filters)
	}
	if err != nil {
		return nil, classify(ErrStore, err)
	}
	for i := range rows {
		rows[i].Tag(models.SourceKeyword)
	}
	return rows, nil
}

// fetchKeywordPerTerm issues one substring query per term per field and merges
// the results in term/field order, keeping the first row seen for each id.
func (f *Fetcher) fetchKeywordPerTerm(ctx context.Context, terms []string, filters models.Filters) ([]models.Clause, error) {
	type lookup struct {
		term  string
		field models.ClauseField
	}
	lookups := make([]lookup, 0, len(terms)*len(models.SearchableFields))
	for _, term := range terms {
		for _, field := range models.SearchableFields {
			lookups = append(lookups, lookup{term: term, field: field})
		}
	}

	results := make([][]models.Clause, len(lookups))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.opts.SubstringConcurrency)
	for i, l := range lookups {
		g.Go(func() error {
			rows, err := f.store.FindBySubstring(gctx, l.field, l.term, filters, f.opts.KeywordLimit)
			if err != nil {
				return classify(ErrStore, err)
			}
			results[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make([]models.Clause, 0, f.opts.KeywordLimit)
	seen := make(map[string]bool)
	for _, rows := range results {
		for _, c := range rows {
			c.Tag(models.SourceKeyword)
			if seen[c.ClauseID] {
				continue
			}
			seen[c.ClauseID] = true
			merged = append(merged, c)
			if len(merged) == f.opts.KeywordLimit {
				return merged, nil
			}
		}
	}
	return merged, nil
}
