package retrieval

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"hoa-assistant-backend/models"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type fakeEmbedder struct {
	mu        sync.Mutex
	EmbedFunc func(ctx context.Context, text string) ([]float32, error)
	calls     int
}

func (f *fakeEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.EmbedFunc != nil {
		return f.EmbedFunc(ctx, text)
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

type fakeSearcher struct {
	mu         sync.Mutex
	Hits       []models.Clause
	Err        error
	calls      int
	threshold  float64
	limit      int
	lastVector []float32
}

func (f *fakeSearcher) SearchSimilar(_ context.Context, embedding []float32, threshold float64, limit int) ([]models.Clause, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.threshold = threshold
	f.limit = limit
	f.lastVector = embedding
	if f.Err != nil {
		return nil, f.Err
	}
	return cloneClauses(f.Hits), nil
}

type substringCall struct {
	Field models.ClauseField
	Term  string
}

type fakeStore struct {
	mu sync.Mutex

	KeywordRows []models.Clause
	KeywordErr  error

	SubstringFunc func(field models.ClauseField, term string) []models.Clause
	SubstringErr  error

	TagRows []models.Clause
	TagErr  error

	keywordQueries []models.KeywordQuery
	substringCalls []substringCall
	tagCalls       int
	tagQuery       []string
	tagLimit       int
}

func (f *fakeStore) FindByKeywords(_ context.Context, q models.KeywordQuery) ([]models.Clause, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keywordQueries = append(f.keywordQueries, q)
	if f.KeywordErr != nil {
		return nil, f.KeywordErr
	}
	return cloneClauses(f.KeywordRows), nil
}

func (f *fakeStore) FindBySubstring(_ context.Context, field models.ClauseField, term string, _ models.Filters, _ int) ([]models.Clause, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.substringCalls = append(f.substringCalls, substringCall{Field: field, Term: term})
	if f.SubstringErr != nil {
		return nil, f.SubstringErr
	}
	if f.SubstringFunc == nil {
		return nil, nil
	}
	return cloneClauses(f.SubstringFunc(field, term)), nil
}

func (f *fakeStore) FindByAnyTag(_ context.Context, tags []string, limit int) ([]models.Clause, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tagCalls++
	f.tagQuery = tags
	f.tagLimit = limit
	if f.TagErr != nil {
		return nil, f.TagErr
	}
	return cloneClauses(f.TagRows), nil
}

func cloneClauses(in []models.Clause) []models.Clause {
	if in == nil {
		return nil
	}
	out := make([]models.Clause, len(in))
	copy(out, in)
	return out
}
