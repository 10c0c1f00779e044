package retrieval

import (
	"context"
	"time"

	"hoa-assistant-backend/models"
)

// Embedder turns text into a fixed-length vector
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// SemanticSearcher finds clauses whose embeddings are similar to a query vector.
// Results come back ordered by similarity with Similarity set.
type SemanticSearcher interface {
	SearchSimilar(ctx context.Context, embedding []float32, threshold float64, limit int) ([]models.Clause, error)
}

// ClauseStore is the relational clause table
type ClauseStore interface {
	// FindByKeywords matches any term as a substring of any searchable field.
	// Stores that cannot express the disjunction return ErrDisjunctionUnsupported.
	FindByKeywords(ctx context.Context, q models.KeywordQuery) ([]models.Clause, error)

	// FindBySubstring matches a single term against a single field
	FindBySubstring(ctx context.Context, field models.ClauseField, term string, filters models.Filters, limit int) ([]models.Clause, error)

	// FindByAnyTag returns clauses carrying at least one of tags
	FindByAnyTag(ctx context.Context, tags []string, limit int) ([]models.Clause, error)
}

// Observer receives pipeline measurements. Implementations must be safe for
// concurrent use; the two fetch legs report from separate goroutines.
type Observer interface {
	CandidatesFetched(source models.MatchSource, n int)
	SoftFallbackUsed(source models.MatchSource)
	StageCompleted(stage string, elapsed time.Duration)
}

type noopObserver struct{}

func (noopObserver) CandidatesFetched(models.MatchSource, int) {}
func (noopObserver) SoftFallbackUsed(models.MatchSource)       {}
func (noopObserver) StageCompleted(string, time.Duration)      {}
