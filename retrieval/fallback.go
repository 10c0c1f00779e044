package retrieval

import (
	"context"

	"go.uber.org/zap"

	"hoa-assistant-backend/models"
)

// InjectedFallbackID identifies the synthetic clause used when the store has nothing
const InjectedFallbackID = "FALLBACK_GENERAL"

// DefaultSoftFallbackTags are generic topics most governing documents cover
func DefaultSoftFallbackTags() []string {
	return []string{"shed", "structure", "placement", "approval"}
}

// InjectedFallbackClause is the placeholder clause returned when no stored
// clause can ground an answer.
func InjectedFallbackClause() models.Clause {
	return models.Clause{
		ClauseID:        InjectedFallbackID,
		PlainSummary:    "Standard best practice: Your question is very specific; please check your governing documents or with the ARC or Board for precise guidance.",
		Citation:        "General Guideline",
		Link:            "",
		Document:        "Default Fallback",
		PrecedenceLevel: "9",
		MatchSource:     models.SourceInjected,
	}
}

// SoftFallbackProvider supplies generic clauses when targeted retrieval finds nothing
type SoftFallbackProvider struct {
	store ClauseStore
	tags  []string
	limit int
}

// NewSoftFallbackProvider creates a provider over store
func NewSoftFallbackProvider(store ClauseStore, tags []string, limit int) (*SoftFallbackProvider, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if len(tags) == 0 {
		tags = DefaultSoftFallbackTags()
	}
	if limit <= 0 {
		limit = DefaultOptions().SoftFallbackLimit
	}
	return &SoftFallbackProvider{store: store, tags: tags, limit: limit}, nil
}

// SoftFallback returns clauses tagged with any generic topic, or the injected
// clause when there are none. A nil error always comes with at least one clause.
func (p *SoftFallbackProvider) SoftFallback(ctx context.Context) ([]models.Clause, error) {
	rows, err := p.store.FindByAnyTag(ctx, p.tags, p.limit)
	if err != nil {
		return nil, classify(ErrStore, err)
	}

	if len(rows) == 0 {
		zap.L().Info("retrieval: no generic clauses stored, injecting placeholder")
		return []models.Clause{InjectedFallbackClause()}, nil
	}

	if len(rows) > p.limit {
		rows = rows[:p.limit]
	}
	for i := range rows {
		rows[i].Tag(models.SourceSoft)
	}
	return rows, nil
}
