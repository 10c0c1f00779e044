package retrieval

import (
	"math"
	"strings"

	"hoa-assistant-backend/models"
)

// ScoringWeights are the tunables of the composite relevance score
type ScoringWeights struct {
	Semantic   float64 `mapstructure:"semantic"`   // provenance weight for SemanticMatch
	Keyword    float64 `mapstructure:"keyword"`    // provenance weight for KeywordFallback
	Coverage   float64 `mapstructure:"coverage"`   // multiplier on token coverage
	Precedence float64 `mapstructure:"precedence"` // multiplier on precedence bonus
	TagOverlap float64 `mapstructure:"tag_overlap"`
	TagDivisor float64 `mapstructure:"tag_divisor"`
}

// DefaultScoringWeights returns the production tuning
func DefaultScoringWeights() ScoringWeights {
	return ScoringWeights{
		Semantic:   1.0,
		Keyword:    0.7,
		Coverage:   0.6,
		Precedence: 0.1,
		TagOverlap: 0.05,
		TagDivisor: 50,
	}
}

// Scorer assigns composite relevance scores to candidate clauses
type Scorer struct {
	weights ScoringWeights
}

// NewScorer creates a scorer with the given weights
func NewScorer(weights ScoringWeights) *Scorer {
	if weights.TagDivisor <= 0 {
		weights.TagDivisor = DefaultScoringWeights().TagDivisor
	}
	return &Scorer{weights: weights}
}

// SourceWeight returns the provenance weight of a match source
func (s *Scorer) SourceWeight(source models.MatchSource) float64 {
	switch source {
	case models.SourceSemantic:
		return s.weights.Semantic
	case models.SourceKeyword:
		return s.weights.Keyword
	default:
		return 0
	}
}

// Score computes sourceWeight + coverage, precedence and tag-overlap terms.
// tokens should already be deduplicated.
func (s *Scorer) Score(clause models.Clause, tokens []string, sourceWeight float64) float64 {
	return sourceWeight +
		s.weights.Coverage*Coverage(clause, tokens) +
		s.weights.Precedence*PrecedenceBonus(clause) +
		s.weights.TagOverlap*s.tagOverlap(clause, tokens)
}

// Rank scores every candidate with its own provenance weight. Input order is kept.
func (s *Scorer) Rank(candidates []models.Clause, tokens []string) []models.ScoredClause {
	scored := make([]models.ScoredClause, 0, len(candidates))
	for _, c := range candidates {
		scored = append(scored, models.ScoredClause{
			Score:  s.Score(c, tokens, s.SourceWeight(c.MatchSource)),
			Clause: c,
		})
	}
	return scored
}

// Coverage is the fraction of tokens found as substrings of the clause summary and text
func Coverage(clause models.Clause, tokens []string) float64 {
	text := clause.SearchText()
	hits := 0
	for _, tok := range tokens {
		if strings.Contains(text, tok) {
			hits++
		}
	}
	return float64(hits) / math.Max(1, float64(len(tokens)))
}

// PrecedenceBonus rewards high-precedence clauses; levels of 10 and above earn nothing
func PrecedenceBonus(clause models.Clause) float64 {
	level, ok := clause.PrecedenceLevel.Int()
	if !ok {
		return 0
	}
	return math.Max(0, float64(10-level)) / 100
}

func (s *Scorer) tagOverlap(clause models.Clause, tokens []string) float64 {
	if len(tokens) == 0 || len(clause.Tags) == 0 {
		return 0
	}
	tags := clause.Tags.Lower()
	n := 0
	for _, tok := range tokens {
		if _, ok := tags[tok]; ok {
			n++
		}
	}
	return float64(n) / s.weights.TagDivisor
}
