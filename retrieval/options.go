package retrieval

// Options configures the retrieval pipeline
type Options struct {
	SimilarityThreshold  float64
	SemanticLimit        int
	KeywordLimit         int
	TopK                 int
	SoftFallbackTags     []string
	SoftFallbackLimit    int
	SubstringConcurrency int // parallel queries on the per-term keyword path
	Weights              ScoringWeights
}

// DefaultOptions returns the production settings
func DefaultOptions() Options {
	return Options{
		SimilarityThreshold:  0.6,
		SemanticLimit:        10,
		KeywordLimit:         10,
		TopK:                 DefaultTopK,
		SoftFallbackTags:     DefaultSoftFallbackTags(),
		SoftFallbackLimit:    5,
		SubstringConcurrency: 4,
		Weights:              DefaultScoringWeights(),
	}
}

// withDefaults replaces unset numeric options with their defaults. A zero
// similarity threshold is a valid setting; only a negative one is unset.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.SimilarityThreshold < 0 {
		o.SimilarityThreshold = d.SimilarityThreshold
	}
	if o.SemanticLimit <= 0 {
		o.SemanticLimit = d.SemanticLimit
	}
	if o.KeywordLimit <= 0 {
		o.KeywordLimit = d.KeywordLimit
	}
	if o.TopK <= 0 {
		o.TopK = d.TopK
	}
	if len(o.SoftFallbackTags) == 0 {
		o.SoftFallbackTags = d.SoftFallbackTags
	}
	if o.SoftFallbackLimit <= 0 {
		o.SoftFallbackLimit = d.SoftFallbackLimit
	}
	if o.SubstringConcurrency <= 0 {
		o.SubstringConcurrency = d.SubstringConcurrency
	}
	if o.Weights == (ScoringWeights{}) {
		o.Weights = d.Weights
	}
	return o
}
