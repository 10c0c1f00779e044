package retrieval

import (
	"errors"
	"fmt"
)

var (
	// ErrEmbedding is returned when the question could not be embedded
	ErrEmbedding = errors.New("retrieval: embedding failed")

	// ErrSearch is returned when the semantic search store fails
	ErrSearch = errors.New("retrieval: semantic search failed")

	// ErrStore is returned when a relational clause lookup fails
	ErrStore = errors.New("retrieval: clause store query failed")

	// ErrDisjunctionUnsupported is returned by stores that cannot OR substring
	// predicates together. The fetcher falls back to per-term queries.
	ErrDisjunctionUnsupported = errors.New("retrieval: disjunctive filter not supported")

	ErrEmbedderRequired = errors.New("retrieval: embedder required")
	ErrSearcherRequired = errors.New("retrieval: semantic searcher required")
	ErrStoreRequired    = errors.New("retrieval: clause store required")
)

// classify tags err with a pipeline stage sentinel while keeping the cause reachable
func classify(kind, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", kind, err)
}
