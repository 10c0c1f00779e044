package retrieval

import (
	"sort"

	"hoa-assistant-backend/models"
)

// DefaultTopK is the number of clauses handed to answer generation
const DefaultTopK = 5

// SelectTop sorts candidates by descending score and returns at most k clauses
// with distinct ClauseIDs. Ties keep their input order, so semantic hits stay
// ahead of keyword hits with the same score.
func SelectTop(scored []models.ScoredClause, k int) []models.Clause {
	if k <= 0 {
		return []models.Clause{}
	}

	ranked := make([]models.ScoredClause, len(scored))
	copy(ranked, scored)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	seen := make(map[string]bool, k)
	selected := make([]models.Clause, 0, k)
	for _, sc := range ranked {
		id := sc.Clause.ClauseID
		if seen[id] {
			continue
		}
		seen[id] = true
		selected = append(selected, sc.Clause)
		if len(selected) == k {
			break
		}
	}
	return selected
}
