package repository

import (
	"context"
	"fmt"
	"strings"

	"hoa-assistant-backend/models"
	"hoa-assistant-backend/retrieval"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// Querier is the subset of pgxpool.Pool used for clause lookups
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// ClauseRepository handles queries against the clauses table
type ClauseRepository struct {
	db Querier
}

var _ retrieval.SemanticSearcher = (*ClauseRepository)(nil)
var _ retrieval.ClauseStore = (*ClauseRepository)(nil)

// NewClauseRepository creates a new clause repository
func NewClauseRepository(db Querier) *ClauseRepository {
	return &ClauseRepository{db: db}
}

// Nullable columns are coalesced so rows scan into plain strings
const clauseColumns = `
			COALESCE(id::text, '') AS id,
			COALESCE(clause_id, '') AS clause_id,
			COALESCE(plain_summary, '') AS plain_summary,
			COALESCE(clause_text, '') AS clause_text,
			COALESCE(citation, '') AS citation,
			COALESCE(link, '') AS link,
			COALESCE(document, '') AS document,
			COALESCE(precedence_level::text, '') AS precedence_level,
			COALESCE(tags, '{}') AS tags,
			COALESCE(structure_type, '') AS structure_type,
			COALESCE(concern_level, '') AS concern_level`

// formatVector formats an embedding vector as a pgvector literal
func formatVector(embedding []float32) string {
	if len(embedding) == 0 {
		return "[]"
	}
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range embedding {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%.6f", v)
	}
	b.WriteByte(']')
	return b.String()
}

// likePattern wraps term in ILIKE wildcards, escaping the pattern metacharacters
func likePattern(term string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
	return "%" + escaped + "%"
}

// SearchSimilar performs a cosine similarity search over clause embeddings.
// Only rows with similarity above threshold are returned, best first.
func (r *ClauseRepository) SearchSimilar(
	ctx context.Context,
	embedding []float32,
	threshold float64,
	limit int,
) ([]models.Clause, error) {
	if len(embedding) == 0 {
		return nil, eris.New("repository: empty query embedding")
	}

	query := `
		SELECT` + clauseColumns + `,
			1 - (embedding <=> $1::vector) AS similarity
		FROM clauses
		WHERE
			embedding IS NOT NULL
			AND 1 - (embedding <=> $1::vector) > $2
		ORDER BY
			embedding <=> $1::vector
		LIMIT $3`

	rows, err := r.db.Query(ctx, query, formatVector(embedding), threshold, limit)
	if err != nil {
		return nil, eris.Wrap(err, "repository: query similar clauses")
	}
	return scanClauses(rows, true)
}

// FindByKeywords matches any term against plain_summary or clause_text and
// applies the optional filters.
func (r *ClauseRepository) FindByKeywords(ctx context.Context, q models.KeywordQuery) ([]models.Clause, error) {
	if len(q.Terms) == 0 {
		return []models.Clause{}, nil
	}

	patterns := make([]string, len(q.Terms))
	for i, term := range q.Terms {
		patterns[i] = likePattern(term)
	}

	w := &where{}
	n := w.arg(patterns)
	w.add(fmt.Sprintf("(plain_summary ILIKE ANY($%d) OR clause_text ILIKE ANY($%d))", n, n))
	w.filters(q.Filters)

	return r.selectWhere(ctx, w, q.Limit, "query clauses by keyword")
}

// FindBySubstring matches a single term against a single text field
func (r *ClauseRepository) FindBySubstring(
	ctx context.Context,
	field models.ClauseField,
	term string,
	filters models.Filters,
	limit int,
) ([]models.Clause, error) {
	switch field {
	case models.FieldPlainSummary, models.FieldClauseText:
	default:
		return nil, eris.Errorf("repository: unsupported search field %q", field)
	}

	w := &where{}
	w.add(fmt.Sprintf("%s ILIKE $%d", field, w.arg(likePattern(term))))
	w.filters(filters)

	return r.selectWhere(ctx, w, limit, "query clauses by substring")
}

// FindByAnyTag returns clauses whose tags overlap the given set
func (r *ClauseRepository) FindByAnyTag(ctx context.Context, tags []string, limit int) ([]models.Clause, error) {
	if len(tags) == 0 {
		return []models.Clause{}, nil
	}

	w := &where{}
	w.add(fmt.Sprintf("tags && $%d::text[]", w.arg(tags)))

	return r.selectWhere(ctx, w, limit, "query clauses by tag")
}

func (r *ClauseRepository) selectWhere(ctx context.Context, w *where, limit int, action string) ([]models.Clause, error) {
	query := fmt.Sprintf(`
		SELECT%s
		FROM clauses
		WHERE %s
		ORDER BY id
		LIMIT $%d`, clauseColumns, strings.Join(w.conds, " AND "), w.arg(limit))

	rows, err := r.db.Query(ctx, query, w.args...)
	if err != nil {
		return nil, eris.Wrap(err, "repository: "+action)
	}
	return scanClauses(rows, false)
}

// where accumulates AND-ed predicates and their positional arguments
type where struct {
	conds []string
	args  []any
}

// arg appends a positional argument and returns its placeholder number
func (w *where) arg(v any) int {
	w.args = append(w.args, v)
	return len(w.args)
}

func (w *where) add(cond string) {
	w.conds = append(w.conds, cond)
}

func (w *where) filters(f models.Filters) {
	if len(f.Tags) > 0 {
		w.add(fmt.Sprintf("tags @> $%d::text[]", w.arg(f.Tags)))
	}
	if f.StructureType != "" {
		w.add(fmt.Sprintf("structure_type = $%d", w.arg(f.StructureType)))
	}
	if f.ConcernLevel != "" {
		w.add(fmt.Sprintf("concern_level = $%d", w.arg(f.ConcernLevel)))
	}
}

func scanClauses(rows pgx.Rows, withSimilarity bool) ([]models.Clause, error) {
	defer rows.Close()

	clauses := make([]models.Clause, 0)
	for rows.Next() {
		var (
			c          models.Clause
			precedence string
			tags       []string
		)
		dest := []any{
			&c.ID,
			&c.ClauseID,
			&c.PlainSummary,
			&c.ClauseText,
			&c.Citation,
			&c.Link,
			&c.Document,
			&precedence,
			&tags,
			&c.StructureType,
			&c.ConcernLevel,
		}
		if withSimilarity {
			dest = append(dest, &c.Similarity)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, eris.Wrap(err, "repository: scan clause")
		}
		c.PrecedenceLevel = models.Precedence(precedence)
		c.Tags = tags
		clauses = append(clauses, c)
	}

	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "repository: iterate clauses")
	}
	return clauses, nil
}
