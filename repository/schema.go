package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Execer is the subset of pgxpool.Pool used for schema setup
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// DefaultEmbeddingDimensions matches text-embedding-ada-002
const DefaultEmbeddingDimensions = 1536

type schemaIndex struct {
	name string
	sql  string
}

var clauseIndexes = []schemaIndex{
	{
		name: "Vector similarity search (HNSW)",
		sql: `CREATE INDEX IF NOT EXISTS idx_clauses_embedding_hnsw ON clauses
USING hnsw (embedding vector_cosine_ops)
WITH (m = 16, ef_construction = 64);`,
	},
	{
		name: "Tag containment and overlap",
		sql:  "CREATE INDEX IF NOT EXISTS idx_clauses_tags ON clauses USING gin (tags);",
	},
	{
		name: "Structure type filtering",
		sql:  "CREATE INDEX IF NOT EXISTS idx_clauses_structure_type ON clauses(structure_type) WHERE structure_type IS NOT NULL;",
	},
	{
		name: "Concern level filtering",
		sql:  "CREATE INDEX IF NOT EXISTS idx_clauses_concern_level ON clauses(concern_level) WHERE concern_level IS NOT NULL;",
	},
	{
		name: "Trigram summary search",
		sql:  "CREATE INDEX IF NOT EXISTS idx_clauses_summary_trgm ON clauses USING gin (plain_summary gin_trgm_ops);",
	},
	{
		name: "Trigram clause text search",
		sql:  "CREATE INDEX IF NOT EXISTS idx_clauses_text_trgm ON clauses USING gin (clause_text gin_trgm_ops);",
	},
}

// ClauseTableSQL returns the DDL for the clauses table
func ClauseTableSQL(dimensions int) string {
	return fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS clauses (
    id BIGSERIAL PRIMARY KEY,
    clause_id TEXT UNIQUE,

    -- Presentation
    plain_summary TEXT,
    clause_text TEXT,
    citation TEXT,
    link TEXT,
    document TEXT,

    -- Integer-like, kept as text because source documents are inconsistent
    precedence_level TEXT,

    -- Filter dimensions
    tags TEXT[],
    structure_type TEXT,
    concern_level TEXT,

    embedding vector(%d),

    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);`, dimensions)
}

// EnsureSchema enables the required extensions and creates the clauses table
// and its indexes. Index failures are logged and skipped.
func EnsureSchema(ctx context.Context, db Execer, dimensions int) error {
	if dimensions <= 0 {
		dimensions = DefaultEmbeddingDimensions
	}

	for _, ext := range []string{"vector", "pg_trgm"} {
		if _, err := db.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS "+ext); err != nil {
			zap.L().Warn("schema: failed to create extension",
				zap.String("extension", ext),
				zap.Error(err),
			)
		}
	}

	if _, err := db.Exec(ctx, ClauseTableSQL(dimensions)); err != nil {
		return eris.Wrap(err, "schema: create clauses table")
	}
	zap.L().Info("schema: clauses table ready", zap.Int("dimensions", dimensions))

	for _, idx := range clauseIndexes {
		if _, err := db.Exec(ctx, idx.sql); err != nil {
			zap.L().Warn("schema: failed to create index",
				zap.String("index", idx.name),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("schema: index ready", zap.String("index", idx.name))
	}
	return nil
}
