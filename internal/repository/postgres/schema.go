package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is the graph store DDL. Statements are idempotent so Migrate can
// run on every startup. The GIN index on edge properties backs the JSONB
// containment queries used by the traversal filter language.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS nodes (
		id         TEXT PRIMARY KEY,
		label      TEXT NOT NULL,
		name       TEXT NOT NULL,
		properties JSONB NOT NULL DEFAULT '{}'::jsonb,
		vector_id  TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (label, name)
	)`,
	`CREATE TABLE IF NOT EXISTS edges (
		id            TEXT PRIMARY KEY,
		source_id     TEXT NOT NULL REFERENCES nodes (id) ON DELETE CASCADE,
		target_id     TEXT NOT NULL REFERENCES nodes (id) ON DELETE CASCADE,
		relation      TEXT NOT NULL,
		weight        DOUBLE PRECISION NOT NULL DEFAULT 1.0,
		properties    JSONB NOT NULL DEFAULT '{}'::jsonb,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		modified_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		last_accessed TIMESTAMPTZ NOT NULL DEFAULT now(),
		access_count  INTEGER NOT NULL DEFAULT 0 CHECK (access_count >= 0),
		UNIQUE (source_id, target_id, relation)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_nodes_name ON nodes (name)`,
	`CREATE INDEX IF NOT EXISTS idx_edges_source ON edges (source_id)`,
	`CREATE INDEX IF NOT EXISTS idx_edges_target ON edges (target_id)`,
	`CREATE INDEX IF NOT EXISTS idx_edges_relation ON edges (relation)`,
	`CREATE INDEX IF NOT EXISTS idx_edges_last_accessed ON edges (last_accessed)`,
	`CREATE INDEX IF NOT EXISTS idx_edges_properties ON edges USING GIN (properties)`,
}

// Migrate applies the graph store schema.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
