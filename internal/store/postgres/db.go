// ABOUTME: Postgres-backed store for shared multi-instance deployments
// ABOUTME: Uses a pgx connection pool; schema is applied on open
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS memories (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    kind TEXT NOT NULL,
    content TEXT NOT NULL,
    summary TEXT NOT NULL,
    category TEXT NOT NULL,
    embedding BYTEA,
    emotional_arousal DOUBLE PRECISION DEFAULT 0,
    emotional_valence DOUBLE PRECISION DEFAULT 0,
    dominant_emotion TEXT,
    llm_importance DOUBLE PRECISION DEFAULT 0,
    memory_strength DOUBLE PRECISION DEFAULT 0,
    current_importance DOUBLE PRECISION DEFAULT 0,
    confidence DOUBLE PRECISION DEFAULT 1.0,
    times_cited INTEGER DEFAULT 0,
    times_retrieved_unused INTEGER DEFAULT 0,
    effectiveness_score DOUBLE PRECISION DEFAULT 0,
    granularity TEXT DEFAULT 'session',
    source_session_id TEXT,
    source_type TEXT DEFAULT 'conversation',
    tags TEXT,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL,
    last_cited_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS strategies (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    topic TEXT NOT NULL,
    strategy_used TEXT NOT NULL,
    outcome TEXT NOT NULL,
    success_score DOUBLE PRECISION DEFAULT 0,
    times_used INTEGER DEFAULT 1,
    evidence TEXT,
    created_at TIMESTAMPTZ NOT NULL,
    last_used_at TIMESTAMPTZ NOT NULL,
    UNIQUE(owner_id, topic, strategy_used)
);

CREATE TABLE IF NOT EXISTS tool_audit (
    id TEXT PRIMARY KEY,
    tool TEXT NOT NULL,
    owner_id TEXT NOT NULL,
    memory_id TEXT,
    reason TEXT,
    success BOOLEAN NOT NULL,
    created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_memories_owner ON memories(owner_id);
CREATE INDEX IF NOT EXISTS idx_memories_owner_kind ON memories(owner_id, kind);
CREATE INDEX IF NOT EXISTS idx_strategies_owner ON strategies(owner_id);
CREATE INDEX IF NOT EXISTS idx_audit_owner ON tool_audit(owner_id);
`

// Store is the Postgres implementation of store.Store
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to Postgres and applies the schema
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the connection pool
func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func nullString(v string) sql.NullString {
	if v == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}
