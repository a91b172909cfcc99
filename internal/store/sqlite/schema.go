// ABOUTME: SQLite schema for memory records, teaching strategies, and tool audit
// ABOUTME: Creates all tables and indexes on open
package sqlite

// Schema contains all SQL statements for database initialization
const Schema = `
-- Memory records (user facts and relational notes share one shape)
CREATE TABLE IF NOT EXISTS memories (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    kind TEXT NOT NULL,
    content TEXT NOT NULL,
    summary TEXT NOT NULL,
    category TEXT NOT NULL,
    embedding BLOB,
    emotional_arousal REAL DEFAULT 0,
    emotional_valence REAL DEFAULT 0,
    dominant_emotion TEXT,
    llm_importance REAL DEFAULT 0,
    memory_strength REAL DEFAULT 0,
    current_importance REAL DEFAULT 0,
    confidence REAL DEFAULT 1.0,
    times_cited INTEGER DEFAULT 0,
    times_retrieved_unused INTEGER DEFAULT 0,
    effectiveness_score REAL DEFAULT 0,
    granularity TEXT DEFAULT 'session',
    source_session_id TEXT,
    source_type TEXT DEFAULT 'conversation',
    tags TEXT,
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL,
    last_cited_at DATETIME
);

-- Teaching strategies, one row per (owner, topic, strategy)
CREATE TABLE IF NOT EXISTS strategies (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    topic TEXT NOT NULL,
    strategy_used TEXT NOT NULL,
    outcome TEXT NOT NULL,
    success_score REAL DEFAULT 0,
    times_used INTEGER DEFAULT 1,
    evidence TEXT,
    created_at DATETIME NOT NULL,
    last_used_at DATETIME NOT NULL,
    UNIQUE(owner_id, topic, strategy_used)
);

-- Audit trail for agent-invoked memory tools
CREATE TABLE IF NOT EXISTS tool_audit (
    id TEXT PRIMARY KEY,
    tool TEXT NOT NULL,
    owner_id TEXT NOT NULL,
    memory_id TEXT,
    reason TEXT,
    success INTEGER NOT NULL,
    created_at DATETIME NOT NULL
);

-- Indexes for owner-scoped querying
CREATE INDEX IF NOT EXISTS idx_memories_owner ON memories(owner_id);
CREATE INDEX IF NOT EXISTS idx_memories_owner_kind ON memories(owner_id, kind);
CREATE INDEX IF NOT EXISTS idx_memories_owner_category ON memories(owner_id, category);
CREATE INDEX IF NOT EXISTS idx_strategies_owner ON strategies(owner_id);
CREATE INDEX IF NOT EXISTS idx_audit_owner ON tool_audit(owner_id);
`
