// ABOUTME: Decay batches and the tool audit trail on Postgres
// ABOUTME: Decay math runs in Go to stay identical across backends
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/mrbrandonmills/professor-carl-memory/internal/scoring"
	"github.com/mrbrandonmills/professor-carl-memory/internal/store"
)

func (s *Store) DecayBatch(ctx context.Context, cursor string, batchSize int, decayRate float64, now time.Time, dryRun bool) (string, int, error) {
	if batchSize <= 0 {
		batchSize = 200
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, current_importance, created_at, last_cited_at FROM memories
		 WHERE id > $1 AND NOT (memory_strength = 0 AND current_importance = 0)
		 ORDER BY id LIMIT $2`,
		cursor, batchSize)
	if err != nil {
		return "", 0, fmt.Errorf("failed to query decay batch: %w", err)
	}

	type decayRow struct {
		id         string
		importance float64
		lastTouch  time.Time
	}
	var batch []decayRow
	for rows.Next() {
		var r decayRow
		var lastCitedAt sql.NullTime
		if err := rows.Scan(&r.id, &r.importance, &r.lastTouch, &lastCitedAt); err != nil {
			rows.Close()
			return "", 0, fmt.Errorf("failed to scan decay row: %w", err)
		}
		if lastCitedAt.Valid && lastCitedAt.Time.After(r.lastTouch) {
			r.lastTouch = lastCitedAt.Time
		}
		batch = append(batch, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return "", 0, err
	}
	if len(batch) == 0 {
		return "", 0, nil
	}

	touched := 0
	for _, r := range batch {
		decayed := scoring.DecayedImportance(r.importance, now.Sub(r.lastTouch), decayRate)
		if math.Abs(decayed-r.importance) < 1e-9 {
			continue
		}
		touched++
		if dryRun {
			continue
		}
		if _, err := s.pool.Exec(ctx,
			`UPDATE memories SET current_importance = $1, updated_at = $2 WHERE id = $3`,
			decayed, now, r.id); err != nil {
			return "", touched, fmt.Errorf("failed to apply decay: %w", err)
		}
	}

	if len(batch) < batchSize {
		return "", touched, nil
	}
	return batch[len(batch)-1].id, touched, nil
}

func (s *Store) AppendAudit(ctx context.Context, entry *store.AuditEntry) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO tool_audit (id, tool, owner_id, memory_id, reason, success, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.Tool, entry.OwnerID,
		nullString(entry.MemoryID), nullString(entry.Reason),
		entry.Success, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

func (s *Store) ListAudit(ctx context.Context, ownerID string, limit int) ([]store.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, tool, owner_id, memory_id, reason, success, created_at
		 FROM tool_audit WHERE owner_id = $1 ORDER BY created_at DESC LIMIT $2`,
		ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []store.AuditEntry
	for rows.Next() {
		var e store.AuditEntry
		var memoryID, reason sql.NullString
		if err := rows.Scan(&e.ID, &e.Tool, &e.OwnerID, &memoryID, &reason, &e.Success, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		e.MemoryID = memoryID.String
		e.Reason = reason.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
