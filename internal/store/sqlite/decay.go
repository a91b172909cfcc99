// ABOUTME: Batched importance decay over the memories table
// ABOUTME: Decay math runs in Go because the sqlite driver has no exp()
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/mrbrandonmills/professor-carl-memory/internal/scoring"
)

// DecayBatch decays current_importance for up to batchSize live rows with
// id > cursor, in id order. Returns the cursor for the next batch, or ""
// when the table has been fully walked. Elapsed time is measured from the
// later of creation and last citation, so a citation resets the clock.
func (s *Store) DecayBatch(ctx context.Context, cursor string, batchSize int, decayRate float64, now time.Time, dryRun bool) (string, int, error) {
	if batchSize <= 0 {
		batchSize = 200
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, current_importance, created_at, last_cited_at FROM memories
		 WHERE id > ? AND NOT (memory_strength = 0 AND current_importance = 0)
		 ORDER BY id LIMIT ?`,
		cursor, batchSize)
	if err != nil {
		return "", 0, fmt.Errorf("failed to query decay batch: %w", err)
	}

	type decayRow struct {
		id         string
		importance float64
		createdAt  time.Time
	}
	var batch []decayRow
	for rows.Next() {
		var r decayRow
		var lastCitedAt sql.NullTime
		if err := rows.Scan(&r.id, &r.importance, &r.createdAt, &lastCitedAt); err != nil {
			_ = rows.Close()
			return "", 0, fmt.Errorf("failed to scan decay row: %w", err)
		}
		if lastCitedAt.Valid && lastCitedAt.Time.After(r.createdAt) {
			r.createdAt = lastCitedAt.Time
		}
		batch = append(batch, r)
	}
	if err := rows.Close(); err != nil {
		return "", 0, err
	}
	if err := rows.Err(); err != nil {
		return "", 0, err
	}
	if len(batch) == 0 {
		return "", 0, nil
	}

	touched := 0
	for _, r := range batch {
		decayed := scoring.DecayedImportance(r.importance, now.Sub(r.createdAt), decayRate)
		if math.Abs(decayed-r.importance) < 1e-9 {
			continue
		}
		touched++
		if dryRun {
			continue
		}
		if _, err := s.db.ExecContext(ctx,
			`UPDATE memories SET current_importance = ?, updated_at = ? WHERE id = ?`,
			decayed, now, r.id); err != nil {
			return "", touched, fmt.Errorf("failed to apply decay: %w", err)
		}
	}

	if len(batch) < batchSize {
		return "", touched, nil
	}
	return batch[len(batch)-1].id, touched, nil
}
