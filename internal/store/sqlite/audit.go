// ABOUTME: Append-only audit trail for agent-invoked memory tools
// ABOUTME: Every tool call lands here, success or failure
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mrbrandonmills/professor-carl-memory/internal/store"
)

// AppendAudit records one tool invocation
func (s *Store) AppendAudit(ctx context.Context, entry *store.AuditEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tool_audit (id, tool, owner_id, memory_id, reason, success, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Tool, entry.OwnerID,
		nullString(entry.MemoryID), nullString(entry.Reason),
		entry.Success, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// ListAudit returns an owner's most recent tool invocations, newest first
func (s *Store) ListAudit(ctx context.Context, ownerID string, limit int) ([]store.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, tool, owner_id, memory_id, reason, success, created_at
		 FROM tool_audit WHERE owner_id = ? ORDER BY created_at DESC LIMIT ?`,
		ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

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
