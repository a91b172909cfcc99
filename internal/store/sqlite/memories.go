// ABOUTME: SQLite CRUD and similarity search for memory records
// ABOUTME: Counter updates are single-statement arithmetic so increments never race
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mrbrandonmills/professor-carl-memory/internal/models"
	"github.com/mrbrandonmills/professor-carl-memory/internal/store"
)

const memoryColumns = `id, owner_id, kind, content, summary, category, embedding,
	emotional_arousal, emotional_valence, dominant_emotion,
	llm_importance, memory_strength, current_importance, confidence,
	times_cited, times_retrieved_unused, effectiveness_score,
	granularity, source_session_id, source_type, tags,
	created_at, updated_at, last_cited_at`

// CreateMemory persists a new memory record
func (s *Store) CreateMemory(ctx context.Context, rec *models.MemoryRecord) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("%w: %v", models.ErrValidation, err)
	}

	tagsJSON, err := marshalTags(rec.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}

	query := `INSERT INTO memories (` + memoryColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, query,
		rec.ID, rec.OwnerID, string(rec.Kind), rec.Content, rec.Summary, rec.Category,
		store.VectorToBlob(rec.Embedding),
		rec.EmotionalArousal, rec.EmotionalValence, nullString(rec.DominantEmotion),
		rec.LLMImportance, rec.MemoryStrength, rec.CurrentImportance, rec.Confidence,
		rec.TimesCited, rec.TimesRetrievedUnused, rec.EffectivenessScore,
		string(rec.Granularity), nullString(rec.SourceSessionID), string(rec.SourceType), tagsJSON,
		rec.CreatedAt, rec.UpdatedAt, nullTime(rec.LastCitedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert memory: %w", err)
	}
	return nil
}

// GetMemory fetches a single memory. A row belonging to another owner is
// indistinguishable from a missing one.
func (s *Store) GetMemory(ctx context.Context, ownerID, id string) (*models.MemoryRecord, error) {
	query := `SELECT ` + memoryColumns + ` FROM memories WHERE id = ? AND owner_id = ?`
	row := s.db.QueryRowContext(ctx, query, id, ownerID)

	rec, err := scanMemory(row)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get memory: %w", err)
	}
	return rec, nil
}

// UpdateMemoryContent replaces content, summary, and embedding together so
// the stored vector never drifts from the text it indexes
func (s *Store) UpdateMemoryContent(ctx context.Context, ownerID, id, content, summary string, embedding []float64) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE memories SET content = ?, summary = ?, embedding = ?, updated_at = ?
		 WHERE id = ? AND owner_id = ?`,
		content, summary, store.VectorToBlob(embedding), time.Now().UTC(), id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to update memory: %w", err)
	}
	return requireRow(result)
}

// UpdateMemoryTags replaces the tag list
func (s *Store) UpdateMemoryTags(ctx context.Context, ownerID, id string, tags []string) error {
	tagsJSON, err := marshalTags(tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE memories SET tags = ?, updated_at = ? WHERE id = ? AND owner_id = ?`,
		tagsJSON, time.Now().UTC(), id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to update tags: %w", err)
	}
	return requireRow(result)
}

// AdjustImportance nudges current_importance by delta, clamped to [0, 1]
func (s *Store) AdjustImportance(ctx context.Context, ownerID, id string, delta float64) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE memories
		 SET current_importance = MAX(0.0, MIN(1.0, current_importance + ?)), updated_at = ?
		 WHERE id = ? AND owner_id = ?`,
		delta, time.Now().UTC(), id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to adjust importance: %w", err)
	}
	return requireRow(result)
}

// SoftForget zeroes strength and importance instead of deleting, so the
// record stays auditable. Forgetting an already-forgotten memory succeeds.
func (s *Store) SoftForget(ctx context.Context, ownerID, id string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE memories SET memory_strength = 0, current_importance = 0, updated_at = ?
		 WHERE id = ? AND owner_id = ?`,
		time.Now().UTC(), id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to forget memory: %w", err)
	}
	return requireRow(result)
}

// ListByOwner returns an owner's records newest-first
func (s *Store) ListByOwner(ctx context.Context, ownerID string, f store.ListFilters) ([]models.MemoryRecord, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + memoryColumns + ` FROM memories WHERE owner_id = ?`)
	args := []interface{}{ownerID}

	if f.Kind != "" {
		sb.WriteString(` AND kind = ?`)
		args = append(args, string(f.Kind))
	}
	if f.Category != "" {
		sb.WriteString(` AND category = ?`)
		args = append(args, f.Category)
	}
	if f.ExcludeForgotten {
		sb.WriteString(` AND NOT (memory_strength = 0 AND current_importance = 0)`)
	}
	sb.WriteString(` ORDER BY created_at DESC`)
	if f.Limit > 0 {
		sb.WriteString(` LIMIT ?`)
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list memories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []models.MemoryRecord
	for rows.Next() {
		rec, err := scanMemory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan memory: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// TopKBySimilarity loads the owner's live embedded records and ranks them by
// cosine similarity in Go. Forgotten records and records at or below the
// importance floor never surface.
func (s *Store) TopKBySimilarity(ctx context.Context, ownerID string, query []float64, k int, floor float64) ([]store.SimilarityMatch, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+memoryColumns+` FROM memories
		 WHERE owner_id = ? AND embedding IS NOT NULL
		   AND current_importance > ?
		   AND NOT (memory_strength = 0 AND current_importance = 0)`,
		ownerID, floor)
	if err != nil {
		return nil, fmt.Errorf("failed to query memories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var matches []store.SimilarityMatch
	for rows.Next() {
		rec, err := scanMemory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan memory: %w", err)
		}
		sim := store.CosineSimilarity(query, rec.Embedding)
		matches = append(matches, store.SimilarityMatch{Record: *rec, Similarity: sim})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	if k > 0 && len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// RecordCitations bumps times_cited and last_cited_at for memories that made
// it into a delivered context
func (s *Store) RecordCitations(ctx context.Context, ownerID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	now := time.Now().UTC()
	query := `UPDATE memories SET times_cited = times_cited + 1, last_cited_at = ?, updated_at = ?
		 WHERE owner_id = ? AND id IN (` + placeholders(len(ids)) + `)`
	args := append([]interface{}{now, now, ownerID}, idArgs(ids)...)

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to record citations: %w", err)
	}
	return nil
}

// RecordUnusedRetrievals bumps times_retrieved_unused for memories that were
// surfaced by search but cut from the final context
func (s *Store) RecordUnusedRetrievals(ctx context.Context, ownerID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query := `UPDATE memories SET times_retrieved_unused = times_retrieved_unused + 1, updated_at = ?
		 WHERE owner_id = ? AND id IN (` + placeholders(len(ids)) + `)`
	args := append([]interface{}{time.Now().UTC(), ownerID}, idArgs(ids)...)

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to record unused retrievals: %w", err)
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanMemory(row scanner) (*models.MemoryRecord, error) {
	var rec models.MemoryRecord
	var blob []byte
	var dominantEmotion, sourceSessionID, tagsJSON sql.NullString
	var lastCitedAt sql.NullTime

	err := row.Scan(
		&rec.ID, &rec.OwnerID, &rec.Kind, &rec.Content, &rec.Summary, &rec.Category, &blob,
		&rec.EmotionalArousal, &rec.EmotionalValence, &dominantEmotion,
		&rec.LLMImportance, &rec.MemoryStrength, &rec.CurrentImportance, &rec.Confidence,
		&rec.TimesCited, &rec.TimesRetrievedUnused, &rec.EffectivenessScore,
		&rec.Granularity, &sourceSessionID, &rec.SourceType, &tagsJSON,
		&rec.CreatedAt, &rec.UpdatedAt, &lastCitedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.Embedding = store.BlobToVector(blob)
	rec.DominantEmotion = dominantEmotion.String
	rec.SourceSessionID = sourceSessionID.String
	if lastCitedAt.Valid {
		rec.LastCitedAt = lastCitedAt.Time
	}
	if tagsJSON.Valid && tagsJSON.String != "" {
		if err := json.Unmarshal([]byte(tagsJSON.String), &rec.Tags); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
		}
	}
	return &rec, nil
}

func marshalTags(tags []string) (sql.NullString, error) {
	if len(tags) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

// requireRow maps an update that matched nothing to ErrNotFound
func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func idArgs(ids []string) []interface{} {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
