// ABOUTME: Postgres CRUD and similarity search for memory records
// ABOUTME: Same semantics as the sqlite backend behind store.Store
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/mrbrandonmills/professor-carl-memory/internal/models"
	"github.com/mrbrandonmills/professor-carl-memory/internal/store"
)

const memoryColumns = `id, owner_id, kind, content, summary, category, embedding,
	emotional_arousal, emotional_valence, dominant_emotion,
	llm_importance, memory_strength, current_importance, confidence,
	times_cited, times_retrieved_unused, effectiveness_score,
	granularity, source_session_id, source_type, tags,
	created_at, updated_at, last_cited_at`

func (s *Store) CreateMemory(ctx context.Context, rec *models.MemoryRecord) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("%w: %v", models.ErrValidation, err)
	}

	var tagsJSON sql.NullString
	if len(rec.Tags) > 0 {
		data, err := json.Marshal(rec.Tags)
		if err != nil {
			return fmt.Errorf("failed to marshal tags: %w", err)
		}
		tagsJSON = sql.NullString{String: string(data), Valid: true}
	}

	query := `INSERT INTO memories (` + memoryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)`

	_, err := s.pool.Exec(ctx, query,
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

func (s *Store) GetMemory(ctx context.Context, ownerID, id string) (*models.MemoryRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+memoryColumns+` FROM memories WHERE id = $1 AND owner_id = $2`,
		id, ownerID)

	rec, err := scanMemory(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get memory: %w", err)
	}
	return rec, nil
}

func (s *Store) UpdateMemoryContent(ctx context.Context, ownerID, id, content, summary string, embedding []float64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE memories SET content = $1, summary = $2, embedding = $3, updated_at = $4
		 WHERE id = $5 AND owner_id = $6`,
		content, summary, store.VectorToBlob(embedding), time.Now().UTC(), id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to update memory: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *Store) UpdateMemoryTags(ctx context.Context, ownerID, id string, tags []string) error {
	var tagsJSON sql.NullString
	if len(tags) > 0 {
		data, err := json.Marshal(tags)
		if err != nil {
			return fmt.Errorf("failed to marshal tags: %w", err)
		}
		tagsJSON = sql.NullString{String: string(data), Valid: true}
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE memories SET tags = $1, updated_at = $2 WHERE id = $3 AND owner_id = $4`,
		tagsJSON, time.Now().UTC(), id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to update tags: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *Store) AdjustImportance(ctx context.Context, ownerID, id string, delta float64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE memories
		 SET current_importance = GREATEST(0.0, LEAST(1.0, current_importance + $1)), updated_at = $2
		 WHERE id = $3 AND owner_id = $4`,
		delta, time.Now().UTC(), id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to adjust importance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *Store) SoftForget(ctx context.Context, ownerID, id string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE memories SET memory_strength = 0, current_importance = 0, updated_at = $1
		 WHERE id = $2 AND owner_id = $3`,
		time.Now().UTC(), id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to forget memory: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *Store) ListByOwner(ctx context.Context, ownerID string, f store.ListFilters) ([]models.MemoryRecord, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + memoryColumns + ` FROM memories WHERE owner_id = $1`)
	args := []interface{}{ownerID}

	if f.Kind != "" {
		args = append(args, string(f.Kind))
		fmt.Fprintf(&sb, ` AND kind = $%d`, len(args))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		fmt.Fprintf(&sb, ` AND category = $%d`, len(args))
	}
	if f.ExcludeForgotten {
		sb.WriteString(` AND NOT (memory_strength = 0 AND current_importance = 0)`)
	}
	sb.WriteString(` ORDER BY created_at DESC`)
	if f.Limit > 0 {
		args = append(args, f.Limit)
		fmt.Fprintf(&sb, ` LIMIT $%d`, len(args))
	}

	rows, err := s.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list memories: %w", err)
	}
	defer rows.Close()

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

func (s *Store) TopKBySimilarity(ctx context.Context, ownerID string, query []float64, k int, floor float64) ([]store.SimilarityMatch, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+memoryColumns+` FROM memories
		 WHERE owner_id = $1 AND embedding IS NOT NULL
		   AND current_importance > $2
		   AND NOT (memory_strength = 0 AND current_importance = 0)`,
		ownerID, floor)
	if err != nil {
		return nil, fmt.Errorf("failed to query memories: %w", err)
	}
	defer rows.Close()

	var matches []store.SimilarityMatch
	for rows.Next() {
		rec, err := scanMemory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan memory: %w", err)
		}
		matches = append(matches, store.SimilarityMatch{
			Record:     *rec,
			Similarity: store.CosineSimilarity(query, rec.Embedding),
		})
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

func (s *Store) RecordCitations(ctx context.Context, ownerID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	now := time.Now().UTC()
	_, err := s.pool.Exec(ctx,
		`UPDATE memories SET times_cited = times_cited + 1, last_cited_at = $1, updated_at = $1
		 WHERE owner_id = $2 AND id = ANY($3)`,
		now, ownerID, ids)
	if err != nil {
		return fmt.Errorf("failed to record citations: %w", err)
	}
	return nil
}

func (s *Store) RecordUnusedRetrievals(ctx context.Context, ownerID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx,
		`UPDATE memories SET times_retrieved_unused = times_retrieved_unused + 1, updated_at = $1
		 WHERE owner_id = $2 AND id = ANY($3)`,
		time.Now().UTC(), ownerID, ids)
	if err != nil {
		return fmt.Errorf("failed to record unused retrievals: %w", err)
	}
	return nil
}

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
