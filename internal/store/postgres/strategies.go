// ABOUTME: Postgres persistence for teaching strategies
// ABOUTME: Upsert mirrors the sqlite running-average arithmetic
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mrbrandonmills/professor-carl-memory/internal/models"
	"github.com/mrbrandonmills/professor-carl-memory/internal/scoring"
)

const strategyColumns = `id, owner_id, topic, strategy_used, outcome,
	success_score, times_used, evidence, created_at, last_used_at`

func (s *Store) UpsertStrategy(ctx context.Context, strat *models.TeachingStrategy, arousalDelta float64) (*models.TeachingStrategy, error) {
	raw := strat.Outcome.Score()
	insertScore := scoring.RunningAverageWithBonus(0, 0, raw, arousalDelta)

	_, err := s.pool.Exec(ctx,
		`INSERT INTO strategies (`+strategyColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, 1, $7, $8, $9)
		 ON CONFLICT(owner_id, topic, strategy_used) DO UPDATE SET
			success_score = GREATEST(0.0, LEAST(1.0,
				(strategies.success_score * strategies.times_used + $10) / (strategies.times_used + 1) + $11)),
			times_used = strategies.times_used + 1,
			outcome = excluded.outcome,
			evidence = excluded.evidence,
			last_used_at = excluded.last_used_at`,
		strat.ID, strat.OwnerID, strat.Topic, strat.StrategyUsed, string(strat.Outcome),
		insertScore, nullString(strat.Evidence), strat.CreatedAt, strat.LastUsedAt,
		raw, 0.1*arousalDelta)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert strategy: %w", err)
	}

	row := s.pool.QueryRow(ctx,
		`SELECT `+strategyColumns+` FROM strategies
		 WHERE owner_id = $1 AND topic = $2 AND strategy_used = $3`,
		strat.OwnerID, strat.Topic, strat.StrategyUsed)
	persisted, err := scanStrategy(row)
	if err != nil {
		return nil, fmt.Errorf("failed to read back strategy: %w", err)
	}
	return persisted, nil
}

func (s *Store) GetStrategies(ctx context.Context, ownerID, topicFilter string, minScore float64, limit int) ([]models.TeachingStrategy, error) {
	query := `SELECT ` + strategyColumns + ` FROM strategies
		 WHERE owner_id = $1 AND success_score >= $2`
	args := []interface{}{ownerID, minScore}

	if topicFilter != "" {
		args = append(args, "%"+topicFilter+"%")
		query += fmt.Sprintf(` AND topic LIKE $%d`, len(args))
	}
	query += ` ORDER BY success_score DESC, times_used DESC`
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query strategies: %w", err)
	}
	defer rows.Close()

	var strategies []models.TeachingStrategy
	for rows.Next() {
		strat, err := scanStrategy(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan strategy: %w", err)
		}
		strategies = append(strategies, *strat)
	}
	return strategies, rows.Err()
}

func (s *Store) AdjustStrategyScore(ctx context.Context, strategyID string, delta float64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE strategies
		 SET success_score = GREATEST(0.0, LEAST(1.0, success_score + $1)), last_used_at = $2
		 WHERE id = $3`,
		delta, time.Now().UTC(), strategyID)
	if err != nil {
		return fmt.Errorf("failed to adjust strategy score: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func scanStrategy(row scanner) (*models.TeachingStrategy, error) {
	var strat models.TeachingStrategy
	var evidence sql.NullString

	err := row.Scan(
		&strat.ID, &strat.OwnerID, &strat.Topic, &strat.StrategyUsed, &strat.Outcome,
		&strat.SuccessScore, &strat.TimesUsed, &evidence, &strat.CreatedAt, &strat.LastUsedAt,
	)
	if err != nil {
		return nil, err
	}
	strat.Evidence = evidence.String
	return &strat, nil
}
