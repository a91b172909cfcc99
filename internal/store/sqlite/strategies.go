// ABOUTME: SQLite persistence for teaching strategies
// ABOUTME: Upsert folds repeat observations into a running success average
package sqlite

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

// UpsertStrategy records one observation of a strategy. A repeat of the same
// (owner, topic, strategy) folds into the existing row's running average in a
// single statement; arousalDelta adds an emotional-trajectory bonus on top of
// the average. Returns the row as persisted.
func (s *Store) UpsertStrategy(ctx context.Context, strat *models.TeachingStrategy, arousalDelta float64) (*models.TeachingStrategy, error) {
	raw := strat.Outcome.Score()
	insertScore := scoring.RunningAverageWithBonus(0, 0, raw, arousalDelta)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO strategies (`+strategyColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?, ?)
		 ON CONFLICT(owner_id, topic, strategy_used) DO UPDATE SET
			success_score = MAX(0.0, MIN(1.0,
				(success_score * times_used + ?) / (times_used + 1) + ?)),
			times_used = times_used + 1,
			outcome = excluded.outcome,
			evidence = excluded.evidence,
			last_used_at = excluded.last_used_at`,
		strat.ID, strat.OwnerID, strat.Topic, strat.StrategyUsed, string(strat.Outcome),
		insertScore, nullString(strat.Evidence), strat.CreatedAt, strat.LastUsedAt,
		raw, 0.1*arousalDelta)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert strategy: %w", err)
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+strategyColumns+` FROM strategies
		 WHERE owner_id = ? AND topic = ? AND strategy_used = ?`,
		strat.OwnerID, strat.Topic, strat.StrategyUsed)
	persisted, err := scanStrategy(row)
	if err != nil {
		return nil, fmt.Errorf("failed to read back strategy: %w", err)
	}
	return persisted, nil
}

// GetStrategies returns an owner's strategies at or above minScore, best
// first. A non-empty topicFilter does a fuzzy substring match so "algebra"
// finds "linear algebra basics".
func (s *Store) GetStrategies(ctx context.Context, ownerID, topicFilter string, minScore float64, limit int) ([]models.TeachingStrategy, error) {
	query := `SELECT ` + strategyColumns + ` FROM strategies
		 WHERE owner_id = ? AND success_score >= ?`
	args := []interface{}{ownerID, minScore}

	if topicFilter != "" {
		query += ` AND topic LIKE ?`
		args = append(args, "%"+topicFilter+"%")
	}
	query += ` ORDER BY success_score DESC, times_used DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query strategies: %w", err)
	}
	defer func() { _ = rows.Close() }()

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

// AdjustStrategyScore nudges a strategy's score by delta, clamped to [0, 1].
// Used when the agent reports in-session feedback outside the upsert path.
func (s *Store) AdjustStrategyScore(ctx context.Context, strategyID string, delta float64) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE strategies
		 SET success_score = MAX(0.0, MIN(1.0, success_score + ?)), last_used_at = ?
		 WHERE id = ?`,
		delta, time.Now().UTC(), strategyID)
	if err != nil {
		return fmt.Errorf("failed to adjust strategy score: %w", err)
	}
	return requireRow(result)
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
