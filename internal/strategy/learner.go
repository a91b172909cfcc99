// ABOUTME: Strategy learner: records outcomes and serves what works per learner
// ABOUTME: Thin policy layer over the store's strategy table
package strategy

import (
	"context"
	"log/slog"

	"github.com/mrbrandonmills/professor-carl-memory/internal/config"
	"github.com/mrbrandonmills/professor-carl-memory/internal/models"
	"github.com/mrbrandonmills/professor-carl-memory/internal/store"
)

// reinforceStep is the fixed adjustment applied by in-session feedback,
// outside the running-average path
const reinforceStep = 0.1

// Learner tracks which teaching approaches work for which learner and topic
type Learner struct {
	store  store.Store
	cfg    *config.Config
	logger *slog.Logger
}

// NewLearner wires the learner
func NewLearner(st store.Store, cfg *config.Config, logger *slog.Logger) *Learner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Learner{store: st, cfg: cfg, logger: logger}
}

// RecordOutcome persists one observed (topic, strategy, outcome) triple.
// Repeat observations fold into the existing row's running average;
// arousalDelta is the session's emotional trajectory bonus.
func (l *Learner) RecordOutcome(ctx context.Context, ownerID, topic, strategyUsed string, outcome models.StrategyOutcome, evidence string, arousalDelta float64) (*models.TeachingStrategy, error) {
	strat, err := models.NewTeachingStrategy(ownerID, topic, strategyUsed, outcome, evidence)
	if err != nil {
		return nil, err
	}

	persisted, err := l.store.UpsertStrategy(ctx, strat, arousalDelta)
	if err != nil {
		return nil, err
	}

	l.logger.Info("strategy outcome recorded",
		"owner", ownerID,
		"topic", topic,
		"strategy", strategyUsed,
		"outcome", string(outcome),
		"score", persisted.SuccessScore,
		"times_used", persisted.TimesUsed)
	return persisted, nil
}

// RelevantStrategies returns approaches worth suggesting for a topic,
// best first. Topic matching is fuzzy so "algebra" finds "linear algebra
// basics"; an empty topic returns the learner's best approaches overall.
func (l *Learner) RelevantStrategies(ctx context.Context, ownerID, topic string) ([]models.TeachingStrategy, error) {
	return l.store.GetStrategies(ctx, ownerID, topic, l.cfg.MinStrategyScore, l.cfg.StrategyPoolCap)
}

// Reinforce nudges a strategy's score from in-session feedback without
// counting as a full observation
func (l *Learner) Reinforce(ctx context.Context, strategyID string, worked bool) error {
	delta := reinforceStep
	if !worked {
		delta = -reinforceStep
	}
	return l.store.AdjustStrategyScore(ctx, strategyID, delta)
}
