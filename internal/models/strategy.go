// ABOUTME: TeachingStrategy tracks what pedagogical approach worked per learner and topic
// ABOUTME: Running success score over a closed strategy and outcome vocabulary
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// StrategyOutcome is the observed result of applying a strategy
type StrategyOutcome string

const (
	OutcomeBreakthrough   StrategyOutcome = "breakthrough"
	OutcomePartialSuccess StrategyOutcome = "partial_success"
	OutcomeNoProgress     StrategyOutcome = "no_progress"
	OutcomeConfusion      StrategyOutcome = "confusion"
)

// Score maps an outcome to its per-occurrence success contribution
func (o StrategyOutcome) Score() float64 {
	switch o {
	case OutcomeBreakthrough:
		return 1.0
	case OutcomePartialSuccess:
		return 0.6
	case OutcomeNoProgress:
		return 0.2
	case OutcomeConfusion:
		return 0.0
	}
	return 0.0
}

// Valid reports whether the outcome belongs to the closed vocabulary
func (o StrategyOutcome) Valid() bool {
	switch o {
	case OutcomeBreakthrough, OutcomePartialSuccess, OutcomeNoProgress, OutcomeConfusion:
		return true
	}
	return false
}

// StrategyVocabulary is the closed set of named teaching strategies
var StrategyVocabulary = map[string]bool{
	"visual":                 true,
	"analogy":                true,
	"socratic_questioning":   true,
	"worked_examples":        true,
	"storytelling":           true,
	"step_by_step":           true,
	"real_world_application": true,
	"gamification":           true,
	"repetition":             true,
	"peer_explanation":       true,
}

// TeachingStrategy is one (owner, topic, strategy) row with its running score
type TeachingStrategy struct {
	ID           string          `json:"id"`
	OwnerID      string          `json:"owner_id"`
	Topic        string          `json:"topic"`
	StrategyUsed string          `json:"strategy_used"`
	Outcome      StrategyOutcome `json:"outcome"`
	SuccessScore float64         `json:"success_score"`
	TimesUsed    int             `json:"times_used"`
	Evidence     string          `json:"evidence,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	LastUsedAt   time.Time       `json:"last_used_at"`
}

// NewTeachingStrategy creates a first-occurrence row for an (owner, topic, strategy) pair
func NewTeachingStrategy(ownerID, topic, strategyUsed string, outcome StrategyOutcome, evidence string) (*TeachingStrategy, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, fmt.Errorf("%w: owner id cannot be empty", ErrValidation)
	}
	if strings.TrimSpace(topic) == "" {
		return nil, fmt.Errorf("%w: topic cannot be empty", ErrValidation)
	}
	if !StrategyVocabulary[strategyUsed] {
		return nil, fmt.Errorf("%w: unknown strategy %q", ErrValidation, strategyUsed)
	}
	if !outcome.Valid() {
		return nil, fmt.Errorf("%w: unknown outcome %q", ErrValidation, outcome)
	}

	now := time.Now().UTC()
	return &TeachingStrategy{
		ID:           "strat_" + uuid.New().String(),
		OwnerID:      ownerID,
		Topic:        topic,
		StrategyUsed: strategyUsed,
		Outcome:      outcome,
		SuccessScore: outcome.Score(),
		TimesUsed:    1,
		Evidence:     evidence,
		CreatedAt:    now,
		LastUsedAt:   now,
	}, nil
}
