// ABOUTME: Tests for TeachingStrategy construction and outcome scoring
// ABOUTME: Verifies closed vocabularies are enforced

package models

import (
	"errors"
	"testing"
)

func TestOutcomeScore(t *testing.T) {
	cases := []struct {
		outcome StrategyOutcome
		want    float64
	}{
		{OutcomeBreakthrough, 1.0},
		{OutcomePartialSuccess, 0.6},
		{OutcomeNoProgress, 0.2},
		{OutcomeConfusion, 0.0},
	}

	for _, tc := range cases {
		if got := tc.outcome.Score(); got != tc.want {
			t.Errorf("Score(%s) = %v, want %v", tc.outcome, got, tc.want)
		}
	}
}

func TestNewTeachingStrategy(t *testing.T) {
	s, err := NewTeachingStrategy("student-1", "fractions", "visual", OutcomeBreakthrough, "oh NOW I get it!")
	if err != nil {
		t.Fatalf("NewTeachingStrategy() error = %v", err)
	}

	if s.TimesUsed != 1 {
		t.Errorf("TimesUsed = %d, want 1", s.TimesUsed)
	}
	if s.SuccessScore != 1.0 {
		t.Errorf("SuccessScore = %v, want 1.0", s.SuccessScore)
	}
}

func TestNewTeachingStrategy_Invalid(t *testing.T) {
	if _, err := NewTeachingStrategy("student-1", "fractions", "hypnosis", OutcomeBreakthrough, ""); !errors.Is(err, ErrValidation) {
		t.Errorf("unknown strategy error = %v, want ErrValidation", err)
	}

	if _, err := NewTeachingStrategy("student-1", "fractions", "visual", StrategyOutcome("triumph"), ""); !errors.Is(err, ErrValidation) {
		t.Errorf("unknown outcome error = %v, want ErrValidation", err)
	}

	if _, err := NewTeachingStrategy("student-1", "", "visual", OutcomeBreakthrough, ""); !errors.Is(err, ErrValidation) {
		t.Errorf("empty topic error = %v, want ErrValidation", err)
	}
}
