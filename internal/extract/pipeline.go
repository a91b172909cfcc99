// ABOUTME: Post-session extraction pipeline: transcript -> memories + strategy
// ABOUTME: Fail-soft per candidate; a bad extraction never loses the whole session
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mrbrandonmills/professor-carl-memory/internal/config"
	"github.com/mrbrandonmills/professor-carl-memory/internal/llm"
	"github.com/mrbrandonmills/professor-carl-memory/internal/models"
	"github.com/mrbrandonmills/professor-carl-memory/internal/scoring"
	"github.com/mrbrandonmills/professor-carl-memory/internal/store"
)

// LLM is the slice of the language-model client the pipeline needs
type LLM interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float64, error)
	ExtractMemories(ctx context.Context, transcript string) ([]llm.MemoryCandidate, error)
	ExtractStrategy(ctx context.Context, transcript string) (*llm.StrategyCandidate, error)
}

// Result summarizes what one session produced
type Result struct {
	MemoriesSaved   int  `json:"memories_saved"`
	StrategiesSaved int  `json:"strategies_saved"`
	CandidatesSeen  int  `json:"candidates_seen"`
	Skipped         bool `json:"skipped"` // transcript too short, nothing attempted
}

// Pipeline turns finished sessions into persisted memories and strategies
type Pipeline struct {
	store  store.Store
	llm    LLM
	cfg    *config.Config
	logger *slog.Logger
}

// NewPipeline wires the pipeline
func NewPipeline(st store.Store, client LLM, cfg *config.Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{store: st, llm: client, cfg: cfg, logger: logger}
}

// ProcessConversation runs extraction over a finished session. Sessions
// shorter than the configured minimum are skipped without an LLM call.
// Memory extraction and strategy extraction are independent: one failing
// does not block the other.
func (p *Pipeline) ProcessConversation(ctx context.Context, ownerID, sessionID string, turns []models.TranscriptTurn, meta *models.SessionMetadata) (*Result, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, fmt.Errorf("%w: owner id cannot be empty", models.ErrValidation)
	}
	if len(turns) < p.cfg.MinTranscriptTurns {
		p.logger.Debug("skipping short session",
			"owner", ownerID, "turns", len(turns), "min", p.cfg.MinTranscriptTurns)
		return &Result{Skipped: true}, nil
	}

	transcript := FormatTranscript(turns)
	result := &Result{}

	candidates, err := p.llm.ExtractMemories(ctx, transcript)
	if err != nil {
		p.logger.Warn("memory extraction failed", "owner", ownerID, "error", err)
		candidates = nil
	}
	result.CandidatesSeen = len(candidates)

	for _, cand := range candidates {
		if err := p.saveCandidate(ctx, ownerID, sessionID, cand, meta); err != nil {
			p.logger.Warn("skipping memory candidate",
				"owner", ownerID, "category", cand.Category, "error", err)
			continue
		}
		result.MemoriesSaved++
	}

	saved, err := p.extractStrategy(ctx, ownerID, transcript, meta)
	if err != nil {
		p.logger.Warn("strategy extraction failed", "owner", ownerID, "error", err)
	} else if saved {
		result.StrategiesSaved = 1
	}

	p.logger.Info("session processed",
		"owner", ownerID,
		"session", sessionID,
		"memories", result.MemoriesSaved,
		"strategies", result.StrategiesSaved)
	return result, nil
}

// saveCandidate validates, scores, embeds, and persists one candidate
func (p *Pipeline) saveCandidate(ctx context.Context, ownerID, sessionID string, cand llm.MemoryCandidate, meta *models.SessionMetadata) error {
	kind := models.MemoryKind(cand.Kind)
	if kind != models.KindUserFact && kind != models.KindRelationalNote {
		return fmt.Errorf("invalid kind %q", cand.Kind)
	}

	rec, err := models.NewMemoryRecord(ownerID, kind, cand.Content, cand.Category)
	if err != nil {
		return err
	}

	rec.SourceSessionID = sessionID
	rec.Granularity = parseGranularity(cand.Granularity)
	rec.LLMImportance = scoring.Clamp01(cand.Importance)
	rec.Confidence = scoring.Clamp01(cand.Confidence)
	rec.DominantEmotion = cand.Emotion

	// Voice-derived emotion outranks the model's text estimate
	textArousal := scoring.Clamp01(cand.Arousal)
	voiceArousal := 0.0
	if meta != nil && meta.Emotion != nil {
		voiceArousal = scoring.Clamp01(meta.Emotion.PeakArousal)
		rec.EmotionalValence = scoring.ClampValence(meta.Emotion.MeanValence)
		if meta.Emotion.DominantEmotion != "" {
			rec.DominantEmotion = meta.Emotion.DominantEmotion
		}
	} else {
		rec.EmotionalValence = scoring.ClampValence(cand.Valence)
	}
	if voiceArousal > 0 {
		rec.EmotionalArousal = voiceArousal
	} else {
		rec.EmotionalArousal = textArousal
	}

	rec.MemoryStrength = scoring.MemoryStrength(0, voiceArousal, textArousal, rec.LLMImportance, 0)
	rec.CurrentImportance = rec.LLMImportance

	embedding, err := p.llm.GenerateEmbedding(ctx, rec.Content)
	if err != nil {
		return fmt.Errorf("embedding failed: %w", err)
	}
	rec.Embedding = embedding

	return p.store.CreateMemory(ctx, rec)
}

// extractStrategy runs the independent strategy sub-pipeline
func (p *Pipeline) extractStrategy(ctx context.Context, ownerID, transcript string, meta *models.SessionMetadata) (bool, error) {
	cand, err := p.llm.ExtractStrategy(ctx, transcript)
	if err != nil {
		return false, err
	}
	if cand == nil {
		return false, nil // not an instructional session
	}

	strat, err := models.NewTeachingStrategy(ownerID, cand.Topic, cand.Strategy, models.StrategyOutcome(cand.Outcome), cand.Evidence)
	if err != nil {
		return false, err
	}

	arousalDelta := 0.0
	if meta != nil && meta.Emotion != nil {
		arousalDelta = meta.Emotion.ArousalDelta()
	}

	if _, err := p.store.UpsertStrategy(ctx, strat, arousalDelta); err != nil {
		return false, err
	}
	return true, nil
}

// FormatTranscript renders turns into the prompt-facing transcript form
func FormatTranscript(turns []models.TranscriptTurn) string {
	var sb strings.Builder
	for _, turn := range turns {
		role := "Student"
		if turn.Role == "assistant" {
			role = "Tutor"
		}
		fmt.Fprintf(&sb, "%s: %s\n", role, turn.Text)
	}
	return sb.String()
}

func parseGranularity(s string) models.Granularity {
	switch models.Granularity(s) {
	case models.GranularityUtterance, models.GranularityTurn, models.GranularitySession:
		return models.Granularity(s)
	}
	return models.GranularitySession
}
