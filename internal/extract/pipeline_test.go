// ABOUTME: Pipeline tests with a fake LLM and an in-memory store
// ABOUTME: Covers short-session skip, candidate validation, fail-soft paths
package extract

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"testing"

	"github.com/mrbrandonmills/professor-carl-memory/internal/config"
	"github.com/mrbrandonmills/professor-carl-memory/internal/llm"
	"github.com/mrbrandonmills/professor-carl-memory/internal/models"
	"github.com/mrbrandonmills/professor-carl-memory/internal/store"
	"github.com/mrbrandonmills/professor-carl-memory/internal/store/sqlite"
)

type fakeLLM struct {
	memories    []llm.MemoryCandidate
	memErr      error
	strategy    *llm.StrategyCandidate
	stratErr    error
	embedErr    error
	extractions int
	embeddings  int
}

func (f *fakeLLM) GenerateEmbedding(ctx context.Context, text string) ([]float64, error) {
	f.embeddings++
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	return []float64{1, 0, 0}, nil
}

func (f *fakeLLM) ExtractMemories(ctx context.Context, transcript string) ([]llm.MemoryCandidate, error) {
	f.extractions++
	return f.memories, f.memErr
}

func (f *fakeLLM) ExtractStrategy(ctx context.Context, transcript string) (*llm.StrategyCandidate, error) {
	return f.strategy, f.stratErr
}

func newTestPipeline(t *testing.T, client *fakeLLM) (*Pipeline, *sqlite.Store) {
	t.Helper()
	st, err := sqlite.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	cfg := &config.Config{MinTranscriptTurns: 4}
	return NewPipeline(st, client, cfg, slog.Default()), st
}

func turns(n int) []models.TranscriptTurn {
	out := make([]models.TranscriptTurn, n)
	for i := range out {
		role := "student"
		if i%2 == 1 {
			role = "assistant"
		}
		out[i] = models.TranscriptTurn{Role: role, Text: "something about fractions"}
	}
	return out
}

func TestShortSessionSkipped(t *testing.T) {
	client := &fakeLLM{}
	p, _ := newTestPipeline(t, client)

	result, err := p.ProcessConversation(context.Background(), "student-1", "sess-1", turns(3), nil)
	if err != nil {
		t.Fatalf("ProcessConversation: %v", err)
	}
	if !result.Skipped {
		t.Errorf("result.Skipped = false, want true")
	}
	if client.extractions != 0 || client.embeddings != 0 {
		t.Errorf("short session hit the LLM: extractions=%d embeddings=%d", client.extractions, client.embeddings)
	}
}

func TestProcessConversationSavesMemoriesAndStrategy(t *testing.T) {
	client := &fakeLLM{
		memories: []llm.MemoryCandidate{
			{Kind: "user_fact", Content: "Wants to study marine biology", Category: "goal", Importance: 0.8, Confidence: 0.9, Granularity: "session", Arousal: 0.4, Valence: 0.6, Emotion: "excitement"},
			{Kind: "relational_note", Content: "Goes quiet when corrected directly", Category: "teaching_failure", Importance: 0.7, Confidence: 0.8, Granularity: "turn", Arousal: 0.5, Valence: -0.4, Emotion: "embarrassment"},
			{Kind: "user_fact", Content: "bad category", Category: "nonsense", Importance: 0.5},
		},
		strategy: &llm.StrategyCandidate{Topic: "fractions", Strategy: "visual", Outcome: "breakthrough", Evidence: "oh NOW I get it"},
	}
	p, st := newTestPipeline(t, client)
	ctx := context.Background()

	result, err := p.ProcessConversation(ctx, "student-1", "sess-1", turns(6), nil)
	if err != nil {
		t.Fatalf("ProcessConversation: %v", err)
	}
	if result.MemoriesSaved != 2 {
		t.Errorf("memories saved = %d, want 2 (invalid category skipped)", result.MemoriesSaved)
	}
	if result.StrategiesSaved != 1 {
		t.Errorf("strategies saved = %d, want 1", result.StrategiesSaved)
	}

	records, err := st.ListByOwner(ctx, "student-1", store.ListFilters{})
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("stored records = %d, want 2", len(records))
	}
	for _, rec := range records {
		if rec.SourceSessionID != "sess-1" {
			t.Errorf("source session = %q, want sess-1", rec.SourceSessionID)
		}
		if len(rec.Embedding) == 0 {
			t.Errorf("record %s has no embedding", rec.ID)
		}
		if rec.MemoryStrength <= 0 {
			t.Errorf("record %s strength = %v, want > 0", rec.ID, rec.MemoryStrength)
		}
	}

	strategies, err := st.GetStrategies(ctx, "student-1", "", 0, 10)
	if err != nil {
		t.Fatalf("GetStrategies: %v", err)
	}
	if len(strategies) != 1 || strategies[0].StrategyUsed != "visual" {
		t.Fatalf("strategies = %+v, want one visual row", strategies)
	}
}

func TestVoiceEmotionOverridesTextEstimate(t *testing.T) {
	client := &fakeLLM{
		memories: []llm.MemoryCandidate{
			{Kind: "user_fact", Content: "Frustrated by long division", Category: "struggle", Importance: 0.6, Confidence: 0.9, Arousal: 0.2, Valence: 0.5, Emotion: "mild"},
		},
	}
	p, st := newTestPipeline(t, client)
	ctx := context.Background()

	meta := &models.SessionMetadata{
		Emotion: &models.EmotionSummary{
			StartArousal:    0.3,
			EndArousal:      0.9,
			PeakArousal:     0.95,
			MeanValence:     -0.7,
			DominantEmotion: "frustration",
		},
	}

	if _, err := p.ProcessConversation(ctx, "student-1", "sess-1", turns(5), meta); err != nil {
		t.Fatalf("ProcessConversation: %v", err)
	}

	records, _ := st.ListByOwner(ctx, "student-1", store.ListFilters{})
	if len(records) != 1 {
		t.Fatalf("stored records = %d, want 1", len(records))
	}
	rec := records[0]
	if math.Abs(rec.EmotionalArousal-0.95) > 1e-9 {
		t.Errorf("arousal = %v, want voice peak 0.95", rec.EmotionalArousal)
	}
	if math.Abs(rec.EmotionalValence+0.7) > 1e-9 {
		t.Errorf("valence = %v, want voice mean -0.7", rec.EmotionalValence)
	}
	if rec.DominantEmotion != "frustration" {
		t.Errorf("emotion = %q, want frustration", rec.DominantEmotion)
	}
}

func TestEmbeddingFailureSkipsCandidate(t *testing.T) {
	client := &fakeLLM{
		memories: []llm.MemoryCandidate{
			{Kind: "user_fact", Content: "Likes puzzles", Category: "interest", Importance: 0.5, Confidence: 0.9},
		},
		embedErr: errors.New("rate limited"),
	}
	p, st := newTestPipeline(t, client)
	ctx := context.Background()

	result, err := p.ProcessConversation(ctx, "student-1", "sess-1", turns(5), nil)
	if err != nil {
		t.Fatalf("ProcessConversation: %v", err)
	}
	if result.MemoriesSaved != 0 {
		t.Errorf("memories saved = %d, want 0", result.MemoriesSaved)
	}
	records, _ := st.ListByOwner(ctx, "student-1", store.ListFilters{})
	if len(records) != 0 {
		t.Errorf("stored records = %d, want 0", len(records))
	}
}

func TestExtractionFailureStillTriesStrategy(t *testing.T) {
	client := &fakeLLM{
		memErr:   errors.New("model unavailable"),
		strategy: &llm.StrategyCandidate{Topic: "algebra", Strategy: "analogy", Outcome: "partial_success"},
	}
	p, st := newTestPipeline(t, client)
	ctx := context.Background()

	result, err := p.ProcessConversation(ctx, "student-1", "sess-1", turns(5), nil)
	if err != nil {
		t.Fatalf("ProcessConversation: %v", err)
	}
	if result.MemoriesSaved != 0 {
		t.Errorf("memories saved = %d, want 0", result.MemoriesSaved)
	}
	if result.StrategiesSaved != 1 {
		t.Errorf("strategies saved = %d, want 1", result.StrategiesSaved)
	}

	strategies, _ := st.GetStrategies(ctx, "student-1", "", 0, 10)
	if len(strategies) != 1 {
		t.Errorf("stored strategies = %d, want 1", len(strategies))
	}
}

func TestNonInstructionalSessionSavesNoStrategy(t *testing.T) {
	client := &fakeLLM{strategy: nil}
	p, _ := newTestPipeline(t, client)

	result, err := p.ProcessConversation(context.Background(), "student-1", "sess-1", turns(5), nil)
	if err != nil {
		t.Fatalf("ProcessConversation: %v", err)
	}
	if result.StrategiesSaved != 0 {
		t.Errorf("strategies saved = %d, want 0", result.StrategiesSaved)
	}
}

func TestFormatTranscript(t *testing.T) {
	got := FormatTranscript([]models.TranscriptTurn{
		{Role: "student", Text: "what is a fraction"},
		{Role: "assistant", Text: "a part of a whole"},
	})
	want := "Student: what is a fraction\nTutor: a part of a whole\n"
	if got != want {
		t.Errorf("transcript = %q, want %q", got, want)
	}
}
