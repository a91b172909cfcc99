// ABOUTME: MemoryRecord is the shared shape for user facts and relational notes
// ABOUTME: Owner-scoped, soft-forgettable, carries embedding and scoring fields
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MemoryKind distinguishes the two record families sharing this shape
type MemoryKind string

const (
	KindUserFact       MemoryKind = "user_fact"
	KindRelationalNote MemoryKind = "relational_note"
)

// Granularity is the scope a memory was extracted at
type Granularity string

const (
	GranularityUtterance Granularity = "utterance"
	GranularityTurn      Granularity = "turn"
	GranularitySession   Granularity = "session"
)

// SourceType records how a memory entered the store
type SourceType string

const (
	SourceConversation SourceType = "conversation"
	SourceImported     SourceType = "imported"
	SourceAutonomous   SourceType = "claude_autonomous"
)

// MaxSummaryLen is the prompt-facing summary cap in characters
const MaxSummaryLen = 200

// Categories is the closed vocabulary for memory categories
var Categories = map[string]bool{
	"personal_fact":    true,
	"preference":       true,
	"interest":         true,
	"goal":             true,
	"struggle":         true,
	"breakthrough":     true,
	"misconception":    true,
	"teaching_success": true,
	"teaching_failure": true,
	"memory_link":      true,
}

// MemoryRecord is a single long-term memory about a learner
type MemoryRecord struct {
	ID                   string      `json:"id"`
	OwnerID              string      `json:"owner_id"`
	Kind                 MemoryKind  `json:"kind"`
	Content              string      `json:"content"`
	Summary              string      `json:"summary"`
	Category             string      `json:"category"`
	Embedding            []float64   `json:"embedding,omitempty"`
	EmotionalArousal     float64     `json:"emotional_arousal"`
	EmotionalValence     float64     `json:"emotional_valence"`
	DominantEmotion      string      `json:"dominant_emotion,omitempty"`
	LLMImportance        float64     `json:"llm_importance"`
	MemoryStrength       float64     `json:"memory_strength"`
	CurrentImportance    float64     `json:"current_importance"`
	Confidence           float64     `json:"confidence"`
	TimesCited           int         `json:"times_cited"`
	TimesRetrievedUnused int         `json:"times_retrieved_unused"`
	EffectivenessScore   float64     `json:"effectiveness_score,omitempty"`
	Granularity          Granularity `json:"granularity"`
	SourceSessionID      string      `json:"source_session_id,omitempty"`
	SourceType           SourceType  `json:"source_type"`
	Tags                 []string    `json:"tags,omitempty"`
	CreatedAt            time.Time   `json:"created_at"`
	UpdatedAt            time.Time   `json:"updated_at"`
	LastCitedAt          time.Time   `json:"last_cited_at,omitempty"`
}

// NewMemoryRecord creates a record with generated ID and timestamps.
// Scoring fields are filled in by the caller before persisting.
func NewMemoryRecord(ownerID string, kind MemoryKind, content, category string) (*MemoryRecord, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, fmt.Errorf("%w: owner id cannot be empty", ErrValidation)
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: content cannot be empty", ErrValidation)
	}
	if !Categories[category] {
		return nil, fmt.Errorf("%w: unknown category %q", ErrValidation, category)
	}

	now := time.Now().UTC()
	return &MemoryRecord{
		ID:          generateMemoryID(),
		OwnerID:     ownerID,
		Kind:        kind,
		Content:     content,
		Summary:     Summarize(content),
		Category:    category,
		Confidence:  1.0,
		Granularity: GranularitySession,
		SourceType:  SourceConversation,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Validate checks required fields and vocabulary membership
func (m *MemoryRecord) Validate() error {
	if m.ID == "" {
		return errors.New("memory id cannot be empty")
	}
	if m.OwnerID == "" {
		return errors.New("owner id cannot be empty")
	}
	if m.Kind != KindUserFact && m.Kind != KindRelationalNote {
		return fmt.Errorf("invalid kind %q", m.Kind)
	}
	if strings.TrimSpace(m.Content) == "" {
		return errors.New("content cannot be empty")
	}
	if !Categories[m.Category] {
		return fmt.Errorf("unknown category %q", m.Category)
	}
	if m.LLMImportance < 0 || m.LLMImportance > 1 {
		return fmt.Errorf("llm importance out of range: %f", m.LLMImportance)
	}
	if m.EmotionalArousal < 0 || m.EmotionalArousal > 1 {
		return fmt.Errorf("emotional arousal out of range: %f", m.EmotionalArousal)
	}
	if m.EmotionalValence < -1 || m.EmotionalValence > 1 {
		return fmt.Errorf("emotional valence out of range: %f", m.EmotionalValence)
	}
	return nil
}

// Forgotten reports whether the record has been soft-forgotten.
// Forgotten records stay listable but never enter ranking pools.
func (m *MemoryRecord) Forgotten() bool {
	return m.MemoryStrength == 0 && m.CurrentImportance == 0
}

// LastTouch is the later of creation and last citation, the reference
// point for decay
func (m *MemoryRecord) LastTouch() time.Time {
	if m.LastCitedAt.After(m.CreatedAt) {
		return m.LastCitedAt
	}
	return m.CreatedAt
}

// Summarize trims content to the prompt-facing summary length. Slicing is
// by runes so a multi-byte character on the boundary stays intact.
func Summarize(content string) string {
	content = strings.TrimSpace(content)
	runes := []rune(content)
	if len(runes) <= MaxSummaryLen {
		return content
	}
	cut := string(runes[:MaxSummaryLen-3])
	if idx := strings.LastIndex(cut, " "); idx > MaxSummaryLen/2 {
		cut = cut[:idx]
	}
	return cut + "..."
}

func generateMemoryID() string {
	return "mem_" + uuid.New().String()
}
