// ABOUTME: Transcript types consumed by the extraction pipeline
// ABOUTME: Turns with optional per-turn emotion plus an aggregate session summary
package models

import "time"

// TranscriptTurn is one message in a tutoring session
type TranscriptTurn struct {
	Role      string    `json:"role"` // "student" or "assistant"
	Text      string    `json:"text"`
	Arousal   float64   `json:"arousal,omitempty"` // voice-emotion sample, 0 when absent
	Valence   float64   `json:"valence,omitempty"`
	Emotion   string    `json:"emotion,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// EmotionSummary aggregates the voice-emotion signal over a session
type EmotionSummary struct {
	StartArousal    float64 `json:"start_arousal"`
	EndArousal      float64 `json:"end_arousal"`
	PeakArousal     float64 `json:"peak_arousal"`
	MeanValence     float64 `json:"mean_valence"`
	DominantEmotion string  `json:"dominant_emotion,omitempty"`
}

// ArousalDelta is the session's emotional trajectory, used as a bonus
// term when scoring strategy outcomes
func (e *EmotionSummary) ArousalDelta() float64 {
	return e.EndArousal - e.StartArousal
}

// SessionMetadata carries optional per-session context into extraction
type SessionMetadata struct {
	Emotion *EmotionSummary `json:"emotion,omitempty"`
	Topic   string          `json:"topic,omitempty"`
}
