// ABOUTME: Pure scoring functions for memory strength, decay, and hybrid ranking
// ABOUTME: No I/O; callers clamp inputs before calling
package scoring

import (
	"math"
	"time"
)

// Weights controls the hybrid ranking blend. Fields should sum to 1
// but HybridRank normalizes internally when they do not.
type Weights struct {
	Similarity float64
	Importance float64
	Recency    float64
	Emotion    float64
}

// DefaultWeights favors semantic match, then importance, then recency
func DefaultWeights() Weights {
	return Weights{
		Similarity: 0.40,
		Importance: 0.30,
		Recency:    0.20,
		Emotion:    0.10,
	}
}

const (
	// citedSaturation is the citation count at which the log-scaled
	// citation term reaches 1.0
	citedSaturation = 20.0

	// unusedPenaltyStep lowers strength per retrieved-but-uncited surface
	unusedPenaltyStep = 0.05

	// unusedPenaltyCap bounds how far staleness can erode a memory
	unusedPenaltyCap = 0.5

	// recencyHalfLifeDays controls how fast the recency signal fades
	recencyHalfLifeDays = 7.0
)

// MemoryStrength combines citation history, emotional salience, and assigned
// importance into the derived strength score. Non-decreasing in arousal,
// importance, and citations (log-scaled); non-increasing in unused retrievals.
func MemoryStrength(citedCount int, humeArousal, textArousal, llmImportance float64, retrievedUnusedCount int) float64 {
	arousal := math.Max(humeArousal, textArousal)

	citation := math.Log1p(float64(citedCount)) / math.Log1p(citedSaturation)
	if citation > 1 {
		citation = 1
	}

	base := 0.45*llmImportance + 0.30*arousal + 0.25*citation

	penalty := unusedPenaltyStep * float64(retrievedUnusedCount)
	if penalty > unusedPenaltyCap {
		penalty = unusedPenaltyCap
	}

	return Clamp01(base * (1 - penalty))
}

// DecayedImportance applies exponential decay to the current importance.
// decayRate is per day; elapsed is time since last touch (later of last
// citation and creation). Floored at 0.
func DecayedImportance(currentImportance float64, elapsed time.Duration, decayRate float64) float64 {
	if currentImportance <= 0 {
		return 0
	}
	days := elapsed.Hours() / 24
	if days < 0 {
		days = 0
	}
	return currentImportance * math.Exp(-decayRate*days)
}

// HybridRank blends similarity, importance, recency, and emotional salience.
// When hasQuery is false the similarity weight is redistributed
// proportionally to importance and recency, so topic-less retrieval
// degrades to "most important, most recent."
func HybridRank(similarity float64, hasQuery bool, currentImportance, recencyScore, emotionalSalience float64, w Weights) float64 {
	wSim, wImp, wRec, wEmo := w.Similarity, w.Importance, w.Recency, w.Emotion

	if !hasQuery {
		ir := wImp + wRec
		if ir > 0 {
			wImp += wSim * wImp / ir
			wRec += wSim * wRec / ir
		} else {
			wImp += wSim
		}
		wSim = 0
		similarity = 0
	}

	total := wSim + wImp + wRec + wEmo
	if total <= 0 {
		return 0
	}

	score := wSim*similarity + wImp*currentImportance + wRec*recencyScore + wEmo*emotionalSalience
	return score / total
}

// RecencyScore maps time since last touch to (0, 1], halving every
// recencyHalfLifeDays
func RecencyScore(lastTouch, now time.Time) float64 {
	days := now.Sub(lastTouch).Hours() / 24
	if days < 0 {
		days = 0
	}
	return math.Pow(0.5, days/recencyHalfLifeDays)
}

// EmotionalSalience combines arousal with the magnitude of valence;
// strongly negative moments matter as much as strongly positive ones
func EmotionalSalience(arousal, valence float64) float64 {
	return Clamp01(0.7*arousal + 0.3*math.Abs(valence))
}

// RunningAverage folds a new outcome score into the per-strategy mean:
// (oldScore*timesUsed + newOutcomeScore) / (timesUsed+1)
func RunningAverage(oldScore float64, timesUsed int, newOutcomeScore float64) float64 {
	if timesUsed < 0 {
		timesUsed = 0
	}
	return (oldScore*float64(timesUsed) + newOutcomeScore) / float64(timesUsed+1)
}

// RunningAverageWithBonus adds an emotional-delta bonus to the running
// average and clamps to [0,1]. A session whose arousal rose suggests the
// strategy engaged the learner beyond what the outcome label captures.
func RunningAverageWithBonus(oldScore float64, timesUsed int, newOutcomeScore, arousalDelta float64) float64 {
	avg := RunningAverage(oldScore, timesUsed, newOutcomeScore)
	return Clamp01(avg + 0.1*arousalDelta)
}

// Clamp01 clamps to [0, 1]
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ClampValence clamps to [-1, 1]
func ClampValence(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
