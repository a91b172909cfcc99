// ABOUTME: Hybrid-ranked retrieval: similarity, importance, recency, emotion
// ABOUTME: Splits results into capped fact/note pools and attaches strategies
package retrieval

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/mrbrandonmills/professor-carl-memory/internal/config"
	"github.com/mrbrandonmills/professor-carl-memory/internal/models"
	"github.com/mrbrandonmills/professor-carl-memory/internal/scoring"
	"github.com/mrbrandonmills/professor-carl-memory/internal/store"
)

// Embedder is the slice of the LLM client retrieval needs
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float64, error)
}

// Retriever assembles the per-turn memory context for one learner
type Retriever struct {
	store    store.Store
	embedder Embedder
	cfg      *config.Config
	logger   *slog.Logger
}

// NewRetriever wires the retrieval service
func NewRetriever(st store.Store, embedder Embedder, cfg *config.Config, logger *slog.Logger) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{store: st, embedder: embedder, cfg: cfg, logger: logger}
}

// Retrieve builds the ranked context for a turn. With a topic, candidates
// come from similarity search; without one, ranking degrades to importance
// and recency. The per-kind pool caps apply first; limit then truncates the
// combined fact+note set (0 means no extra truncation). An embedding failure
// degrades to topic-less retrieval rather than failing the turn; a store
// failure returns an empty context with the error so callers can fail soft.
func (r *Retriever) Retrieve(ctx context.Context, ownerID, topic string, limit int) (*models.RankedContext, error) {
	result := &models.RankedContext{OwnerID: ownerID, Topic: topic}

	hasQuery := strings.TrimSpace(topic) != ""
	var query []float64
	if hasQuery {
		embedding, err := r.embedder.GenerateEmbedding(ctx, topic)
		if err != nil {
			r.logger.Warn("topic embedding failed, falling back to topic-less retrieval",
				"owner", ownerID, "error", err)
			hasQuery = false
		} else {
			query = embedding
		}
	}

	candidates, err := r.gatherCandidates(ctx, ownerID, query, hasQuery)
	if err != nil {
		r.logger.Error("candidate retrieval failed", "owner", ownerID, "error", err)
		return result, err
	}

	weights := scoring.Weights{
		Similarity: r.cfg.WeightSimilarity,
		Importance: r.cfg.WeightImportance,
		Recency:    r.cfg.WeightRecency,
		Emotion:    r.cfg.WeightEmotion,
	}
	now := time.Now().UTC()

	ranked := make([]models.RankedMemory, 0, len(candidates))
	for _, c := range candidates {
		rec := c.Record
		score := scoring.HybridRank(
			c.Similarity, hasQuery,
			rec.CurrentImportance,
			scoring.RecencyScore(rec.LastTouch(), now),
			scoring.EmotionalSalience(rec.EmotionalArousal, rec.EmotionalValence),
			weights,
		)
		ranked = append(ranked, models.RankedMemory{
			Record:     rec,
			Score:      score,
			Similarity: c.Similarity,
			HasQuery:   hasQuery,
			Origin:     models.OriginLocal,
		})
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })

	var unusedIDs []string
	for _, m := range ranked {
		if limit > 0 && len(result.RetrievedIDs) >= limit {
			unusedIDs = append(unusedIDs, m.Record.ID)
			continue
		}
		switch m.Record.Kind {
		case models.KindUserFact:
			if len(result.Facts) < r.cfg.FactPoolCap {
				result.Facts = append(result.Facts, m)
				result.RetrievedIDs = append(result.RetrievedIDs, m.Record.ID)
				continue
			}
		case models.KindRelationalNote:
			if len(result.Notes) < r.cfg.NotePoolCap {
				result.Notes = append(result.Notes, m)
				result.RetrievedIDs = append(result.RetrievedIDs, m.Record.ID)
				continue
			}
		}
		unusedIDs = append(unusedIDs, m.Record.ID)
	}

	strategies, err := r.store.GetStrategies(ctx, ownerID, topic, r.cfg.MinStrategyScore, r.cfg.StrategyPoolCap)
	if err != nil {
		r.logger.Warn("strategy retrieval failed", "owner", ownerID, "error", err)
	} else {
		result.Strategies = strategies
	}

	// Citation bookkeeping feeds the strength formula; losing it is not
	// worth failing the turn over
	if err := r.store.RecordCitations(ctx, ownerID, result.RetrievedIDs); err != nil {
		r.logger.Warn("failed to record citations", "owner", ownerID, "error", err)
	}
	if err := r.store.RecordUnusedRetrievals(ctx, ownerID, unusedIDs); err != nil {
		r.logger.Warn("failed to record unused retrievals", "owner", ownerID, "error", err)
	}

	return result, nil
}

// gatherCandidates pulls the raw pool the ranker works over
func (r *Retriever) gatherCandidates(ctx context.Context, ownerID string, query []float64, hasQuery bool) ([]store.SimilarityMatch, error) {
	poolSize := (r.cfg.FactPoolCap + r.cfg.NotePoolCap) * 3

	if hasQuery {
		return r.store.TopKBySimilarity(ctx, ownerID, query, poolSize, r.cfg.DecayFloor)
	}

	records, err := r.store.ListByOwner(ctx, ownerID, store.ListFilters{ExcludeForgotten: true, Limit: poolSize})
	if err != nil {
		return nil, err
	}
	matches := make([]store.SimilarityMatch, 0, len(records))
	for _, rec := range records {
		if rec.CurrentImportance <= r.cfg.DecayFloor {
			continue
		}
		matches = append(matches, store.SimilarityMatch{Record: rec})
	}
	return matches, nil
}
