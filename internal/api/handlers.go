// ABOUTME: HTTP handlers for retrieval, ingestion, decay, and citation reporting
// ABOUTME: Conversation ingestion is fire-and-forget with tracked goroutines
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mrbrandonmills/professor-carl-memory/internal/decay"
	"github.com/mrbrandonmills/professor-carl-memory/internal/extract"
	"github.com/mrbrandonmills/professor-carl-memory/internal/models"
	"github.com/mrbrandonmills/professor-carl-memory/internal/remote"
	"github.com/mrbrandonmills/professor-carl-memory/internal/retrieval"
	"github.com/mrbrandonmills/professor-carl-memory/internal/store"
	"github.com/mrbrandonmills/professor-carl-memory/internal/strategy"
)

// extractionTimeout bounds one background extraction run
const extractionTimeout = 2 * time.Minute

// Handlers holds the HTTP handler dependencies
type Handlers struct {
	store      store.Store
	retriever  *retrieval.Retriever
	aggregator *remote.Aggregator
	pipeline   *extract.Pipeline
	learner    *strategy.Learner
	decayJob   *decay.Job
	logger     *slog.Logger
	wg         sync.WaitGroup // tracks background extraction goroutines
}

// NewHandlers wires the HTTP handlers
func NewHandlers(st store.Store, retriever *retrieval.Retriever, aggregator *remote.Aggregator, pipeline *extract.Pipeline, learner *strategy.Learner, decayJob *decay.Job, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		store:      st,
		retriever:  retriever,
		aggregator: aggregator,
		pipeline:   pipeline,
		learner:    learner,
		decayJob:   decayJob,
		logger:     logger,
	}
}

// Wait blocks until all background extractions finish (shutdown hook)
func (h *Handlers) Wait() {
	h.wg.Wait()
}

// Health handles GET /healthz
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type retrieveRequest struct {
	OwnerID string `json:"owner_id"`
	Topic   string `json:"topic,omitempty"`
	Limit   int    `json:"limit,omitempty"`
}

// Retrieve handles POST /v1/retrieve
func (h *Handlers) Retrieve(w http.ResponseWriter, r *http.Request) {
	var req retrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.OwnerID) == "" {
		writeError(w, http.StatusBadRequest, "owner_id is required")
		return
	}

	// A memory outage must not block a live turn: on failure the retriever
	// hands back an empty context, which we serve as a normal response
	ranked, err := h.retriever.Retrieve(r.Context(), req.OwnerID, req.Topic, req.Limit)
	if err != nil {
		h.logger.Error("retrieval failed, returning empty context",
			"owner", req.OwnerID, "error", err)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"context":       ranked,
		"formatted":     retrieval.FormatContext(ranked),
		"retrieved_ids": ranked.RetrievedIDs,
	})
}

// UnifiedContext handles POST /v1/context
func (h *Handlers) UnifiedContext(w http.ResponseWriter, r *http.Request) {
	var req retrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.OwnerID) == "" {
		writeError(w, http.StatusBadRequest, "owner_id is required")
		return
	}

	unified := h.aggregator.GetUnifiedContext(r.Context(), req.OwnerID, req.Topic, req.Limit)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"unified":   unified,
		"formatted": retrieval.FormatContext(&unified.Context),
	})
}

type conversationRequest struct {
	OwnerID   string                  `json:"owner_id"`
	SessionID string                  `json:"session_id"`
	Turns     []models.TranscriptTurn `json:"turns"`
	Metadata  *models.SessionMetadata `json:"metadata,omitempty"`
}

// IngestConversation handles POST /v1/conversations. The caller gets a 202
// immediately; extraction runs in a tracked background goroutine so a slow
// LLM never blocks session teardown.
func (h *Handlers) IngestConversation(w http.ResponseWriter, r *http.Request) {
	var req conversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.OwnerID) == "" {
		writeError(w, http.StatusBadRequest, "owner_id is required")
		return
	}
	if len(req.Turns) == 0 {
		writeError(w, http.StatusBadRequest, "turns are required")
		return
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), extractionTimeout)
		defer cancel()

		result, err := h.pipeline.ProcessConversation(ctx, req.OwnerID, req.SessionID, req.Turns, req.Metadata)
		if err != nil {
			h.logger.Error("background extraction failed",
				"owner", req.OwnerID, "session", req.SessionID, "error", err)
			return
		}
		h.logger.Info("background extraction finished",
			"owner", req.OwnerID,
			"session", req.SessionID,
			"memories", result.MemoriesSaved,
			"strategies", result.StrategiesSaved)
	}()

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"accepted": true,
		"turns":    len(req.Turns),
	})
}

type decayRequest struct {
	DryRun bool `json:"dry_run,omitempty"`
}

// RunDecay handles POST /v1/decay
func (h *Handlers) RunDecay(w http.ResponseWriter, r *http.Request) {
	var req decayRequest
	if r.Body != nil {
		// an empty body means a real run
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	summary, err := h.decayJob.Run(r.Context(), req.DryRun)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "decay run failed")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

type strategyOutcomeRequest struct {
	OwnerID      string  `json:"owner_id"`
	Topic        string  `json:"topic"`
	Strategy     string  `json:"strategy"`
	Outcome      string  `json:"outcome"`
	Evidence     string  `json:"evidence,omitempty"`
	ArousalDelta float64 `json:"arousal_delta,omitempty"`
}

// RecordStrategyOutcome handles POST /v1/strategies
func (h *Handlers) RecordStrategyOutcome(w http.ResponseWriter, r *http.Request) {
	var req strategyOutcomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	persisted, err := h.learner.RecordOutcome(r.Context(), req.OwnerID, req.Topic, req.Strategy,
		models.StrategyOutcome(req.Outcome), req.Evidence, req.ArousalDelta)
	if err != nil {
		if errors.Is(err, models.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to record strategy outcome")
		return
	}
	writeJSON(w, http.StatusOK, persisted)
}

type relevantStrategiesRequest struct {
	OwnerID string `json:"owner_id"`
	Topic   string `json:"topic,omitempty"`
}

// RelevantStrategies handles POST /v1/strategies/relevant
func (h *Handlers) RelevantStrategies(w http.ResponseWriter, r *http.Request) {
	var req relevantStrategiesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.OwnerID) == "" {
		writeError(w, http.StatusBadRequest, "owner_id is required")
		return
	}

	strategies, err := h.learner.RelevantStrategies(r.Context(), req.OwnerID, req.Topic)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list strategies")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"strategies": strategies})
}

type reinforceRequest struct {
	StrategyID string `json:"strategy_id"`
	Worked     bool   `json:"worked"`
}

// ReinforceStrategy handles POST /v1/strategies/reinforce
func (h *Handlers) ReinforceStrategy(w http.ResponseWriter, r *http.Request) {
	var req reinforceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.StrategyID) == "" {
		writeError(w, http.StatusBadRequest, "strategy_id is required")
		return
	}

	if err := h.learner.Reinforce(r.Context(), req.StrategyID, req.Worked); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			writeError(w, http.StatusNotFound, "strategy not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to reinforce strategy")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type citationsRequest struct {
	OwnerID   string   `json:"owner_id"`
	CitedIDs  []string `json:"cited_ids,omitempty"`
	UnusedIDs []string `json:"unused_ids,omitempty"`
}

// ReportCitations handles POST /v1/citations. Callers that assemble their
// own prompts report back which retrieved memories they actually used.
func (h *Handlers) ReportCitations(w http.ResponseWriter, r *http.Request) {
	var req citationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.OwnerID) == "" {
		writeError(w, http.StatusBadRequest, "owner_id is required")
		return
	}

	if err := h.store.RecordCitations(r.Context(), req.OwnerID, req.CitedIDs); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to record citations")
		return
	}
	if err := h.store.RecordUnusedRetrievals(r.Context(), req.OwnerID, req.UnusedIDs); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to record unused retrievals")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{
		"cited":  len(req.CitedIDs),
		"unused": len(req.UnusedIDs),
	})
}
