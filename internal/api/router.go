// ABOUTME: Chi router wiring all HTTP routes and middleware
// ABOUTME: /healthz is unauthenticated; everything else sits behind bearer auth
package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/mrbrandonmills/professor-carl-memory/internal/config"
	"github.com/mrbrandonmills/professor-carl-memory/internal/decay"
	"github.com/mrbrandonmills/professor-carl-memory/internal/extract"
	"github.com/mrbrandonmills/professor-carl-memory/internal/remote"
	"github.com/mrbrandonmills/professor-carl-memory/internal/retrieval"
	"github.com/mrbrandonmills/professor-carl-memory/internal/store"
	"github.com/mrbrandonmills/professor-carl-memory/internal/strategy"
)

// NewRouter creates the Chi router with all routes and middleware
func NewRouter(
	st store.Store,
	retriever *retrieval.Retriever,
	aggregator *remote.Aggregator,
	pipeline *extract.Pipeline,
	learner *strategy.Learner,
	decayJob *decay.Job,
	cfg *config.Config,
	logger *slog.Logger,
) (*chi.Mux, *Handlers) {
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(Logger(logger))
	r.Use(Recovery(logger))

	h := NewHandlers(st, retriever, aggregator, pipeline, learner, decayJob, logger)

	r.Get("/healthz", h.Health)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(cfg.APISecret))

		r.Route("/v1", func(r chi.Router) {
			r.Post("/retrieve", h.Retrieve)
			r.Post("/context", h.UnifiedContext)
			r.Post("/conversations", h.IngestConversation)
			r.Post("/strategies", h.RecordStrategyOutcome)
			r.Post("/strategies/relevant", h.RelevantStrategies)
			r.Post("/strategies/reinforce", h.ReinforceStrategy)
			r.Post("/decay", h.RunDecay)
			r.Post("/citations", h.ReportCitations)
		})
	})

	return r, h
}
