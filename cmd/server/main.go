// ABOUTME: Main entry point for the learner memory HTTP service
// ABOUTME: Wires store, OpenAI client, retrieval, extraction, and decay behind chi
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mrbrandonmills/professor-carl-memory/internal/api"
	"github.com/mrbrandonmills/professor-carl-memory/internal/config"
	"github.com/mrbrandonmills/professor-carl-memory/internal/decay"
	"github.com/mrbrandonmills/professor-carl-memory/internal/extract"
	"github.com/mrbrandonmills/professor-carl-memory/internal/llm"
	"github.com/mrbrandonmills/professor-carl-memory/internal/remote"
	"github.com/mrbrandonmills/professor-carl-memory/internal/retrieval"
	"github.com/mrbrandonmills/professor-carl-memory/internal/store"
	"github.com/mrbrandonmills/professor-carl-memory/internal/store/postgres"
	"github.com/mrbrandonmills/professor-carl-memory/internal/store/sqlite"
	"github.com/mrbrandonmills/professor-carl-memory/internal/strategy"
)

func main() {
	// Load .env file if it exists (for API keys)
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found (this is okay for production): %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var st store.Store
	if cfg.DatabaseURL != "" {
		st, err = postgres.Open(ctx, cfg.DatabaseURL)
	} else {
		st, err = sqlite.Open(cfg.DBPath)
	}
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer func() { _ = st.Close() }()

	client, err := llm.NewOpenAIClient(cfg)
	if err != nil {
		log.Fatalf("Failed to create OpenAI client: %v", err)
	}

	retriever := retrieval.NewRetriever(st, client, cfg, logger)
	aggregator := remote.NewAggregator(retriever, remote.NewClient(cfg), cfg, logger)
	pipeline := extract.NewPipeline(st, client, cfg, logger)
	learner := strategy.NewLearner(st, cfg, logger)
	decayJob := decay.NewJob(st, cfg, logger)

	router, handlers := api.NewRouter(st, retriever, aggregator, pipeline, learner, decayJob, cfg, logger)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", "addr", cfg.HTTPAddr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}

	// Let in-flight extraction goroutines finish before the store closes
	handlers.Wait()
	logger.Info("server stopped")
}
