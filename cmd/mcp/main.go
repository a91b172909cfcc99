// ABOUTME: Main entry point for the memory MCP server with stdio transport
// ABOUTME: Exposes the agent-facing memory tools to a tutoring agent
package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/mrbrandonmills/professor-carl-memory/internal/config"
	"github.com/mrbrandonmills/professor-carl-memory/internal/llm"
	"github.com/mrbrandonmills/professor-carl-memory/internal/retrieval"
	"github.com/mrbrandonmills/professor-carl-memory/internal/store"
	"github.com/mrbrandonmills/professor-carl-memory/internal/store/postgres"
	"github.com/mrbrandonmills/professor-carl-memory/internal/store/sqlite"
	"github.com/mrbrandonmills/professor-carl-memory/internal/tools"
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

	// Stdout carries the stdio transport, so logs go to stderr
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	var st store.Store
	if cfg.DatabaseURL != "" {
		st, err = postgres.Open(context.Background(), cfg.DatabaseURL)
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

	server := mcpserver.NewMCPServer(
		"Learner Memory Engine",
		"0.1.0",
	)

	tools.RegisterTools(server, st, client, retriever, logger)

	log.Println("Memory MCP server starting on stdio...")
	if err := mcpserver.ServeStdio(server); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
