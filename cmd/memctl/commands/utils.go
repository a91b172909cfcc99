// ABOUTME: Shared helpers for CLI commands: store wiring and display formatting
// ABOUTME: The store backend is picked from configuration (sqlite default, postgres when set)
package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"

	"github.com/mrbrandonmills/professor-carl-memory/internal/config"
	"github.com/mrbrandonmills/professor-carl-memory/internal/store"
	"github.com/mrbrandonmills/professor-carl-memory/internal/store/postgres"
	"github.com/mrbrandonmills/professor-carl-memory/internal/store/sqlite"
)

// loadConfig loads .env and environment configuration
func loadConfig() (*config.Config, error) {
	_ = godotenv.Load()
	return config.Load()
}

// openStore opens the configured backend
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.DatabaseURL != "" {
		st, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("opening postgres store: %w", err)
		}
		return st, nil
	}
	st, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite store: %w", err)
	}
	return st, nil
}

// truncate shortens a string to maxLen, adding "..." if truncated
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return string(runes[:maxLen-3]) + "..."
}

// formatTime formats a time for display
func formatTime(t time.Time) string {
	now := time.Now()
	diff := now.Sub(t)

	if diff < time.Minute {
		return "just now"
	} else if diff < time.Hour {
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	} else if diff < 24*time.Hour {
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	} else if diff < 7*24*time.Hour {
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	}
	return t.Format("2006-01-02")
}
