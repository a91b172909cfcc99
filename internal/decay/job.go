// ABOUTME: Background decay job walking the memories table in batches
// ABOUTME: Run on a schedule (cron, systemd timer) or on demand via CLI/API
package decay

import (
	"context"
	"log/slog"
	"time"

	"github.com/mrbrandonmills/professor-carl-memory/internal/config"
	"github.com/mrbrandonmills/professor-carl-memory/internal/store"
)

// Summary reports one full decay pass
type Summary struct {
	Batches int           `json:"batches"`
	Touched int           `json:"touched"`
	DryRun  bool          `json:"dry_run"`
	Elapsed time.Duration `json:"elapsed"`
}

// Job applies importance decay across the whole store
type Job struct {
	store  store.Store
	cfg    *config.Config
	logger *slog.Logger
}

// NewJob wires the decay job
func NewJob(st store.Store, cfg *config.Config, logger *slog.Logger) *Job {
	if logger == nil {
		logger = slog.Default()
	}
	return &Job{store: st, cfg: cfg, logger: logger}
}

// Run walks the table batch by batch until the cursor comes back empty.
// With dryRun set it reports what would change without writing. Honors
// context cancellation between batches.
func (j *Job) Run(ctx context.Context, dryRun bool) (*Summary, error) {
	start := time.Now()
	now := start.UTC()
	summary := &Summary{DryRun: dryRun}

	cursor := ""
	for {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		next, touched, err := j.store.DecayBatch(ctx, cursor, j.cfg.DecayBatchSize, j.cfg.DecayRate, now, dryRun)
		if err != nil {
			return summary, err
		}
		summary.Batches++
		summary.Touched += touched

		if next == "" {
			break
		}
		cursor = next
	}

	summary.Elapsed = time.Since(start)
	j.logger.Info("decay pass complete",
		"batches", summary.Batches,
		"touched", summary.Touched,
		"dry_run", dryRun,
		"elapsed", summary.Elapsed)
	return summary, nil
}
