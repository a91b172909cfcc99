// ABOUTME: Decay job tests over the in-memory sqlite store
// ABOUTME: Full passes, dry runs, cancellation between batches
package decay

import (
	"context"
	"testing"
	"time"

	"github.com/mrbrandonmills/professor-carl-memory/internal/config"
	"github.com/mrbrandonmills/professor-carl-memory/internal/models"
	"github.com/mrbrandonmills/professor-carl-memory/internal/store"
	"github.com/mrbrandonmills/professor-carl-memory/internal/store/sqlite"
)

func newTestJob(t *testing.T, batchSize int) (*Job, *sqlite.Store) {
	t.Helper()
	st, err := sqlite.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	cfg := &config.Config{DecayRate: 0.02, DecayBatchSize: batchSize}
	return NewJob(st, cfg, nil), st
}

func seedAged(t *testing.T, st *sqlite.Store, n int, age time.Duration) {
	t.Helper()
	created := time.Now().UTC().Add(-age)
	for i := 0; i < n; i++ {
		rec, err := models.NewMemoryRecord("student-1", models.KindUserFact, "an aged memory", "interest")
		if err != nil {
			t.Fatalf("NewMemoryRecord: %v", err)
		}
		rec.LLMImportance = 0.6
		rec.CurrentImportance = 0.6
		rec.MemoryStrength = 0.6
		rec.CreatedAt = created
		rec.UpdatedAt = created
		if err := st.CreateMemory(context.Background(), rec); err != nil {
			t.Fatalf("CreateMemory: %v", err)
		}
	}
}

func TestRunFullPass(t *testing.T) {
	j, st := newTestJob(t, 2)
	seedAged(t, st, 5, 20*24*time.Hour)

	summary, err := j.Run(context.Background(), false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Touched != 5 {
		t.Errorf("touched = %d, want 5", summary.Touched)
	}
	if summary.Batches < 3 {
		t.Errorf("batches = %d, want at least 3 at batch size 2", summary.Batches)
	}

	records, err := st.ListByOwner(context.Background(), "student-1", store.ListFilters{})
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	for _, rec := range records {
		// 0.6 * exp(-0.02*20) ~= 0.402
		if rec.CurrentImportance >= 0.6 {
			t.Errorf("importance = %v, want decayed below 0.6", rec.CurrentImportance)
		}
	}
}

func TestRunDryRun(t *testing.T) {
	j, st := newTestJob(t, 100)
	seedAged(t, st, 3, 20*24*time.Hour)

	summary, err := j.Run(context.Background(), true)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !summary.DryRun {
		t.Errorf("summary.DryRun = false")
	}
	if summary.Touched != 3 {
		t.Errorf("touched = %d, want 3", summary.Touched)
	}

	records, _ := st.ListByOwner(context.Background(), "student-1", store.ListFilters{})
	for _, rec := range records {
		if rec.CurrentImportance != 0.6 {
			t.Errorf("dry run wrote importance %v", rec.CurrentImportance)
		}
	}
}

func TestRunEmptyStore(t *testing.T) {
	j, _ := newTestJob(t, 100)

	summary, err := j.Run(context.Background(), false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Touched != 0 || summary.Batches != 1 {
		t.Errorf("summary = %+v, want one empty batch", summary)
	}
}

func TestRunCancelled(t *testing.T) {
	j, st := newTestJob(t, 1)
	seedAged(t, st, 3, 20*24*time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := j.Run(ctx, false); err == nil {
		t.Errorf("Run with cancelled context returned nil error")
	}
}
