// ABOUTME: Store interface for memory records, strategies, and the audit trail
// ABOUTME: Implemented by the sqlite (default) and postgres backends
package store

import (
	"context"
	"time"

	"github.com/mrbrandonmills/professor-carl-memory/internal/models"
)

// ListFilters narrows ListByOwner results. Soft-forgotten rows are part of
// the default listing (the audit contract); ranking pools exclude them on
// their own paths.
type ListFilters struct {
	Kind             models.MemoryKind // empty = both kinds
	Category         string            // empty = all categories
	ExcludeForgotten bool              // drop soft-forgotten rows
	Limit            int               // 0 = no limit
}

// SimilarityMatch pairs a record with its cosine similarity to the query
type SimilarityMatch struct {
	Record     models.MemoryRecord
	Similarity float64
}

// AuditEntry is one row of the tools-call audit trail
type AuditEntry struct {
	ID        string    `json:"id"`
	Tool      string    `json:"tool"`
	OwnerID   string    `json:"owner_id"`
	MemoryID  string    `json:"memory_id,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Success   bool      `json:"success"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the persistence contract for the memory engine.
//
// Ownership is part of every key: operations taking (ownerID, id) return
// models.ErrNotFound when the row is absent OR belongs to another owner.
// Counter updates (citations, unused retrievals, strategy scores) are
// single-statement arithmetic updates so concurrent sessions for the same
// owner cannot lose increments.
type Store interface {
	// Memory records
	CreateMemory(ctx context.Context, rec *models.MemoryRecord) error
	GetMemory(ctx context.Context, ownerID, id string) (*models.MemoryRecord, error)
	UpdateMemoryContent(ctx context.Context, ownerID, id, content, summary string, embedding []float64) error
	UpdateMemoryTags(ctx context.Context, ownerID, id string, tags []string) error
	AdjustImportance(ctx context.Context, ownerID, id string, delta float64) error
	SoftForget(ctx context.Context, ownerID, id string) error
	ListByOwner(ctx context.Context, ownerID string, f ListFilters) ([]models.MemoryRecord, error)
	TopKBySimilarity(ctx context.Context, ownerID string, query []float64, k int, floor float64) ([]SimilarityMatch, error)
	RecordCitations(ctx context.Context, ownerID string, ids []string) error
	RecordUnusedRetrievals(ctx context.Context, ownerID string, ids []string) error

	// Teaching strategies
	UpsertStrategy(ctx context.Context, s *models.TeachingStrategy, arousalDelta float64) (*models.TeachingStrategy, error)
	GetStrategies(ctx context.Context, ownerID, topicFilter string, minScore float64, limit int) ([]models.TeachingStrategy, error)
	AdjustStrategyScore(ctx context.Context, strategyID string, delta float64) error

	// Decay maintenance: processes up to batchSize rows with id > cursor in
	// id order, returning the next cursor ("" when the pass is complete)
	DecayBatch(ctx context.Context, cursor string, batchSize int, decayRate float64, now time.Time, dryRun bool) (next string, touched int, err error)

	// Audit trail
	AppendAudit(ctx context.Context, entry *AuditEntry) error
	ListAudit(ctx context.Context, ownerID string, limit int) ([]AuditEntry, error)

	Close() error
}
