// ABOUTME: Merges local retrieval with a peer service's memories for one turn
// ABOUTME: Local and remote run in parallel; the peer can never stall a session
package remote

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/mrbrandonmills/professor-carl-memory/internal/config"
	"github.com/mrbrandonmills/professor-carl-memory/internal/models"
)

// LocalRetriever is the slice of the retrieval service the aggregator needs
type LocalRetriever interface {
	Retrieve(ctx context.Context, ownerID, topic string, limit int) (*models.RankedContext, error)
}

// Aggregator produces a unified local+remote context
type Aggregator struct {
	local  LocalRetriever
	client *Client
	cfg    *config.Config
	logger *slog.Logger
}

// NewAggregator wires the aggregator
func NewAggregator(local LocalRetriever, client *Client, cfg *config.Config, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{local: local, client: client, cfg: cfg, logger: logger}
}

// GetUnifiedContext fetches local and remote memories in parallel and merges
// them. The limit applies to each side independently (0 means pool caps
// only). Remote failure of any kind (unconfigured, timeout, non-200)
// degrades to local-only with RemoteSuccess false; local failure degrades to
// an empty local pool. The result is always usable.
func (a *Aggregator) GetUnifiedContext(ctx context.Context, ownerID, topic string, limit int) *models.UnifiedContext {
	unified := &models.UnifiedContext{
		Context: models.RankedContext{OwnerID: ownerID, Topic: topic},
	}

	var local *models.RankedContext
	var peer *ContextResponse

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		got, err := a.local.Retrieve(gctx, ownerID, topic, limit)
		if err != nil {
			a.logger.Warn("local retrieval failed", "owner", ownerID, "error", err)
			return nil
		}
		local = got
		return nil
	})
	g.Go(func() error {
		if !a.client.Configured() {
			return nil
		}
		remoteLimit := limit
		if remoteLimit <= 0 {
			remoteLimit = a.cfg.FactPoolCap + a.cfg.NotePoolCap
		}
		got, err := a.client.FetchContext(gctx, ownerID, topic, remoteLimit)
		if err != nil {
			a.logger.Warn("remote fetch failed", "owner", ownerID, "error", err)
			return nil
		}
		peer = got
		return nil
	})
	_ = g.Wait() // goroutines swallow their own errors

	if local != nil {
		unified.Context = *local
		unified.LocalCount = len(local.Facts) + len(local.Notes)
	}

	if peer != nil {
		unified.RemoteSuccess = true
		for _, m := range peer.Facts {
			unified.Context.Facts = append(unified.Context.Facts, remoteRanked(ownerID, models.KindUserFact, m))
		}
		for _, m := range peer.Notes {
			unified.Context.Notes = append(unified.Context.Notes, remoteRanked(ownerID, models.KindRelationalNote, m))
		}
		unified.RemoteCount = len(peer.Facts) + len(peer.Notes)
	}

	return unified
}

// remoteRanked wraps a peer memory as a ranked entry. Remote entries carry
// only their summary and importance; they are never cited or persisted here.
func remoteRanked(ownerID string, kind models.MemoryKind, m Memory) models.RankedMemory {
	return models.RankedMemory{
		Record: models.MemoryRecord{
			OwnerID:  ownerID,
			Kind:     kind,
			Summary:  m.Summary,
			Content:  m.Summary,
			Category: m.Category,
		},
		Score:  m.Importance,
		Origin: models.OriginRemote,
	}
}
