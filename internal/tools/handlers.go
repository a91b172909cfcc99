// ABOUTME: MCP tool handler implementations for the memory engine
// ABOUTME: Every call lands in the audit trail, success or failure
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mrbrandonmills/professor-carl-memory/internal/models"
	"github.com/mrbrandonmills/professor-carl-memory/internal/retrieval"
	"github.com/mrbrandonmills/professor-carl-memory/internal/scoring"
	"github.com/mrbrandonmills/professor-carl-memory/internal/store"
)

// Handlers contains the handler functions for all memory tools
type Handlers struct {
	store     store.Store
	embedder  retrieval.Embedder
	retriever *retrieval.Retriever
	logger    *slog.Logger
}

// NewHandlers wires the tool handlers
func NewHandlers(st store.Store, embedder retrieval.Embedder, retriever *retrieval.Retriever, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{store: st, embedder: embedder, retriever: retriever, logger: logger}
}

// SaveMemory handles the save_memory tool
func (h *Handlers) SaveMemory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ownerID, err := request.RequireString("owner_id")
	if err != nil {
		return mcp.NewToolResultError("owner_id argument is required and must be a string"), nil
	}
	content, err := request.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError("content argument is required and must be a string"), nil
	}
	category, err := request.RequireString("category")
	if err != nil {
		return mcp.NewToolResultError("category argument is required and must be a string"), nil
	}

	kind := models.MemoryKind(request.GetString("kind", string(models.KindUserFact)))
	importance := scoring.Clamp01(request.GetFloat("importance", 0.5))
	tags := request.GetStringSlice("tags", nil)

	rec, err := models.NewMemoryRecord(ownerID, kind, content, category)
	if err != nil {
		h.audit(ctx, "save_memory", ownerID, "", "", false)
		return mcp.NewToolResultError(fmt.Sprintf("invalid memory: %v", err)), nil
	}
	rec.SourceType = models.SourceAutonomous
	rec.LLMImportance = importance
	rec.CurrentImportance = importance
	rec.MemoryStrength = scoring.MemoryStrength(0, 0, 0, importance, 0)
	rec.Tags = tags

	// An embedding failure costs similarity search, not the save
	if embedding, err := h.embedder.GenerateEmbedding(ctx, content); err != nil {
		h.logger.Warn("embedding failed for saved memory", "owner", ownerID, "error", err)
	} else {
		rec.Embedding = embedding
	}

	if err := h.store.CreateMemory(ctx, rec); err != nil {
		h.audit(ctx, "save_memory", ownerID, "", "", false)
		return mcp.NewToolResultError(fmt.Sprintf("failed to save memory: %v", err)), nil
	}

	h.audit(ctx, "save_memory", ownerID, rec.ID, "", true)
	return jsonResult(map[string]interface{}{
		"memory_id": rec.ID,
		"summary":   rec.Summary,
	})
}

// UpdateMemory handles the update_memory tool. With no change fields it
// verifies the memory exists and reports success without writing.
func (h *Handlers) UpdateMemory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ownerID, err := request.RequireString("owner_id")
	if err != nil {
		return mcp.NewToolResultError("owner_id argument is required and must be a string"), nil
	}
	memoryID, err := request.RequireString("memory_id")
	if err != nil {
		return mcp.NewToolResultError("memory_id argument is required and must be a string"), nil
	}

	content := request.GetString("content", "")
	tags := request.GetStringSlice("tags", nil)
	delta := request.GetFloat("importance_delta", 0)

	if _, err := h.store.GetMemory(ctx, ownerID, memoryID); err != nil {
		h.audit(ctx, "update_memory", ownerID, memoryID, "", false)
		return notFoundOrError("memory", err), nil
	}

	changed := []string{}
	if content != "" {
		summary := models.Summarize(content)
		var embedding []float64
		if vec, err := h.embedder.GenerateEmbedding(ctx, content); err != nil {
			h.logger.Warn("re-embedding failed on update", "owner", ownerID, "memory", memoryID, "error", err)
		} else {
			embedding = vec
		}
		if err := h.store.UpdateMemoryContent(ctx, ownerID, memoryID, content, summary, embedding); err != nil {
			h.audit(ctx, "update_memory", ownerID, memoryID, "", false)
			return notFoundOrError("memory", err), nil
		}
		changed = append(changed, "content")
	}
	if tags != nil {
		if err := h.store.UpdateMemoryTags(ctx, ownerID, memoryID, tags); err != nil {
			h.audit(ctx, "update_memory", ownerID, memoryID, "", false)
			return notFoundOrError("memory", err), nil
		}
		changed = append(changed, "tags")
	}
	if delta != 0 {
		if err := h.store.AdjustImportance(ctx, ownerID, memoryID, delta); err != nil {
			h.audit(ctx, "update_memory", ownerID, memoryID, "", false)
			return notFoundOrError("memory", err), nil
		}
		changed = append(changed, "importance")
	}

	h.audit(ctx, "update_memory", ownerID, memoryID, "", true)
	return jsonResult(map[string]interface{}{
		"memory_id": memoryID,
		"changed":   changed,
	})
}

// ForgetMemory handles the forget_memory tool
func (h *Handlers) ForgetMemory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ownerID, err := request.RequireString("owner_id")
	if err != nil {
		return mcp.NewToolResultError("owner_id argument is required and must be a string"), nil
	}
	memoryID, err := request.RequireString("memory_id")
	if err != nil {
		return mcp.NewToolResultError("memory_id argument is required and must be a string"), nil
	}
	reason, err := request.RequireString("reason")
	if err != nil {
		return mcp.NewToolResultError("reason argument is required and must be a string"), nil
	}

	if err := h.store.SoftForget(ctx, ownerID, memoryID); err != nil {
		h.audit(ctx, "forget_memory", ownerID, memoryID, reason, false)
		return notFoundOrError("memory", err), nil
	}

	h.audit(ctx, "forget_memory", ownerID, memoryID, reason, true)
	return jsonResult(map[string]interface{}{
		"memory_id": memoryID,
		"forgotten": true,
	})
}

// LinkMemories handles the link_memories tool. The link itself is persisted
// as a relational note so it flows through retrieval like any other memory.
func (h *Handlers) LinkMemories(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ownerID, err := request.RequireString("owner_id")
	if err != nil {
		return mcp.NewToolResultError("owner_id argument is required and must be a string"), nil
	}
	idA, err := request.RequireString("memory_id_a")
	if err != nil {
		return mcp.NewToolResultError("memory_id_a argument is required and must be a string"), nil
	}
	idB, err := request.RequireString("memory_id_b")
	if err != nil {
		return mcp.NewToolResultError("memory_id_b argument is required and must be a string"), nil
	}
	relationship, err := request.RequireString("relationship")
	if err != nil {
		return mcp.NewToolResultError("relationship argument is required and must be a string"), nil
	}

	if target := request.GetString("target_owner_id", ""); target != "" && target != ownerID {
		h.audit(ctx, "link_memories", ownerID, idA, "", false)
		return mcp.NewToolResultError(fmt.Sprintf("cannot link memories across students: %v", models.ErrForbidden)), nil
	}

	recA, err := h.store.GetMemory(ctx, ownerID, idA)
	if err != nil {
		h.audit(ctx, "link_memories", ownerID, idA, "", false)
		return notFoundOrError("memory_id_a", err), nil
	}
	recB, err := h.store.GetMemory(ctx, ownerID, idB)
	if err != nil {
		h.audit(ctx, "link_memories", ownerID, idB, "", false)
		return notFoundOrError("memory_id_b", err), nil
	}

	content := fmt.Sprintf("Connection (%s): %s / %s", relationship, recA.Summary, recB.Summary)
	link, err := models.NewMemoryRecord(ownerID, models.KindRelationalNote, content, "memory_link")
	if err != nil {
		h.audit(ctx, "link_memories", ownerID, idA, "", false)
		return mcp.NewToolResultError(fmt.Sprintf("failed to build link: %v", err)), nil
	}
	link.SourceType = models.SourceAutonomous
	link.Tags = []string{idA, idB}
	importance := (recA.CurrentImportance + recB.CurrentImportance) / 2
	link.LLMImportance = importance
	link.CurrentImportance = importance
	link.MemoryStrength = scoring.MemoryStrength(0, 0, 0, importance, 0)

	if embedding, err := h.embedder.GenerateEmbedding(ctx, content); err != nil {
		h.logger.Warn("embedding failed for link note", "owner", ownerID, "error", err)
	} else {
		link.Embedding = embedding
	}

	if err := h.store.CreateMemory(ctx, link); err != nil {
		h.audit(ctx, "link_memories", ownerID, idA, "", false)
		return mcp.NewToolResultError(fmt.Sprintf("failed to save link: %v", err)), nil
	}

	h.audit(ctx, "link_memories", ownerID, link.ID, relationship, true)
	return jsonResult(map[string]interface{}{
		"link_id": link.ID,
		"linked":  []string{idA, idB},
	})
}

// RetrieveContext handles the retrieve_context tool
func (h *Handlers) RetrieveContext(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ownerID, err := request.RequireString("owner_id")
	if err != nil {
		return mcp.NewToolResultError("owner_id argument is required and must be a string"), nil
	}
	topic := request.GetString("topic", "")
	limit := request.GetInt("limit", 0)

	ranked, err := h.retriever.Retrieve(ctx, ownerID, topic, limit)
	if err != nil {
		// A broken store must not break the session: hand back an empty context
		h.logger.Error("retrieval failed, returning empty context", "owner", ownerID, "error", err)
		ranked = &models.RankedContext{OwnerID: ownerID, Topic: topic}
	}

	return jsonResult(map[string]interface{}{
		"context":       retrieval.FormatContext(ranked),
		"retrieved_ids": ranked.RetrievedIDs,
		"empty":         ranked.Empty(),
	})
}

// audit appends to the tool audit trail; failures are logged, never surfaced
func (h *Handlers) audit(ctx context.Context, tool, ownerID, memoryID, reason string, success bool) {
	entry := &store.AuditEntry{
		ID:        "aud_" + uuid.New().String(),
		Tool:      tool,
		OwnerID:   ownerID,
		MemoryID:  memoryID,
		Reason:    reason,
		Success:   success,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.store.AppendAudit(ctx, entry); err != nil {
		h.logger.Warn("failed to append audit entry", "tool", tool, "error", err)
	}
}

func notFoundOrError(what string, err error) *mcp.CallToolResult {
	if errors.Is(err, models.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("%s not found", what))
	}
	return mcp.NewToolResultError(fmt.Sprintf("%s lookup failed: %v", what, err))
}

func jsonResult(payload map[string]interface{}) (*mcp.CallToolResult, error) {
	responseJSON, err := json.Marshal(payload)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}
