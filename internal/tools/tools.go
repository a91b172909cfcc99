// ABOUTME: MCP tool definitions and registration for the memory engine
// ABOUTME: Five agent-facing tools with explicit JSON schemas
package tools

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/mrbrandonmills/professor-carl-memory/internal/retrieval"
	"github.com/mrbrandonmills/professor-carl-memory/internal/store"
)

// RegisterTools registers all memory tools with the MCP server
func RegisterTools(server *mcpserver.MCPServer, st store.Store, embedder retrieval.Embedder, retriever *retrieval.Retriever, logger *slog.Logger) *Handlers {
	handlers := NewHandlers(st, embedder, retriever, logger)

	// 1. save_memory - store an explicit memory about the learner
	server.AddTool(mcp.Tool{
		Name:        "save_memory",
		Description: "Save a memory about this student for future sessions. Use when the student shares something worth remembering or asks you to remember something.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"owner_id": map[string]interface{}{
					"type":        "string",
					"description": "Student this memory belongs to",
				},
				"content": map[string]interface{}{
					"type":        "string",
					"description": "The memory, as one or two self-contained sentences",
				},
				"category": map[string]interface{}{
					"type":        "string",
					"description": "One of: personal_fact, preference, interest, goal, struggle, breakthrough, misconception, teaching_success, teaching_failure",
				},
				"kind": map[string]interface{}{
					"type":        "string",
					"description": "user_fact (about the student) or relational_note (about how tutoring them goes). Default user_fact.",
				},
				"importance": map[string]interface{}{
					"type":        "number",
					"description": "0.0-1.0, how much future sessions should weigh this (default 0.5)",
				},
				"tags": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Optional free-form tags",
				},
			},
			Required: []string{"owner_id", "content", "category"},
		},
	}, handlers.SaveMemory)

	// 2. update_memory - correct or enrich an existing memory
	server.AddTool(mcp.Tool{
		Name:        "update_memory",
		Description: "Update an existing memory. All change fields are optional; providing none is a no-op.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"owner_id": map[string]interface{}{
					"type":        "string",
					"description": "Student the memory belongs to",
				},
				"memory_id": map[string]interface{}{
					"type":        "string",
					"description": "ID of the memory to update",
				},
				"content": map[string]interface{}{
					"type":        "string",
					"description": "Replacement content; the memory is re-embedded",
				},
				"tags": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Replacement tag list",
				},
				"importance_delta": map[string]interface{}{
					"type":        "number",
					"description": "Adjustment to current importance, -1.0 to 1.0",
				},
			},
			Required: []string{"owner_id", "memory_id"},
		},
	}, handlers.UpdateMemory)

	// 3. forget_memory - honor "please forget that"
	server.AddTool(mcp.Tool{
		Name:        "forget_memory",
		Description: "Forget a memory at the student's request. The memory stops surfacing but is retained for audit.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"owner_id": map[string]interface{}{
					"type":        "string",
					"description": "Student the memory belongs to",
				},
				"memory_id": map[string]interface{}{
					"type":        "string",
					"description": "ID of the memory to forget",
				},
				"reason": map[string]interface{}{
					"type":        "string",
					"description": "Why this memory is being forgotten (recorded in the audit trail)",
				},
			},
			Required: []string{"owner_id", "memory_id", "reason"},
		},
	}, handlers.ForgetMemory)

	// 4. link_memories - record a connection between two memories
	server.AddTool(mcp.Tool{
		Name:        "link_memories",
		Description: "Record a relationship between two of this student's memories, e.g. a struggle that became a breakthrough.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"owner_id": map[string]interface{}{
					"type":        "string",
					"description": "Student both memories belong to",
				},
				"memory_id_a": map[string]interface{}{
					"type":        "string",
					"description": "First memory",
				},
				"memory_id_b": map[string]interface{}{
					"type":        "string",
					"description": "Second memory",
				},
				"relationship": map[string]interface{}{
					"type":        "string",
					"description": "Short description of the connection (e.g. 'resolved by', 'contradicts')",
				},
				"target_owner_id": map[string]interface{}{
					"type":        "string",
					"description": "Owner of the second memory if different. Cross-owner links are rejected.",
				},
			},
			Required: []string{"owner_id", "memory_id_a", "memory_id_b", "relationship"},
		},
	}, handlers.LinkMemories)

	// 5. retrieve_context - pull the memory context for the current turn
	server.AddTool(mcp.Tool{
		Name:        "retrieve_context",
		Description: "Retrieve what is known about this student, optionally focused on a topic. Returns prompt-ready text.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"owner_id": map[string]interface{}{
					"type":        "string",
					"description": "Student to retrieve context for",
				},
				"topic": map[string]interface{}{
					"type":        "string",
					"description": "Optional topic of the current conversation",
				},
				"limit": map[string]interface{}{
					"type":        "number",
					"description": "Optional cap on the total number of memories returned",
				},
			},
			Required: []string{"owner_id"},
		},
	}, handlers.RetrieveContext)

	return handlers
}
