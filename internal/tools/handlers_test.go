// ABOUTME: MCP tool handler tests over the in-memory sqlite store
// ABOUTME: Covers save/update/forget/link/retrieve and the audit trail
package tools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mrbrandonmills/professor-carl-memory/internal/config"
	"github.com/mrbrandonmills/professor-carl-memory/internal/models"
	"github.com/mrbrandonmills/professor-carl-memory/internal/retrieval"
	"github.com/mrbrandonmills/professor-carl-memory/internal/store"
	"github.com/mrbrandonmills/professor-carl-memory/internal/store/sqlite"
)

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float64{1, 0, 0}, nil
}

func newTestHandlers(t *testing.T) (*Handlers, *sqlite.Store) {
	t.Helper()
	st, err := sqlite.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	cfg := &config.Config{
		FactPoolCap:      8,
		NotePoolCap:      4,
		StrategyPoolCap:  3,
		MinStrategyScore: 0.5,
		WeightSimilarity: 0.40,
		WeightImportance: 0.30,
		WeightRecency:    0.20,
		WeightEmotion:    0.10,
		DecayFloor:       0.05,
	}
	embedder := &fakeEmbedder{}
	retriever := retrieval.NewRetriever(st, embedder, cfg, nil)
	return NewHandlers(st, embedder, retriever, nil), st
}

func request(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatalf("result has no content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", result.Content[0])
	}
	return text.Text
}

func decodeResult(t *testing.T, result *mcp.CallToolResult) map[string]interface{} {
	t.Helper()
	if result.IsError {
		t.Fatalf("tool returned error: %s", resultText(t, result))
	}
	var out map[string]interface{}
	if err := json.Unmarshal([]byte(resultText(t, result)), &out); err != nil {
		t.Fatalf("failed to decode result %q: %v", resultText(t, result), err)
	}
	return out
}

func TestSaveMemory(t *testing.T) {
	h, st := newTestHandlers(t)
	ctx := context.Background()

	result, err := h.SaveMemory(ctx, request(map[string]interface{}{
		"owner_id":   "student-1",
		"content":    "Dreams of building video games",
		"category":   "goal",
		"importance": 0.8,
		"tags":       []interface{}{"career"},
	}))
	if err != nil {
		t.Fatalf("SaveMemory: %v", err)
	}
	payload := decodeResult(t, result)
	memoryID, _ := payload["memory_id"].(string)
	if memoryID == "" {
		t.Fatalf("no memory_id in response: %v", payload)
	}

	rec, err := st.GetMemory(ctx, "student-1", memoryID)
	if err != nil {
		t.Fatalf("GetMemory: %v", err)
	}
	if rec.SourceType != models.SourceAutonomous {
		t.Errorf("source type = %s, want claude_autonomous", rec.SourceType)
	}
	if rec.CurrentImportance != 0.8 {
		t.Errorf("importance = %v, want 0.8", rec.CurrentImportance)
	}
	if len(rec.Embedding) == 0 {
		t.Errorf("saved memory has no embedding")
	}

	audits, _ := st.ListAudit(ctx, "student-1", 10)
	if len(audits) != 1 || audits[0].Tool != "save_memory" || !audits[0].Success {
		t.Errorf("audit trail = %+v, want one successful save_memory entry", audits)
	}
}

func TestSaveMemoryInvalidCategory(t *testing.T) {
	h, st := newTestHandlers(t)
	ctx := context.Background()

	result, err := h.SaveMemory(ctx, request(map[string]interface{}{
		"owner_id": "student-1",
		"content":  "something",
		"category": "astrology",
	}))
	if err != nil {
		t.Fatalf("SaveMemory: %v", err)
	}
	if !result.IsError {
		t.Fatalf("invalid category accepted")
	}

	audits, _ := st.ListAudit(ctx, "student-1", 10)
	if len(audits) != 1 || audits[0].Success {
		t.Errorf("failed call not audited as failure: %+v", audits)
	}
}

func TestSaveMemorySurvivesEmbeddingFailure(t *testing.T) {
	h, st := newTestHandlers(t)
	h.embedder = &fakeEmbedder{err: context.DeadlineExceeded}
	ctx := context.Background()

	result, err := h.SaveMemory(ctx, request(map[string]interface{}{
		"owner_id": "student-1",
		"content":  "Allergic to peanuts",
		"category": "personal_fact",
	}))
	if err != nil {
		t.Fatalf("SaveMemory: %v", err)
	}
	payload := decodeResult(t, result)
	memoryID, _ := payload["memory_id"].(string)

	rec, err := st.GetMemory(ctx, "student-1", memoryID)
	if err != nil {
		t.Fatalf("GetMemory: %v", err)
	}
	if len(rec.Embedding) != 0 {
		t.Errorf("embedding = %v, want none after embed failure", rec.Embedding)
	}
}

func TestUpdateMemoryNoFieldsIsNoOp(t *testing.T) {
	h, st := newTestHandlers(t)
	ctx := context.Background()

	rec := seedRecord(t, st, "student-1", "Original content")

	result, err := h.UpdateMemory(ctx, request(map[string]interface{}{
		"owner_id":  "student-1",
		"memory_id": rec.ID,
	}))
	if err != nil {
		t.Fatalf("UpdateMemory: %v", err)
	}
	payload := decodeResult(t, result)
	if changed, _ := payload["changed"].([]interface{}); len(changed) != 0 {
		t.Errorf("changed = %v, want empty", changed)
	}

	got, _ := st.GetMemory(ctx, "student-1", rec.ID)
	if got.Content != "Original content" {
		t.Errorf("no-op update changed content to %q", got.Content)
	}
}

func TestUpdateMemoryContentAndImportance(t *testing.T) {
	h, st := newTestHandlers(t)
	ctx := context.Background()

	rec := seedRecord(t, st, "student-1", "Likes chess")

	result, err := h.UpdateMemory(ctx, request(map[string]interface{}{
		"owner_id":         "student-1",
		"memory_id":        rec.ID,
		"content":          "Plays tournament chess every weekend",
		"importance_delta": 0.2,
	}))
	if err != nil {
		t.Fatalf("UpdateMemory: %v", err)
	}
	decodeResult(t, result)

	got, _ := st.GetMemory(ctx, "student-1", rec.ID)
	if got.Content != "Plays tournament chess every weekend" {
		t.Errorf("content = %q", got.Content)
	}
	if got.CurrentImportance != 0.7 {
		t.Errorf("importance = %v, want 0.5+0.2", got.CurrentImportance)
	}
}

func TestUpdateMemoryWrongOwner(t *testing.T) {
	h, st := newTestHandlers(t)
	ctx := context.Background()

	rec := seedRecord(t, st, "student-1", "private fact")

	result, err := h.UpdateMemory(ctx, request(map[string]interface{}{
		"owner_id":  "student-2",
		"memory_id": rec.ID,
		"content":   "overwritten",
	}))
	if err != nil {
		t.Fatalf("UpdateMemory: %v", err)
	}
	if !result.IsError {
		t.Fatalf("cross-owner update succeeded")
	}
	if !strings.Contains(resultText(t, result), "not found") {
		t.Errorf("cross-owner error leaks existence: %s", resultText(t, result))
	}
}

func TestForgetMemory(t *testing.T) {
	h, st := newTestHandlers(t)
	ctx := context.Background()

	rec := seedRecord(t, st, "student-1", "Embarrassing struggle with basics")

	result, err := h.ForgetMemory(ctx, request(map[string]interface{}{
		"owner_id":  "student-1",
		"memory_id": rec.ID,
		"reason":    "student asked to forget",
	}))
	if err != nil {
		t.Fatalf("ForgetMemory: %v", err)
	}
	decodeResult(t, result)

	got, _ := st.GetMemory(ctx, "student-1", rec.ID)
	if !got.Forgotten() {
		t.Errorf("memory not forgotten")
	}

	audits, _ := st.ListAudit(ctx, "student-1", 10)
	if len(audits) != 1 || audits[0].Reason != "student asked to forget" {
		t.Errorf("audit = %+v, want reason recorded", audits)
	}

	// Forgotten memory no longer surfaces through retrieval
	ctxResult, err := h.RetrieveContext(ctx, request(map[string]interface{}{
		"owner_id": "student-1",
	}))
	if err != nil {
		t.Fatalf("RetrieveContext: %v", err)
	}
	payload := decodeResult(t, ctxResult)
	if empty, _ := payload["empty"].(bool); !empty {
		t.Errorf("forgotten memory still retrievable: %v", payload)
	}
}

func TestForgetMemoryRequiresReason(t *testing.T) {
	h, _ := newTestHandlers(t)

	result, err := h.ForgetMemory(context.Background(), request(map[string]interface{}{
		"owner_id":  "student-1",
		"memory_id": "mem_x",
	}))
	if err != nil {
		t.Fatalf("ForgetMemory: %v", err)
	}
	if !result.IsError {
		t.Errorf("forget without reason accepted")
	}
}

func TestLinkMemories(t *testing.T) {
	h, st := newTestHandlers(t)
	ctx := context.Background()

	a := seedRecord(t, st, "student-1", "Struggled with fractions for weeks")
	b := seedRecord(t, st, "student-1", "Breakthrough with pizza diagrams")

	result, err := h.LinkMemories(ctx, request(map[string]interface{}{
		"owner_id":     "student-1",
		"memory_id_a":  a.ID,
		"memory_id_b":  b.ID,
		"relationship": "resolved by",
	}))
	if err != nil {
		t.Fatalf("LinkMemories: %v", err)
	}
	payload := decodeResult(t, result)
	linkID, _ := payload["link_id"].(string)

	link, err := st.GetMemory(ctx, "student-1", linkID)
	if err != nil {
		t.Fatalf("GetMemory link: %v", err)
	}
	if link.Kind != models.KindRelationalNote || link.Category != "memory_link" {
		t.Errorf("link = (%s, %s), want relational_note memory_link", link.Kind, link.Category)
	}
	if len(link.Tags) != 2 || link.Tags[0] != a.ID || link.Tags[1] != b.ID {
		t.Errorf("link tags = %v, want both memory ids", link.Tags)
	}
	if !strings.Contains(link.Content, "resolved by") {
		t.Errorf("link content = %q", link.Content)
	}
}

func TestLinkMemoriesCrossOwner(t *testing.T) {
	h, st := newTestHandlers(t)
	ctx := context.Background()

	a := seedRecord(t, st, "student-1", "fact a")
	b := seedRecord(t, st, "student-2", "fact b")

	// Explicit cross-owner request is rejected outright
	result, err := h.LinkMemories(ctx, request(map[string]interface{}{
		"owner_id":        "student-1",
		"memory_id_a":     a.ID,
		"memory_id_b":     b.ID,
		"relationship":    "related",
		"target_owner_id": "student-2",
	}))
	if err != nil {
		t.Fatalf("LinkMemories: %v", err)
	}
	if !result.IsError {
		t.Fatalf("cross-owner link accepted")
	}

	// Without the explicit target, the other owner's memory is just not found
	result, err = h.LinkMemories(ctx, request(map[string]interface{}{
		"owner_id":     "student-1",
		"memory_id_a":  a.ID,
		"memory_id_b":  b.ID,
		"relationship": "related",
	}))
	if err != nil {
		t.Fatalf("LinkMemories: %v", err)
	}
	if !result.IsError {
		t.Fatalf("link to another owner's memory accepted")
	}
	if !strings.Contains(resultText(t, result), "not found") {
		t.Errorf("error = %s, want not found", resultText(t, result))
	}
}

func TestRetrieveContextFormatsMemories(t *testing.T) {
	h, st := newTestHandlers(t)
	ctx := context.Background()

	seedRecord(t, st, "student-1", "Wants to study marine biology")

	result, err := h.RetrieveContext(ctx, request(map[string]interface{}{
		"owner_id": "student-1",
		"topic":    "career plans",
	}))
	if err != nil {
		t.Fatalf("RetrieveContext: %v", err)
	}
	payload := decodeResult(t, result)
	text, _ := payload["context"].(string)
	if !strings.Contains(text, "What I know about this student") {
		t.Errorf("context = %q, want the student section", text)
	}
	if !strings.Contains(text, "marine biology") {
		t.Errorf("context missing the seeded memory: %q", text)
	}
	if ids, _ := payload["retrieved_ids"].([]interface{}); len(ids) != 1 {
		t.Errorf("retrieved ids = %v, want 1", ids)
	}
}

func seedRecord(t *testing.T, st store.Store, ownerID, content string) *models.MemoryRecord {
	t.Helper()
	rec, err := models.NewMemoryRecord(ownerID, models.KindUserFact, content, "interest")
	if err != nil {
		t.Fatalf("NewMemoryRecord: %v", err)
	}
	rec.Embedding = []float64{1, 0, 0}
	rec.LLMImportance = 0.5
	rec.CurrentImportance = 0.5
	rec.MemoryStrength = 0.5
	if err := st.CreateMemory(context.Background(), rec); err != nil {
		t.Fatalf("CreateMemory: %v", err)
	}
	return rec
}
