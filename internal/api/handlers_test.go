// ABOUTME: HTTP API tests using httptest against the full router
// ABOUTME: Auth, retrieval, fire-and-forget ingestion, decay, citations
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mrbrandonmills/professor-carl-memory/internal/config"
	"github.com/mrbrandonmills/professor-carl-memory/internal/decay"
	"github.com/mrbrandonmills/professor-carl-memory/internal/extract"
	"github.com/mrbrandonmills/professor-carl-memory/internal/llm"
	"github.com/mrbrandonmills/professor-carl-memory/internal/models"
	"github.com/mrbrandonmills/professor-carl-memory/internal/remote"
	"github.com/mrbrandonmills/professor-carl-memory/internal/retrieval"
	"github.com/mrbrandonmills/professor-carl-memory/internal/store"
	"github.com/mrbrandonmills/professor-carl-memory/internal/store/sqlite"
	"github.com/mrbrandonmills/professor-carl-memory/internal/strategy"
)

type fakeLLM struct {
	memories []llm.MemoryCandidate
	strategy *llm.StrategyCandidate
}

func (f *fakeLLM) GenerateEmbedding(ctx context.Context, text string) ([]float64, error) {
	return []float64{1, 0, 0}, nil
}

func (f *fakeLLM) ExtractMemories(ctx context.Context, transcript string) ([]llm.MemoryCandidate, error) {
	return f.memories, nil
}

func (f *fakeLLM) ExtractStrategy(ctx context.Context, transcript string) (*llm.StrategyCandidate, error) {
	return f.strategy, nil
}

type testServer struct {
	server   *httptest.Server
	handlers *Handlers
	store    *sqlite.Store
	cfg      *config.Config
}

func newTestServer(t *testing.T, client *fakeLLM, apiSecret string) *testServer {
	t.Helper()
	st, err := sqlite.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	cfg := &config.Config{
		FactPoolCap:        8,
		NotePoolCap:        4,
		StrategyPoolCap:    3,
		MinStrategyScore:   0.5,
		WeightSimilarity:   0.40,
		WeightImportance:   0.30,
		WeightRecency:      0.20,
		WeightEmotion:      0.10,
		MinTranscriptTurns: 2,
		DecayRate:          0.02,
		DecayFloor:         0.05,
		DecayBatchSize:     100,
		RemoteTimeout:      time.Second,
		APISecret:          apiSecret,
	}

	retriever := retrieval.NewRetriever(st, client, cfg, nil)
	aggregator := remote.NewAggregator(retriever, remote.NewClient(cfg), cfg, nil)
	pipeline := extract.NewPipeline(st, client, cfg, nil)
	learner := strategy.NewLearner(st, cfg, nil)
	decayJob := decay.NewJob(st, cfg, nil)

	router, handlers := NewRouter(st, retriever, aggregator, pipeline, learner, decayJob, cfg, nil)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testServer{server: srv, handlers: handlers, store: st, cfg: cfg}
}

func (ts *testServer) post(t *testing.T, path string, payload interface{}, token string) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, ts.server.URL+path, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	var out map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return out
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, &fakeLLM{}, "sekrit")

	resp, err := http.Get(ts.server.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d, want 200", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
}

func TestRouterServesWithNilLogger(t *testing.T) {
	// NewRouter(..., nil) must install working middleware, not a nil logger
	ts := newTestServer(t, &fakeLLM{}, "")

	resp := ts.post(t, "/v1/retrieve", map[string]string{"owner_id": "student-1"}, "")
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 from nil-logger router", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Errorf("missing X-Request-ID header from middleware chain")
	}
}

func TestBearerAuthRequired(t *testing.T) {
	ts := newTestServer(t, &fakeLLM{}, "sekrit")

	resp := ts.post(t, "/v1/retrieve", map[string]string{"owner_id": "student-1"}, "")
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("no-token status = %d, want 401", resp.StatusCode)
	}

	resp = ts.post(t, "/v1/retrieve", map[string]string{"owner_id": "student-1"}, "wrong")
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("bad-token status = %d, want 401", resp.StatusCode)
	}

	resp = ts.post(t, "/v1/retrieve", map[string]string{"owner_id": "student-1"}, "sekrit")
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("good-token status = %d, want 200", resp.StatusCode)
	}
}

func TestBearerAuthPassthroughWhenUnset(t *testing.T) {
	ts := newTestServer(t, &fakeLLM{}, "")

	resp := ts.post(t, "/v1/retrieve", map[string]string{"owner_id": "student-1"}, "")
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200 with auth disabled", resp.StatusCode)
	}
}

func TestRetrieveEndpoint(t *testing.T) {
	ts := newTestServer(t, &fakeLLM{}, "")
	ctx := context.Background()

	rec, err := models.NewMemoryRecord("student-1", models.KindUserFact, "Loves astronomy", "interest")
	if err != nil {
		t.Fatalf("NewMemoryRecord: %v", err)
	}
	rec.Embedding = []float64{1, 0, 0}
	rec.LLMImportance = 0.6
	rec.CurrentImportance = 0.6
	rec.MemoryStrength = 0.6
	if err := ts.store.CreateMemory(ctx, rec); err != nil {
		t.Fatalf("CreateMemory: %v", err)
	}

	resp := ts.post(t, "/v1/retrieve", map[string]string{"owner_id": "student-1", "topic": "space"}, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	formatted, _ := body["formatted"].(string)
	if formatted == "" {
		t.Errorf("formatted context is empty")
	}
	if ids, _ := body["retrieved_ids"].([]interface{}); len(ids) != 1 {
		t.Errorf("retrieved_ids = %v, want 1", body["retrieved_ids"])
	}
}

func TestRetrieveFailsSoftOnStoreError(t *testing.T) {
	ts := newTestServer(t, &fakeLLM{}, "")

	// A dead store must degrade to an empty context, never an error response
	if err := ts.store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	resp := ts.post(t, "/v1/retrieve", map[string]string{"owner_id": "student-1", "topic": "space"}, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 despite store failure", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if ids, _ := body["retrieved_ids"].([]interface{}); len(ids) != 0 {
		t.Errorf("retrieved_ids = %v, want empty", body["retrieved_ids"])
	}
	if formatted, _ := body["formatted"].(string); formatted != "" {
		t.Errorf("formatted = %q, want empty", formatted)
	}
}

func TestRetrieveRequiresOwner(t *testing.T) {
	ts := newTestServer(t, &fakeLLM{}, "")

	resp := ts.post(t, "/v1/retrieve", map[string]string{}, "")
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestIngestConversation(t *testing.T) {
	client := &fakeLLM{
		memories: []llm.MemoryCandidate{
			{Kind: "user_fact", Content: "Has a dog named Kepler", Category: "personal_fact", Importance: 0.5, Confidence: 0.9},
		},
	}
	ts := newTestServer(t, client, "")

	payload := map[string]interface{}{
		"owner_id":   "student-1",
		"session_id": "sess-1",
		"turns": []map[string]string{
			{"role": "student", "text": "my dog kepler ate my homework"},
			{"role": "assistant", "text": "kepler sounds like trouble"},
		},
	}
	resp := ts.post(t, "/v1/conversations", payload, "")
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}

	// 202 returns before extraction completes; wait for the tracked goroutine
	ts.handlers.Wait()

	records, err := ts.store.ListByOwner(context.Background(), "student-1", store.ListFilters{})
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("stored records = %d, want 1", len(records))
	}
	if records[0].Content != "Has a dog named Kepler" {
		t.Errorf("content = %q", records[0].Content)
	}
}

func TestIngestRejectsEmptyTurns(t *testing.T) {
	ts := newTestServer(t, &fakeLLM{}, "")

	resp := ts.post(t, "/v1/conversations", map[string]interface{}{
		"owner_id": "student-1",
		"turns":    []map[string]string{},
	}, "")
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestDecayEndpoint(t *testing.T) {
	ts := newTestServer(t, &fakeLLM{}, "")

	resp := ts.post(t, "/v1/decay", map[string]bool{"dry_run": true}, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["dry_run"] != true {
		t.Errorf("dry_run = %v, want true", body["dry_run"])
	}
}

func TestCitationsEndpoint(t *testing.T) {
	ts := newTestServer(t, &fakeLLM{}, "")
	ctx := context.Background()

	rec, err := models.NewMemoryRecord("student-1", models.KindUserFact, "fact", "interest")
	if err != nil {
		t.Fatalf("NewMemoryRecord: %v", err)
	}
	rec.LLMImportance = 0.5
	rec.CurrentImportance = 0.5
	rec.MemoryStrength = 0.5
	if err := ts.store.CreateMemory(ctx, rec); err != nil {
		t.Fatalf("CreateMemory: %v", err)
	}

	resp := ts.post(t, "/v1/citations", map[string]interface{}{
		"owner_id":  "student-1",
		"cited_ids": []string{rec.ID},
	}, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	decodeBody(t, resp)

	got, err := ts.store.GetMemory(ctx, "student-1", rec.ID)
	if err != nil {
		t.Fatalf("GetMemory: %v", err)
	}
	if got.TimesCited != 1 {
		t.Errorf("times cited = %d, want 1", got.TimesCited)
	}
}

func TestStrategyEndpoints(t *testing.T) {
	ts := newTestServer(t, &fakeLLM{}, "")

	// Record an outcome twice; the second folds into the running average
	payload := map[string]interface{}{
		"owner_id": "student-1",
		"topic":    "fractions",
		"strategy": "worked_examples",
		"outcome":  "breakthrough",
	}
	resp := ts.post(t, "/v1/strategies", payload, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("record status = %d, want 200", resp.StatusCode)
	}
	first := decodeBody(t, resp)
	strategyID, _ := first["id"].(string)
	if strategyID == "" {
		t.Fatalf("no strategy id in response: %v", first)
	}

	payload["outcome"] = "partial_success"
	resp = ts.post(t, "/v1/strategies", payload, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("second record status = %d, want 200", resp.StatusCode)
	}
	second := decodeBody(t, resp)
	got, _ := second["success_score"].(float64)
	if got < 0.79 || got > 0.81 {
		t.Errorf("running average = %v, want 0.8", got)
	}

	// Relevant list sees the strategy
	resp = ts.post(t, "/v1/strategies/relevant", map[string]string{
		"owner_id": "student-1",
		"topic":    "fractions",
	}, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("relevant status = %d, want 200", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if list, _ := body["strategies"].([]interface{}); len(list) != 1 {
		t.Errorf("strategies = %v, want 1 entry", body["strategies"])
	}

	// Reinforce nudges the score without a new observation
	resp = ts.post(t, "/v1/strategies/reinforce", map[string]interface{}{
		"strategy_id": strategyID,
		"worked":      false,
	}, "")
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reinforce status = %d, want 200", resp.StatusCode)
	}

	strategies, err := ts.store.GetStrategies(context.Background(), "student-1", "", 0, 10)
	if err != nil {
		t.Fatalf("GetStrategies: %v", err)
	}
	if len(strategies) != 1 {
		t.Fatalf("stored strategies = %d, want 1", len(strategies))
	}
	if got := strategies[0].SuccessScore; got < 0.69 || got > 0.71 {
		t.Errorf("score after reinforce = %v, want 0.7", got)
	}
	if strategies[0].TimesUsed != 2 {
		t.Errorf("times used = %d, want 2 (reinforce is not an observation)", strategies[0].TimesUsed)
	}
}

func TestStrategyEndpointRejectsUnknownVocab(t *testing.T) {
	ts := newTestServer(t, &fakeLLM{}, "")

	resp := ts.post(t, "/v1/strategies", map[string]string{
		"owner_id": "student-1",
		"topic":    "fractions",
		"strategy": "hypnosis",
		"outcome":  "breakthrough",
	}, "")
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestReinforceUnknownStrategy(t *testing.T) {
	ts := newTestServer(t, &fakeLLM{}, "")

	resp := ts.post(t, "/v1/strategies/reinforce", map[string]interface{}{
		"strategy_id": "strat_missing",
		"worked":      true,
	}, "")
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestUnifiedContextEndpoint(t *testing.T) {
	ts := newTestServer(t, &fakeLLM{}, "")

	resp := ts.post(t, "/v1/context", map[string]string{"owner_id": "student-1"}, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	unified, _ := body["unified"].(map[string]interface{})
	if unified == nil {
		t.Fatalf("no unified payload: %v", body)
	}
	if unified["remote_success"] != false {
		t.Errorf("remote_success = %v, want false with no peer", unified["remote_success"])
	}
}
