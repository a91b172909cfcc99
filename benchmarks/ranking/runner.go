// ABOUTME: Benchmark runner: seeds a fresh in-memory store per scenario and probes it
// ABOUTME: Uses a deterministic bag-of-words embedder so runs need no network
package ranking

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"log/slog"
	"math"
	"os"
	"strings"
	"time"

	"github.com/mrbrandonmills/professor-carl-memory/internal/config"
	"github.com/mrbrandonmills/professor-carl-memory/internal/models"
	"github.com/mrbrandonmills/professor-carl-memory/internal/retrieval"
	"github.com/mrbrandonmills/professor-carl-memory/internal/scoring"
	"github.com/mrbrandonmills/professor-carl-memory/internal/store/sqlite"
)

const embedDimensions = 64

// Runner executes retrieval benchmarks
type Runner struct {
	cfg     *config.Config
	logger  *slog.Logger
	verbose bool
}

// NewRunner creates a benchmark runner with default ranking configuration
func NewRunner(verbose bool) *Runner {
	level := slog.LevelError
	if verbose {
		level = slog.LevelDebug
	}
	return &Runner{
		cfg: &config.Config{
			FactPoolCap:      3,
			NotePoolCap:      2,
			StrategyPoolCap:  3,
			MinStrategyScore: 0.5,
			WeightSimilarity: 0.40,
			WeightImportance: 0.30,
			WeightRecency:    0.20,
			WeightEmotion:    0.10,
			DecayFloor:       0.05,
		},
		logger:  slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})),
		verbose: verbose,
	}
}

// RunAll executes every scenario
func (r *Runner) RunAll(ctx context.Context) ([]Result, error) {
	scenarios := AllScenarios()
	results := make([]Result, 0, len(scenarios))
	for _, s := range scenarios {
		result, err := r.Run(ctx, s)
		if err != nil {
			return results, fmt.Errorf("scenario %s: %w", s.ID, err)
		}
		results = append(results, result)
	}
	return results, nil
}

// Run executes one scenario against a fresh in-memory store
func (r *Runner) Run(ctx context.Context, s Scenario) (Result, error) {
	result := Result{ScenarioID: s.ID, ScenarioName: s.Name}

	st, err := sqlite.OpenInMemory()
	if err != nil {
		return result, fmt.Errorf("opening store: %w", err)
	}
	defer func() { _ = st.Close() }()

	embedder := &bagOfWordsEmbedder{}
	retriever := retrieval.NewRetriever(st, embedder, r.cfg, r.logger)

	now := time.Now().UTC()
	idToKey := make(map[string]string, len(s.Seeds))
	for _, seed := range s.Seeds {
		rec, err := models.NewMemoryRecord(s.OwnerID, seed.Kind, seed.Content, seed.Category)
		if err != nil {
			return result, fmt.Errorf("seed %s: %w", seed.Key, err)
		}
		rec.CreatedAt = now.Add(-time.Duration(seed.AgeDays * 24 * float64(time.Hour)))
		rec.UpdatedAt = rec.CreatedAt
		rec.LLMImportance = seed.Importance
		rec.CurrentImportance = seed.Importance
		rec.EmotionalArousal = seed.Arousal
		rec.EmotionalValence = seed.Valence
		rec.MemoryStrength = scoring.MemoryStrength(0, 0, seed.Arousal, seed.Importance, 0)
		embedding, _ := embedder.GenerateEmbedding(ctx, seed.Content)
		rec.Embedding = embedding

		if err := st.CreateMemory(ctx, rec); err != nil {
			return result, fmt.Errorf("seeding %s: %w", seed.Key, err)
		}
		idToKey[rec.ID] = seed.Key
	}

	var precisionSum, recallSum, mrrSum float64
	for _, q := range s.Queries {
		retrieved, err := retriever.Retrieve(ctx, s.OwnerID, q.Topic, 0)
		if err != nil {
			return result, fmt.Errorf("query %q: %w", q.Topic, err)
		}

		keys := make([]string, 0, len(retrieved.RetrievedIDs))
		for _, id := range retrieved.RetrievedIDs {
			keys = append(keys, idToKey[id])
		}
		relevant := make(map[string]bool, len(q.RelevantKeys))
		for _, k := range q.RelevantKeys {
			relevant[k] = true
		}

		if r.verbose {
			fmt.Printf("  query %q retrieved: %s\n", q.Topic, strings.Join(keys, ", "))
		}

		precisionSum += Precision(keys, relevant)
		recallSum += Recall(keys, relevant)
		mrrSum += MRR(keys, relevant)
	}

	n := float64(len(s.Queries))
	result.Precision = precisionSum / n
	result.Recall = recallSum / n
	result.MRR = mrrSum / n
	result.Overall = Overall(result.Precision, result.Recall, result.MRR)
	result.Status = "FAIL"
	if result.Overall >= s.PassAt {
		result.Status = "PASS"
	}
	return result, nil
}

// ExportResults writes results as indented JSON
func ExportResults(results []Result, path string) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling results: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// bagOfWordsEmbedder hashes tokens into a fixed-dimension count vector.
// Cosine similarity over these vectors measures token overlap, which is
// enough to exercise the ranking math deterministically.
type bagOfWordsEmbedder struct{}

func (e *bagOfWordsEmbedder) GenerateEmbedding(_ context.Context, text string) ([]float64, error) {
	vec := make([]float64, embedDimensions)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		token = strings.Trim(token, ".,!?;:\"'()")
		if len(token) < 3 {
			continue
		}
		h := fnv.New32a()
		_, _ = h.Write([]byte(token))
		vec[h.Sum32()%embedDimensions]++
	}
	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec, nil
}
