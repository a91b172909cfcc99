// ABOUTME: Scenario definitions for retrieval-quality benchmarks
// ABOUTME: Seeded memories plus queries with ground-truth relevant sets
package ranking

import "github.com/mrbrandonmills/professor-carl-memory/internal/models"

// SeedMemory is one fixture record loaded before a scenario runs
type SeedMemory struct {
	Key        string // stable key, referenced by Query.RelevantKeys
	Kind       models.MemoryKind
	Content    string
	Category   string
	Importance float64
	Arousal    float64
	Valence    float64
	AgeDays    float64 // how long before the query the memory was created
}

// Query is one retrieval probe with its ground truth
type Query struct {
	Topic        string
	RelevantKeys []string // seed keys that a good retrieval returns
}

// Scenario is a complete benchmark case
type Scenario struct {
	ID          string
	Name        string
	Description string
	OwnerID     string
	Seeds       []SeedMemory
	Queries     []Query
	PassAt      float64 // minimum overall score to pass
}

// Result is the outcome of one scenario run
type Result struct {
	ScenarioID   string  `json:"scenario_id"`
	ScenarioName string  `json:"scenario_name"`
	Precision    float64 `json:"precision"`
	Recall       float64 `json:"recall"`
	MRR          float64 `json:"mrr"`
	Overall      float64 `json:"overall"`
	Status       string  `json:"status"` // "PASS" or "FAIL"
	ErrorMessage string  `json:"error_message,omitempty"`
}

// AllScenarios returns every benchmark scenario
func AllScenarios() []Scenario {
	return []Scenario{
		TopicalScenario(),
		DistractorScenario(),
		EmotionalScenario(),
	}
}

// ScenarioByID looks up a scenario by ID
func ScenarioByID(id string) (Scenario, bool) {
	for _, s := range AllScenarios() {
		if s.ID == id {
			return s, true
		}
	}
	return Scenario{}, false
}

// TopicalScenario checks that on-topic memories beat off-topic ones
func TopicalScenario() Scenario {
	return Scenario{
		ID:          "topical",
		Name:        "Topical relevance",
		Description: "Queries about fractions should surface fraction memories ahead of unrelated facts",
		OwnerID:     "bench-topical",
		Seeds: []SeedMemory{
			{Key: "frac-struggle", Kind: models.KindUserFact, Content: "Struggles with fractions, especially comparing fractions with different denominators", Category: "struggle", Importance: 0.8, AgeDays: 2},
			{Key: "frac-pizza", Kind: models.KindRelationalNote, Content: "The pizza-slice analogy finally made fractions click during our Tuesday session", Category: "breakthrough", Importance: 0.7, AgeDays: 1},
			{Key: "dog", Kind: models.KindUserFact, Content: "Has a golden retriever named Biscuit", Category: "personal_fact", Importance: 0.4, AgeDays: 5},
			{Key: "soccer", Kind: models.KindUserFact, Content: "Plays soccer on Saturdays and wants to be a goalkeeper", Category: "interest", Importance: 0.5, AgeDays: 3},
		},
		Queries: []Query{
			{Topic: "comparing fractions with different denominators", RelevantKeys: []string{"frac-struggle", "frac-pizza"}},
		},
		PassAt: 0.7,
	}
}

// DistractorScenario buries two relevant memories among near-topic distractors
func DistractorScenario() Scenario {
	return Scenario{
		ID:          "distractor",
		Name:        "Distractor resistance",
		Description: "Algebra queries must not drown in adjacent math memories",
		OwnerID:     "bench-distractor",
		Seeds: []SeedMemory{
			{Key: "alg-goal", Kind: models.KindUserFact, Content: "Goal is to pass the algebra placement exam by spring and enter the advanced track", Category: "goal", Importance: 0.9, AgeDays: 1},
			{Key: "alg-vars", Kind: models.KindUserFact, Content: "Thinks of algebra variables as mystery boxes, which helps with solving equations", Category: "breakthrough", Importance: 0.6, AgeDays: 2},
			{Key: "geom", Kind: models.KindUserFact, Content: "Enjoys geometry proofs more than computation", Category: "preference", Importance: 0.5, AgeDays: 2},
			{Key: "arith", Kind: models.KindUserFact, Content: "Multiplication tables are solid up to twelve", Category: "personal_fact", Importance: 0.4, AgeDays: 10},
			{Key: "stats", Kind: models.KindUserFact, Content: "Confused histograms with bar charts last month", Category: "misconception", Importance: 0.5, AgeDays: 30},
		},
		Queries: []Query{
			{Topic: "solving algebra equations with variables", RelevantKeys: []string{"alg-goal", "alg-vars"}},
		},
		PassAt: 0.6,
	}
}

// EmotionalScenario checks that emotionally salient memories get a boost
// when similarity alone cannot separate candidates
func EmotionalScenario() Scenario {
	return Scenario{
		ID:          "emotional",
		Name:        "Emotional salience",
		Description: "A high-arousal struggle should outrank a flat fact of equal topical relevance",
		OwnerID:     "bench-emotional",
		Seeds: []SeedMemory{
			{Key: "anxiety", Kind: models.KindUserFact, Content: "Gets visibly anxious when timed tests come up, voice tightens and answers get rushed", Category: "struggle", Importance: 0.6, Arousal: 0.9, Valence: -0.7, AgeDays: 2},
			{Key: "calm-fact", Kind: models.KindUserFact, Content: "Mentioned timed tests are scheduled monthly at school", Category: "personal_fact", Importance: 0.6, Arousal: 0.1, Valence: 0.0, AgeDays: 2},
			{Key: "hobby", Kind: models.KindUserFact, Content: "Collects rocks and minerals on family hikes", Category: "interest", Importance: 0.5, AgeDays: 4},
		},
		Queries: []Query{
			{Topic: "timed tests anxiety", RelevantKeys: []string{"anxiety", "calm-fact"}},
		},
		PassAt: 0.7,
	}
}
