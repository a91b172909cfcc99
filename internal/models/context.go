// ABOUTME: Ranked retrieval results returned to prompt builders
// ABOUTME: RankedContext for the local path, UnifiedContext for local+remote merges
package models

// Origin tags which memory pool a result came from
type Origin string

const (
	OriginLocal  Origin = "local"
	OriginRemote Origin = "remote"
)

// RankedMemory is one retrieval result with its hybrid score
type RankedMemory struct {
	Record     MemoryRecord `json:"record"`
	Score      float64      `json:"score"`
	Similarity float64      `json:"similarity"`     // cosine to the query, 0 for topic-less retrieval
	HasQuery   bool         `json:"has_query"`      // whether Similarity is meaningful
	Origin     Origin       `json:"origin"`
}

// RankedContext is the retrieval service's output for one turn
type RankedContext struct {
	OwnerID      string             `json:"owner_id"`
	Topic        string             `json:"topic,omitempty"`
	Facts        []RankedMemory     `json:"facts"`
	Notes        []RankedMemory     `json:"notes"`
	Strategies   []TeachingStrategy `json:"strategies"`
	RetrievedIDs []string           `json:"retrieved_ids"`
}

// Empty reports whether the context carries nothing usable
func (c *RankedContext) Empty() bool {
	return len(c.Facts) == 0 && len(c.Notes) == 0 && len(c.Strategies) == 0
}

// UnifiedContext merges local and remote memory pools for one turn
type UnifiedContext struct {
	Context       RankedContext `json:"context"`
	LocalCount    int           `json:"local_count"`
	RemoteCount   int           `json:"remote_count"`
	RemoteSuccess bool          `json:"remote_success"`
}
