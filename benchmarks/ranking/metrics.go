// ABOUTME: Retrieval-quality metrics: precision, recall, and MRR
// ABOUTME: Computed over ordered result IDs against a ground-truth relevant set
package ranking

// Precision is the fraction of retrieved IDs that are relevant
func Precision(retrieved []string, relevant map[string]bool) float64 {
	if len(retrieved) == 0 {
		return 0
	}
	hits := 0
	for _, id := range retrieved {
		if relevant[id] {
			hits++
		}
	}
	return float64(hits) / float64(len(retrieved))
}

// Recall is the fraction of relevant IDs that were retrieved
func Recall(retrieved []string, relevant map[string]bool) float64 {
	if len(relevant) == 0 {
		return 0
	}
	hits := 0
	for _, id := range retrieved {
		if relevant[id] {
			hits++
		}
	}
	return float64(hits) / float64(len(relevant))
}

// MRR is the reciprocal rank of the first relevant result
func MRR(retrieved []string, relevant map[string]bool) float64 {
	for i, id := range retrieved {
		if relevant[id] {
			return 1.0 / float64(i+1)
		}
	}
	return 0
}

// Overall combines the three metrics into a single score
func Overall(precision, recall, mrr float64) float64 {
	return (precision + recall + mrr) / 3.0
}
