// ABOUTME: Vector blob encoding and cosine similarity shared by both backends
// ABOUTME: Vectors are stored as little-endian float64 blobs
package store

import (
	"encoding/binary"
	"math"
)

// VectorToBlob converts a float64 slice to a binary blob
func VectorToBlob(vector []float64) []byte {
	if vector == nil {
		return nil
	}
	blob := make([]byte, len(vector)*8)
	for i, v := range vector {
		binary.LittleEndian.PutUint64(blob[i*8:], math.Float64bits(v))
	}
	return blob
}

// BlobToVector converts a binary blob back to a float64 slice
func BlobToVector(blob []byte) []float64 {
	if len(blob) == 0 {
		return nil
	}
	count := len(blob) / 8
	vector := make([]float64, count)
	for i := 0; i < count; i++ {
		bits := binary.LittleEndian.Uint64(blob[i*8:])
		vector[i] = math.Float64frombits(bits)
	}
	return vector
}

// CosineSimilarity calculates cosine similarity between two vectors.
// Mismatched lengths and zero vectors score 0.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0.0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
