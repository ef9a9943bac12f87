// Package ranking scores stored chunks against a query vector and selects the top K.
package ranking

import "math"

// Cosine returns the cosine similarity of a and b over their first min(len(a), len(b)) components.
// Unequal lengths are not an error: the shorter prefix is compared. When either prefix has zero norm
// (empty or all-zero) the score is exactly 0, never NaN.
func Cosine(a, b []float32) float64 {
	n := min(len(a), len(b))
	if n == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range n {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	score := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if math.IsNaN(score) {
		return 0
	}

	return score
}
