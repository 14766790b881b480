package identify

import "math"

// CosineSimilarity computes the cosine similarity between two descriptors
// over their first min(len(a), len(b)) components, clamped to [0, 1].
//
// Negative cosine is clamped to 0: downstream thresholds assume a [0, 1]
// scale and embeddings from the external embedder are near-orthogonal at
// worst in practice, so an opposite direction carries no match signal.
// Returns 0 when either partial norm is zero.
func CosineSimilarity(a, b Descriptor) float64 {
	n := min(len(a), len(b))
	if n == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range n {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	similarity := dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
	if similarity < 0 {
		similarity = 0
	}
	// Guard against floating point overshoot on identical vectors.
	if similarity > 1 {
		similarity = 1
	}
	return similarity
}
