package identify

// Verify computes the similarity between two descriptors and gates it
// against the given threshold. Pure function, no state.
func Verify(a, b Descriptor, threshold float64) Verification {
	similarity := CosineSimilarity(a, b)
	return Verification{
		IsMatch:    similarity >= threshold,
		Similarity: similarity,
		Threshold:  threshold,
	}
}
