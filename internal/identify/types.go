// Package identify implements the face identification pipeline: binary
// hash encoding, hash-based candidate prefiltering, cosine similarity
// scoring, best-match selection and pairwise verification. It operates
// purely on in-memory descriptors and records supplied by the caller and
// owns no storage and no detection.
package identify

// Descriptor is a fixed-length face embedding produced by an external
// embedder. Immutable once produced.
type Descriptor []float32

// FaceRecord is a previously registered face. The record is created by the
// registration flow and never mutated by the matching pipeline. UserData is
// an opaque caller-owned payload that is passed through untouched.
type FaceRecord[T any] struct {
	FaceID     string
	Descriptor Descriptor
	Hash       Hash
	Confidence float64
	CreatedAt  int64 // unix seconds
	UserData   T
}

// MatchCandidate is a scored record produced during one identification
// call. Not persisted.
type MatchCandidate[T any] struct {
	FaceID     string
	Similarity float64
	UserData   T
}

// Result is the outcome of an identification call.
//
// Similarity always carries the highest similarity seen across survivors,
// independent of whether it cleared the match threshold, so callers can
// inspect near-misses.
type Result[T any] struct {
	MatchFound bool
	BestMatch  *MatchCandidate[T] // nil when no candidate cleared the threshold
	Similarity float64
	Candidates []MatchCandidate[T] // descending similarity, capped at MaxCandidates

	QueryDescriptor Descriptor
	QueryHash       Hash
	QueryConfidence float64

	// TruncatedComparisons counts scored records whose descriptor length
	// differed from the query. Comparison truncates to the shorter operand;
	// a non-zero count usually means records from a different embedding
	// model were mixed into the collection.
	TruncatedComparisons int
}

// Verification is the outcome of a pairwise verify call.
type Verification struct {
	IsMatch    bool
	Similarity float64
	Threshold  float64
}
