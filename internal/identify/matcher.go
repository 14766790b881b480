package identify

import (
	"sort"

	"github.com/shot02/face-identifier/internal/constants"
)

// Matcher runs the identification pipeline: hash the query, prefilter the
// collection by hash distance, score survivors with cosine similarity,
// rank and threshold-gate the result. A Matcher is stateless after
// construction and safe for concurrent use.
type Matcher[T any] struct {
	opts Options
}

// NewMatcher validates the options and returns a matcher.
func NewMatcher[T any](opts Options) (*Matcher[T], error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Matcher[T]{opts: opts}, nil
}

// Options returns the configuration in effect.
func (m *Matcher[T]) Options() Options {
	return m.opts
}

// Identify matches a query descriptor against a caller-supplied record
// collection. The collection is read-only input; iteration order decides
// ties, so callers wanting deterministic results should pass records in a
// stable order.
func (m *Matcher[T]) Identify(query Descriptor, confidence float64, records []FaceRecord[T]) Result[T] {
	result := Result[T]{
		QueryDescriptor: query,
		QueryConfidence: confidence,
		Candidates:      []MatchCandidate[T]{},
	}
	if len(records) == 0 {
		return result
	}

	result.QueryHash = Encode(query, m.opts.HashBits)
	survivors := Filter(records, result.QueryHash, m.opts.HammingThreshold, m.opts.FilterCutover)

	candidates := make([]MatchCandidate[T], 0, len(survivors))
	best := -1
	bestSimilarity := 0.0
	for i := range survivors {
		record := &survivors[i]
		if len(record.Descriptor) != len(query) {
			result.TruncatedComparisons++
		}
		similarity := CosineSimilarity(query, record.Descriptor)
		candidates = append(candidates, MatchCandidate[T]{
			FaceID:     record.FaceID,
			Similarity: similarity,
			UserData:   record.UserData,
		})
		// Replace only on strict greater-than so exact ties keep the
		// first survivor encountered.
		if best < 0 || similarity > bestSimilarity {
			best = len(candidates) - 1
			bestSimilarity = similarity
		}
	}

	if best >= 0 {
		result.Similarity = bestSimilarity
		if bestSimilarity >= m.opts.MatchThreshold {
			match := candidates[best]
			result.BestMatch = &match
			result.MatchFound = true
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Similarity > candidates[j].Similarity
	})
	if len(candidates) > constants.MaxCandidates {
		candidates = candidates[:constants.MaxCandidates]
	}
	result.Candidates = candidates

	return result
}

// Verify computes a one-shot pairwise match decision using the matcher's
// configured threshold.
func (m *Matcher[T]) Verify(a, b Descriptor) Verification {
	return Verify(a, b, m.opts.MatchThreshold)
}
