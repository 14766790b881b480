package identify

import (
	"math"
	"testing"
)

// recordAt builds a unit-length record whose cosine similarity against the
// query vector {1, 0} is exactly sim.
func recordAt(id string, sim float64) FaceRecord[string] {
	rec := FaceRecord[string]{
		FaceID:     id,
		Descriptor: Descriptor{float32(sim), float32(math.Sqrt(1 - sim*sim))},
		Confidence: 1,
		UserData:   "payload-" + id,
	}
	rec.Hash = Encode(rec.Descriptor, 64)
	return rec
}

func newTestMatcher(t *testing.T, threshold float64) *Matcher[string] {
	t.Helper()
	opts := DefaultOptions()
	opts.MatchThreshold = threshold
	m, err := NewMatcher[string](opts)
	if err != nil {
		t.Fatalf("NewMatcher failed: %v", err)
	}
	return m
}

var testQuery = Descriptor{1, 0}

func TestIdentifyEmptyCollection(t *testing.T) {
	m := newTestMatcher(t, 0.8)

	result := m.Identify(testQuery, 0.9, nil)

	if result.MatchFound {
		t.Error("empty collection must not produce a match")
	}
	if result.BestMatch != nil {
		t.Error("best match should be absent")
	}
	if len(result.Candidates) != 0 {
		t.Errorf("candidates should be empty, got %d", len(result.Candidates))
	}
	if result.Similarity != 0 {
		t.Errorf("similarity should be 0, got %f", result.Similarity)
	}
	if result.QueryConfidence != 0.9 {
		t.Errorf("query confidence should pass through, got %f", result.QueryConfidence)
	}
}

func TestIdentifyThresholdGating(t *testing.T) {
	records := []FaceRecord[string]{recordAt("a", 0.9), recordAt("b", 0.7)}
	m := newTestMatcher(t, 0.8)

	result := m.Identify(testQuery, 1, records)

	if !result.MatchFound {
		t.Fatal("expected a match at threshold 0.8")
	}
	if result.BestMatch == nil || result.BestMatch.FaceID != "a" {
		t.Fatalf("best match should be record a, got %+v", result.BestMatch)
	}
	if math.Abs(result.BestMatch.Similarity-0.9) > 0.001 {
		t.Errorf("best similarity = %f; want 0.9", result.BestMatch.Similarity)
	}
	if math.Abs(result.Similarity-0.9) > 0.001 {
		t.Errorf("global similarity = %f; want 0.9", result.Similarity)
	}
	if result.BestMatch.UserData != "payload-a" {
		t.Errorf("user data not passed through: %q", result.BestMatch.UserData)
	}
}

func TestIdentifyBelowThreshold(t *testing.T) {
	records := []FaceRecord[string]{recordAt("a", 0.9), recordAt("b", 0.7)}
	m := newTestMatcher(t, 0.95)

	result := m.Identify(testQuery, 1, records)

	if result.MatchFound {
		t.Error("no record clears threshold 0.95")
	}
	if result.BestMatch != nil {
		t.Error("best match should be absent below threshold")
	}
	// The raw global maximum is still reported.
	if math.Abs(result.Similarity-0.9) > 0.001 {
		t.Errorf("global similarity = %f; want 0.9", result.Similarity)
	}
	if len(result.Candidates) != 2 {
		t.Errorf("all survivors should be reported as candidates, got %d", len(result.Candidates))
	}
}

func TestIdentifyCandidateCapAndOrdering(t *testing.T) {
	sims := []float64{0.3, 0.8, 0.1, 0.6, 0.9, 0.4, 0.7, 0.2}
	records := make([]FaceRecord[string], len(sims))
	for i, s := range sims {
		records[i] = recordAt("r", s)
	}
	m := newTestMatcher(t, 0.99)

	result := m.Identify(testQuery, 1, records)

	if len(result.Candidates) != 5 {
		t.Fatalf("candidates should be capped at 5, got %d", len(result.Candidates))
	}
	for i := 1; i < len(result.Candidates); i++ {
		if result.Candidates[i].Similarity >= result.Candidates[i-1].Similarity {
			t.Errorf("candidates not strictly descending at %d: %f then %f",
				i, result.Candidates[i-1].Similarity, result.Candidates[i].Similarity)
		}
	}
	if math.Abs(result.Candidates[0].Similarity-0.9) > 0.001 {
		t.Errorf("top candidate = %f; want 0.9", result.Candidates[0].Similarity)
	}
}

func TestIdentifyTieFirstWins(t *testing.T) {
	records := []FaceRecord[string]{
		recordAt("first", 0.85),
		recordAt("second", 0.85),
		recordAt("third", 0.85),
	}
	// Identical descriptors, identical similarities.
	records[1].Descriptor = records[0].Descriptor
	records[2].Descriptor = records[0].Descriptor
	m := newTestMatcher(t, 0.5)

	result := m.Identify(testQuery, 1, records)

	if result.BestMatch == nil {
		t.Fatal("expected a match")
	}
	if result.BestMatch.FaceID != "first" {
		t.Errorf("exact tie should keep the first record encountered, got %q", result.BestMatch.FaceID)
	}
}

func TestIdentifyPrefilterAppliesAtScale(t *testing.T) {
	// Above the cutover, records whose hashes are far from the query hash
	// never reach scoring even if their descriptors would match.
	query := make(Descriptor, 64)
	query[0] = 1

	needle := FaceRecord[string]{FaceID: "needle", Descriptor: query, Hash: Encode(query, 64)}
	records := make([]FaceRecord[string], 0, 1002)
	records = append(records, needle)
	for range 1001 {
		records = append(records, FaceRecord[string]{
			FaceID:     "hay",
			Descriptor: query, // would be a perfect match if scored
			// Hash far away from anything the query can produce.
			Hash: Hash{Bits: []uint64{^uint64(0)}, Len: 64},
		})
	}
	m := newTestMatcher(t, 0.8)

	result := m.Identify(query, 1, records)

	if !result.MatchFound {
		t.Fatal("expected the needle record to match")
	}
	if len(result.Candidates) != 1 {
		t.Errorf("only the needle should survive the prefilter, got %d candidates", len(result.Candidates))
	}
	if result.BestMatch.FaceID != "needle" {
		t.Errorf("best match = %q; want needle", result.BestMatch.FaceID)
	}
}

func TestIdentifyTruncationDiagnostic(t *testing.T) {
	short := recordAt("short", 0.9)
	short.Descriptor = Descriptor{1, 0, 0, 0}
	records := []FaceRecord[string]{recordAt("ok", 0.9), short}
	m := newTestMatcher(t, 0.5)

	result := m.Identify(testQuery, 1, records)

	if result.TruncatedComparisons != 1 {
		t.Errorf("truncated comparisons = %d; want 1", result.TruncatedComparisons)
	}
}

func TestIdentifyQueryHashPopulated(t *testing.T) {
	m := newTestMatcher(t, 0.5)

	result := m.Identify(testQuery, 1, []FaceRecord[string]{recordAt("a", 0.5)})
	if result.QueryHash.Len != len(testQuery) {
		t.Errorf("query hash length = %d; want %d", result.QueryHash.Len, len(testQuery))
	}

	// Empty input short-circuits before hashing.
	empty := m.Identify(testQuery, 1, nil)
	if empty.QueryHash.Len != 0 {
		t.Errorf("empty input should not compute a hash, got len %d", empty.QueryHash.Len)
	}
}

func TestNewMatcherValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"negative threshold", func(o *Options) { o.MatchThreshold = -0.1 }},
		{"threshold above one", func(o *Options) { o.MatchThreshold = 1.1 }},
		{"negative confidence", func(o *Options) { o.MinConfidence = -1 }},
		{"zero hash bits", func(o *Options) { o.HashBits = 0 }},
		{"negative hamming threshold", func(o *Options) { o.HammingThreshold = -1 }},
		{"negative cutover", func(o *Options) { o.FilterCutover = -1 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			opts := DefaultOptions()
			tc.mutate(&opts)
			if _, err := NewMatcher[string](opts); err == nil {
				t.Error("expected a validation error")
			}
		})
	}

	if _, err := NewMatcher[string](DefaultOptions()); err != nil {
		t.Errorf("default options should validate, got %v", err)
	}
}
