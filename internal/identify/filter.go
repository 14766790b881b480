package identify

// Filter narrows a record collection using hash distance before the more
// expensive cosine scoring. Collections at or below cutover are returned
// unfiltered since the filtering overhead is not worth it at small scale;
// above it, only records within hammingThreshold of the query hash
// survive, in their original order.
//
// This is an optimization, not a correctness guarantee: it trades a small
// risk of false negatives for a large constant-factor speedup. Final
// matching correctness depends only on cosine scoring.
func Filter[T any](records []FaceRecord[T], queryHash Hash, hammingThreshold, cutover int) []FaceRecord[T] {
	if len(records) <= cutover {
		return records
	}

	survivors := make([]FaceRecord[T], 0, len(records))
	for i := range records {
		if WithinDistance(records[i].Hash, queryHash, hammingThreshold) {
			survivors = append(survivors, records[i])
		}
	}
	return survivors
}
