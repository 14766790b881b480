// Package constants provides shared defaults used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

// Matching constants
const (
	// DefaultMatchThreshold is the minimum cosine similarity for a
	// confirmed identification or verification match
	DefaultMatchThreshold = 0.75

	// DefaultMinConfidence is the minimum detection score for accepting a
	// face from the external detector
	DefaultMinConfidence = 0.5

	// MaxCandidates is the maximum number of candidates reported per
	// identification result
	MaxCandidates = 5
)

// Hash prefilter constants
const (
	// DefaultHashBits is the number of descriptor components used for the
	// binary fingerprint
	DefaultHashBits = 64

	// DefaultHammingThreshold is the maximum Hamming distance for a record
	// to survive the prefilter
	DefaultHammingThreshold = 8

	// DefaultFilterCutover is the collection size below which the
	// prefilter is skipped entirely
	DefaultFilterCutover = 1000
)

// Detector constants
const (
	// DefaultDescriptorDim is the descriptor dimensionality assumed when
	// the embedder does not report one, and the length of synthetic
	// fallback descriptors
	DefaultDescriptorDim = 128

	// SyntheticConfidence is the fixed confidence attached to synthetic
	// fallback descriptors
	SyntheticConfidence = 0.8

	// SyntheticComponentMin and SyntheticComponentMax bound the uniform
	// range synthetic descriptor components are drawn from
	SyntheticComponentMin = 0.25
	SyntheticComponentMax = 0.75

	// MaxImageSize is the maximum dimension (width or height) for images
	// sent to the embedding server
	MaxImageSize = 1920
)

// Registry constants
const (
	// DefaultSimilarLimit is the default number of nearest records
	// returned by the similar-records lookup
	DefaultSimilarLimit = 10
)

// Upload constants
const (
	// MaxUploadSize is the maximum image upload size in bytes (20MB)
	MaxUploadSize = 20 << 20
)
