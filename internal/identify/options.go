package identify

import (
	"fmt"

	"github.com/shot02/face-identifier/internal/constants"
)

// Options configures the matching pipeline. All values are taken as-is by
// the pipeline once validated; construct through DefaultOptions and
// override per deployment.
type Options struct {
	// MatchThreshold is the minimum similarity for a confirmed match.
	MatchThreshold float64

	// MinConfidence is the detector-acceptance threshold. It is carried
	// here so one options value configures the whole system, but it is
	// consumed by the detector boundary, not by matching itself.
	MinConfidence float64

	// HashBits is the number of leading descriptor components used for
	// the binary fingerprint.
	HashBits int

	// HammingThreshold is the maximum hash distance for a record to
	// survive the prefilter.
	HammingThreshold int

	// FilterCutover is the collection size at or below which the
	// prefilter is skipped.
	FilterCutover int
}

// DefaultOptions returns the standard pipeline configuration.
func DefaultOptions() Options {
	return Options{
		MatchThreshold:   constants.DefaultMatchThreshold,
		MinConfidence:    constants.DefaultMinConfidence,
		HashBits:         constants.DefaultHashBits,
		HammingThreshold: constants.DefaultHammingThreshold,
		FilterCutover:    constants.DefaultFilterCutover,
	}
}

// Validate rejects configurations that would silently degenerate, such as
// a zero-length hash or an out-of-range threshold.
func (o Options) Validate() error {
	if o.MatchThreshold < 0 || o.MatchThreshold > 1 {
		return fmt.Errorf("match threshold must be in [0,1], got %g", o.MatchThreshold)
	}
	if o.MinConfidence < 0 || o.MinConfidence > 1 {
		return fmt.Errorf("min confidence must be in [0,1], got %g", o.MinConfidence)
	}
	if o.HashBits <= 0 {
		return fmt.Errorf("hash bits must be positive, got %d", o.HashBits)
	}
	if o.HammingThreshold < 0 {
		return fmt.Errorf("hamming threshold must not be negative, got %d", o.HammingThreshold)
	}
	if o.FilterCutover < 0 {
		return fmt.Errorf("filter cutover must not be negative, got %d", o.FilterCutover)
	}
	return nil
}
