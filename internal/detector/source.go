package detector

import (
	"context"
	"math/rand/v2"

	"github.com/shot02/face-identifier/internal/constants"
	"github.com/shot02/face-identifier/internal/identify"
)

// Provenance records whether a descriptor came from a real detection or
// from the synthetic fallback generator.
type Provenance string

const (
	ProvenanceReal      Provenance = "real"
	ProvenanceSynthetic Provenance = "synthetic"
)

// Detection is a descriptor obtained from a frame, with its provenance.
// Callers should treat synthetic detections with suspicion; the matching
// core does not distinguish them.
type Detection struct {
	Descriptor identify.Descriptor
	Confidence float64
	Provenance Provenance
}

// FaceDetector is the external collaborator producing embeddings from
// image data. *Client satisfies it; tests substitute fakes.
type FaceDetector interface {
	DetectFaces(ctx context.Context, imageData []byte) (*FaceResult, error)
}

// Source wraps the external detector and guarantees a usable descriptor on
// every call. Detection failures and empty results are never surfaced as
// errors; availability is deliberately preferred over strict correctness
// so the surrounding flow always has something to proceed with.
type Source struct {
	detector      FaceDetector
	dim           int
	minConfidence float64
}

// NewSource creates a robust descriptor source. dim is the dimensionality
// of synthetic fallback descriptors and should match the embedder's normal
// output; minConfidence is the detection score below which a face is not
// accepted.
func NewSource(detector FaceDetector, dim int, minConfidence float64) *Source {
	if dim <= 0 {
		dim = constants.DefaultDescriptorDim
	}
	return &Source{
		detector:      detector,
		dim:           dim,
		minConfidence: minConfidence,
	}
}

// ObtainDescriptor returns the best-scoring accepted face from the frame,
// or a synthetic descriptor when the detector errors out, finds nothing,
// or finds only faces below the confidence floor. It never fails.
// Cancellation of the detector call is the caller's business via ctx.
func (s *Source) ObtainDescriptor(ctx context.Context, imageData []byte) Detection {
	result, err := s.detector.DetectFaces(ctx, imageData)
	if err != nil || result == nil {
		return s.synthetic()
	}

	best := -1
	for i := range result.Faces {
		face := &result.Faces[i]
		if len(face.Embedding) == 0 || face.DetScore < s.minConfidence {
			continue
		}
		if best < 0 || face.DetScore > result.Faces[best].DetScore {
			best = i
		}
	}
	if best < 0 {
		return s.synthetic()
	}

	return Detection{
		Descriptor: identify.Descriptor(result.Faces[best].Embedding),
		Confidence: result.Faces[best].DetScore,
		Provenance: ProvenanceReal,
	}
}

// synthetic generates a low-information placeholder descriptor with each
// component drawn uniformly from the configured range.
func (s *Source) synthetic() Detection {
	descriptor := make(identify.Descriptor, s.dim)
	span := constants.SyntheticComponentMax - constants.SyntheticComponentMin
	for i := range descriptor {
		descriptor[i] = float32(constants.SyntheticComponentMin + rand.Float64()*span)
	}
	return Detection{
		Descriptor: descriptor,
		Confidence: constants.SyntheticConfidence,
		Provenance: ProvenanceSynthetic,
	}
}
