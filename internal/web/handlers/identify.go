package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/shot02/face-identifier/internal/constants"
	"github.com/shot02/face-identifier/internal/detector"
	"github.com/shot02/face-identifier/internal/identify"
	"github.com/shot02/face-identifier/internal/registry"
)

var (
	errMultipartExpected = errors.New("expected multipart form upload")
	errImagePartMissing  = errors.New("image part missing or empty")
	errImageUnreadable   = errors.New("failed to read image data")
)

// IdentifyHandler matches query descriptors against the record collection.
type IdentifyHandler struct {
	store   Store
	matcher *identify.Matcher[registry.Payload]
	source  DescriptorSource
}

// NewIdentifyHandler creates an identification handler. source may be nil
// when no embedding service is configured; the image endpoint then responds
// with 503.
func NewIdentifyHandler(store Store, matcher *identify.Matcher[registry.Payload], source DescriptorSource) *IdentifyHandler {
	return &IdentifyHandler{
		store:   store,
		matcher: matcher,
		source:  source,
	}
}

// IdentifyRequest carries a raw descriptor to identify.
type IdentifyRequest struct {
	Descriptor []float32 `json:"descriptor"`
	Confidence float64   `json:"confidence"`
}

// CandidateResponse is one scored record in an identification response.
type CandidateResponse struct {
	FaceID     string          `json:"face_id"`
	Similarity float64         `json:"similarity"`
	Label      string          `json:"label,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// IdentifyResponse is the outcome of an identification call.
type IdentifyResponse struct {
	MatchFound           bool                `json:"match_found"`
	BestMatch            *CandidateResponse  `json:"best_match,omitempty"`
	Similarity           float64             `json:"similarity"`
	Candidates           []CandidateResponse `json:"candidates"`
	QueryHash            string              `json:"query_hash,omitempty"`
	QueryConfidence      float64             `json:"query_confidence"`
	TruncatedComparisons int                 `json:"truncated_comparisons,omitempty"`
	Provenance           string              `json:"provenance,omitempty"`
}

func toCandidateResponse(c identify.MatchCandidate[registry.Payload]) CandidateResponse {
	return CandidateResponse{
		FaceID:     c.FaceID,
		Similarity: c.Similarity,
		Label:      c.UserData.Label,
		Data:       c.UserData.Data,
	}
}

func toIdentifyResponse(result identify.Result[registry.Payload]) IdentifyResponse {
	resp := IdentifyResponse{
		MatchFound:           result.MatchFound,
		Similarity:           result.Similarity,
		Candidates:           make([]CandidateResponse, 0, len(result.Candidates)),
		QueryConfidence:      result.QueryConfidence,
		TruncatedComparisons: result.TruncatedComparisons,
	}
	if result.QueryHash.Len > 0 {
		resp.QueryHash = result.QueryHash.String()
	}
	if result.BestMatch != nil {
		best := toCandidateResponse(*result.BestMatch)
		resp.BestMatch = &best
	}
	for _, c := range result.Candidates {
		resp.Candidates = append(resp.Candidates, toCandidateResponse(c))
	}
	return resp
}

// Identify handles POST /api/v1/identify with a raw descriptor.
func (h *IdentifyHandler) Identify(w http.ResponseWriter, r *http.Request) {
	var req IdentifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if len(req.Descriptor) == 0 {
		respondError(w, http.StatusBadRequest, "descriptor must not be empty")
		return
	}

	records, err := h.store.All(r.Context())
	if err != nil {
		log.Printf("Failed to load records: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to load records")
		return
	}

	result := h.matcher.Identify(identify.Descriptor(req.Descriptor), req.Confidence, records)
	respondJSON(w, http.StatusOK, toIdentifyResponse(result))
}

// IdentifyImage handles POST /api/v1/identify/image with a multipart image.
// The descriptor is obtained from the embedding service; when detection
// fails a synthetic descriptor is used and flagged in the response.
func (h *IdentifyHandler) IdentifyImage(w http.ResponseWriter, r *http.Request) {
	if h.source == nil {
		respondError(w, http.StatusServiceUnavailable, "no embedding service configured")
		return
	}

	imageData, err := readUploadedImage(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	detection := h.source.ObtainDescriptor(r.Context(), imageData)

	records, err := h.store.All(r.Context())
	if err != nil {
		log.Printf("Failed to load records: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to load records")
		return
	}

	result := h.matcher.Identify(detection.Descriptor, detection.Confidence, records)
	resp := toIdentifyResponse(result)
	resp.Provenance = string(detection.Provenance)
	respondJSON(w, http.StatusOK, resp)
}

// readUploadedImage extracts the "image" part from a multipart request.
func readUploadedImage(r *http.Request) ([]byte, error) {
	if err := r.ParseMultipartForm(constants.MaxUploadSize); err != nil {
		return nil, errMultipartExpected
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		return nil, errImagePartMissing
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, constants.MaxUploadSize))
	if err != nil {
		return nil, errImageUnreadable
	}
	if len(data) == 0 {
		return nil, errImagePartMissing
	}

	// Downscale oversized uploads before they reach the embedding service.
	resized, err := detector.PrepareImage(data, constants.MaxImageSize)
	if err != nil {
		// Not a decodable image format; let the detector decide.
		return data, nil
	}
	return resized, nil
}
