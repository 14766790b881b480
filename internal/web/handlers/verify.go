package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/shot02/face-identifier/internal/identify"
)

// VerifyHandler answers pairwise descriptor comparisons.
type VerifyHandler struct {
	defaultThreshold float64
}

// NewVerifyHandler creates a verification handler with the configured
// default match threshold.
func NewVerifyHandler(defaultThreshold float64) *VerifyHandler {
	return &VerifyHandler{defaultThreshold: defaultThreshold}
}

// VerifyRequest carries two descriptors to compare. Threshold is optional
// and defaults to the configured match threshold.
type VerifyRequest struct {
	DescriptorA []float32 `json:"descriptor_a"`
	DescriptorB []float32 `json:"descriptor_b"`
	Threshold   *float64  `json:"threshold,omitempty"`
}

// VerifyResponse is the outcome of a pairwise comparison.
type VerifyResponse struct {
	IsMatch    bool    `json:"is_match"`
	Similarity float64 `json:"similarity"`
	Threshold  float64 `json:"threshold"`
}

// Verify handles POST /api/v1/verify.
func (h *VerifyHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if len(req.DescriptorA) == 0 || len(req.DescriptorB) == 0 {
		respondError(w, http.StatusBadRequest, "both descriptors must be non-empty")
		return
	}

	threshold := h.defaultThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	if threshold < 0 || threshold > 1 {
		respondError(w, http.StatusBadRequest, "threshold must be in [0,1]")
		return
	}

	verification := identify.Verify(
		identify.Descriptor(req.DescriptorA),
		identify.Descriptor(req.DescriptorB),
		threshold,
	)
	respondJSON(w, http.StatusOK, VerifyResponse{
		IsMatch:    verification.IsMatch,
		Similarity: verification.Similarity,
		Threshold:  verification.Threshold,
	})
}
