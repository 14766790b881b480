package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/shot02/face-identifier/internal/constants"
	"github.com/shot02/face-identifier/internal/identify"
	"github.com/shot02/face-identifier/internal/registry"
)

// RecordsHandler manages the enrolled record collection over HTTP.
type RecordsHandler struct {
	store    Store
	index    *registry.Index // optional, answers /records/similar
	hashBits int
}

// NewRecordsHandler creates a records handler. index may be nil when
// nearest-record lookups are not needed.
func NewRecordsHandler(store Store, index *registry.Index, hashBits int) *RecordsHandler {
	return &RecordsHandler{
		store:    store,
		index:    index,
		hashBits: hashBits,
	}
}

// RecordResponse is the API shape of an enrolled record. The descriptor is
// omitted from list responses to keep them small.
type RecordResponse struct {
	FaceID     string          `json:"face_id"`
	Label      string          `json:"label,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
	Confidence float64         `json:"confidence"`
	CreatedAt  int64           `json:"created_at"`
	Dim        int             `json:"dim"`
	Hash       string          `json:"hash"`
	Descriptor []float32       `json:"descriptor,omitempty"`
}

func toRecordResponse(record registry.Record, withDescriptor bool) RecordResponse {
	resp := RecordResponse{
		FaceID:     record.FaceID,
		Label:      record.UserData.Label,
		Data:       record.UserData.Data,
		Confidence: record.Confidence,
		CreatedAt:  record.CreatedAt,
		Dim:        len(record.Descriptor),
		Hash:       record.Hash.String(),
	}
	if withDescriptor {
		resp.Descriptor = record.Descriptor
	}
	return resp
}

// List handles GET /api/v1/records, optionally filtered by ?label=.
func (h *RecordsHandler) List(w http.ResponseWriter, r *http.Request) {
	var records []registry.Record
	var err error

	if label := r.URL.Query().Get("label"); label != "" {
		records, err = h.store.FindByLabel(r.Context(), label)
	} else {
		records, err = h.store.All(r.Context())
	}
	if err != nil {
		log.Printf("Failed to list records: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list records")
		return
	}

	resp := make([]RecordResponse, 0, len(records))
	for _, record := range records {
		resp = append(resp, toRecordResponse(record, false))
	}
	respondJSON(w, http.StatusOK, resp)
}

// CreateRecordRequest enrolls a new descriptor.
type CreateRecordRequest struct {
	Label      string          `json:"label"`
	Descriptor []float32       `json:"descriptor"`
	Confidence float64         `json:"confidence"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// Create handles POST /api/v1/records.
func (h *RecordsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if len(req.Descriptor) == 0 {
		respondError(w, http.StatusBadRequest, "descriptor must not be empty")
		return
	}
	if req.Confidence < 0 || req.Confidence > 1 {
		respondError(w, http.StatusBadRequest, "confidence must be in [0,1]")
		return
	}

	descriptor := identify.Descriptor(req.Descriptor)
	record := registry.Record{
		FaceID:     uuid.NewString(),
		Descriptor: descriptor,
		Hash:       identify.Encode(descriptor, h.hashBits),
		Confidence: req.Confidence,
		CreatedAt:  time.Now().Unix(),
		UserData:   registry.Payload{Label: req.Label, Data: req.Data},
	}

	if err := h.store.Insert(r.Context(), record); err != nil {
		log.Printf("Failed to insert record %s: %v", sanitizeForLog(record.FaceID), err)
		respondError(w, http.StatusInternalServerError, "failed to store record")
		return
	}
	if h.index != nil {
		h.index.Add(record)
	}

	respondJSON(w, http.StatusCreated, toRecordResponse(record, false))
}

// Get handles GET /api/v1/records/{faceID}.
func (h *RecordsHandler) Get(w http.ResponseWriter, r *http.Request) {
	faceID := chi.URLParam(r, "faceID")

	record, err := h.store.Get(r.Context(), faceID)
	if errors.Is(err, registry.ErrNotFound) {
		respondError(w, http.StatusNotFound, "record not found")
		return
	}
	if err != nil {
		log.Printf("Failed to get record %s: %v", sanitizeForLog(faceID), err)
		respondError(w, http.StatusInternalServerError, "failed to load record")
		return
	}

	respondJSON(w, http.StatusOK, toRecordResponse(*record, true))
}

// Delete handles DELETE /api/v1/records/{faceID}.
func (h *RecordsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	faceID := chi.URLParam(r, "faceID")

	err := h.store.Delete(r.Context(), faceID)
	if errors.Is(err, registry.ErrNotFound) {
		respondError(w, http.StatusNotFound, "record not found")
		return
	}
	if err != nil {
		log.Printf("Failed to delete record %s: %v", sanitizeForLog(faceID), err)
		respondError(w, http.StatusInternalServerError, "failed to delete record")
		return
	}
	if h.index != nil {
		h.index.Remove(faceID)
	}

	respondJSON(w, http.StatusOK, map[string]string{"deleted": faceID})
}

// SimilarRequest asks for the records nearest to a descriptor.
type SimilarRequest struct {
	Descriptor []float32 `json:"descriptor"`
	Limit      int       `json:"limit"`
}

// SimilarResult is one nearest-record entry.
type SimilarResult struct {
	Record     RecordResponse `json:"record"`
	Similarity float64        `json:"similarity"`
}

// Similar handles POST /api/v1/records/similar using the approximate index.
func (h *RecordsHandler) Similar(w http.ResponseWriter, r *http.Request) {
	if h.index == nil {
		respondError(w, http.StatusServiceUnavailable, "similarity index not available")
		return
	}

	var req SimilarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if len(req.Descriptor) == 0 {
		respondError(w, http.StatusBadRequest, "descriptor must not be empty")
		return
	}
	limit := req.Limit
	if limit <= 0 {
		limit = constants.DefaultSimilarLimit
	}

	neighbors, err := h.index.Search(identify.Descriptor(req.Descriptor), limit)
	if err != nil {
		// Empty index: nothing enrolled yet.
		respondJSON(w, http.StatusOK, []SimilarResult{})
		return
	}

	resp := make([]SimilarResult, 0, len(neighbors))
	for _, n := range neighbors {
		resp = append(resp, SimilarResult{
			Record:     toRecordResponse(n.Record, false),
			Similarity: n.Similarity,
		})
	}
	respondJSON(w, http.StatusOK, resp)
}
