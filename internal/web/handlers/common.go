package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/shot02/face-identifier/internal/detector"
	"github.com/shot02/face-identifier/internal/registry"
)

// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
const errInvalidRequestBody = "invalid request body"

// Store is the record collection the API serves. Both the in-memory
// registry and the PostgreSQL store satisfy it.
type Store interface {
	All(ctx context.Context) ([]registry.Record, error)
	Insert(ctx context.Context, record registry.Record) error
	Delete(ctx context.Context, faceID string) error
	Get(ctx context.Context, faceID string) (*registry.Record, error)
	FindByLabel(ctx context.Context, label string) ([]registry.Record, error)
}

// DescriptorSource turns raw image bytes into a descriptor. *detector.Source
// satisfies it; tests substitute fakes.
type DescriptorSource interface {
	ObtainDescriptor(ctx context.Context, imageData []byte) detector.Detection
}

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
