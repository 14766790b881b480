package detector

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDetectFaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embed/face" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Fatalf("request is not multipart: %v", err)
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("missing file part: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(FaceResult{
			FacesCount: 1,
			Faces: []Face{
				{FaceIndex: 0, Dim: 4, Embedding: []float32{0.1, 0.2, 0.3, 0.4}, DetScore: 0.97},
			},
			Model: "insightface",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	result, err := client.DetectFaces(context.Background(), []byte{0xFF, 0xD8, 0xFF, 0x00, 0x00, 0x00, 0x00, 0x00})
	if err != nil {
		t.Fatalf("DetectFaces failed: %v", err)
	}

	if result.FacesCount != 1 || len(result.Faces) != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Faces[0].DetScore != 0.97 {
		t.Errorf("det score = %f; want 0.97", result.Faces[0].DetScore)
	}
}

func TestDetectFacesServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	if _, err := client.DetectFaces(context.Background(), []byte("data")); err == nil {
		t.Error("expected an error on server failure")
	}
}

func TestDetectFacesInvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	if _, err := client.DetectFaces(context.Background(), []byte("data")); err == nil {
		t.Error("expected a parse error")
	}
}

func TestDetectMIMEType(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected string
	}{
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0, 0, 0}, "image/jpeg"},
		{"png", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, "image/png"},
		{"gif", []byte{0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0, 0}, "image/gif"},
		{"webp", []byte{0x52, 0x49, 0x46, 0x46, 0, 0, 0, 0, 0x57, 0x45, 0x42, 0x50}, "image/webp"},
		{"unknown", []byte{1, 2, 3, 4, 5, 6, 7, 8}, "application/octet-stream"},
		{"too short", []byte{0xFF, 0xD8}, "application/octet-stream"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := detectMIMEType(tc.data); got != tc.expected {
				t.Errorf("detectMIMEType = %s; want %s", got, tc.expected)
			}
		})
	}
}

func TestNewClientDefaults(t *testing.T) {
	client := NewClient("", "")
	if client.baseURL != defaultBaseURL {
		t.Errorf("base URL = %s; want %s", client.baseURL, defaultBaseURL)
	}
	if client.Model() != defaultModel {
		t.Errorf("model = %s; want %s", client.Model(), defaultModel)
	}

	trimmed := NewClient("http://example.test/", "arcface")
	if trimmed.baseURL != "http://example.test" {
		t.Errorf("trailing slash should be trimmed, got %s", trimmed.baseURL)
	}
}
