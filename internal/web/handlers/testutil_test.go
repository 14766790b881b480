package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shot02/face-identifier/internal/detector"
	"github.com/shot02/face-identifier/internal/identify"
	"github.com/shot02/face-identifier/internal/registry"
)

// newTestStore returns an empty in-memory record collection.
func newTestStore(t *testing.T) *registry.Registry {
	t.Helper()
	store, err := registry.New(identify.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to create registry: %v", err)
	}
	return store
}

// newTestMatcher returns a matcher with the given threshold and otherwise
// default options.
func newTestMatcher(t *testing.T, threshold float64) *identify.Matcher[registry.Payload] {
	t.Helper()
	opts := identify.DefaultOptions()
	opts.MatchThreshold = threshold
	m, err := identify.NewMatcher[registry.Payload](opts)
	if err != nil {
		t.Fatalf("failed to create matcher: %v", err)
	}
	return m
}

// enrollRecord adds a record to the store and returns it.
func enrollRecord(t *testing.T, store *registry.Registry, label string, descriptor identify.Descriptor) registry.Record {
	t.Helper()
	record, err := store.Enroll(label, descriptor, 0.9, nil)
	if err != nil {
		t.Fatalf("failed to enroll record: %v", err)
	}
	return record
}

// fakeSource is a DescriptorSource returning a fixed detection.
type fakeSource struct {
	detection detector.Detection
}

func (f *fakeSource) ObtainDescriptor(ctx context.Context, imageData []byte) detector.Detection {
	return f.detection
}

// jsonRequest builds a request with a JSON body.
func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request body: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// multipartImageRequest builds a multipart upload with an "image" part.
func multipartImageRequest(t *testing.T, path string, imageData []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("image", "face.jpg")
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := io.Copy(part, bytes.NewReader(imageData)); err != nil {
		t.Fatalf("failed to write image data: %v", err)
	}
	writer.Close()

	req := httptest.NewRequest("POST", path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d (body: %s)", expected, recorder.Code, recorder.Body.String())
	}
}

func assertContentType(t *testing.T, recorder *httptest.ResponseRecorder, expected string) {
	t.Helper()
	if got := recorder.Header().Get("Content-Type"); got != expected {
		t.Errorf("expected Content-Type '%s', got '%s'", expected, got)
	}
}

func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, dest any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), dest); err != nil {
		t.Fatalf("failed to unmarshal response: %v (body: %s)", err, recorder.Body.String())
	}
}
