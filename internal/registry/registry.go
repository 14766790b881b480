// Package registry keeps the caller-owned collection of registered face
// records. The matching core never touches storage; this package is the
// reference "caller side" that feeds records into it.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shot02/face-identifier/internal/identify"
)

// ErrNotFound is returned when a face ID is not in the collection.
var ErrNotFound = errors.New("face record not found")

// Payload is the caller-owned data attached to each record. The matching
// core passes it through untouched.
type Payload struct {
	Label string          `json:"label,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Record is a registered face with a registry payload.
type Record = identify.FaceRecord[Payload]

// Source provides the record collection for identification calls.
type Source interface {
	// All returns every record, in a stable order.
	All(ctx context.Context) ([]Record, error)
}

// Store is a Source that also accepts enrollments and removals.
type Store interface {
	Source
	// Insert adds an already-built record.
	Insert(ctx context.Context, record Record) error
	// Delete removes a record by face ID.
	Delete(ctx context.Context, faceID string) error
}

// Registry is an in-memory record collection safe for concurrent use.
// Records are immutable once enrolled and iterate in insertion order, which
// keeps identification tie-breaks deterministic across calls.
type Registry struct {
	mu      sync.RWMutex
	opts    identify.Options
	records []Record
	byID    map[string]int
}

// New creates an empty registry. Hashes for enrolled records are encoded
// with the given options, which must match the matcher the records will be
// identified with.
func New(opts identify.Options) (*Registry, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Registry{
		opts: opts,
		byID: make(map[string]int),
	}, nil
}

// Enroll registers a descriptor and returns the created record.
func (r *Registry) Enroll(label string, descriptor identify.Descriptor, confidence float64, data json.RawMessage) (Record, error) {
	if len(descriptor) == 0 {
		return Record{}, errors.New("descriptor must not be empty")
	}

	record := Record{
		FaceID:     uuid.NewString(),
		Descriptor: descriptor,
		Hash:       identify.Encode(descriptor, r.opts.HashBits),
		Confidence: confidence,
		CreatedAt:  time.Now().Unix(),
		UserData:   Payload{Label: label, Data: data},
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[record.FaceID] = len(r.records)
	r.records = append(r.records, record)
	return record, nil
}

// Insert adds an already-built record, e.g. loaded from a snapshot or an
// external store.
func (r *Registry) Insert(ctx context.Context, record Record) error {
	if record.FaceID == "" {
		return errors.New("record has no face ID")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[record.FaceID]; exists {
		return fmt.Errorf("face %s already registered", record.FaceID)
	}
	r.byID[record.FaceID] = len(r.records)
	r.records = append(r.records, record)
	return nil
}

// All returns a copy of every record in insertion order.
func (r *Registry) All(ctx context.Context) ([]Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	records := make([]Record, len(r.records))
	copy(records, r.records)
	return records, nil
}

// Get retrieves a record by face ID.
func (r *Registry) Get(ctx context.Context, faceID string) (*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.byID[faceID]
	if !ok {
		return nil, ErrNotFound
	}
	record := r.records[i]
	return &record, nil
}

// Delete removes a record by face ID, preserving the order of the rest.
func (r *Registry) Delete(ctx context.Context, faceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.byID[faceID]
	if !ok {
		return ErrNotFound
	}
	r.records = append(r.records[:i], r.records[i+1:]...)
	delete(r.byID, faceID)
	for j := i; j < len(r.records); j++ {
		r.byID[r.records[j].FaceID] = j
	}
	return nil
}

// Count returns the number of registered records.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// FindByLabel returns all records whose label matches after normalization
// (lowercase, no diacritics, dashes as spaces), in insertion order.
func (r *Registry) FindByLabel(ctx context.Context, label string) ([]Record, error) {
	want := NormalizeLabel(label)

	r.mu.RLock()
	defer r.mu.RUnlock()
	var matches []Record
	for i := range r.records {
		if NormalizeLabel(r.records[i].UserData.Label) == want {
			matches = append(matches, r.records[i])
		}
	}
	return matches, nil
}
