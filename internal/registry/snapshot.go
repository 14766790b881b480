package registry

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
)

// SaveSnapshot persists the record collection to a gob file so a restarted
// server can resume without re-enrolling.
func (r *Registry) SaveSnapshot(path string) error {
	r.mu.RLock()
	records := make([]Record, len(r.records))
	copy(records, r.records)
	r.mu.RUnlock()

	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write snapshot file: %w", err)
	}
	return nil
}

// LoadSnapshot replaces the collection with the contents of a gob file.
// A missing file is not an error; the registry simply starts empty.
func (r *Registry) LoadSnapshot(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // path is from trusted config
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read snapshot file: %w", err)
	}

	var records []Record
	dec := gob.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&records); err != nil {
		return fmt.Errorf("failed to decode records: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = records
	r.byID = make(map[string]int, len(records))
	for i := range records {
		r.byID[records[i].FaceID] = i
	}
	return nil
}
