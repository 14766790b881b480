package postgres

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/shot02/face-identifier/internal/identify"
	"github.com/shot02/face-identifier/internal/registry"
)

// RecordStore is a PostgreSQL-backed face record collection. Descriptors
// live in a pgvector column so the database can also answer nearest-record
// queries directly.
type RecordStore struct {
	pool *Pool
}

// NewRecordStore creates a store on top of an initialized pool.
func NewRecordStore(pool *Pool) *RecordStore {
	return &RecordStore{pool: pool}
}

const recordColumns = "face_id, descriptor, hash, hash_len, confidence, label, user_data, created_at"

// hashToBytes packs hash words big-endian for the bytea column.
func hashToBytes(h identify.Hash) []byte {
	buf := make([]byte, 8*len(h.Bits))
	for i, w := range h.Bits {
		binary.BigEndian.PutUint64(buf[i*8:], w)
	}
	return buf
}

// hashFromBytes restores a hash from its bytea form.
func hashFromBytes(data []byte, length int) (identify.Hash, error) {
	if len(data)%8 != 0 {
		return identify.Hash{}, fmt.Errorf("hash payload length %d is not word-aligned", len(data))
	}
	words := make([]uint64, len(data)/8)
	for i := range words {
		words[i] = binary.BigEndian.Uint64(data[i*8:])
	}
	if length > 64*len(words) {
		return identify.Hash{}, fmt.Errorf("hash length %d exceeds %d stored bits", length, 64*len(words))
	}
	return identify.Hash{Bits: words, Len: length}, nil
}

// Insert adds an already-built record.
func (s *RecordStore) Insert(ctx context.Context, record registry.Record) error {
	if record.FaceID == "" {
		return errors.New("record has no face ID")
	}

	var label sql.NullString
	if record.UserData.Label != "" {
		label = sql.NullString{String: record.UserData.Label, Valid: true}
	}
	var data any
	if len(record.UserData.Data) > 0 {
		data = []byte(record.UserData.Data)
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO face_records (face_id, descriptor, hash, hash_len, confidence, label, user_data, created_at)
		VALUES ($1, $2::vector, $3, $4, $5, $6, $7, $8)
	`,
		record.FaceID,
		pgvector.NewVector(record.Descriptor),
		hashToBytes(record.Hash),
		record.Hash.Len,
		record.Confidence,
		label,
		data,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert face record: %w", err)
	}
	return nil
}

// All returns every record ordered by enrollment time, so identification
// tie-breaks stay deterministic across calls.
func (s *RecordStore) All(ctx context.Context) ([]registry.Record, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+recordColumns+" FROM face_records ORDER BY created_at, face_id")
	if err != nil {
		return nil, fmt.Errorf("query face records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// Get retrieves a record by face ID.
func (s *RecordStore) Get(ctx context.Context, faceID string) (*registry.Record, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT "+recordColumns+" FROM face_records WHERE face_id = $1", faceID)

	record, err := scanRecordRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, registry.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Delete removes a record by face ID.
func (s *RecordStore) Delete(ctx context.Context, faceID string) error {
	result, err := s.pool.Exec(ctx, "DELETE FROM face_records WHERE face_id = $1", faceID)
	if err != nil {
		return fmt.Errorf("delete face record: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete face record: %w", err)
	}
	if affected == 0 {
		return registry.ErrNotFound
	}
	return nil
}

// Count returns the number of stored records.
func (s *RecordStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM face_records").Scan(&count); err != nil {
		return 0, fmt.Errorf("count face records: %w", err)
	}
	return count, nil
}

// FindByLabel returns records whose label matches after normalization
// (lowercase, no diacritics, dashes as spaces). Normalization runs on both
// sides so "jan-novak" finds "Jan Novák".
func (s *RecordStore) FindByLabel(ctx context.Context, label string) ([]registry.Record, error) {
	normalized := registry.NormalizeLabel(label)

	rows, err := s.pool.Query(ctx, `
		SELECT `+recordColumns+` FROM face_records
		WHERE LOWER(REPLACE(unaccent(label), '-', ' ')) = $1
		ORDER BY created_at, face_id
	`, normalized)
	if err != nil {
		return nil, fmt.Errorf("query face records by label: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// FindSimilar returns up to limit records nearest to the descriptor by
// cosine distance, most similar first.
func (s *RecordStore) FindSimilar(
	ctx context.Context, descriptor identify.Descriptor, limit int,
) ([]registry.Record, []float64, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+recordColumns+`, descriptor <=> $1::vector AS distance
		FROM face_records
		ORDER BY distance
		LIMIT $2
	`, pgvector.NewVector(descriptor), limit)
	if err != nil {
		return nil, nil, fmt.Errorf("query similar records: %w", err)
	}
	defer rows.Close()

	var records []registry.Record
	var distances []float64
	for rows.Next() {
		var dist float64
		record, err := scanRecordRow(rows, &dist)
		if err != nil {
			return nil, nil, err
		}
		records = append(records, record)
		distances = append(distances, dist)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate similar records: %w", err)
	}
	return records, distances, nil
}

// scanRecordRow scans a single row into a record, with optional extra scan
// destinations appended after the standard columns (e.g. a distance column).
func scanRecordRow(scanner interface{ Scan(...any) error }, extraDest ...any) (registry.Record, error) {
	var record registry.Record
	var vec pgvector.Vector
	var hashBytes []byte
	var hashLen int
	var label sql.NullString
	var data []byte

	dest := make([]any, 0, 8+len(extraDest))
	dest = append(dest,
		&record.FaceID,
		&vec,
		&hashBytes,
		&hashLen,
		&record.Confidence,
		&label,
		&data,
		&record.CreatedAt,
	)
	dest = append(dest, extraDest...)

	if err := scanner.Scan(dest...); err != nil {
		return record, fmt.Errorf("scan face record: %w", err)
	}

	record.Descriptor = identify.Descriptor(vec.Slice())
	hash, err := hashFromBytes(hashBytes, hashLen)
	if err != nil {
		return record, fmt.Errorf("restore hash for %s: %w", record.FaceID, err)
	}
	record.Hash = hash
	if label.Valid {
		record.UserData.Label = label.String
	}
	if len(data) > 0 {
		record.UserData.Data = json.RawMessage(data)
	}

	return record, nil
}

func scanRecords(rows *sql.Rows) ([]registry.Record, error) {
	var records []registry.Record
	for rows.Next() {
		record, err := scanRecordRow(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate face records: %w", err)
	}
	return records, nil
}

// Verify interface compliance.
var _ registry.Source = (*RecordStore)(nil)
var _ registry.Store = (*RecordStore)(nil)
