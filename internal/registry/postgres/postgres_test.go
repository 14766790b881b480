//go:build integration

package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/shot02/face-identifier/internal/config"
	"github.com/shot02/face-identifier/internal/identify"
	"github.com/shot02/face-identifier/internal/registry"
)

func setupTestContainer(t *testing.T) (*Pool, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "pgvector/pgvector:pg16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Docker not available or container failed to start, skipping integration test: %v", err)
		return nil, func() {}
	}
	if container == nil {
		t.Skip("Docker not available, skipping integration test")
		return nil, func() {}
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	dbURL := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	cfg := &config.DatabaseConfig{
		URL:          dbURL,
		MaxOpenConns: 5,
		MaxIdleConns: 2,
	}

	pool, err := NewPool(cfg)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to create pool: %v", err)
	}

	if err := pool.Migrate(ctx); err != nil {
		pool.Close()
		container.Terminate(ctx)
		t.Fatalf("Failed to run migrations: %v", err)
	}

	cleanup := func() {
		pool.Close()
		container.Terminate(ctx)
	}

	return pool, cleanup
}

func testRecord(label string, descriptor identify.Descriptor) registry.Record {
	return registry.Record{
		FaceID:     uuid.NewString(),
		Descriptor: descriptor,
		Hash:       identify.Encode(descriptor, 64),
		Confidence: 0.9,
		CreatedAt:  time.Now().Unix(),
		UserData:   registry.Payload{Label: label},
	}
}

func TestRecordStore(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	store := NewRecordStore(pool)

	t.Run("InsertAndGet", func(t *testing.T) {
		record := testRecord("Jan Novák", identify.Descriptor{0.1, 0.2, 0.3, 0.4})
		record.UserData.Data = json.RawMessage(`{"team":"a"}`)

		if err := store.Insert(ctx, record); err != nil {
			t.Fatalf("Failed to insert record: %v", err)
		}

		got, err := store.Get(ctx, record.FaceID)
		if err != nil {
			t.Fatalf("Failed to get record: %v", err)
		}
		if got.UserData.Label != "Jan Novák" {
			t.Errorf("Expected label 'Jan Novák', got '%s'", got.UserData.Label)
		}
		if len(got.Descriptor) != 4 {
			t.Errorf("Expected 4 dimensions, got %d", len(got.Descriptor))
		}
		if got.Hash.Len != record.Hash.Len {
			t.Errorf("Expected hash length %d, got %d", record.Hash.Len, got.Hash.Len)
		}
		if identify.HammingDistance(got.Hash, record.Hash) != 0 {
			t.Error("Hash did not survive round trip")
		}
		if string(got.UserData.Data) != `{"team":"a"}` {
			t.Errorf("Expected user data to round-trip, got %s", got.UserData.Data)
		}
	})

	t.Run("GetMissing", func(t *testing.T) {
		_, err := store.Get(ctx, uuid.NewString())
		if !errors.Is(err, registry.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("AllOrdered", func(t *testing.T) {
		for i := range 5 {
			record := testRecord(fmt.Sprintf("person-%d", i), identify.Descriptor{float32(i), 1, 0, 0})
			record.CreatedAt = int64(1000 + i)
			if err := store.Insert(ctx, record); err != nil {
				t.Fatalf("Failed to insert record: %v", err)
			}
		}

		records, err := store.All(ctx)
		if err != nil {
			t.Fatalf("Failed to list records: %v", err)
		}
		if len(records) < 5 {
			t.Fatalf("Expected at least 5 records, got %d", len(records))
		}
		for i := 1; i < len(records); i++ {
			if records[i].CreatedAt < records[i-1].CreatedAt {
				t.Error("Records not ordered by enrollment time")
			}
		}
	})

	t.Run("Count", func(t *testing.T) {
		count, err := store.Count(ctx)
		if err != nil {
			t.Fatalf("Failed to count: %v", err)
		}
		if count == 0 {
			t.Error("Expected non-zero count")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		record := testRecord("to-delete", identify.Descriptor{1, 2, 3, 4})
		if err := store.Insert(ctx, record); err != nil {
			t.Fatalf("Failed to insert record: %v", err)
		}

		if err := store.Delete(ctx, record.FaceID); err != nil {
			t.Fatalf("Failed to delete record: %v", err)
		}
		if _, err := store.Get(ctx, record.FaceID); !errors.Is(err, registry.ErrNotFound) {
			t.Errorf("Expected ErrNotFound after delete, got %v", err)
		}
		if err := store.Delete(ctx, record.FaceID); !errors.Is(err, registry.ErrNotFound) {
			t.Errorf("Expected ErrNotFound on double delete, got %v", err)
		}
	})

	t.Run("FindByLabel", func(t *testing.T) {
		if err := store.Insert(ctx, testRecord("Jiří Svoboda", identify.Descriptor{0.5, 0.5, 0, 0})); err != nil {
			t.Fatalf("Failed to insert record: %v", err)
		}

		// Slug form must match the display name after normalization.
		records, err := store.FindByLabel(ctx, "jiri-svoboda")
		if err != nil {
			t.Fatalf("Failed to find by label: %v", err)
		}
		if len(records) != 1 {
			t.Errorf("Expected 1 record, got %d", len(records))
		}
	})

	t.Run("FindSimilar", func(t *testing.T) {
		needle := testRecord("needle", identify.Descriptor{0, 0, 0, 1})
		if err := store.Insert(ctx, needle); err != nil {
			t.Fatalf("Failed to insert record: %v", err)
		}

		records, distances, err := store.FindSimilar(ctx, identify.Descriptor{0, 0, 0, 1}, 3)
		if err != nil {
			t.Fatalf("Failed to find similar: %v", err)
		}
		if len(records) == 0 {
			t.Fatal("Expected results, got none")
		}
		if len(records) != len(distances) {
			t.Errorf("Records and distances length mismatch: %d vs %d", len(records), len(distances))
		}
		if records[0].FaceID != needle.FaceID {
			t.Errorf("Expected the needle as nearest record, got %s", records[0].UserData.Label)
		}
		for i := 1; i < len(distances); i++ {
			if distances[i] < distances[i-1] {
				t.Error("Distances not sorted")
			}
		}
	})
}

func TestMigrations(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()

	applied, err := pool.MigrationsApplied(ctx)
	if err != nil {
		t.Fatalf("Failed to get applied migrations: %v", err)
	}

	expectedMigrations := []string{
		"001_create_face_records.sql",
	}

	if len(applied) != len(expectedMigrations) {
		t.Errorf("Expected %d migrations, got %d", len(expectedMigrations), len(applied))
	}

	for i, expected := range expectedMigrations {
		if i < len(applied) && applied[i] != expected {
			t.Errorf("Migration %d: expected '%s', got '%s'", i, expected, applied[i])
		}
	}

	// Second run is a no-op.
	if err := pool.Migrate(ctx); err != nil {
		t.Fatalf("Re-running migrations should be safe: %v", err)
	}
}
