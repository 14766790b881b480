package cmd

import (
	"fmt"

	"github.com/shot02/face-identifier/internal/config"
	"github.com/shot02/face-identifier/internal/detector"
	"github.com/shot02/face-identifier/internal/identify"
	"github.com/shot02/face-identifier/internal/registry"
	"github.com/shot02/face-identifier/internal/registry/postgres"
	"github.com/shot02/face-identifier/internal/web/handlers"
)

// storeHandle bundles the selected record backend with its lifecycle. The
// in-memory backend persists through the gob snapshot on Close; PostgreSQL
// persists on its own.
type storeHandle struct {
	store        handlers.Store
	reg          *registry.Registry // non-nil for the in-memory backend
	pool         *postgres.Pool     // non-nil for the PostgreSQL backend
	snapshotPath string
}

// openStore selects the record backend from configuration: PostgreSQL when
// DATABASE_URL is set, otherwise the in-memory registry seeded from the
// snapshot file.
func openStore(cfg *config.Config) (*storeHandle, error) {
	if cfg.Database.URL != "" {
		pool, err := postgres.Connect(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connecting to PostgreSQL: %w", err)
		}
		return &storeHandle{
			store: postgres.NewRecordStore(pool),
			pool:  pool,
		}, nil
	}

	reg, err := registry.New(cfg.Matching.Options())
	if err != nil {
		return nil, err
	}
	if cfg.Registry.SnapshotPath != "" {
		if err := reg.LoadSnapshot(cfg.Registry.SnapshotPath); err != nil {
			return nil, fmt.Errorf("loading records snapshot: %w", err)
		}
	}
	return &storeHandle{
		store:        reg,
		reg:          reg,
		snapshotPath: cfg.Registry.SnapshotPath,
	}, nil
}

// Close persists the in-memory registry (when a snapshot path is set) and
// releases the database pool.
func (h *storeHandle) Close() error {
	if h.reg != nil && h.snapshotPath != "" {
		if err := h.reg.SaveSnapshot(h.snapshotPath); err != nil {
			return fmt.Errorf("saving records snapshot: %w", err)
		}
	}
	if h.pool != nil {
		return h.pool.Close()
	}
	return nil
}

// newMatcher builds the matcher from the configured options.
func newMatcher(cfg *config.Config) (*identify.Matcher[registry.Payload], error) {
	return identify.NewMatcher[registry.Payload](cfg.Matching.Options())
}

// newDescriptorSource wires the embedding service client. The URL always
// has a default, so a source is always available.
func newDescriptorSource(cfg *config.Config) *detector.Source {
	client := detector.NewClient(cfg.Embedding.URL, cfg.Embedding.Model)
	return detector.NewSource(client, cfg.Embedding.Dim, cfg.Matching.MinConfidence)
}
