package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shot02/face-identifier/internal/config"
	"github.com/shot02/face-identifier/internal/registry"
	"github.com/shot02/face-identifier/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the identification API server",
	Long: `Start the Face Identifier web server.
The server exposes identification, verification and record management
over a JSON API. Records come from PostgreSQL when DATABASE_URL is set,
otherwise from an in-memory registry backed by the RECORDS_PATH snapshot.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (overrides PORT)")
}

// buildSimilarityIndex loads all records into the approximate index that
// backs /records/similar.
func buildSimilarityIndex(ctx context.Context, store interface {
	All(context.Context) ([]registry.Record, error)
}) (*registry.Index, error) {
	records, err := store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading records for index: %w", err)
	}
	index := registry.NewIndex()
	index.Build(records)
	return index, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if port := mustGetInt(cmd, "port"); port > 0 {
		cfg.Web.Port = port
	}

	handle, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer handle.Close()

	if handle.pool != nil {
		fmt.Println("Using PostgreSQL record store")
	} else if handle.snapshotPath != "" {
		fmt.Printf("Using in-memory record store (snapshot: %s)\n", handle.snapshotPath)
	} else {
		fmt.Println("Using in-memory record store (no persistence)")
	}

	matcher, err := newMatcher(cfg)
	if err != nil {
		return err
	}

	fmt.Println("Building similarity index...")
	index, err := buildSimilarityIndex(context.Background(), handle.store)
	if err != nil {
		return err
	}
	fmt.Printf("Similarity index ready with %d records\n", index.Count())

	server := web.NewServer(cfg, web.Dependencies{
		Store:   handle.store,
		Matcher: matcher,
		Source:  newDescriptorSource(cfg),
		Index:   index,
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting Face Identifier API on http://localhost:%d\n", cfg.Web.Port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
