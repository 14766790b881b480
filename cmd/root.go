package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "face-identifier",
	Short: "A face identification service with hash-prefiltered cosine matching",
	Long: `Face Identifier matches face embeddings against a collection of enrolled
records. Descriptors are prefiltered with compact binary hashes and scored
with cosine similarity; records can live in memory, in a gob snapshot, or
in PostgreSQL with pgvector.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
