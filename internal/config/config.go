package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/shot02/face-identifier/internal/identify"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Embedding EmbeddingConfig
	Matching  MatchingConfig
	Registry  RegistryConfig
	Database  DatabaseConfig
	Web       WebConfig
}

type EmbeddingConfig struct {
	URL   string `yaml:"url"`   // face embedding service, defaults to http://localhost:8000
	Model string `yaml:"model"` // defaults to insightface
	Dim   int    `yaml:"dim"`   // descriptor dimensionality, defaults to 128
}

type MatchingConfig struct {
	MatchThreshold   float64 `yaml:"match_threshold"`
	MinConfidence    float64 `yaml:"min_confidence"`
	HashBits         int     `yaml:"hash_bits"`
	HammingThreshold int     `yaml:"hamming_threshold"`
	FilterCutover    int     `yaml:"filter_cutover"`
}

// Options converts the matching section into matcher options.
func (m MatchingConfig) Options() identify.Options {
	return identify.Options{
		MatchThreshold:   m.MatchThreshold,
		MinConfidence:    m.MinConfidence,
		HashBits:         m.HashBits,
		HammingThreshold: m.HammingThreshold,
		FilterCutover:    m.FilterCutover,
	}
}

type RegistryConfig struct {
	SnapshotPath string // gob snapshot of enrolled records (optional, in-memory only when empty)
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL (optional, in-memory registry when empty)
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type WebConfig struct {
	Port           int
	AllowedOrigins string // comma-separated CORS origins, "*" allows all
}

// defaults holds the embedded fallback values for tunable settings.
type defaults struct {
	Matching  MatchingConfig  `yaml:"matching"`
	Embedding EmbeddingConfig `yaml:"embedding"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envNonNegInt is like envInt but accepts zero, for settings where zero
// is meaningful (a zero Hamming threshold keeps only exact hash matches,
// a zero cutover prefilters every collection).
func envNonNegInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a float.
// Returns the default value if the env var is unset, empty, or invalid.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// Load builds the configuration from embedded defaults overridden by
// environment variables, and rejects invalid matching settings up front
// so a misconfigured process never starts serving.
func Load() (*Config, error) {
	var def defaults
	if err := yaml.Unmarshal(defaultsYAML, &def); err != nil {
		// This is an embedded file so this error should never happen in practice.
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}

	cfg := &Config{
		Embedding: EmbeddingConfig{
			URL:   envString("EMBEDDING_URL", def.Embedding.URL),
			Model: envString("EMBEDDING_MODEL", def.Embedding.Model),
			Dim:   envInt("EMBEDDING_DIM", def.Embedding.Dim),
		},
		Matching: MatchingConfig{
			MatchThreshold:   envFloat("MATCH_THRESHOLD", def.Matching.MatchThreshold),
			MinConfidence:    envFloat("MIN_CONFIDENCE", def.Matching.MinConfidence),
			HashBits:         envInt("HASH_BITS", def.Matching.HashBits),
			HammingThreshold: envNonNegInt("HAMMING_THRESHOLD", def.Matching.HammingThreshold),
			FilterCutover:    envNonNegInt("FILTER_CUTOVER", def.Matching.FilterCutover),
		},
		Registry: RegistryConfig{
			SnapshotPath: os.Getenv("RECORDS_PATH"),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Web: WebConfig{
			Port:           envInt("PORT", 8080),
			AllowedOrigins: envString("WEB_ALLOWED_ORIGINS", "*"),
		},
	}

	if err := cfg.Matching.Options().Validate(); err != nil {
		return nil, fmt.Errorf("invalid matching configuration: %w", err)
	}
	if cfg.Embedding.Dim <= 0 {
		return nil, fmt.Errorf("embedding dimension must be positive, got %d", cfg.Embedding.Dim)
	}

	return cfg, nil
}
