// Package config loads, validates, and persists the sensorkb
// configuration: a YAML file overlaid with SENSORKB_* environment
// variables.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (SENSORKB_*). A missing file is not an
// error; defaults apply.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// SENSORKB_VECTOR_DIM -> vector_dim, etc.
	if err := k.Load(env.Provider("SENSORKB_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "SENSORKB_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var validProviders = map[EmbedProvider]bool{
	EmbedOpenAI: true,
	EmbedOllama: true,
	EmbedLocal:  true,
}

// Validate checks that the configuration contains workable values.
// Chunking and dimension mistakes are rejected here, before any document
// is processed.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	if c.EmbedProvider != "" && !validProviders[c.EmbedProvider] {
		return fmt.Errorf("invalid embed_provider %q: must be one of openai, ollama, local", c.EmbedProvider)
	}
	if c.VectorDim <= 0 {
		return fmt.Errorf("vector_dim must be positive")
	}
	if c.ChunkMaxLen <= 0 {
		return fmt.Errorf("chunk_max_len must be positive")
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkMaxLen {
		return fmt.Errorf("chunk_overlap must be in [0, chunk_max_len)")
	}
	if c.EmbedTimeoutSecs <= 0 {
		return fmt.Errorf("embed_timeout_secs must be positive")
	}
	if c.MaxConcurrency < 0 {
		return fmt.Errorf("max_concurrency must be non-negative")
	}
	if c.KeywordWeight < 0 || c.KeywordWeight > 1 {
		return fmt.Errorf("keyword_weight must be in [0, 1]")
	}
	if c.VectorWeight < 0 || c.VectorWeight > 1 {
		return fmt.Errorf("vector_weight must be in [0, 1]")
	}
	if c.KeywordWeight+c.VectorWeight == 0 {
		return fmt.Errorf("keyword_weight and vector_weight must not both be zero")
	}
	if c.DefaultLimit <= 0 {
		return fmt.Errorf("default_limit must be positive")
	}
	if c.MaxLimit < c.DefaultLimit {
		return fmt.Errorf("max_limit must be >= default_limit")
	}
	return nil
}
