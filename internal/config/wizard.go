package config

import (
	"fmt"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. The caller decides where to save it.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to sensorkb! Let's configure your knowledge base.")
	fmt.Println()

	cfg := DefaultConfig()

	providerPrompt := promptui.Select{
		Label: "Select embedding provider",
		Items: []string{
			"local  — deterministic feature hashing, no API key",
			"openai — text-embedding-3 models (needs OPENAI_API_KEY)",
			"ollama — local Ollama daemon",
		},
	}
	idx, _, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}

	switch idx {
	case 1:
		cfg.EmbedProvider = EmbedOpenAI
		cfg.EmbedModel = "text-embedding-3-small"
		cfg.VectorDim = 1536
	case 2:
		cfg.EmbedProvider = EmbedOllama
		cfg.EmbedModel = "nomic-embed-text"
		cfg.VectorDim = 768
	default:
		cfg.EmbedProvider = EmbedLocal
		cfg.EmbedModel = "local-feature-hash"
	}

	chunkPrompt := promptui.Prompt{
		Label:   "Chunk size (characters)",
		Default: strconv.Itoa(cfg.ChunkMaxLen),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 {
				return fmt.Errorf("must be a positive integer")
			}
			return nil
		},
	}
	chunkStr, err := chunkPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("chunk size: %w", err)
	}
	cfg.ChunkMaxLen, _ = strconv.Atoi(chunkStr)
	if cfg.ChunkOverlap >= cfg.ChunkMaxLen {
		cfg.ChunkOverlap = cfg.ChunkMaxLen / 8
	}

	dbPrompt := promptui.Prompt{
		Label:   "Database path",
		Default: cfg.DBPath,
	}
	dbPath, err := dbPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("database path: %w", err)
	}
	cfg.DBPath = dbPath

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
