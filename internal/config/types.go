package config

// EmbedProvider identifies an embedding backend.
type EmbedProvider string

const (
	EmbedOpenAI EmbedProvider = "openai"
	EmbedOllama EmbedProvider = "ollama"
	EmbedLocal  EmbedProvider = "local"
)

// Config is the top-level sensorkb configuration, corresponding to
// .sensorkb.yml.
type Config struct {
	// Storage.
	DBPath string `yaml:"db_path" koanf:"db_path"`

	// Embedding.
	EmbedProvider EmbedProvider `yaml:"embed_provider" koanf:"embed_provider"`
	EmbedModel    string        `yaml:"embed_model" koanf:"embed_model"`
	EmbedBaseURL  string        `yaml:"embed_base_url" koanf:"embed_base_url"`
	// VectorDim is the fixed vector dimension for this deployment. Vectors
	// of any other length are rejected at ingestion.
	VectorDim int `yaml:"vector_dim" koanf:"vector_dim"`
	// EmbedTimeoutSecs bounds each embedding call; a timed-out call counts
	// as a per-chunk embedding failure, not a pipeline abort.
	EmbedTimeoutSecs int `yaml:"embed_timeout_secs" koanf:"embed_timeout_secs"`

	// Chunking.
	ChunkMaxLen  int `yaml:"chunk_max_len" koanf:"chunk_max_len"`
	ChunkOverlap int `yaml:"chunk_overlap" koanf:"chunk_overlap"`

	// Ingestion.
	MaxConcurrency int `yaml:"max_concurrency" koanf:"max_concurrency"`

	// Query.
	KeywordWeight float64 `yaml:"keyword_weight" koanf:"keyword_weight"`
	VectorWeight  float64 `yaml:"vector_weight" koanf:"vector_weight"`
	DefaultLimit  int     `yaml:"default_limit" koanf:"default_limit"`
	MaxLimit      int     `yaml:"max_limit" koanf:"max_limit"`

	// HTTP server.
	HTTPPort int  `yaml:"http_port" koanf:"http_port"`
	AllowAll bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}

// DefaultConfig returns a Config with working defaults: local embedder,
// on-disk SQLite, balanced hybrid weights.
func DefaultConfig() *Config {
	return &Config{
		DBPath:           ".sensorkb/kb.db",
		EmbedProvider:    EmbedLocal,
		EmbedModel:       "local-feature-hash",
		VectorDim:        256,
		EmbedTimeoutSecs: 30,
		ChunkMaxLen:      512,
		ChunkOverlap:     64,
		MaxConcurrency:   4,
		KeywordWeight:    0.4,
		VectorWeight:     0.6,
		DefaultLimit:     10,
		MaxLimit:         100,
		HTTPPort:         8270,
	}
}
