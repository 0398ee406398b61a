package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// Default values for the chunker and embedding client.
const (
	DefaultChunkSize        = 1000
	DefaultChunkOverlap     = 200
	DefaultBoundaryWindow   = 100
	DefaultEmbeddingModel   = "text-embedding-3-small"
	DefaultEmbeddingDims    = 1536
	DefaultEmbeddingBaseURL = "https://api.openai.com/v1"
	DefaultEmbedBatchSize   = 64
	DefaultEmbedTimeout     = 30 * time.Second
	DefaultServerAddress    = "127.0.0.1:8080"
)

// SearchSettings holds search behaviour configuration.
type SearchSettings struct {
	// Weights are the default fusion weights.
	Weights Weights

	// DefaultLimit is used when a caller does not give a limit.
	DefaultLimit int

	// BuildOnStart builds the vector index when the server starts.
	BuildOnStart bool
}

// ChunkingSettings holds splitter configuration.
type ChunkingSettings struct {
	// ChunkSize is the window length in characters.
	ChunkSize int

	// Overlap is how many characters consecutive windows share.
	Overlap int

	// BoundaryWindow is how far back from the window end to look for a break.
	BoundaryWindow int
}

// Validate checks that the window advances.
func (c ChunkingSettings) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive", ErrInvalidInput)
	}
	if c.Overlap < 0 || c.Overlap >= c.ChunkSize {
		return fmt.Errorf("%w: overlap must be in [0, chunk size)", ErrInvalidInput)
	}
	if c.BoundaryWindow < 0 {
		return fmt.Errorf("%w: boundary window must not be negative", ErrInvalidInput)
	}
	return nil
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Model is the embedding model name.
	Model string

	// Dimensions is the fixed vector size D.
	Dimensions int

	// BaseURL is the OpenAI-compatible API endpoint.
	BaseURL string

	// APIKey authenticates against the provider.
	APIKey string

	// BatchSize is how many texts go into one provider request.
	BatchSize int

	// RequestsPerSecond paces provider calls. Zero disables pacing.
	RequestsPerSecond float64

	// Timeout bounds each provider request.
	Timeout time.Duration
}

// IsConfigured returns true if the embedding provider can be called.
// A custom base URL (for example a local server) does not need a key.
func (e EmbeddingSettings) IsConfigured() bool {
	if e.Model == "" || e.Dimensions <= 0 {
		return false
	}
	if e.APIKey == "" && (e.BaseURL == "" || e.BaseURL == DefaultEmbeddingBaseURL) {
		return false
	}
	return true
}

// ServerSettings holds the HTTP listener configuration.
type ServerSettings struct {
	Address string
}

// StorageSettings holds persistence configuration.
type StorageSettings struct {
	// DataDir holds the SQLite database. Empty means ~/.recall/data.
	DataDir string
}

// AppSettings holds all application settings.
type AppSettings struct {
	Search    SearchSettings
	Chunking  ChunkingSettings
	Embedding EmbeddingSettings
	Server    ServerSettings
	Storage   StorageSettings
}

// Validate checks every section.
func (s AppSettings) Validate() error {
	if err := s.Chunking.Validate(); err != nil {
		return err
	}
	if s.Embedding.Dimensions <= 0 {
		return fmt.Errorf("%w: embedding dimensions must be positive", ErrInvalidInput)
	}
	if s.Search.DefaultLimit <= 0 {
		return fmt.Errorf("%w: default limit must be positive", ErrInvalidInput)
	}
	return nil
}

// DefaultAppSettings returns settings with sensible defaults.
// The embedding API key is left empty; semantic search stays disabled until one is set.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Search: SearchSettings{
			Weights:      DefaultWeights(),
			DefaultLimit: DefaultSearchLimit,
			BuildOnStart: true,
		},
		Chunking: ChunkingSettings{
			ChunkSize:      DefaultChunkSize,
			Overlap:        DefaultChunkOverlap,
			BoundaryWindow: DefaultBoundaryWindow,
		},
		Embedding: EmbeddingSettings{
			Model:      DefaultEmbeddingModel,
			Dimensions: DefaultEmbeddingDims,
			BaseURL:    DefaultEmbeddingBaseURL,
			BatchSize:  DefaultEmbedBatchSize,
			Timeout:    DefaultEmbedTimeout,
		},
		Server: ServerSettings{
			Address: DefaultServerAddress,
		},
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
		"nomic-embed-text":       768,
		"mxbai-embed-large":      1024,
		"all-minilm":             384,
	}
}
