// Package openai provides an embedding service adapter for OpenAI-compatible APIs.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultBaseURL = domain.DefaultEmbeddingBaseURL
	DefaultModel   = domain.DefaultEmbeddingModel
	DefaultTimeout = domain.DefaultEmbedTimeout
)

// Config holds configuration for the OpenAI embedding service.
type Config struct {
	// APIKey is the OpenAI API key. Required for the default endpoint.
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	// Can be changed for Azure OpenAI or compatible APIs.
	BaseURL string

	// Model is the embedding model to use (default: text-embedding-3-small).
	Model string

	// Timeout bounds each provider request (default: 30s).
	Timeout time.Duration

	// Dimensions overrides the default dimension for the model.
	// Only sent to the API for text-embedding-3-* models.
	Dimensions int

	// RequestsPerSecond paces requests. Zero disables pacing.
	RequestsPerSecond float64

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// EmbeddingService generates embeddings using an OpenAI-compatible API.
// Requests are never retried; failures surface as *domain.EmbeddingError.
type EmbeddingService struct {
	client     *goopenai.Client
	limiter    *rate.Limiter
	model      string
	dimensions int
	timeout    time.Duration
}

// NewEmbeddingService creates a new OpenAI embedding service.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.APIKey == "" && cfg.BaseURL == DefaultBaseURL {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	// Determine dimensions
	dimensions := cfg.Dimensions
	if dimensions == 0 {
		var ok bool
		dimensions, ok = domain.EmbeddingDimensions()[cfg.Model]
		if !ok {
			dimensions = domain.DefaultEmbeddingDims
		}
	}

	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.HTTPClient != nil {
		clientCfg.HTTPClient = cfg.HTTPClient
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &EmbeddingService{
		client:     goopenai.NewClientWithConfig(clientCfg),
		limiter:    limiter,
		model:      cfg.Model,
		dimensions: dimensions,
		timeout:    cfg.Timeout,
	}, nil
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, s.failure("no embedding returned", nil)
	}
	return embeddings[0], nil
}

// EmbedBatch generates embeddings for multiple texts in a single request.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			return nil, s.failure(fmt.Sprintf("input %d is empty", i), domain.ErrInvalidInput)
		}
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, s.failure("rate limiter", err)
		}
	}

	req := goopenai.EmbeddingRequest{
		Model: goopenai.EmbeddingModel(s.model),
		Input: texts,
	}
	// Only text-embedding-3-* models accept a dimensions override
	if strings.HasPrefix(s.model, "text-embedding-3-") && s.dimensions > 0 {
		req.Dimensions = s.dimensions
	}

	reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.client.CreateEmbeddings(reqCtx, req)
	if err != nil {
		return nil, s.failure(providerMessage(err), err)
	}
	if len(resp.Data) != len(texts) {
		return nil, s.failure(fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(resp.Data)), nil)
	}

	// Order by index and check every vector has the configured size
	embeddings := make([][]float32, len(texts))
	for _, data := range resp.Data {
		if data.Index < 0 || data.Index >= len(texts) {
			return nil, s.failure(fmt.Sprintf("embedding index %d out of range", data.Index), nil)
		}
		if len(data.Embedding) != s.dimensions {
			dimErr := &domain.DimensionError{Expected: s.dimensions, Actual: len(data.Embedding)}
			return nil, s.failure(dimErr.Error(), dimErr)
		}
		vec := make([]float32, len(data.Embedding))
		for i, v := range data.Embedding {
			vec[i] = float32(v)
		}
		embeddings[data.Index] = vec
	}
	for i, vec := range embeddings {
		if vec == nil {
			return nil, s.failure(fmt.Sprintf("missing embedding for input %d", i), nil)
		}
	}

	return embeddings, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping validates the service is reachable by listing models.
// This checks the API key without running inference.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.client.ListModels(reqCtx); err != nil {
		return s.failure(providerMessage(err), err)
	}
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}

func (s *EmbeddingService) failure(msg string, err error) error {
	return &domain.EmbeddingError{Provider: s.model, Message: msg, Err: err}
}

// providerMessage extracts the most useful text from a go-openai error.
func providerMessage(err error) string {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode != 0 {
			return fmt.Sprintf("status %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
		}
		return apiErr.Message
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Sprintf("status %d: %v", reqErr.HTTPStatusCode, reqErr.Err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "request timed out"
	}
	return err.Error()
}
