package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrChunking indicates a source could not be chunked (empty or malformed text).
	// Batch callers log and skip the source.
	ErrChunking = errors.New("chunking failed")

	// ErrEmbeddingFailure indicates the embedding provider call failed.
	ErrEmbeddingFailure = errors.New("embedding failed")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Semantic search is disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrIndexUnavailable indicates the lexical or vector index has not been created or built.
	// Search paths recover from it by degrading to the other signal.
	ErrIndexUnavailable = errors.New("index unavailable")

	// ErrDimensionMismatch indicates a vector whose length disagrees with its declared dimension.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrRebuildInProgress indicates a vector index rebuild is already running.
	ErrRebuildInProgress = errors.New("rebuild in progress")

	// ErrSearchUnavailable indicates neither the lexical nor the vector signal can be used.
	ErrSearchUnavailable = errors.New("search unavailable")
)

// EmbeddingError carries the provider message for a failed embedding call.
type EmbeddingError struct {
	// Provider identifies the embedding backend (model or host).
	Provider string

	// Message is the provider's error text.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

func (e *EmbeddingError) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("embedding failed: %s", e.Message)
	}
	return fmt.Sprintf("embedding failed (%s): %s", e.Provider, e.Message)
}

// Is reports ErrEmbeddingFailure so callers can match with errors.Is.
func (e *EmbeddingError) Is(target error) bool {
	return target == ErrEmbeddingFailure
}

func (e *EmbeddingError) Unwrap() error {
	return e.Err
}

// DimensionError describes a vector whose length does not match the expected dimension.
type DimensionError struct {
	Expected int
	Actual   int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// Is reports ErrDimensionMismatch so callers can match with errors.Is.
func (e *DimensionError) Is(target error) bool {
	return target == ErrDimensionMismatch
}
