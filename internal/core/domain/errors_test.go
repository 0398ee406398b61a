package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrAlreadyExists", ErrAlreadyExists},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrChunking", ErrChunking},
		{"ErrEmbeddingFailure", ErrEmbeddingFailure},
		{"ErrEmbeddingUnavailable", ErrEmbeddingUnavailable},
		{"ErrIndexUnavailable", ErrIndexUnavailable},
		{"ErrDimensionMismatch", ErrDimensionMismatch},
		{"ErrRebuildInProgress", ErrRebuildInProgress},
		{"ErrSearchUnavailable", ErrSearchUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

// TestEmbeddingError_IsEmbeddingFailure tests sentinel matching through wrapping
func TestEmbeddingError_IsEmbeddingFailure(t *testing.T) {
	cause := errors.New("429 quota exceeded")
	err := fmt.Errorf("embedding chunk: %w", &EmbeddingError{
		Provider: "text-embedding-3-small",
		Message:  "quota exceeded",
		Err:      cause,
	})

	assert.ErrorIs(t, err, ErrEmbeddingFailure)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Contains(t, err.Error(), "text-embedding-3-small")

	var embErr *EmbeddingError
	assert.True(t, errors.As(err, &embErr))
	assert.Equal(t, "quota exceeded", embErr.Message)
}

// TestEmbeddingError_NoProvider tests message formatting without a provider
func TestEmbeddingError_NoProvider(t *testing.T) {
	err := &EmbeddingError{Message: "boom"}
	assert.Equal(t, "embedding failed: boom", err.Error())
	assert.NotErrorIs(t, err, ErrDimensionMismatch)
}

// TestDimensionError tests DimensionError formatting and matching
func TestDimensionError(t *testing.T) {
	err := &DimensionError{Expected: 1536, Actual: 768}

	assert.Equal(t, "dimension mismatch: expected 1536, got 768", err.Error())
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	assert.NotErrorIs(t, err, ErrEmbeddingFailure)
}
