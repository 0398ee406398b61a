package domain

import (
	"encoding/binary"
	"math"
	"time"
)

// Embedding is the vector for one chunk under one model generation.
type Embedding struct {
	// ChunkID links to the embedded chunk.
	ChunkID string

	// Vector holds Dimension float32 values.
	Vector []float32

	// ModelName is the model that produced the vector.
	ModelName string

	// Dimension is the declared vector length.
	Dimension int

	// CreatedAt is when the embedding was stored.
	CreatedAt time.Time
}

// Validate checks that the vector length matches the declared dimension.
func (e *Embedding) Validate() error {
	if len(e.Vector) != e.Dimension {
		return &DimensionError{Expected: e.Dimension, Actual: len(e.Vector)}
	}
	return nil
}

// EncodeVector serialises a vector as little-endian IEEE-754 float32 values.
func EncodeVector(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// DecodeVector is the exact inverse of EncodeVector. The blob must hold
// exactly dimension values; anything else is a DimensionError.
func DecodeVector(data []byte, dimension int) ([]float32, error) {
	if dimension < 0 || len(data) != dimension*4 {
		actual := len(data) / 4
		if len(data)%4 != 0 {
			actual = -1
		}
		return nil, &DimensionError{Expected: dimension, Actual: actual}
	}
	v := make([]float32, dimension)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return v, nil
}

// EmbeddingFailure records one chunk that could not be embedded.
type EmbeddingFailure struct {
	ChunkID string
	Err     error
}

// BatchReport summarises a batch embedding run.
type BatchReport struct {
	// Requested is the number of chunks submitted.
	Requested int

	// Succeeded is the number of embeddings stored.
	Succeeded int

	// Failures lists every chunk that failed, with its error.
	Failures []EmbeddingFailure
}

// Failed returns the number of failed items.
func (r BatchReport) Failed() int {
	return len(r.Failures)
}

// ConnectionStatus is the result of an embedding provider health check.
type ConnectionStatus struct {
	// OK is true when the probe embedding succeeded.
	OK bool

	// Model is the configured embedding model.
	Model string

	// Dimension is the length of the probe vector (0 on failure).
	Dimension int

	// ProbeText is the fixed string that was embedded.
	ProbeText string

	// Error holds the provider message on failure.
	Error string
}

// Status returns "success" or "error".
func (c ConnectionStatus) Status() string {
	if c.OK {
		return "success"
	}
	return "error"
}
