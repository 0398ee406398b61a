package domain

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEncodeVector_LittleEndian tests the byte layout
func TestEncodeVector_LittleEndian(t *testing.T) {
	blob := EncodeVector([]float32{1.0})

	// 1.0 is 0x3F800000
	assert.Equal(t, []byte{0x00, 0x00, 0x80, 0x3F}, blob)
}

// TestEncodeDecode_RoundTrip tests bit-exact round trips over random vectors
func TestEncodeDecode_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for _, dim := range []int{0, 1, 3, 384, 1536} {
		v := make([]float32, dim)
		for i := range v {
			v[i] = float32(rng.NormFloat64() * 10)
		}

		blob := EncodeVector(v)
		require.Len(t, blob, dim*4)

		got, err := DecodeVector(blob, dim)
		require.NoError(t, err)
		require.Len(t, got, dim)
		for i := range v {
			assert.Equal(t, math.Float32bits(v[i]), math.Float32bits(got[i]))
		}
	}
}

// TestEncodeDecode_SpecialValues tests that NaN, infinities and negative zero survive
func TestEncodeDecode_SpecialValues(t *testing.T) {
	v := []float32{
		float32(math.Inf(1)),
		float32(math.Inf(-1)),
		float32(math.NaN()),
		float32(math.Copysign(0, -1)),
		math.MaxFloat32,
		math.SmallestNonzeroFloat32,
	}

	got, err := DecodeVector(EncodeVector(v), len(v))
	require.NoError(t, err)
	for i := range v {
		assert.Equal(t, math.Float32bits(v[i]), math.Float32bits(got[i]), "index %d", i)
	}
}

// TestDecodeVector_DimensionMismatch tests that wrong lengths are rejected
func TestDecodeVector_DimensionMismatch(t *testing.T) {
	blob := EncodeVector([]float32{1, 2, 3})

	_, err := DecodeVector(blob, 4)
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = DecodeVector(blob, 2)
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = DecodeVector(blob[:5], 1)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

// TestEmbedding_Validate tests the declared-dimension invariant
func TestEmbedding_Validate(t *testing.T) {
	ok := Embedding{ChunkID: "c1", Vector: []float32{1, 2}, Dimension: 2}
	assert.NoError(t, ok.Validate())

	bad := Embedding{ChunkID: "c1", Vector: []float32{1, 2}, Dimension: 3}
	assert.ErrorIs(t, bad.Validate(), ErrDimensionMismatch)
}

// TestBatchReport_Failed tests failure counting
func TestBatchReport_Failed(t *testing.T) {
	r := BatchReport{Requested: 3, Succeeded: 2, Failures: []EmbeddingFailure{{ChunkID: "x"}}}
	assert.Equal(t, 1, r.Failed())
}

// TestConnectionStatus_Status tests status strings
func TestConnectionStatus_Status(t *testing.T) {
	assert.Equal(t, "success", ConnectionStatus{OK: true}.Status())
	assert.Equal(t, "error", ConnectionStatus{}.Status())
}
