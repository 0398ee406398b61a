package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall/internal/core/domain"
)

func TestEmbedPendingCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.embedding.report = &domain.BatchReport{
		Requested: 4,
		Succeeded: 3,
		Failures:  []domain.EmbeddingFailure{{ChunkID: "chunk-9", Err: errors.New("too long")}},
	}

	out, err := runCmd(nil, "embed", "pending", "--type", "conversation")

	require.NoError(t, err)
	assert.Equal(t, domain.SourceKindConversation, ts.embedding.lastKind)
	assert.Contains(t, out, "Embedded 3 of 4 chunks.")
	assert.Contains(t, out, "chunk-9: too long")
}

func TestEmbedPendingCmd_Unavailable(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.embedding.err = domain.ErrEmbeddingUnavailable

	_, err := runCmd(nil, "embed", "pending")

	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.Equal(t, domain.SourceKind(""), ts.embedding.lastKind)
}

func TestPingCmd(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()
		ts.embedding.status = domain.ConnectionStatus{OK: true, Model: "text-embedding-3-small", Dimension: 1536}

		out, err := runCmd(nil, "ping")

		require.NoError(t, err)
		assert.Contains(t, out, "model text-embedding-3-small, dimension 1536")
	})

	t.Run("failure", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()
		ts.embedding.status = domain.ConnectionStatus{Model: "m", Error: "401 unauthorized"}

		_, err := runCmd(nil, "ping")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "401 unauthorized")
	})
}
