package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/recall/internal/core/domain"
)

func saveChunks(t *testing.T, store *memory.ChunkStore, contents ...string) []domain.Chunk {
	t.Helper()
	chunks := make([]domain.Chunk, len(contents))
	for i, c := range contents {
		chunks[i] = domain.Chunk{
			ID: "chunk-" + string(rune('a'+i)), SourceID: "doc", SourceKind: domain.SourceKindDocument,
			Content: c, SequenceIndex: i,
		}
	}
	require.NoError(t, store.SaveChunks(context.Background(), chunks))
	return chunks
}

func TestEmbedChunks_StoresEveryVector(t *testing.T) {
	embedder := newVocabEmbedder("cats", "dogs")
	_, chunks, svc, _ := newMemoryServices(embedder, 2)
	stored := saveChunks(t, chunks, "cats", "dogs", "cats dogs")
	ctx := context.Background()

	report, err := svc.EmbedChunks(ctx, stored)

	require.NoError(t, err)
	assert.Equal(t, 3, report.Requested)
	assert.Equal(t, 3, report.Succeeded)
	assert.Zero(t, report.Failed())
	assert.Equal(t, 2, embedder.callCount()) // batches of 2 and 1

	e, err := chunks.GetEmbedding(ctx, "chunk-c", "vocab")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 1}, e.Vector)
	assert.Equal(t, 2, e.Dimension)
}

// TestEmbedChunks_BatchFallback tests that a failed batch is retried item by
// item so only the bad input fails.
func TestEmbedChunks_BatchFallback(t *testing.T) {
	embedder := newVocabEmbedder("cats", "dogs")
	embedder.batchErr = errors.New("batch rejected")
	embedder.failOn = "poison"
	_, chunks, svc, _ := newMemoryServices(embedder, 3)
	stored := saveChunks(t, chunks, "cats", "poison", "dogs", "cats again")

	report, err := svc.EmbedChunks(context.Background(), stored)

	require.NoError(t, err)
	assert.Equal(t, 4, report.Requested)
	assert.Equal(t, 3, report.Succeeded)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "chunk-b", report.Failures[0].ChunkID)
	assert.ErrorIs(t, report.Failures[0].Err, domain.ErrEmbeddingFailure)
	// One failed batch of 3 retried per item, then a single-item batch.
	assert.Equal(t, 1+3+1, embedder.callCount())
}

func TestEmbedChunks_Unavailable(t *testing.T) {
	_, _, svc, _ := newMemoryServices(nil, 4)

	_, err := svc.EmbedChunks(context.Background(), []domain.Chunk{{ID: "x"}})
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)

	_, err = svc.EmbedPending(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.False(t, svc.Available())
}

func TestEmbedChunks_CancelledContext(t *testing.T) {
	embedder := newVocabEmbedder("cats")
	_, chunks, svc, _ := newMemoryServices(embedder, 1)
	stored := saveChunks(t, chunks, "cats", "cats")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := svc.EmbedChunks(ctx, stored)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, report.Succeeded)
}

// TestEmbedPending_OnlyMissing tests that chunks already embedded are not resent.
func TestEmbedPending_OnlyMissing(t *testing.T) {
	embedder := newVocabEmbedder("cats", "dogs")
	_, chunks, svc, _ := newMemoryServices(embedder, 8)
	stored := saveChunks(t, chunks, "cats", "dogs")
	ctx := context.Background()
	_, err := svc.EmbedChunks(ctx, stored[:1])
	require.NoError(t, err)

	report, err := svc.EmbedPending(ctx, domain.SourceKindDocument)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Requested)

	report, err = svc.EmbedPending(ctx, "")
	require.NoError(t, err)
	assert.Zero(t, report.Requested)

	_, err = svc.EmbedPending(ctx, "folder")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestTestConnection(t *testing.T) {
	embedder := newVocabEmbedder("test", "other", "words")
	_, _, svc, _ := newMemoryServices(embedder, 8)

	status := svc.TestConnection(context.Background())

	assert.True(t, status.OK)
	assert.Equal(t, "success", status.Status())
	assert.Equal(t, "vocab", status.Model)
	assert.Equal(t, 3, status.Dimension)
	assert.Equal(t, "test", status.ProbeText)
	assert.Empty(t, status.Error)
}

func TestTestConnection_Failure(t *testing.T) {
	embedder := newVocabEmbedder("x")
	embedder.failOn = "test"
	_, _, svc, _ := newMemoryServices(embedder, 8)

	status := svc.TestConnection(context.Background())

	assert.False(t, status.OK)
	assert.Equal(t, "error", status.Status())
	assert.Contains(t, status.Error, "rejected input")
	assert.Zero(t, status.Dimension)

	_, _, unavailable, _ := newMemoryServices(nil, 8)
	status = unavailable.TestConnection(context.Background())
	assert.False(t, status.OK)
	assert.Equal(t, domain.ErrEmbeddingUnavailable.Error(), status.Error)
}
