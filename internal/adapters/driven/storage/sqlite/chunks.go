package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// ==================== Chunk Store ====================

// chunkStore implements driven.ChunkStore.
type chunkStore struct {
	store *Store
}

var _ driven.ChunkStore = (*chunkStore)(nil)

const chunkColumns = "id, source_id, source_kind, content, sequence_index, origin_label, created_at"

// SaveChunks stores chunks and their lexical entries in one transaction.
func (s *chunkStore) SaveChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	indexed, err := lexicalTableExists(ctx, tx)
	if err != nil {
		return err
	}
	if err := insertChunksTx(ctx, tx, indexed, chunks); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetChunk retrieves a chunk by ID.
func (s *chunkStore) GetChunk(ctx context.Context, id string) (*domain.Chunk, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT "+chunkColumns+" FROM chunks WHERE id = ?", id)
	return scanChunkRow(row)
}

// GetChunks retrieves a source's chunks ordered by sequence index.
func (s *chunkStore) GetChunks(ctx context.Context, sourceID string, kind domain.SourceKind) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+chunkColumns+`
		FROM chunks WHERE source_id = ? AND source_kind = ?
		ORDER BY sequence_index
	`, sourceID, string(kind))
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	return collectChunks(rows)
}

// CountChunks returns how many chunks a source has.
func (s *chunkStore) CountChunks(ctx context.Context, sourceID string, kind domain.SourceKind) (int, error) {
	var n int
	err := s.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM chunks WHERE source_id = ? AND source_kind = ?",
		sourceID, string(kind)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// DeleteChunks removes a source's chunks together with their lexical entries.
// Embeddings go with them through ON DELETE CASCADE.
func (s *chunkStore) DeleteChunks(ctx context.Context, sourceID string, kind domain.SourceKind) (int, error) {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	indexed, err := lexicalTableExists(ctx, tx)
	if err != nil {
		return 0, err
	}
	n, err := deleteChunksTx(ctx, tx, indexed, sourceID, kind)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}
	return n, nil
}

// ReplaceChunks deletes a source's chunks and saves the new set in one
// transaction. A failed insert leaves the old chunks in place.
func (s *chunkStore) ReplaceChunks(ctx context.Context, sourceID string, kind domain.SourceKind, chunks []domain.Chunk) (int, error) {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	indexed, err := lexicalTableExists(ctx, tx)
	if err != nil {
		return 0, err
	}
	removed, err := deleteChunksTx(ctx, tx, indexed, sourceID, kind)
	if err != nil {
		return 0, err
	}
	if err := insertChunksTx(ctx, tx, indexed, chunks); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}
	return removed, nil
}

func insertChunksTx(ctx context.Context, tx *sql.Tx, indexed bool, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (`+chunkColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		createdAt := chunk.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}
		if _, err := stmt.ExecContext(ctx, chunk.ID, chunk.SourceID, string(chunk.SourceKind),
			chunk.Content, chunk.SequenceIndex, chunk.OriginLabel, createdAt); err != nil {
			return fmt.Errorf("saving chunk %s: %w", chunk.ID, err)
		}
		if indexed {
			if err := indexChunkTx(ctx, tx, chunk.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

func deleteChunksTx(ctx context.Context, tx *sql.Tx, indexed bool, sourceID string, kind domain.SourceKind) (int, error) {
	if indexed {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM `+lexicalTable+`
			WHERE rowid IN (SELECT seq FROM chunks WHERE source_id = ? AND source_kind = ?)
		`, sourceID, string(kind)); err != nil {
			return 0, fmt.Errorf("removing lexical entries: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx,
		"DELETE FROM chunks WHERE source_id = ? AND source_kind = ?", sourceID, string(kind))
	if err != nil {
		return 0, fmt.Errorf("deleting chunks: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted chunks: %w", err)
	}
	return int(n), nil
}

// ListUnembedded returns chunks of the kind with no embedding for the model.
func (s *chunkStore) ListUnembedded(ctx context.Context, kind domain.SourceKind, model string) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+chunkColumns+`
		FROM chunks c
		WHERE (? = '' OR c.source_kind = ?)
		  AND NOT EXISTS (
			SELECT 1 FROM chunk_embeddings e
			WHERE e.chunk_id = c.id AND e.model_name = ?
		  )
		ORDER BY c.seq
	`, string(kind), string(kind), model)
	if err != nil {
		return nil, fmt.Errorf("querying unembedded chunks: %w", err)
	}
	defer rows.Close()

	return collectChunks(rows)
}

// DescribeChunks returns content and source metadata for the given chunk IDs.
func (s *chunkStore) DescribeChunks(ctx context.Context, ids []string) (map[string]domain.SearchResult, error) {
	out := make(map[string]domain.SearchResult, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+chunkMetaColumns+`
		FROM chunks c`+chunkMetaJoins+`
		WHERE c.id IN (`+placeholders(len(ids))+`)
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("describing chunks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		r, err := scanResultMeta(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning chunk metadata: %w", err)
		}
		out[r.ChunkID] = r
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunk metadata: %w", err)
	}
	return out, nil
}

func collectChunks(rows *sql.Rows) ([]domain.Chunk, error) {
	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, *chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return chunks, nil
}

// ==================== Embedding Store ====================

// embeddingStore implements driven.EmbeddingStore.
type embeddingStore struct {
	store *Store
}

var _ driven.EmbeddingStore = (*embeddingStore)(nil)

// SaveEmbedding stores or replaces the embedding for (chunk, model).
func (s *embeddingStore) SaveEmbedding(ctx context.Context, e domain.Embedding) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("embedding for chunk %s: %w", e.ChunkID, err)
	}

	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO chunk_embeddings (chunk_id, model_name, dimension, vector, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(chunk_id, model_name) DO UPDATE SET
			dimension = excluded.dimension,
			vector = excluded.vector,
			created_at = excluded.created_at
	`, e.ChunkID, e.ModelName, e.Dimension, domain.EncodeVector(e.Vector), createdAt)
	if err != nil {
		return fmt.Errorf("saving embedding: %w", err)
	}
	return nil
}

// GetEmbedding retrieves the embedding for a chunk under a model.
// A stored blob that disagrees with its declared dimension is a DimensionError.
func (s *embeddingStore) GetEmbedding(ctx context.Context, chunkID, model string) (*domain.Embedding, error) {
	var e domain.Embedding
	var blob []byte

	err := s.store.db.QueryRowContext(ctx, `
		SELECT chunk_id, model_name, dimension, vector, created_at
		FROM chunk_embeddings WHERE chunk_id = ? AND model_name = ?
	`, chunkID, model).Scan(&e.ChunkID, &e.ModelName, &e.Dimension, &blob, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting embedding: %w", err)
	}

	e.Vector, err = domain.DecodeVector(blob, e.Dimension)
	if err != nil {
		return nil, fmt.Errorf("decoding embedding for chunk %s: %w", chunkID, err)
	}
	return &e, nil
}

// ListEmbeddings returns every embedding for the model, in chunk insertion order.
func (s *embeddingStore) ListEmbeddings(ctx context.Context, model string) ([]driven.IndexedEmbedding, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT e.chunk_id, e.model_name, e.dimension, e.vector, e.created_at, c.source_kind
		FROM chunk_embeddings e
		JOIN chunks c ON c.id = e.chunk_id
		WHERE e.model_name = ?
		ORDER BY c.seq
	`, model)
	if err != nil {
		return nil, fmt.Errorf("querying embeddings: %w", err)
	}
	defer rows.Close()

	var out []driven.IndexedEmbedding //nolint:prealloc // size unknown from query
	for rows.Next() {
		var ie driven.IndexedEmbedding
		var blob []byte
		var kind string
		if err := rows.Scan(&ie.ChunkID, &ie.ModelName, &ie.Dimension, &blob,
			&ie.CreatedAt, &kind); err != nil {
			return nil, fmt.Errorf("scanning embedding: %w", err)
		}
		ie.Vector = decodeStoredVector(blob)
		ie.Kind = domain.SourceKind(kind)
		out = append(out, ie)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating embeddings: %w", err)
	}
	return out, nil
}

// CountEmbeddings returns how many embeddings exist for the model.
func (s *embeddingStore) CountEmbeddings(ctx context.Context, model string) (int, error) {
	var n int
	err := s.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM chunk_embeddings WHERE model_name = ?", model).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting embeddings: %w", err)
	}
	return n, nil
}
