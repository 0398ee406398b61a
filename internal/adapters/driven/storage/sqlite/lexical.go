package sqlite

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// ==================== Lexical Index ====================

// lexicalTable is the FTS5 virtual table. Its rowid is chunks.seq.
const lexicalTable = "chunks_fts"

// createLexicalTable builds the FTS5 table. The context columns are indexed
// for ranking only; results read metadata from the live source tables.
const createLexicalTable = `
	CREATE VIRTUAL TABLE IF NOT EXISTS ` + lexicalTable + ` USING fts5(
		content,
		source_title,
		container_label,
		chunk_kind,
		tokenize = 'porter unicode61'
	)`

// lexicalEntrySelect produces FTS rows for chunks. Append a WHERE clause.
const lexicalEntrySelect = `
	INSERT INTO ` + lexicalTable + ` (rowid, content, source_title, container_label, chunk_kind)
	SELECT c.seq, c.content,
		COALESCE(conv.title, doc.title, '` + domain.UnknownSourceTitle + `'),
		COALESCE(ct.name, '` + domain.RootContainerLabel + `'),
		c.origin_label
	FROM chunks c` + chunkMetaJoins

// ftsTokenRe extracts the terms of a user query.
var ftsTokenRe = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// lexicalIndex implements driven.LexicalIndex over SQLite FTS5.
//
// Score convention: FTS5 bm25() returns a negative cost where more negative
// means a better match. Results expose BM25Score = -bm25(), so higher is
// more relevant, and fusion can add it with a positive weight.
type lexicalIndex struct {
	store *Store
}

var _ driven.LexicalIndex = (*lexicalIndex)(nil)

// Ensure creates the FTS5 table if missing and backfills it from stored chunks.
func (l *lexicalIndex) Ensure(ctx context.Context) (int, error) {
	tx, err := l.store.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	exists, err := lexicalTableExists(ctx, tx)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, tx.Commit()
	}

	if _, err := tx.ExecContext(ctx, createLexicalTable); err != nil {
		return 0, fmt.Errorf("creating lexical index: %w", err)
	}

	res, err := tx.ExecContext(ctx, lexicalEntrySelect+" ORDER BY c.seq")
	if err != nil {
		return 0, fmt.Errorf("backfilling lexical index: %w", err)
	}
	n, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}
	return int(n), nil
}

// Available reports whether the FTS5 table exists.
func (l *lexicalIndex) Available(ctx context.Context) (bool, error) {
	return lexicalTableExists(ctx, l.store.db)
}

// Index adds the entry for a stored chunk.
func (l *lexicalIndex) Index(ctx context.Context, chunk domain.Chunk) error {
	return l.inTx(ctx, func(q querier) error {
		return indexChunkTx(ctx, q, chunk.ID)
	})
}

// Remove deletes the entry for a chunk.
func (l *lexicalIndex) Remove(ctx context.Context, chunkID string) error {
	return l.inTx(ctx, func(q querier) error {
		return removeChunkTx(ctx, q, chunkID)
	})
}

// Reindex replaces the entry for a chunk.
func (l *lexicalIndex) Reindex(ctx context.Context, chunk domain.Chunk) error {
	return l.inTx(ctx, func(q querier) error {
		if err := removeChunkTx(ctx, q, chunk.ID); err != nil {
			return err
		}
		return indexChunkTx(ctx, q, chunk.ID)
	})
}

// ReindexSource refreshes every entry of a source.
func (l *lexicalIndex) ReindexSource(ctx context.Context, sourceID string, kind domain.SourceKind) (int, error) {
	var n int64
	err := l.inTx(ctx, func(q querier) error {
		if _, err := q.ExecContext(ctx, `
			DELETE FROM `+lexicalTable+`
			WHERE rowid IN (SELECT seq FROM chunks WHERE source_id = ? AND source_kind = ?)
		`, sourceID, string(kind)); err != nil {
			return fmt.Errorf("removing lexical entries: %w", err)
		}
		res, err := q.ExecContext(ctx,
			lexicalEntrySelect+" WHERE c.source_id = ? AND c.source_kind = ?", sourceID, string(kind))
		if err != nil {
			return fmt.Errorf("reindexing source: %w", err)
		}
		n, _ = res.RowsAffected()
		return nil
	})
	return int(n), err
}

// resultPrealloc bounds the capacity reserved up front for search hits.
const resultPrealloc = 64

// Search returns at most limit chunks of the kind matching any query term,
// best BM25 first, ties in chunk insertion order.
func (l *lexicalIndex) Search(ctx context.Context, query string, kind domain.SourceKind,
	limit int) ([]domain.SearchResult, error) {
	match := buildMatchQuery(query)
	if match == "" || limit <= 0 {
		return []domain.SearchResult{}, nil
	}

	rows, err := l.store.db.QueryContext(ctx, `
		SELECT `+chunkMetaColumns+`, bm25(`+lexicalTable+`) AS rank
		FROM `+lexicalTable+`
		JOIN chunks c ON c.seq = `+lexicalTable+`.rowid`+chunkMetaJoins+`
		WHERE `+lexicalTable+` MATCH ?
		  AND (? = '' OR c.source_kind = ?)
		ORDER BY rank ASC, c.seq ASC
		LIMIT ?
	`, match, string(kind), string(kind), limit)
	if err != nil {
		if isMissingTable(err) {
			return nil, domain.ErrIndexUnavailable
		}
		return nil, fmt.Errorf("searching lexical index: %w", err)
	}
	defer rows.Close()

	results := make([]domain.SearchResult, 0, min(limit, resultPrealloc))
	for rows.Next() {
		var rank float64
		r, err := scanResultMeta(rows.Scan, &rank)
		if err != nil {
			return nil, fmt.Errorf("scanning lexical hit: %w", err)
		}
		r.BM25Score = domain.Float64Ptr(-rank)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating lexical hits: %w", err)
	}
	return results, nil
}

// inTx runs fn in a transaction, failing with ErrIndexUnavailable when the
// FTS5 table has not been created.
func (l *lexicalIndex) inTx(ctx context.Context, fn func(q querier) error) error {
	tx, err := l.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	exists, err := lexicalTableExists(ctx, tx)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrIndexUnavailable
	}

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// indexChunkTx inserts the FTS row for a stored chunk.
func indexChunkTx(ctx context.Context, q querier, chunkID string) error {
	res, err := q.ExecContext(ctx, lexicalEntrySelect+" WHERE c.id = ?", chunkID)
	if err != nil {
		return fmt.Errorf("indexing chunk %s: %w", chunkID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("indexing chunk %s: %w", chunkID, domain.ErrNotFound)
	}
	return nil
}

// removeChunkTx deletes the FTS row for a chunk.
func removeChunkTx(ctx context.Context, q querier, chunkID string) error {
	_, err := q.ExecContext(ctx, `
		DELETE FROM `+lexicalTable+`
		WHERE rowid = (SELECT seq FROM chunks WHERE id = ?)
	`, chunkID)
	if err != nil {
		return fmt.Errorf("removing chunk %s from lexical index: %w", chunkID, err)
	}
	return nil
}

// lexicalTableExists checks sqlite_master for the FTS5 table.
func lexicalTableExists(ctx context.Context, q querier) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", lexicalTable).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking lexical index: %w", err)
	}
	return n > 0, nil
}

// isMissingTable recognises SQLite's "no such table" error.
func isMissingTable(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such table")
}

// buildMatchQuery quotes every term and joins them with OR, so user input
// never reaches FTS5 as query syntax.
func buildMatchQuery(raw string) string {
	tokens := ftsTokenRe.FindAllString(raw, -1)
	if len(tokens) == 0 {
		return ""
	}
	parts := make([]string, 0, len(tokens))
	for _, t := range tokens {
		parts = append(parts, `"`+t+`"`)
	}
	return strings.Join(parts, " OR ")
}
