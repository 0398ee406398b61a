package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/recall/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// dbFileName is the database file created inside the data directory.
const dbFileName = "recall.db"

// Store is a unified SQLite-based storage that provides access to
// all store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.recall/data/recall.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".recall", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFileName)

	// WAL for concurrent readers; foreign keys per connection so cascades
	// hold on every pooled connection.
	db, err := sql.Open("sqlite",
		dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// SourceStore returns a SourceStore interface backed by this store.
func (s *Store) SourceStore() driven.SourceStore {
	return &sourceStore{store: s}
}

// ChunkStore returns a ChunkStore interface backed by this store.
func (s *Store) ChunkStore() driven.ChunkStore {
	return &chunkStore{store: s}
}

// EmbeddingStore returns an EmbeddingStore interface backed by this store.
func (s *Store) EmbeddingStore() driven.EmbeddingStore {
	return &embeddingStore{store: s}
}

// LexicalIndex returns the FTS5-backed LexicalIndex.
func (s *Store) LexicalIndex() driven.LexicalIndex {
	return &lexicalIndex{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if err := s.applyMigration(version, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// applyMigration executes one migration and records its version atomically.
func (s *Store) applyMigration(version int, script string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(script); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return err
	}
	return tx.Commit()
}

// SchemaVersion returns the highest applied migration version.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	err := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return v, nil
}

// ==================== Helper Functions ====================

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// chunkMetaColumns selects a chunk with its live source metadata.
// Use together with chunkMetaJoins.
const chunkMetaColumns = `
	c.id, c.content, c.source_id, c.source_kind, c.sequence_index, c.origin_label,
	COALESCE(conv.title, doc.title, '` + domain.UnknownSourceTitle + `'),
	COALESCE(ct.name, '` + domain.RootContainerLabel + `'),
	COALESCE(doc.file_type, '')`

// chunkMetaJoins resolves a chunk's source and container.
const chunkMetaJoins = `
	LEFT JOIN conversations conv ON c.source_kind = 'conversation' AND conv.id = c.source_id
	LEFT JOIN documents doc ON c.source_kind = 'document' AND doc.id = c.source_id
	LEFT JOIN containers ct ON ct.id = COALESCE(conv.container_id, doc.container_id)`

// scanResultMeta scans chunkMetaColumns (plus any trailing destinations) into a result.
func scanResultMeta(scan func(dest ...any) error, extra ...any) (domain.SearchResult, error) {
	var r domain.SearchResult
	var kind string
	dest := append([]any{
		&r.ChunkID, &r.Content, &r.SourceID, &kind, &r.SequenceIndex, &r.OriginLabel,
		&r.SourceTitle, &r.ContainerLabel, &r.FileType,
	}, extra...)
	if err := scan(dest...); err != nil {
		return r, err
	}
	r.SourceKind = domain.SourceKind(kind)
	return r, nil
}

// scanChunk scans a chunk from *sql.Rows.
func scanChunk(rows *sql.Rows) (*domain.Chunk, error) {
	var chunk domain.Chunk
	var kind string

	if err := rows.Scan(&chunk.ID, &chunk.SourceID, &kind, &chunk.Content,
		&chunk.SequenceIndex, &chunk.OriginLabel, &chunk.CreatedAt); err != nil {
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}
	chunk.SourceKind = domain.SourceKind(kind)

	return &chunk, nil
}

// scanChunkRow scans a chunk from *sql.Row.
func scanChunkRow(row *sql.Row) (*domain.Chunk, error) {
	var chunk domain.Chunk
	var kind string

	if err := row.Scan(&chunk.ID, &chunk.SourceID, &kind, &chunk.Content,
		&chunk.SequenceIndex, &chunk.OriginLabel, &chunk.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}
	chunk.SourceKind = domain.SourceKind(kind)

	return &chunk, nil
}

// decodeStoredVector decodes a blob without truncation or padding.
// A blob that is not a whole number of float32 values yields nil.
func decodeStoredVector(blob []byte) []float32 {
	if len(blob)%4 != 0 {
		return nil
	}
	v, err := domain.DecodeVector(blob, len(blob)/4)
	if err != nil {
		return nil
	}
	return v
}

// placeholders returns "?, ?, ..." for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
