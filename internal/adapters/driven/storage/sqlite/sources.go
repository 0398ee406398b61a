package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// ==================== Source Store ====================

// sourceStore implements driven.SourceStore.
type sourceStore struct {
	store *Store
}

var _ driven.SourceStore = (*sourceStore)(nil)

// SaveContainer stores or updates a container.
func (s *sourceStore) SaveContainer(ctx context.Context, container domain.Container) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO containers (id, name, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name
	`, container.ID, container.Name, container.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving container: %w", err)
	}
	return nil
}

// GetContainerByName returns the container with the given name.
func (s *sourceStore) GetContainerByName(ctx context.Context, name string) (*domain.Container, error) {
	var c domain.Container
	err := s.store.db.QueryRowContext(ctx,
		"SELECT id, name, created_at FROM containers WHERE name = ?", name).
		Scan(&c.ID, &c.Name, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting container: %w", err)
	}
	return &c, nil
}

// SaveConversation stores or updates a conversation.
func (s *sourceStore) SaveConversation(ctx context.Context, conv domain.Conversation) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO conversations (id, title, container_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			container_id = excluded.container_id,
			updated_at = excluded.updated_at
	`, conv.ID, conv.Title, conv.ContainerID, conv.CreatedAt, conv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving conversation: %w", err)
	}
	return nil
}

// GetConversation retrieves a conversation by ID.
func (s *sourceStore) GetConversation(ctx context.Context, id string) (*domain.Conversation, error) {
	var conv domain.Conversation
	var containerID sql.NullString

	err := s.store.db.QueryRowContext(ctx, `
		SELECT id, title, container_id, created_at, updated_at
		FROM conversations WHERE id = ?
	`, id).Scan(&conv.ID, &conv.Title, &containerID, &conv.CreatedAt, &conv.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting conversation: %w", err)
	}

	if containerID.Valid {
		conv.ContainerID = &containerID.String
	}
	return &conv, nil
}

// SaveMessages appends messages to a conversation.
func (s *sourceStore) SaveMessages(ctx context.Context, messages []domain.Message) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO messages (id, conversation_id, role, content, position, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, m := range messages {
		if _, err := stmt.ExecContext(ctx, m.ID, m.ConversationID, m.Role, m.Content,
			m.Position, m.CreatedAt); err != nil {
			return fmt.Errorf("saving message: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ListMessages returns a conversation's messages ordered by position.
func (s *sourceStore) ListMessages(ctx context.Context, conversationID string) ([]domain.Message, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, conversation_id, role, content, position, created_at
		FROM messages WHERE conversation_id = ?
		ORDER BY position, created_at
	`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.Message //nolint:prealloc // size unknown from query
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content,
			&m.Position, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		messages = append(messages, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating messages: %w", err)
	}
	return messages, nil
}

// SaveDocument stores or updates a document.
func (s *sourceStore) SaveDocument(ctx context.Context, doc domain.Document) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO documents (id, title, content, file_type, container_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			file_type = excluded.file_type,
			container_id = excluded.container_id,
			updated_at = excluded.updated_at
	`, doc.ID, doc.Title, doc.Content, doc.FileType, doc.ContainerID, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *sourceStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	var doc domain.Document
	var containerID sql.NullString

	err := s.store.db.QueryRowContext(ctx, `
		SELECT id, title, content, file_type, container_id, created_at, updated_at
		FROM documents WHERE id = ?
	`, id).Scan(&doc.ID, &doc.Title, &doc.Content, &doc.FileType, &containerID,
		&doc.CreatedAt, &doc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting document: %w", err)
	}

	if containerID.Valid {
		doc.ContainerID = &containerID.String
	}
	return &doc, nil
}

// DeleteSource removes a conversation (with its messages) or a document.
func (s *sourceStore) DeleteSource(ctx context.Context, sourceID string, kind domain.SourceKind) error {
	table, err := sourceTable(kind)
	if err != nil {
		return err
	}

	res, err := s.store.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", sourceID)
	if err != nil {
		return fmt.Errorf("deleting %s: %w", kind, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// TextUnits returns a source's ordered text units.
func (s *sourceStore) TextUnits(ctx context.Context, sourceID string, kind domain.SourceKind) ([]domain.TextUnit, error) {
	switch kind {
	case domain.SourceKindConversation:
		if _, err := s.GetConversation(ctx, sourceID); err != nil {
			return nil, err
		}
		messages, err := s.ListMessages(ctx, sourceID)
		if err != nil {
			return nil, err
		}
		units := make([]domain.TextUnit, 0, len(messages))
		for _, m := range messages {
			units = append(units, domain.TextUnit{Text: m.Content, Label: m.Role})
		}
		return units, nil

	case domain.SourceKindDocument:
		doc, err := s.GetDocument(ctx, sourceID)
		if err != nil {
			return nil, err
		}
		return []domain.TextUnit{{Text: doc.Content, Label: doc.FileType}}, nil

	default:
		return nil, fmt.Errorf("%w: unknown source kind %q", domain.ErrInvalidInput, kind)
	}
}

// SourceContext returns a source's title and container label.
func (s *sourceStore) SourceContext(ctx context.Context, sourceID string,
	kind domain.SourceKind) (domain.SourceContext, error) {
	table, err := sourceTable(kind)
	if err != nil {
		return domain.SourceContext{}, err
	}

	fileType := "''"
	if kind == domain.SourceKindDocument {
		fileType = "src.file_type"
	}

	var sc domain.SourceContext
	err = s.store.db.QueryRowContext(ctx, `
		SELECT src.title, COALESCE(ct.name, '`+domain.RootContainerLabel+`'), `+fileType+`
		FROM `+table+` src
		LEFT JOIN containers ct ON ct.id = src.container_id
		WHERE src.id = ?
	`, sourceID).Scan(&sc.Title, &sc.ContainerLabel, &sc.FileType)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.SourceContext{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.SourceContext{}, fmt.Errorf("getting source context: %w", err)
	}
	return sc, nil
}

// ListSourceIDs returns the IDs of every source of the kind, oldest first.
func (s *sourceStore) ListSourceIDs(ctx context.Context, kind domain.SourceKind) ([]string, error) {
	table, err := sourceTable(kind)
	if err != nil {
		return nil, err
	}

	rows, err := s.store.db.QueryContext(ctx, "SELECT id FROM "+table+" ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("querying %s ids: %w", kind, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ids: %w", err)
	}
	return ids, nil
}

// sourceTable maps a kind to its table. Only fixed names are returned.
func sourceTable(kind domain.SourceKind) (string, error) {
	switch kind {
	case domain.SourceKindConversation:
		return "conversations", nil
	case domain.SourceKindDocument:
		return "documents", nil
	default:
		return "", fmt.Errorf("%w: unknown source kind %q", domain.ErrInvalidInput, kind)
	}
}
