package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
	"github.com/custodia-labs/recall/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService stores conversations and documents and keeps their chunks
// and lexical entries in step with the source.
type IngestService struct {
	sources  driven.SourceStore
	chunks   driven.ChunkStore
	lexical  driven.LexicalIndex
	chunking driving.ChunkingService
	formats  driven.NormaliserRegistry
	now      func() time.Time
}

// IngestOption configures an IngestService.
type IngestOption func(*IngestService)

// WithNormalisers enables ImportDocument with the given registry.
func WithNormalisers(reg driven.NormaliserRegistry) IngestOption {
	return func(s *IngestService) {
		s.formats = reg
	}
}

// NewIngestService creates a new ingest service.
// The lexical parameter is optional (can be nil).
func NewIngestService(
	sources driven.SourceStore,
	chunks driven.ChunkStore,
	lexical driven.LexicalIndex,
	chunking driving.ChunkingService,
	opts ...IngestOption,
) *IngestService {
	s := &IngestService{
		sources:  sources,
		chunks:   chunks,
		lexical:  lexical,
		chunking: chunking,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddConversation stores a conversation with its messages and chunks it.
// Blank messages are dropped; at least one message must remain.
func (s *IngestService) AddConversation(
	ctx context.Context, in driving.NewConversation,
) (*domain.Conversation, []domain.Chunk, error) {
	var kept []driving.NewMessage
	for _, m := range in.Messages {
		if strings.TrimSpace(m.Content) != "" {
			kept = append(kept, m)
		}
	}
	if len(kept) == 0 {
		return nil, nil, fmt.Errorf("%w: conversation has no messages", domain.ErrInvalidInput)
	}

	containerID, err := s.container(ctx, in.Folder)
	if err != nil {
		return nil, nil, err
	}

	now := s.now()
	conv := domain.Conversation{
		ID:          uuid.New().String(),
		Title:       titleOr(in.Title, "Untitled conversation"),
		ContainerID: containerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.sources.SaveConversation(ctx, conv); err != nil {
		return nil, nil, fmt.Errorf("save conversation: %w", err)
	}

	messages := make([]domain.Message, len(kept))
	for i, m := range kept {
		role := strings.TrimSpace(m.Role)
		if role == "" {
			role = "user"
		}
		messages[i] = domain.Message{
			ID:             uuid.New().String(),
			ConversationID: conv.ID,
			Role:           role,
			Content:        m.Content,
			Position:       i,
			CreatedAt:      now,
		}
	}
	if err := s.sources.SaveMessages(ctx, messages); err != nil {
		return nil, nil, fmt.Errorf("save messages: %w", err)
	}

	chunks, err := s.chunking.ChunkSource(ctx, conv.ID, domain.SourceKindConversation)
	if err != nil {
		return &conv, nil, fmt.Errorf("chunk conversation %s: %w", conv.ID, err)
	}
	logger.Info("Added conversation %q (%d messages, %d chunks)", conv.Title, len(messages), len(chunks))
	return &conv, chunks, nil
}

// AddDocument stores a document and chunks it.
func (s *IngestService) AddDocument(
	ctx context.Context, in driving.NewDocument,
) (*domain.Document, []domain.Chunk, error) {
	if strings.TrimSpace(in.Content) == "" {
		return nil, nil, fmt.Errorf("%w: document content is empty", domain.ErrInvalidInput)
	}

	containerID, err := s.container(ctx, in.Folder)
	if err != nil {
		return nil, nil, err
	}

	now := s.now()
	doc := domain.Document{
		ID:          uuid.New().String(),
		Title:       titleOr(in.Title, "Untitled document"),
		Content:     in.Content,
		FileType:    normaliseFileType(in.FileType),
		ContainerID: containerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.sources.SaveDocument(ctx, doc); err != nil {
		return nil, nil, fmt.Errorf("save document: %w", err)
	}

	chunks, err := s.chunking.ChunkSource(ctx, doc.ID, domain.SourceKindDocument)
	if err != nil {
		return &doc, nil, fmt.Errorf("chunk document %s: %w", doc.ID, err)
	}
	logger.Info("Added document %q (%d chunks)", doc.Title, len(chunks))
	return &doc, chunks, nil
}

// ImportDocument normalises a file to text and adds it as a document.
// The file type comes from in.FileType or, failing that, the name's extension.
func (s *IngestService) ImportDocument(
	ctx context.Context, in driving.ImportDocument,
) (*domain.Document, []domain.Chunk, error) {
	if s.formats == nil {
		return nil, nil, fmt.Errorf("%w: document import is not configured", domain.ErrInvalidInput)
	}

	fileType := normaliseFileType(in.FileType)
	if fileType == "" {
		fileType = normaliseFileType(filepath.Ext(in.Name))
	}

	result, err := s.formats.Normalise(ctx, &domain.RawDocument{
		Name:     in.Name,
		FileType: fileType,
		Content:  in.Content,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("import %s: %w", in.Name, err)
	}

	title := in.Title
	if strings.TrimSpace(title) == "" {
		title = result.Title
	}
	return s.AddDocument(ctx, driving.NewDocument{
		Title:    title,
		Folder:   in.Folder,
		FileType: fileType,
		Content:  result.Content,
	})
}

// RenameSource changes a source's title and refreshes its lexical entries.
func (s *IngestService) RenameSource(ctx context.Context, sourceID string, kind domain.SourceKind, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}
	return s.update(ctx, sourceID, kind, func(t *string, _ **string) { *t = title })
}

// MoveSource puts a source in a folder, creating the folder when needed.
// An empty folder moves the source to the root.
func (s *IngestService) MoveSource(ctx context.Context, sourceID string, kind domain.SourceKind, folder string) error {
	containerID, err := s.container(ctx, folder)
	if err != nil {
		return err
	}
	return s.update(ctx, sourceID, kind, func(_ *string, c **string) { *c = containerID })
}

// DeleteSource removes a source together with its chunks, their embeddings
// and their lexical entries.
func (s *IngestService) DeleteSource(ctx context.Context, sourceID string, kind domain.SourceKind) error {
	if !kind.IsValid() {
		return fmt.Errorf("%w: unknown source kind %q", domain.ErrInvalidInput, kind)
	}
	removed, err := s.chunks.DeleteChunks(ctx, sourceID, kind)
	if err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	if err := s.sources.DeleteSource(ctx, sourceID, kind); err != nil {
		return fmt.Errorf("delete %s %s: %w", kind, sourceID, err)
	}
	logger.Debug("Deleted %s %s and %d chunks", kind, sourceID, removed)
	return nil
}

// update applies a title or container change to a source and reindexes it.
func (s *IngestService) update(
	ctx context.Context, sourceID string, kind domain.SourceKind, apply func(title *string, container **string),
) error {
	switch kind {
	case domain.SourceKindConversation:
		conv, err := s.sources.GetConversation(ctx, sourceID)
		if err != nil {
			return fmt.Errorf("get conversation %s: %w", sourceID, err)
		}
		apply(&conv.Title, &conv.ContainerID)
		conv.UpdatedAt = s.now()
		if err := s.sources.SaveConversation(ctx, *conv); err != nil {
			return fmt.Errorf("save conversation: %w", err)
		}
	case domain.SourceKindDocument:
		doc, err := s.sources.GetDocument(ctx, sourceID)
		if err != nil {
			return fmt.Errorf("get document %s: %w", sourceID, err)
		}
		apply(&doc.Title, &doc.ContainerID)
		doc.UpdatedAt = s.now()
		if err := s.sources.SaveDocument(ctx, *doc); err != nil {
			return fmt.Errorf("save document: %w", err)
		}
	default:
		return fmt.Errorf("%w: unknown source kind %q", domain.ErrInvalidInput, kind)
	}

	return s.reindex(ctx, sourceID, kind)
}

// reindex refreshes the denormalised title and container of a source's
// lexical entries. A lexical index that was never set up has nothing to refresh.
func (s *IngestService) reindex(ctx context.Context, sourceID string, kind domain.SourceKind) error {
	if s.lexical == nil {
		return nil
	}
	n, err := s.lexical.ReindexSource(ctx, sourceID, kind)
	if errors.Is(err, domain.ErrIndexUnavailable) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reindex %s %s: %w", kind, sourceID, err)
	}
	logger.Debug("Reindexed %d lexical entries for %s %s", n, kind, sourceID)
	return nil
}

// container resolves a folder name to a container ID, creating the folder
// if it does not exist. Empty and "Root" mean no container.
func (s *IngestService) container(ctx context.Context, folder string) (*string, error) {
	folder = strings.TrimSpace(folder)
	if folder == "" || folder == domain.RootContainerLabel {
		return nil, nil
	}

	existing, err := s.sources.GetContainerByName(ctx, folder)
	if err == nil {
		return &existing.ID, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get folder %q: %w", folder, err)
	}

	c := domain.Container{ID: uuid.New().String(), Name: folder, CreatedAt: s.now()}
	if err := s.sources.SaveContainer(ctx, c); err != nil {
		return nil, fmt.Errorf("save folder %q: %w", folder, err)
	}
	return &c.ID, nil
}

func titleOr(title, fallback string) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	return fallback
}

// normaliseFileType lowercases a file type and drops a leading dot.
func normaliseFileType(ft string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ft)), ".")
}
