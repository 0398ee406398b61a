package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// Ensure SourceStore implements the interface.
var _ driven.SourceStore = (*SourceStore)(nil)

// SourceStore is an in-memory implementation of driven.SourceStore.
type SourceStore struct {
	mu            sync.RWMutex
	containers    map[string]domain.Container
	conversations map[string]domain.Conversation
	messages      map[string][]domain.Message
	documents     map[string]domain.Document
}

// NewSourceStore creates a new in-memory source store.
func NewSourceStore() *SourceStore {
	return &SourceStore{
		containers:    make(map[string]domain.Container),
		conversations: make(map[string]domain.Conversation),
		messages:      make(map[string][]domain.Message),
		documents:     make(map[string]domain.Document),
	}
}

// SaveContainer stores or updates a container.
func (s *SourceStore) SaveContainer(_ context.Context, container domain.Container) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.containers[container.ID] = container
	return nil
}

// GetContainerByName returns the container with the given name.
func (s *SourceStore) GetContainerByName(_ context.Context, name string) (*domain.Container, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.containers {
		if c.Name == name {
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

// SaveConversation stores or updates a conversation.
func (s *SourceStore) SaveConversation(_ context.Context, conv domain.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[conv.ID] = conv
	return nil
}

// GetConversation retrieves a conversation by ID.
func (s *SourceStore) GetConversation(_ context.Context, id string) (*domain.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.conversations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &conv, nil
}

// SaveMessages appends messages to their conversations.
func (s *SourceStore) SaveMessages(_ context.Context, messages []domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range messages {
		if _, ok := s.conversations[m.ConversationID]; !ok {
			return fmt.Errorf("conversation %s: %w", m.ConversationID, domain.ErrNotFound)
		}
	}
	for _, m := range messages {
		s.messages[m.ConversationID] = append(s.messages[m.ConversationID], m)
	}
	return nil
}

// ListMessages returns a conversation's messages ordered by position.
func (s *SourceStore) ListMessages(_ context.Context, conversationID string) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]domain.Message(nil), s.messages[conversationID]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

// SaveDocument stores or updates a document.
func (s *SourceStore) SaveDocument(_ context.Context, doc domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = doc
	return nil
}

// GetDocument retrieves a document by ID.
func (s *SourceStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// DeleteSource removes a conversation (with its messages) or a document.
func (s *SourceStore) DeleteSource(_ context.Context, sourceID string, kind domain.SourceKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch kind {
	case domain.SourceKindConversation:
		if _, ok := s.conversations[sourceID]; !ok {
			return domain.ErrNotFound
		}
		delete(s.conversations, sourceID)
		delete(s.messages, sourceID)
	case domain.SourceKindDocument:
		if _, ok := s.documents[sourceID]; !ok {
			return domain.ErrNotFound
		}
		delete(s.documents, sourceID)
	default:
		return fmt.Errorf("%w: unknown source kind %q", domain.ErrInvalidInput, kind)
	}
	return nil
}

// TextUnits returns a source's ordered text units.
func (s *SourceStore) TextUnits(ctx context.Context, sourceID string, kind domain.SourceKind) ([]domain.TextUnit, error) {
	switch kind {
	case domain.SourceKindConversation:
		if _, err := s.GetConversation(ctx, sourceID); err != nil {
			return nil, err
		}
		messages, _ := s.ListMessages(ctx, sourceID)
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
func (s *SourceStore) SourceContext(_ context.Context, sourceID string,
	kind domain.SourceKind) (domain.SourceContext, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sc domain.SourceContext
	var containerID *string
	switch kind {
	case domain.SourceKindConversation:
		conv, ok := s.conversations[sourceID]
		if !ok {
			return sc, domain.ErrNotFound
		}
		sc.Title, containerID = conv.Title, conv.ContainerID
	case domain.SourceKindDocument:
		doc, ok := s.documents[sourceID]
		if !ok {
			return sc, domain.ErrNotFound
		}
		sc.Title, sc.FileType, containerID = doc.Title, doc.FileType, doc.ContainerID
	default:
		return sc, fmt.Errorf("%w: unknown source kind %q", domain.ErrInvalidInput, kind)
	}

	sc.ContainerLabel = domain.RootContainerLabel
	if containerID != nil {
		if c, ok := s.containers[*containerID]; ok {
			sc.ContainerLabel = c.Name
		}
	}
	return sc, nil
}

// ListSourceIDs returns the IDs of every source of the kind, oldest first.
func (s *SourceStore) ListSourceIDs(_ context.Context, kind domain.SourceKind) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type entry struct {
		id      string
		created int64
	}
	var entries []entry
	switch kind {
	case domain.SourceKindConversation:
		for id, c := range s.conversations {
			entries = append(entries, entry{id, c.CreatedAt.UnixNano()})
		}
	case domain.SourceKindDocument:
		for id, d := range s.documents {
			entries = append(entries, entry{id, d.CreatedAt.UnixNano()})
		}
	default:
		return nil, fmt.Errorf("%w: unknown source kind %q", domain.ErrInvalidInput, kind)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].created != entries[j].created {
			return entries[i].created < entries[j].created
		}
		return entries[i].id < entries[j].id
	})
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.id
	}
	return ids, nil
}
