package driven

import (
	"context"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// SourceReader gives the chunker read access to source text.
type SourceReader interface {
	// TextUnits returns a source's ordered text units: one per message for
	// conversations, a single unit for documents.
	// Returns domain.ErrNotFound for an unknown source.
	TextUnits(ctx context.Context, sourceID string, kind domain.SourceKind) ([]domain.TextUnit, error)

	// SourceContext returns a source's title and container label.
	SourceContext(ctx context.Context, sourceID string, kind domain.SourceKind) (domain.SourceContext, error)

	// ListSourceIDs returns the IDs of every source of the kind, oldest first.
	ListSourceIDs(ctx context.Context, kind domain.SourceKind) ([]string, error)
}

// SourceStore persists conversations, messages, documents and containers.
type SourceStore interface {
	SourceReader

	// SaveContainer stores or updates a container.
	SaveContainer(ctx context.Context, container domain.Container) error

	// GetContainerByName returns the container with the given name.
	GetContainerByName(ctx context.Context, name string) (*domain.Container, error)

	// SaveConversation stores or updates a conversation.
	SaveConversation(ctx context.Context, conv domain.Conversation) error

	// GetConversation retrieves a conversation by ID.
	GetConversation(ctx context.Context, id string) (*domain.Conversation, error)

	// SaveMessages appends messages to a conversation.
	SaveMessages(ctx context.Context, messages []domain.Message) error

	// ListMessages returns a conversation's messages ordered by position.
	ListMessages(ctx context.Context, conversationID string) ([]domain.Message, error)

	// SaveDocument stores or updates a document.
	SaveDocument(ctx context.Context, doc domain.Document) error

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// DeleteSource removes a conversation (with its messages) or a document.
	DeleteSource(ctx context.Context, sourceID string, kind domain.SourceKind) error
}
