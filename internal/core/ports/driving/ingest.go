package driving

import (
	"context"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// NewConversation describes a conversation to ingest.
type NewConversation struct {
	Title    string
	Folder   string
	Messages []NewMessage
}

// NewMessage is one turn of a conversation.
type NewMessage struct {
	Role    string
	Content string
}

// NewDocument describes a document to ingest.
type NewDocument struct {
	Title    string
	Folder   string
	FileType string
	Content  string
}

// ImportDocument is a file to extract text from before it is stored.
type ImportDocument struct {
	// Name is the file name, used for the title fallback and file type.
	Name string
	// Title overrides the title found in the content.
	Title    string
	Folder   string
	FileType string
	Content  []byte
}

// IngestService stores sources and keeps their chunks current.
type IngestService interface {
	// AddConversation stores a conversation and chunks it.
	AddConversation(ctx context.Context, conv NewConversation) (*domain.Conversation, []domain.Chunk, error)

	// AddDocument stores a document and chunks it.
	AddDocument(ctx context.Context, doc NewDocument) (*domain.Document, []domain.Chunk, error)

	// ImportDocument extracts text from a file (markdown, html, docx or
	// plain text) and adds it as a document.
	ImportDocument(ctx context.Context, doc ImportDocument) (*domain.Document, []domain.Chunk, error)

	// RenameSource changes a source's title and reindexes its lexical entries.
	RenameSource(ctx context.Context, sourceID string, kind domain.SourceKind, title string) error

	// MoveSource puts a source in a folder (root when folder is empty)
	// and reindexes its lexical entries.
	MoveSource(ctx context.Context, sourceID string, kind domain.SourceKind, folder string) error

	// DeleteSource removes a source together with its chunks.
	DeleteSource(ctx context.Context, sourceID string, kind domain.SourceKind) error
}
