package domain

import (
	"fmt"
	"time"
)

// SourceKind identifies which kind of source a chunk was cut from.
type SourceKind string

// Available source kinds.
const (
	// SourceKindConversation is a chat conversation made of ordered messages.
	SourceKindConversation SourceKind = "conversation"

	// SourceKindDocument is a single uploaded document.
	SourceKindDocument SourceKind = "document"
)

// IsValid returns true if the kind is recognised.
func (k SourceKind) IsValid() bool {
	return k == SourceKindConversation || k == SourceKindDocument
}

// String returns the string representation.
func (k SourceKind) String() string {
	return string(k)
}

// ParseSourceKind converts a user supplied string into a SourceKind.
func ParseSourceKind(s string) (SourceKind, error) {
	k := SourceKind(s)
	if !k.IsValid() {
		return "", fmt.Errorf("%w: unknown source kind %q", ErrInvalidInput, s)
	}
	return k, nil
}

// AllSourceKinds returns every source kind.
func AllSourceKinds() []SourceKind {
	return []SourceKind{SourceKindConversation, SourceKindDocument}
}

// RootContainerLabel is reported for sources that do not belong to a container.
const RootContainerLabel = "Root"

// UnknownSourceTitle is reported when a chunk's source can no longer be found.
const UnknownSourceTitle = "Unknown"

// Container groups sources, similar to a folder.
type Container struct {
	// ID is the unique identifier for the container.
	ID string

	// Name is the display label.
	Name string

	// CreatedAt is when the container was created.
	CreatedAt time.Time
}

// Conversation is a titled sequence of messages.
type Conversation struct {
	// ID is the unique identifier for the conversation.
	ID string

	// Title is the human-readable title.
	Title string

	// ContainerID is the optional owning container.
	ContainerID *string

	// CreatedAt is when the conversation was started.
	CreatedAt time.Time

	// UpdatedAt is when the conversation was last changed.
	UpdatedAt time.Time
}

// Message is one turn in a conversation.
type Message struct {
	// ID is the unique identifier for the message.
	ID string

	// ConversationID links to the owning conversation.
	ConversationID string

	// Role is the speaker (user, assistant, system).
	Role string

	// Content is the message text.
	Content string

	// Position orders messages within the conversation.
	Position int

	// CreatedAt is when the message was written.
	CreatedAt time.Time
}

// TextUnit is an ordered piece of source text handed to the chunker.
// Conversations yield one unit per message; documents yield a single unit.
type TextUnit struct {
	// Text is the raw text to split.
	Text string

	// Label tags every chunk cut from this unit (message role or file type).
	Label string
}

// SourceContext is the denormalized context attached to a source's chunks.
type SourceContext struct {
	// Title is the source title, or UnknownSourceTitle.
	Title string

	// ContainerLabel is the container name, or RootContainerLabel.
	ContainerLabel string

	// FileType is set for documents.
	FileType string
}
