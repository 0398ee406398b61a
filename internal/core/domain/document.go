package domain

import "time"

// Document represents an uploaded document.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Title is the human-readable title.
	Title string

	// Content is the full text content before chunking.
	Content string

	// FileType is the original file extension or MIME shorthand (pdf, md, txt).
	FileType string

	// ContainerID is the optional owning container.
	ContainerID *string

	// CreatedAt is when the document was uploaded.
	CreatedAt time.Time

	// UpdatedAt is when the document was last updated.
	UpdatedAt time.Time
}

// Chunk represents a searchable unit cut from a source.
// A chunk is immutable once embedded; the only update path is re-chunking its source.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// SourceID links to the conversation or document the chunk was cut from.
	// The chunk does not own its source.
	SourceID string

	// SourceKind says whether SourceID is a conversation or a document.
	SourceKind SourceKind

	// Content is the text content of this chunk.
	Content string

	// SequenceIndex orders chunks within their source, starting at 0.
	SequenceIndex int

	// OriginLabel is the originating unit's label (message role for conversations).
	OriginLabel string

	// CreatedAt is when the chunk was stored.
	CreatedAt time.Time
}

// ChunkFailure records a source that could not be chunked.
type ChunkFailure struct {
	SourceID string
	Err      error
}

// ChunkReport summarises a chunk-all run.
type ChunkReport struct {
	// Processed is the number of sources chunked.
	Processed int

	// Chunks is the total number of chunks produced.
	Chunks int

	// Skipped is the number of sources that already had chunks.
	Skipped int

	// Failed lists sources that errored.
	Failed []ChunkFailure
}
