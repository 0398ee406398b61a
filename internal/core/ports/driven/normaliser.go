package driven

import (
	"context"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// AnyFileType is returned by fallback normalisers from FileTypes.
const AnyFileType = "*"

// Normaliser extracts plain text from an uploaded document.
// Each normaliser handles specific file types (e.g., docx, md).
type Normaliser interface {
	// FileTypes returns the file types this normaliser handles.
	// AnyFileType marks a fallback.
	FileTypes() []string

	// Priority returns the selection priority (higher = preferred).
	// Format normalisers should return 50-89.
	// Fallback normalisers should return 1-9.
	Priority() int

	// Normalise extracts the title and text of a raw document.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)
}

// NormaliseResult contains the output of normalisation.
// Chunking happens later, when the document is stored.
type NormaliseResult struct {
	// Title is taken from the document itself or its file name.
	Title string

	// Content is the extracted plain text.
	Content string
}
