package driven

import (
	"context"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// Splitter cuts source text into overlapping chunks.
type Splitter interface {
	// Name returns the splitter name for logging.
	Name() string

	// Split cuts one text into trimmed, non-empty windows.
	// Text no longer than the chunk size is returned unchanged as a single window.
	Split(text string) []string

	// Process splits a source's ordered text units into chunks. Sequence
	// indices run across all units of the source starting at 0, and every
	// chunk carries its unit's label.
	Process(ctx context.Context, sourceID string, kind domain.SourceKind, units []domain.TextUnit) ([]domain.Chunk, error)
}
