package driven

import (
	"context"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// NormaliserRegistry selects the appropriate normaliser for a document.
// It maintains a priority-ordered list of normalisers and dispatches
// based on file type.
type NormaliserRegistry interface {
	// Normalise transforms a raw document using the best matching normaliser.
	// Selection priority: highest Priority among file-type matches and fallbacks.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)

	// Register adds a normaliser to the registry.
	Register(normaliser Normaliser)

	// SupportedFileTypes returns all explicitly supported file types, sorted.
	SupportedFileTypes() []string
}
