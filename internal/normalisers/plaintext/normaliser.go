package plaintext

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles plain text documents. It is registered for every file
// type at a low priority, so any UTF-8 file can be imported.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// FileTypes returns the file types this normaliser handles.
func (n *Normaliser) FileTypes() []string {
	return []string{"txt", "text", "log", "csv", "json", "yaml", "toml", driven.AnyFileType}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 5 // Fallback normaliser
}

// Normalise returns the content unchanged with a title derived from the name.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	if !utf8.Valid(raw.Content) {
		return nil, fmt.Errorf("%w: %s is not UTF-8 text", domain.ErrInvalidInput, raw.Name)
	}

	return &driven.NormaliseResult{
		Title:   extractTitle(raw.Name),
		Content: strings.TrimSpace(string(raw.Content)),
	}, nil
}

// extractTitle extracts a human-readable title from a file name.
func extractTitle(name string) string {
	if name == "" {
		return ""
	}
	// Get filename from path
	filename := filepath.Base(name)

	// Remove common extensions for cleaner title
	ext := filepath.Ext(filename)
	if ext != "" {
		filename = strings.TrimSuffix(filename, ext)
	}

	// Replace underscores and dashes with spaces
	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")

	return filename
}
