// Package tui provides an interactive terminal search browser for recall.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/recall/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces used by the TUI.
type Ports struct {
	// Search runs queries in every mode.
	Search driving.SearchService

	// Embedding reports whether semantic search can run. Optional.
	Embedding driving.EmbeddingJobService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}
