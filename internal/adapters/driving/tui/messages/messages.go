// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/recall/internal/core/domain"
)

// SearchCompleted carries search results back to the model.
type SearchCompleted struct {
	Query   string
	Mode    domain.SearchMode
	Results []domain.SearchResult
	Err     error
}

// ResultSelected is sent when a result is opened for reading.
type ResultSelected struct {
	Result domain.SearchResult
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewSearch is the search input and results view.
	ViewSearch ViewType = iota
	// ViewResult shows one chunk with its source and scores.
	ViewResult
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewSearch:
		return "search"
	case ViewResult:
		return "result"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
