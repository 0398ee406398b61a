// Package input provides text input components for the TUI.
package input

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/recall/internal/adapters/driving/tui/styles"
)

const (
	// maxQueryLength bounds the query a user can type.
	maxQueryLength = 512

	// maxHistory is the number of past queries kept.
	maxHistory = 50
)

// SearchInput is a labelled text input that remembers past queries.
type SearchInput struct {
	textinput textinput.Model
	styles    *styles.Styles
	label     string
	width     int

	// history is oldest first. cursor == len(history) means the user is
	// editing a fresh query, held in draft while browsing.
	history []string
	cursor  int
	draft   string
}

// NewSearchInput creates a new search input component.
func NewSearchInput(s *styles.Styles) *SearchInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.Placeholder = "Search conversations and documents..."
	ti.Focus()
	ti.CharLimit = maxQueryLength
	ti.Width = 50

	return &SearchInput{
		textinput: ti,
		styles:    s,
		label:     "Search",
		width:     50,
	}
}

// Init initialises the search input.
func (s *SearchInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles input messages.
func (s *SearchInput) Update(msg tea.Msg) (*SearchInput, tea.Cmd) {
	var cmd tea.Cmd
	s.textinput, cmd = s.textinput.Update(msg)
	return s, cmd
}

// View renders the search input.
func (s *SearchInput) View() string {
	label := s.styles.Title.Render(s.label + ": ")
	input := s.styles.InputField.Render(s.textinput.View())
	//nolint:misspell // lipgloss.Center is the correct constant from the library
	return lipgloss.JoinHorizontal(lipgloss.Center, label, input)
}

// SetLabel changes the label shown before the input.
func (s *SearchInput) SetLabel(label string) {
	s.label = label
}

// Label returns the current label.
func (s *SearchInput) Label() string {
	return s.label
}

// Value returns the current input value.
func (s *SearchInput) Value() string {
	return s.textinput.Value()
}

// SetValue sets the input value.
func (s *SearchInput) SetValue(value string) {
	s.textinput.SetValue(value)
}

// Focus sets focus on the input.
func (s *SearchInput) Focus() tea.Cmd {
	return s.textinput.Focus()
}

// Blur removes focus from the input.
func (s *SearchInput) Blur() {
	s.textinput.Blur()
}

// Focused returns whether the input is focused.
func (s *SearchInput) Focused() bool {
	return s.textinput.Focused()
}

// SetWidth sets the width of the input, leaving room for the label.
func (s *SearchInput) SetWidth(width int) {
	s.width = width
	s.textinput.Width = max(width-len(s.label)-8, 20)
}

// Width returns the current width.
func (s *SearchInput) Width() int {
	return s.width
}

// Reset clears the input.
func (s *SearchInput) Reset() {
	s.textinput.Reset()
	s.cursor = len(s.history)
	s.draft = ""
}

// Remember appends a submitted query to the history. Repeating the most
// recent query does not add an entry.
func (s *SearchInput) Remember(query string) {
	if query == "" {
		return
	}
	if n := len(s.history); n == 0 || s.history[n-1] != query {
		s.history = append(s.history, query)
		if len(s.history) > maxHistory {
			s.history = s.history[len(s.history)-maxHistory:]
		}
	}
	s.cursor = len(s.history)
	s.draft = ""
}

// Previous replaces the value with the previous query in the history.
// It reports whether the value changed.
func (s *SearchInput) Previous() bool {
	if s.cursor == 0 {
		return false
	}
	if s.cursor == len(s.history) {
		s.draft = s.textinput.Value()
	}
	s.cursor--
	s.showHistory()
	return true
}

// Next moves forward through the history, ending at the draft that was
// being typed before browsing started.
func (s *SearchInput) Next() bool {
	if s.cursor >= len(s.history) {
		return false
	}
	s.cursor++
	s.showHistory()
	return true
}

// History returns the remembered queries, oldest first.
func (s *SearchInput) History() []string {
	return append([]string(nil), s.history...)
}

func (s *SearchInput) showHistory() {
	value := s.draft
	if s.cursor < len(s.history) {
		value = s.history[s.cursor]
	}
	s.textinput.SetValue(value)
	s.textinput.CursorEnd()
}
