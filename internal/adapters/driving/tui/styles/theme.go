// Package styles provides colour themes and styling for the TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme defines the colour palette for the TUI.
type Theme struct {
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Text      lipgloss.Color
	Muted     lipgloss.Color
	Success   lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
	Border    lipgloss.Color
	Bar       lipgloss.Color

	// Keyword and Semantic colour the per-signal score badges.
	Keyword  lipgloss.Color
	Semantic lipgloss.Color
}

// DefaultTheme returns the default colour theme.
func DefaultTheme() *Theme {
	return &Theme{
		Primary:   lipgloss.Color("#2563EB"), // Blue
		Secondary: lipgloss.Color("#14B8A6"), // Teal
		Text:      lipgloss.Color("#E5E7EB"),
		Muted:     lipgloss.Color("#6B7280"),
		Success:   lipgloss.Color("#22C55E"),
		Warning:   lipgloss.Color("#EAB308"),
		Error:     lipgloss.Color("#EF4444"),
		Border:    lipgloss.Color("#374151"),
		Bar:       lipgloss.Color("#111827"),
		Keyword:   lipgloss.Color("#F97316"), // Orange
		Semantic:  lipgloss.Color("#A855F7"), // Violet
	}
}

// Styles contains pre-configured lipgloss styles.
type Styles struct {
	theme *Theme

	Title      lipgloss.Style
	Subtitle   lipgloss.Style
	Normal     lipgloss.Style
	Muted      lipgloss.Style
	Selected   lipgloss.Style
	Error      lipgloss.Style
	Success    lipgloss.Style
	Warning    lipgloss.Style
	InputField lipgloss.Style
	StatusBar  lipgloss.Style
	Help       lipgloss.Style
	Border     lipgloss.Style

	// KeywordScore and SemanticScore render the BM25 and cosine badges.
	KeywordScore  lipgloss.Style
	SemanticScore lipgloss.Style

	// Badge renders the active search mode and kind filter.
	Badge lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	return &Styles{
		theme: theme,

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Primary),

		Subtitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Secondary),

		Normal: lipgloss.NewStyle().
			Foreground(theme.Text),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Selected: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Text).
			Background(theme.Primary),

		Error: lipgloss.NewStyle().
			Foreground(theme.Error),

		Success: lipgloss.NewStyle().
			Foreground(theme.Success),

		Warning: lipgloss.NewStyle().
			Foreground(theme.Warning),

		InputField: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),

		StatusBar: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Background(theme.Bar).
			Padding(0, 1),

		Help: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Border: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border),

		KeywordScore: lipgloss.NewStyle().
			Foreground(theme.Keyword),

		SemanticScore: lipgloss.NewStyle().
			Foreground(theme.Semantic),

		Badge: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Bar).
			Background(theme.Secondary).
			Padding(0, 1),
	}
}

// DefaultStyles returns styles with the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the theme used by these styles.
func (s *Styles) Theme() *Theme {
	return s.theme
}
