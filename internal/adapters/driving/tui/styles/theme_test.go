package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTheme(t *testing.T) {
	theme := DefaultTheme()

	require.NotNil(t, theme)
	for name, c := range map[string]lipgloss.Color{
		"primary":  theme.Primary,
		"text":     theme.Text,
		"error":    theme.Error,
		"keyword":  theme.Keyword,
		"semantic": theme.Semantic,
	} {
		assert.NotEmpty(t, string(c), name)
	}
}

func TestDefaultTheme_SignalColoursDiffer(t *testing.T) {
	theme := DefaultTheme()

	assert.NotEqual(t, theme.Keyword, theme.Semantic)
	assert.NotEqual(t, theme.Primary, theme.Error)
}

func TestNewStyles_NilTheme(t *testing.T) {
	s := NewStyles(nil)

	require.NotNil(t, s)
	assert.Equal(t, DefaultTheme(), s.Theme())
}

func TestStyles_Render(t *testing.T) {
	s := DefaultStyles()

	assert.Contains(t, s.Title.Render("recall"), "recall")
	assert.Contains(t, s.Badge.Render("hybrid"), "hybrid")
	assert.Contains(t, s.KeywordScore.Render("bm25 1.00"), "bm25 1.00")
}
