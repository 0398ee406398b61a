package input

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSearchInput(t *testing.T) {
	si := NewSearchInput(nil)

	require.NotNil(t, si)
	assert.True(t, si.Focused())
	assert.Empty(t, si.Value())
	assert.Equal(t, "Search", si.Label())
}

func TestSearchInput_Typing(t *testing.T) {
	si := NewSearchInput(nil)

	si, _ = si.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("cats")})

	assert.Equal(t, "cats", si.Value())
}

func TestSearchInput_BlurIgnoresTyping(t *testing.T) {
	si := NewSearchInput(nil)
	si.Blur()

	si, _ = si.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})

	assert.False(t, si.Focused())
	assert.Empty(t, si.Value())
}

func TestSearchInput_Label(t *testing.T) {
	si := NewSearchInput(nil)
	si.SetLabel("Keyword")
	si.SetValue("tents")

	view := si.View()

	assert.Contains(t, view, "Keyword:")
	assert.Contains(t, view, "tents")
}

func TestSearchInput_SetWidth(t *testing.T) {
	si := NewSearchInput(nil)

	si.SetWidth(100)
	assert.Equal(t, 100, si.Width())
	assert.Equal(t, 100-len("Search")-8, si.textinput.Width)

	si.SetWidth(10)
	assert.Equal(t, 20, si.textinput.Width)
}

func TestSearchInput_Reset(t *testing.T) {
	si := NewSearchInput(nil)
	si.SetValue("query")

	si.Reset()

	assert.Empty(t, si.Value())
}

func TestSearchInput_History(t *testing.T) {
	t.Run("browse back and forward to the draft", func(t *testing.T) {
		si := NewSearchInput(nil)
		si.Remember("cats")
		si.Remember("dogs")
		si.SetValue("bi")

		assert.True(t, si.Previous())
		assert.Equal(t, "dogs", si.Value())
		assert.True(t, si.Previous())
		assert.Equal(t, "cats", si.Value())
		assert.False(t, si.Previous())

		assert.True(t, si.Next())
		assert.Equal(t, "dogs", si.Value())
		assert.True(t, si.Next())
		assert.Equal(t, "bi", si.Value())
		assert.False(t, si.Next())
	})

	t.Run("repeats and empty queries are not stored", func(t *testing.T) {
		si := NewSearchInput(nil)
		si.Remember("cats")
		si.Remember("cats")
		si.Remember("")

		assert.Equal(t, []string{"cats"}, si.History())
	})

	t.Run("history is bounded", func(t *testing.T) {
		si := NewSearchInput(nil)
		for i := range maxHistory + 5 {
			si.Remember(string(rune('a' + i%26)) + string(rune('0'+i/26)))
		}

		history := si.History()
		assert.Len(t, history, maxHistory)
		assert.Equal(t, "f0", history[0])
	})

	t.Run("empty history", func(t *testing.T) {
		si := NewSearchInput(nil)

		assert.False(t, si.Previous())
		assert.False(t, si.Next())
	})
}
