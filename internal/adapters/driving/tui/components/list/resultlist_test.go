package list

import (
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall/internal/core/domain"
)

func testResults(n int) []domain.SearchResult {
	results := make([]domain.SearchResult, n)
	for i := range results {
		results[i] = domain.SearchResult{
			ChunkID:        fmt.Sprintf("chunk-%d", i),
			Content:        fmt.Sprintf("content of chunk %d", i),
			SourceID:       fmt.Sprintf("doc-%d", i),
			SourceKind:     domain.SourceKindDocument,
			SourceTitle:    fmt.Sprintf("Document %d", i),
			ContainerLabel: domain.RootContainerLabel,
			BM25Score:      domain.Float64Ptr(1.5),
		}
	}
	return results
}

func TestResultList_Empty(t *testing.T) {
	rl := NewResultList(nil)

	assert.True(t, rl.IsEmpty())
	assert.Nil(t, rl.SelectedResult())
	assert.Contains(t, rl.View(), "No results")
}

func TestResultList_Navigation(t *testing.T) {
	rl := NewResultList(nil)
	rl.SetResults(testResults(3))

	rl.MoveUp()
	assert.Equal(t, 0, rl.Selected())

	rl, _ = rl.Update(tea.KeyMsg{Type: tea.KeyDown})
	rl, _ = rl.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	rl, _ = rl.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	assert.Equal(t, 2, rl.Selected())

	rl, _ = rl.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("k")})
	require.NotNil(t, rl.SelectedResult())
	assert.Equal(t, "chunk-1", rl.SelectedResult().ChunkID)

	rl.SetSelected(10)
	assert.Equal(t, 1, rl.Selected())

	rl.SetResults(testResults(2))
	assert.Equal(t, 0, rl.Selected())
}

func TestResultList_View(t *testing.T) {
	rl := NewResultList(nil)
	rl.SetDimensions(100, 20)
	results := testResults(1)
	results[0].SourceKind = domain.SourceKindConversation
	results[0].ContainerLabel = "Travel"
	results[0].SequenceIndex = 4
	results[0].HybridScore = domain.Float64Ptr(0.75)
	results[0].CosineScore = domain.Float64Ptr(0.5)
	rl.SetResults(results)

	view := rl.View()

	assert.Contains(t, view, "Results (1)")
	assert.Contains(t, view, "> Document 0")
	assert.Contains(t, view, "0.750")
	assert.Contains(t, view, "Travel / conversation #4")
	assert.Contains(t, view, "bm25 1.50")
	assert.Contains(t, view, "cos 0.50")
	assert.Contains(t, view, "content of chunk 0")
}

func TestResultList_ViewScrollsToSelection(t *testing.T) {
	rl := NewResultList(nil)
	rl.SetDimensions(80, 2+linesPerResult*2) // two results visible
	rl.SetResults(testResults(5))
	rl.SetSelected(4)

	view := rl.View()

	assert.Contains(t, view, "Document 4")
	assert.Contains(t, view, "Document 3")
	assert.NotContains(t, view, "Document 0")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "héllo w...", truncate("héllo wörld again", 10))
	assert.Equal(t, "ab", truncate("abcdef", 2))
}
