package markdown

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

func TestFileTypes(t *testing.T) {
	types := New().FileTypes()
	assert.Contains(t, types, "md")
	assert.Contains(t, types, "markdown")
}

func TestPriority(t *testing.T) {
	assert.Equal(t, 50, New().Priority())
}

func TestNormalise_Success(t *testing.T) {
	raw := &domain.RawDocument{
		Name:     "notes.md",
		FileType: "md",
		Content:  []byte("# Trip Notes\n\nPack the **blue** tent and read [the guide](https://example.com)."),
	}

	result, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, "Trip Notes", result.Title)
	assert.Equal(t, "Trip Notes\n\nPack the blue tent and read the guide.", result.Content)
}

func TestNormalise_NilDocument(t *testing.T) {
	result, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, result)
}

func TestNormalise_TitleExtraction(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		file     string
		expected string
	}{
		{name: "h1 heading", content: "# Hello\nbody", file: "a.md", expected: "Hello"},
		{name: "h1 after preamble", content: "intro\n\n#  Spaced  \n", file: "a.md", expected: "Spaced"},
		{name: "h2 is not a title", content: "## Section\nbody", file: "my_notes.md", expected: "my notes"},
		{name: "filename fallback", content: "plain body", file: "dir/trip-plan_v2.markdown", expected: "trip plan v2"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			raw := &domain.RawDocument{Name: tc.file, Content: []byte(tc.content)}
			result, err := New().Normalise(context.Background(), raw)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, result.Title)
		})
	}
}

func TestStripMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "headings", input: "# One\n## Two", expected: "One\nTwo"},
		{name: "emphasis", input: "**bold** and _italic_", expected: "bold and italic"},
		{name: "links keep text", input: "see [docs](https://example.com)", expected: "see docs"},
		{name: "images keep alt", input: "![diagram](img.png)", expected: "diagram"},
		{name: "inline code", input: "run `make test` now", expected: "run make test now"},
		{name: "code fence keeps body", input: "```go\nfmt.Println()\n```", expected: "fmt.Println()"},
		{name: "bullet list", input: "- one\n* two\n+ three", expected: "one\ntwo\nthree"},
		{name: "numbered list", input: "1. first\n2. second", expected: "first\nsecond"},
		{name: "blockquote", input: "> quoted", expected: "quoted"},
		{name: "collapse blank lines", input: "a\n\n\n\nb", expected: "a\n\nb"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, stripMarkdown(tc.input))
		})
	}
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Normaliser = (*Normaliser)(nil)
}
