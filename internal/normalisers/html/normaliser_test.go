package html

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

func TestFileTypes(t *testing.T) {
	assert.ElementsMatch(t, []string{"html", "htm", "xhtml"}, New().FileTypes())
}

func TestPriority(t *testing.T) {
	assert.Equal(t, 50, New().Priority())
}

func TestNormalise_Success(t *testing.T) {
	raw := &domain.RawDocument{
		Name:     "page.html",
		FileType: "html",
		Content: []byte(`<html><head><title>Cat Care</title><style>p{}</style></head>
<body><h1>Feeding</h1><p>Cats purr &amp; nap.</p><script>track()</script></body></html>`),
	}

	result, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, "Cat Care", result.Title)
	assert.Equal(t, "Feeding\nCats purr & nap.", result.Content)
}

func TestNormalise_NilDocument(t *testing.T) {
	result, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, result)
}

func TestNormalise_TitleExtraction(t *testing.T) {
	tests := []struct {
		name          string
		content       string
		file          string
		expectedTitle string
	}{
		{
			name:          "title tag",
			content:       "<html><head><title>My Document</title></head><body></body></html>",
			file:          "doc.html",
			expectedTitle: "My Document",
		},
		{
			name:          "title with HTML entities",
			content:       "<title>Tom &amp; Jerry</title>",
			file:          "doc.html",
			expectedTitle: "Tom & Jerry",
		},
		{
			name:          "no title - fallback to filename",
			content:       "<html><body>Just content</body></html>",
			file:          "/tmp/my_document.html",
			expectedTitle: "my document",
		},
		{
			name:          "no title - first h1",
			content:       "<body><h1>Feeding  <em>cats</em></h1><h1>Second</h1></body>",
			file:          "doc.html",
			expectedTitle: "Feeding cats",
		},
		{
			name:          "empty title - fallback to filename",
			content:       "<title></title><body>Content</body>",
			file:          "readme.htm",
			expectedTitle: "readme",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			raw := &domain.RawDocument{Name: tc.file, FileType: "html", Content: []byte(tc.content)}
			result, err := New().Normalise(context.Background(), raw)
			require.NoError(t, err)
			assert.Equal(t, tc.expectedTitle, result.Title)
		})
	}
}

func TestParse_Text(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "nested tags", input: "<div><p><strong>Bold</strong> text</p></div>", expected: "Bold text"},
		{name: "script removed", input: "<p>Before</p><script>alert('x');</script><p>After</p>", expected: "Before\nAfter"},
		{name: "head removed", input: "<head><title>Title</title></head><body>Content</body>", expected: "Content"},
		{name: "br to newline", input: "Line 1<br>Line 2<br/>Line 3", expected: "Line 1\nLine 2\nLine 3"},
		{name: "entities decoded", input: "<p>&lt;tag&gt; &amp; &quot;q&quot;</p>", expected: "<tag> & \"q\""},
		{name: "comments removed", input: "<p>Before</p><!-- hidden --><p>After</p>", expected: "Before\nAfter"},
		{name: "list items", input: "<ul><li>Item 1</li><li>Item 2</li></ul>", expected: "Item 1\nItem 2"},
		{name: "svg removed", input: `<p>A</p><svg width="1"><circle/></svg><p>B</p>`, expected: "A\nB"},
		{name: "whitespace collapsed", input: "<p>  many \n\t spaces  </p>", expected: "many spaces"},
		{name: "source newlines are not breaks", input: "<p>one\ntwo</p>\n<p>three\r\nfour</p>", expected: "one two\nthree four"},
		{name: "inline spacing kept", input: "<p><em>a</em>\n<b>b</b></p>", expected: "a b"},
		{name: "table rows", input: "<table><tr><td>a</td><td>b</td></tr><tr><td>c</td></tr></table>", expected: "ab\nc"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, err := parse([]byte(tc.input))
			require.NoError(t, err)
			assert.Equal(t, tc.expected, p.text)
		})
	}
}

func TestTitleFromName(t *testing.T) {
	assert.Equal(t, "release notes v2", titleFromName("/docs/release_notes-v2.html"))
	assert.Equal(t, "", titleFromName(""))
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Normaliser = (*Normaliser)(nil)
}
