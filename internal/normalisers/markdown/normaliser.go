// Package markdown provides a Normaliser for Markdown documents.
package markdown

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles Markdown documents.
type Normaliser struct{}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// FileTypes returns the file types this normaliser handles.
func (n *Normaliser) FileTypes() []string {
	return []string{"md", "markdown", "mdx"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Format normaliser, higher than plaintext
}

// Normalise converts a markdown document to plain text.
// The title is the first H1 heading, or the file name.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	rawContent := string(raw.Content)

	return &driven.NormaliseResult{
		Title:   extractMarkdownTitle(rawContent, raw.Name),
		Content: stripMarkdown(rawContent),
	}, nil
}

// extractMarkdownTitle extracts a title from the markdown content or falls back to filename.
func extractMarkdownTitle(content, name string) string {
	// Try to find first H1 heading (# Title)
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "#"))
		}
	}
	return titleFromName(name)
}

// Pre-compiled regular expressions for markdown stripping.
var (
	codeFence    = regexp.MustCompile("(?s)```[^\\n]*\\n(.*?)```")
	inlineCode   = regexp.MustCompile("`([^`]+)`")
	images       = regexp.MustCompile(`!\[([^\]]*)\]\([^)]+\)`)
	links        = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headings     = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	emphasis     = regexp.MustCompile(`(\*{1,3}|_{1,3})([^*_\n]+)(\*{1,3}|_{1,3})`)
	blockquote   = regexp.MustCompile(`(?m)^>\s?`)
	hr           = regexp.MustCompile(`(?m)^\s*([-*_]\s*){3,}$`)
	listMarkers  = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	numberedList = regexp.MustCompile(`(?m)^\s*\d+\.\s+`)
	multiNewline = regexp.MustCompile(`\n{3,}`)
)

// stripMarkdown removes common markdown formatting for plain text content.
// Code blocks keep their contents since they are often what users search for.
func stripMarkdown(content string) string {
	content = codeFence.ReplaceAllString(content, "$1")
	content = inlineCode.ReplaceAllString(content, "$1")
	content = images.ReplaceAllString(content, "$1")
	content = links.ReplaceAllString(content, "$1")
	content = headings.ReplaceAllString(content, "")
	content = hr.ReplaceAllString(content, "")
	content = emphasis.ReplaceAllString(content, "$2")
	content = blockquote.ReplaceAllString(content, "")
	content = listMarkers.ReplaceAllString(content, "")
	content = numberedList.ReplaceAllString(content, "")
	content = multiNewline.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}

// titleFromName turns "trip-notes_v2.md" into "trip notes v2".
func titleFromName(name string) string {
	if name == "" {
		return ""
	}
	filename := filepath.Base(name)
	filename = strings.TrimSuffix(filename, filepath.Ext(filename))
	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")
	return filename
}
