// Package result provides the view that shows one search result in full.
package result

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/recall/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/recall/internal/core/domain"
)

// headerLines is the number of lines drawn above the content.
const headerLines = 3

// View shows a chunk's source, location, scores and wrapped content.
type View struct {
	styles *styles.Styles

	result       *domain.SearchResult
	scrollOffset int
	width        int
	height       int
}

// NewView creates a new result view.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles: s,
		width:  80,
		height: 24,
	}
}

// SetResult sets the result to display.
func (v *View) SetResult(result domain.SearchResult) {
	v.result = &result
	v.scrollOffset = 0
}

// Result returns the displayed result, or nil.
func (v *View) Result() *domain.SearchResult {
	return v.result
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles messages for the result view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
	case tea.KeyMsg:
		return v.handleKeyMsg(msg)
	}
	return v, nil
}

// handleKeyMsg handles key presses.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.scrollOffset > 0 {
			v.scrollOffset--
		}
	case "down", "j":
		if v.scrollOffset < v.maxScrollOffset() {
			v.scrollOffset++
		}
	case "g":
		v.scrollOffset = 0
	case "G":
		v.scrollOffset = v.maxScrollOffset()
	case "esc", "q":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewSearch}
		}
	}
	return v, nil
}

// visibleLines returns the number of lines that can be displayed.
func (v *View) visibleLines() int {
	// Reserve lines for the header, separator, scroll indicator and help.
	return max(v.height-headerLines-len(v.fields())-5, 1)
}

// maxScrollOffset returns the maximum scroll offset.
func (v *View) maxScrollOffset() int {
	return max(len(v.contentLines())-v.visibleLines(), 0)
}

// fields lists the labelled metadata of the result.
func (v *View) fields() [][2]string {
	if v.result == nil {
		return nil
	}
	r := v.result
	fields := [][2]string{
		{"Source", fmt.Sprintf("%s (%s %s)", r.SourceTitle, r.SourceKind, r.SourceID)},
		{"Folder", r.ContainerLabel},
		{"Chunk", fmt.Sprintf("#%d  %s", r.SequenceIndex, r.ChunkID)},
	}
	switch {
	case r.FileType != "":
		fields = append(fields, [2]string{"File type", r.FileType})
	case r.OriginLabel != "":
		fields = append(fields, [2]string{"Role", r.OriginLabel})
	}
	fields = append(fields, [2]string{"Score", v.scores()})
	return fields
}

// scores formats every score the result carries.
func (v *View) scores() string {
	r := v.result
	var parts []string
	if r.HybridScore != nil {
		parts = append(parts, fmt.Sprintf("hybrid %.4f", *r.HybridScore))
	}
	if r.BM25Score != nil {
		parts = append(parts, v.styles.KeywordScore.Render(fmt.Sprintf("bm25 %.4f", *r.BM25Score)))
	}
	if r.CosineScore != nil {
		parts = append(parts, v.styles.SemanticScore.Render(fmt.Sprintf("cosine %.4f", *r.CosineScore)))
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, "  ")
}

// contentLines wraps the chunk content to the view width.
func (v *View) contentLines() []string {
	if v.result == nil {
		return nil
	}
	wrapped := lipgloss.NewStyle().Width(max(v.width-4, 20)).Render(v.result.Content)
	return strings.Split(wrapped, "\n")
}

// View renders the result view.
func (v *View) View() string {
	var b strings.Builder

	title := "Result"
	if v.result != nil && v.result.SourceTitle != "" {
		title = v.result.SourceTitle
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", min(max(v.width-4, 1), 60)))
	b.WriteString("\n\n")

	if v.result == nil {
		b.WriteString(v.styles.Muted.Render("No result selected"))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	for _, f := range v.fields() {
		b.WriteString(v.styles.Subtitle.Render(fmt.Sprintf("%-10s", f[0]+":")))
		b.WriteString(" ")
		b.WriteString(v.styles.Normal.Render(f[1]))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	lines := v.contentLines()
	visible := v.visibleLines()
	end := min(v.scrollOffset+visible, len(lines))
	for i := v.scrollOffset; i < end; i++ {
		b.WriteString(v.styles.Normal.Render(lines[i]))
		b.WriteString("\n")
	}

	if len(lines) > visible {
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [Line %d-%d of %d]",
			v.scrollOffset+1, end, len(lines))))
	}

	b.WriteString("\n\n")
	b.WriteString(v.renderHelp())
	return b.String()
}

// renderHelp renders the help footer.
func (v *View) renderHelp() string {
	return v.styles.Help.Render("[↑/↓] scroll  [g/G] top/bottom  [esc] back")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}

// ScrollOffset returns the first visible content line.
func (v *View) ScrollOffset() int {
	return v.scrollOffset
}
