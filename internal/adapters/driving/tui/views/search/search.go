// Package search provides the main search view for the TUI.
package search

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/recall/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
)

// kindFilters is the cycle order of the kind filter; empty means all kinds.
var kindFilters = []domain.SourceKind{"", domain.SourceKindConversation, domain.SourceKindDocument}

// View represents the search view with input, results list, and status bar.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.SearchInput
	list      *list.ResultList
	statusbar *status.Bar

	searchService driving.SearchService
	ctx           context.Context

	mode     domain.SearchMode
	kind     int
	semantic bool
	limit    int

	width      int
	height     int
	ready      bool
	err        error
	focusInput bool // true = input mode (typing), false = results mode (navigating)
}

// Option configures a View.
type Option func(*View)

// WithSemantic enables or disables the modes that need embeddings.
// With semantic disabled the view stays in keyword mode.
func WithSemantic(enabled bool) Option {
	return func(v *View) {
		v.semantic = enabled
	}
}

// WithLimit sets the number of results requested per search.
func WithLimit(limit int) Option {
	return func(v *View) {
		v.limit = limit
	}
}

// NewView creates a new search view.
func NewView(s *styles.Styles, km *keymap.KeyMap, searchService driving.SearchService, opts ...Option) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	v := &View{
		styles:        s,
		keymap:        km,
		input:         input.NewSearchInput(s),
		list:          list.NewResultList(s),
		statusbar:     status.NewBar(s, km),
		searchService: searchService,
		ctx:           context.Background(),
		mode:          domain.SearchModeHybrid,
		semantic:      true,
		width:         80,
		height:        24,
		focusInput:    true, // Start in input mode
	}
	for _, opt := range opts {
		opt(v)
	}
	if !v.semantic {
		v.mode = domain.SearchModeKeyword
	}
	v.syncBadges()
	return v
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the search view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.SearchCompleted:
		v.handleSearchCompleted(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// handleKeyMsg processes keyboard input.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	// Mode and kind switches work in both input and results mode.
	switch {
	case keymap.Matches(msg.String(), v.keymap.Mode):
		v.cycleMode()
		return v, v.rerun()
	case keymap.Matches(msg.String(), v.keymap.Kind):
		v.kind = (v.kind + 1) % len(kindFilters)
		v.syncBadges()
		return v, v.rerun()
	}

	if v.focusInput {
		return v.handleInputKey(msg)
	}
	return v.handleResultsKey(msg)
}

func (v *View) handleInputKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	//nolint:exhaustive // handling only relevant key types
	switch msg.Type {
	case tea.KeyEnter:
		query := strings.TrimSpace(v.input.Value())
		if query == "" {
			return v, nil
		}
		v.input.Remember(query)
		return v, v.performSearch(query)
	case tea.KeyUp:
		v.input.Previous()
		return v, nil
	case tea.KeyDown:
		v.input.Next()
		return v, nil
	case tea.KeyEsc:
		// Esc leaves the input for the results, or quits when there are none.
		if v.list.IsEmpty() {
			return v, func() tea.Msg { return messages.Quit{} }
		}
		v.focusResults()
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleResultsKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	key := msg.String()
	switch {
	case keymap.Matches(key, v.keymap.Open):
		if result := v.list.SelectedResult(); result != nil {
			selected := *result
			return v, func() tea.Msg { return messages.ResultSelected{Result: selected} }
		}
	case keymap.Matches(key, v.keymap.Up):
		v.list.MoveUp()
	case keymap.Matches(key, v.keymap.Down):
		v.list.MoveDown()
	case keymap.Matches(key, v.keymap.NewSearch):
		v.focusInput = true
		v.input.SetValue("")
		return v, v.input.Focus()
	case keymap.Matches(key, v.keymap.Back):
		v.focusInput = true
		return v, v.input.Focus()
	case keymap.Matches(key, v.keymap.Help):
		return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewHelp} }
	case keymap.Matches(key, v.keymap.Quit):
		return v, func() tea.Msg { return messages.Quit{} }
	}
	return v, nil
}

// cycleMode moves to the next search mode, skipping modes that need
// embeddings when semantic search is disabled.
func (v *View) cycleMode() {
	if !v.semantic {
		v.mode = domain.SearchModeKeyword
		v.statusbar.SetMessage("semantic search disabled: no embedding provider")
		return
	}
	switch v.mode {
	case domain.SearchModeHybrid:
		v.mode = domain.SearchModeKeyword
	case domain.SearchModeKeyword:
		v.mode = domain.SearchModeSemantic
	default:
		v.mode = domain.SearchModeHybrid
	}
	v.syncBadges()
}

// rerun repeats the current query after a mode or filter change.
func (v *View) rerun() tea.Cmd {
	query := strings.TrimSpace(v.input.Value())
	if query == "" || (v.list.IsEmpty() && v.focusInput) {
		return nil
	}
	return v.performSearch(query)
}

// performSearch executes a search and returns results.
func (v *View) performSearch(query string) tea.Cmd {
	v.statusbar.SetState(status.StateSearching)
	v.statusbar.SetMessage("")

	mode := v.mode
	opts := domain.SearchOptions{Kind: kindFilters[v.kind], Limit: v.limit}
	ctx := v.ctx
	svc := v.searchService

	return func() tea.Msg {
		if svc == nil {
			return messages.ErrorOccurred{Err: ErrNoSearchService}
		}
		results, err := svc.Search(ctx, query, mode, opts)
		return messages.SearchCompleted{Query: query, Mode: mode, Results: results, Err: err}
	}
}

// handleSearchCompleted processes search results.
func (v *View) handleSearchCompleted(msg messages.SearchCompleted) {
	if msg.Err != nil {
		v.setError(msg.Err)
		return
	}

	v.err = nil
	v.list.SetResults(msg.Results)
	v.statusbar.SetState(status.StateResults)
	v.statusbar.SetResultCount(len(msg.Results))
	v.focusResults()
}

func (v *View) setError(err error) {
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
}

func (v *View) focusResults() {
	v.focusInput = false
	v.input.Blur()
}

func (v *View) syncBadges() {
	v.input.SetLabel(strings.ToUpper(v.mode.String()[:1]) + v.mode.String()[1:])
	v.statusbar.SetMode(v.mode.String())
	v.statusbar.SetKind(kindFilters[v.kind].String())
}

// View renders the search view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 10)
	sections = append(sections,
		v.styles.Title.Render("recall"),
		v.styles.Muted.Render(v.mode.Description()),
		"",
		v.input.View(),
		"",
	)

	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}

	sections = append(sections, v.list.View(), "", v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.list.SetDimensions(width, height-10) // Reserve space for header, input, status
	v.statusbar.SetWidth(width)
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Mode returns the active search mode.
func (v *View) Mode() domain.SearchMode {
	return v.mode
}

// Kind returns the active kind filter; empty means all kinds.
func (v *View) Kind() domain.SourceKind {
	return kindFilters[v.kind]
}

// Query returns the current search query.
func (v *View) Query() string {
	return v.input.Value()
}

// SetQuery sets the search query.
func (v *View) SetQuery(query string) {
	v.input.SetValue(query)
}

// Results returns the current search results.
func (v *View) Results() []domain.SearchResult {
	return v.list.Results()
}

// SelectedIndex returns the index of the selected result.
func (v *View) SelectedIndex() int {
	return v.list.Selected()
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// InputFocused returns whether the input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}

// StatusMessage returns the message shown in the status bar.
func (v *View) StatusMessage() string {
	return v.statusbar.Message()
}
