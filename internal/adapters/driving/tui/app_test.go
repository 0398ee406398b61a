package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/recall/internal/core/domain"
)

// mockSearchService implements driving.SearchService for testing.
type mockSearchService struct {
	results []domain.SearchResult
	err     error
}

func (m *mockSearchService) Search(
	_ context.Context, _ string, _ domain.SearchMode, _ domain.SearchOptions,
) ([]domain.SearchResult, error) {
	return m.results, m.err
}

func (m *mockSearchService) HybridSearch(
	ctx context.Context, query string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	return m.Search(ctx, query, domain.SearchModeHybrid, opts)
}

func (m *mockSearchService) KeywordSearch(
	ctx context.Context, query string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	return m.Search(ctx, query, domain.SearchModeKeyword, opts)
}

func (m *mockSearchService) SemanticSearch(
	ctx context.Context, query string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	return m.Search(ctx, query, domain.SearchModeSemantic, opts)
}

func (m *mockSearchService) SearchAll(
	_ context.Context, _ string, _ int, _ domain.SearchScope,
) (map[domain.SourceKind][]domain.SearchResult, error) {
	return nil, nil
}

func (m *mockSearchService) RebuildVectorIndex(_ context.Context) (*domain.IndexStats, error) {
	return &domain.IndexStats{}, nil
}

func (m *mockSearchService) SetupLexicalIndex(_ context.Context) (int, error) { return 0, nil }

func (m *mockSearchService) IndexStats() *domain.IndexStats { return nil }

// mockEmbeddingService implements driving.EmbeddingJobService for testing.
type mockEmbeddingService struct {
	available bool
}

func (m *mockEmbeddingService) EmbedChunks(_ context.Context, _ []domain.Chunk) (*domain.BatchReport, error) {
	return &domain.BatchReport{}, nil
}

func (m *mockEmbeddingService) EmbedPending(_ context.Context, _ domain.SourceKind) (*domain.BatchReport, error) {
	return &domain.BatchReport{}, nil
}

func (m *mockEmbeddingService) TestConnection(_ context.Context) domain.ConnectionStatus {
	return domain.ConnectionStatus{}
}

func (m *mockEmbeddingService) Available() bool { return m.available }

func newTestApp(t *testing.T, ports *Ports) *App {
	t.Helper()
	app, err := NewApp(context.Background(), ports)
	require.NoError(t, err)
	app.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return app
}

// run feeds msg to the app and then every message its command produces.
func run(app *App, msg tea.Msg) {
	for msg != nil {
		_, cmd := app.Update(msg)
		if cmd == nil {
			return
		}
		msg = cmd()
	}
}

func TestNewApp(t *testing.T) {
	t.Run("requires search", func(t *testing.T) {
		_, err := NewApp(context.Background(), &Ports{})
		assert.ErrorIs(t, err, ErrMissingSearchService)

		_, err = NewApp(context.Background(), nil)
		assert.ErrorIs(t, err, ErrMissingSearchService)
	})

	t.Run("starts on search", func(t *testing.T) {
		app, err := NewApp(context.Background(), &Ports{Search: &mockSearchService{}})
		require.NoError(t, err)
		assert.Equal(t, messages.ViewSearch, app.CurrentView())
		assert.False(t, app.Ready())
		assert.Equal(t, "Initialising...", app.View())
	})

	t.Run("keyword only without embeddings", func(t *testing.T) {
		app := newTestApp(t, &Ports{Search: &mockSearchService{}})
		assert.Equal(t, domain.SearchModeKeyword, app.SearchView().Mode())
	})

	t.Run("hybrid with embeddings", func(t *testing.T) {
		app := newTestApp(t, &Ports{
			Search:    &mockSearchService{},
			Embedding: &mockEmbeddingService{available: true},
		})
		assert.Equal(t, domain.SearchModeHybrid, app.SearchView().Mode())
	})
}

func TestApp_SearchAndOpenResult(t *testing.T) {
	svc := &mockSearchService{results: []domain.SearchResult{{
		ChunkID: "c1", Content: "cats purr", SourceTitle: "Pets",
		SourceKind: domain.SourceKindDocument, ContainerLabel: domain.RootContainerLabel,
		BM25Score: domain.Float64Ptr(1),
	}}}
	app := newTestApp(t, &Ports{Search: svc})

	app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("cats")})
	run(app, tea.KeyMsg{Type: tea.KeyEnter})

	require.Len(t, app.SearchView().Results(), 1)
	assert.Contains(t, app.View(), "Pets")

	run(app, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, messages.ViewResult, app.CurrentView())
	require.NotNil(t, app.ResultView().Result())
	assert.Equal(t, "c1", app.ResultView().Result().ChunkID)
	assert.Contains(t, app.View(), "cats purr")

	run(app, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, messages.ViewSearch, app.CurrentView())
}

func TestApp_SearchError(t *testing.T) {
	app := newTestApp(t, &Ports{Search: &mockSearchService{err: domain.ErrSearchUnavailable}})

	app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("cats")})
	run(app, tea.KeyMsg{Type: tea.KeyEnter})

	assert.ErrorIs(t, app.Err(), domain.ErrSearchUnavailable)
}

func TestApp_Help(t *testing.T) {
	svc := &mockSearchService{results: []domain.SearchResult{{ChunkID: "c1", SourceTitle: "Pets"}}}
	app := newTestApp(t, &Ports{Search: svc})
	app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("cats")})
	run(app, tea.KeyMsg{Type: tea.KeyEnter})

	run(app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("?")})
	assert.Equal(t, messages.ViewHelp, app.CurrentView())
	assert.Contains(t, app.View(), "new search")

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, messages.ViewSearch, app.CurrentView())
}

func TestApp_Quit(t *testing.T) {
	app := newTestApp(t, &Ports{Search: &mockSearchService{}})

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())

	_, cmd = app.Update(messages.Quit{})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}
