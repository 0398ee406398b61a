package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	results    []domain.SearchResult
	err        error
	rebuildErr error
	stats      *domain.IndexStats
	setupCount int
	lastQuery  string
	lastMode   domain.SearchMode
	lastOpts   domain.SearchOptions
	lastScope  domain.SearchScope
	rebuilds   int
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

func (m *mockSearchService) Search(
	_ context.Context, query string, mode domain.SearchMode, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	m.lastQuery = query
	m.lastMode = mode
	m.lastOpts = opts
	return m.results, m.err
}

func (m *mockSearchService) SearchAll(
	_ context.Context, query string, limit int, scope domain.SearchScope,
) (map[domain.SourceKind][]domain.SearchResult, error) {
	m.lastQuery = query
	m.lastOpts = domain.SearchOptions{Limit: limit}
	m.lastScope = scope
	if m.err != nil {
		return nil, m.err
	}
	grouped := make(map[domain.SourceKind][]domain.SearchResult)
	for _, kind := range scope.Kinds() {
		grouped[kind] = nil
	}
	for _, r := range m.results {
		grouped[r.SourceKind] = append(grouped[r.SourceKind], r)
	}
	return grouped, nil
}

func (m *mockSearchService) RebuildVectorIndex(_ context.Context) (*domain.IndexStats, error) {
	m.rebuilds++
	if m.rebuildErr != nil {
		return nil, m.rebuildErr
	}
	return m.stats, nil
}

func (m *mockSearchService) SetupLexicalIndex(_ context.Context) (int, error) {
	return m.setupCount, m.err
}

func (m *mockSearchService) IndexStats() *domain.IndexStats {
	return m.stats
}

// mockChunkingService is a mock implementation of driving.ChunkingService.
type mockChunkingService struct {
	chunks   []domain.Chunk
	report   *domain.ChunkReport
	err      error
	lastID   string
	lastKind domain.SourceKind
	kinds    []domain.SourceKind
}

func (m *mockChunkingService) ChunkSource(
	_ context.Context, sourceID string, kind domain.SourceKind,
) ([]domain.Chunk, error) {
	m.lastID, m.lastKind = sourceID, kind
	return m.chunks, m.err
}

func (m *mockChunkingService) RechunkSource(
	_ context.Context, sourceID string, kind domain.SourceKind,
) ([]domain.Chunk, error) {
	m.lastID, m.lastKind = sourceID, kind
	return m.chunks, m.err
}

func (m *mockChunkingService) ChunkAll(_ context.Context, kind domain.SourceKind) (*domain.ChunkReport, error) {
	m.kinds = append(m.kinds, kind)
	if m.err != nil {
		return nil, m.err
	}
	return m.report, nil
}

// mockEmbeddingService is a mock implementation of driving.EmbeddingJobService.
type mockEmbeddingService struct {
	available bool
	report    *domain.BatchReport
	status    domain.ConnectionStatus
	err       error
	lastKind  domain.SourceKind
}

func (m *mockEmbeddingService) EmbedChunks(_ context.Context, _ []domain.Chunk) (*domain.BatchReport, error) {
	return m.report, m.err
}

func (m *mockEmbeddingService) EmbedPending(_ context.Context, kind domain.SourceKind) (*domain.BatchReport, error) {
	m.lastKind = kind
	if m.err != nil {
		return nil, m.err
	}
	return m.report, nil
}

func (m *mockEmbeddingService) TestConnection(_ context.Context) domain.ConnectionStatus {
	return m.status
}

func (m *mockEmbeddingService) Available() bool {
	return m.available
}

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	err        error
	chunkErr   error
	lastDoc    driving.NewDocument
	lastImport driving.ImportDocument
	imports    []driving.ImportDocument
	rejectName string
	lastConv   driving.NewConversation
	lastID     string
	lastKind   domain.SourceKind
	lastTitle  string
	lastFolder string
	deleted    bool
}

func (m *mockIngestService) AddConversation(
	_ context.Context, conv driving.NewConversation,
) (*domain.Conversation, []domain.Chunk, error) {
	m.lastConv = conv
	if m.err != nil {
		return nil, nil, m.err
	}
	stored := &domain.Conversation{ID: "conv-1", Title: conv.Title}
	if m.chunkErr != nil {
		return stored, nil, m.chunkErr
	}
	return stored, make([]domain.Chunk, len(conv.Messages)), nil
}

func (m *mockIngestService) AddDocument(
	_ context.Context, doc driving.NewDocument,
) (*domain.Document, []domain.Chunk, error) {
	m.lastDoc = doc
	if m.err != nil {
		return nil, nil, m.err
	}
	stored := &domain.Document{ID: "doc-1", Title: doc.Title, FileType: doc.FileType}
	if m.chunkErr != nil {
		return stored, nil, m.chunkErr
	}
	return stored, make([]domain.Chunk, 2), nil
}

func (m *mockIngestService) ImportDocument(
	_ context.Context, doc driving.ImportDocument,
) (*domain.Document, []domain.Chunk, error) {
	m.lastImport = doc
	m.imports = append(m.imports, doc)
	if m.err != nil {
		return nil, nil, m.err
	}
	if doc.Name == m.rejectName {
		return nil, nil, errors.New("invalid input: not UTF-8 text")
	}
	stored := &domain.Document{ID: "doc-1", Title: doc.Title, FileType: doc.FileType}
	if stored.Title == "" {
		stored.Title = "imported"
	}
	if m.chunkErr != nil {
		return stored, nil, m.chunkErr
	}
	return stored, make([]domain.Chunk, 2), nil
}

func (m *mockIngestService) RenameSource(_ context.Context, sourceID string, kind domain.SourceKind, title string) error {
	m.lastID, m.lastKind, m.lastTitle = sourceID, kind, title
	return m.err
}

func (m *mockIngestService) MoveSource(_ context.Context, sourceID string, kind domain.SourceKind, folder string) error {
	m.lastID, m.lastKind, m.lastFolder = sourceID, kind, folder
	return m.err
}

func (m *mockIngestService) DeleteSource(_ context.Context, sourceID string, kind domain.SourceKind) error {
	m.lastID, m.lastKind = sourceID, kind
	m.deleted = m.err == nil
	return m.err
}

// mockSettingsService is a mock implementation of driving.SettingsService.
type mockSettingsService struct {
	settings domain.AppSettings
	values   map[string]string
	err      error
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	if m.err != nil {
		return nil, m.err
	}
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(settings *domain.AppSettings) error {
	m.settings = *settings
	return m.err
}

func (m *mockSettingsService) SetValue(key, value string) error {
	if key == "search.unknown" {
		return errors.New("invalid input: unknown setting")
	}
	if m.values == nil {
		m.values = make(map[string]string)
	}
	m.values[key] = value
	return m.err
}

func (m *mockSettingsService) Keys() []string {
	return []string{"search.bm25_weight", "search.cosine_weight"}
}

func (m *mockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	search    *mockSearchService
	chunking  *mockChunkingService
	embedding *mockEmbeddingService
	ingest    *mockIngestService
	settings  *mockSettingsService
}

// setupTestServices installs mock services and returns them with a cleanup
// that restores the previous services and resets every flag.
func setupTestServices() (*testServices, func()) {
	ts := &testServices{
		search: &mockSearchService{
			results: []domain.SearchResult{{
				ChunkID:        "chunk-1",
				Content:        "cats purr softly",
				SourceID:       "doc-1",
				SourceKind:     domain.SourceKindDocument,
				SourceTitle:    "Pets",
				ContainerLabel: domain.RootContainerLabel,
				FileType:       "md",
				BM25Score:      domain.Float64Ptr(1.2),
				CosineScore:    domain.Float64Ptr(0.9),
				HybridScore:    domain.Float64Ptr(1.005),
			}},
			stats: &domain.IndexStats{Entries: 3, Dimension: 8, Duration: 2 * time.Millisecond},
		},
		chunking:  &mockChunkingService{chunks: make([]domain.Chunk, 3), report: &domain.ChunkReport{}},
		embedding: &mockEmbeddingService{available: true, report: &domain.BatchReport{}},
		ingest:    &mockIngestService{},
		settings:  &mockSettingsService{settings: domain.DefaultAppSettings()},
	}

	prevSearch, prevChunking, prevEmbedding := searchService, chunkingService, embeddingService
	prevIngest, prevSettings, prevBoot := ingestService, settingsService, bootstrap

	SetServices(&Services{
		Search:    ts.search,
		Chunking:  ts.chunking,
		Embedding: ts.embedding,
		Ingest:    ts.ingest,
		Settings:  ts.settings,
	})
	bootstrap = nil

	return ts, func() {
		searchService, chunkingService, embeddingService = prevSearch, prevChunking, prevEmbedding
		ingestService, settingsService, bootstrap = prevIngest, prevSettings, prevBoot
		closeServices = nil
		resetFlags(rootCmd)
	}
}

// resetFlags restores every flag of cmd and its children to its default.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, child := range cmd.Commands() {
		resetFlags(child)
	}
}

// runCmd executes the root command with args and returns its output.
func runCmd(stdin io.Reader, args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(stdin)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}
