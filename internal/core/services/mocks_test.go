package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"unicode"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/recall/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/recall/internal/adapters/driven/vector/flat"
	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
	"github.com/custodia-labs/recall/internal/postprocessors/chunker"
)

// --- Mock implementations ---

// vocabEmbedder implements driven.EmbeddingService with bag-of-words vectors
// over a fixed vocabulary, so cosine similarity follows shared words.
type vocabEmbedder struct {
	mu       sync.Mutex
	vocab    map[string]int
	dims     int
	batchErr error  // returned for any batch larger than one text
	failOn   string // texts containing this substring fail individually
	calls    int
}

func newVocabEmbedder(words ...string) *vocabEmbedder {
	vocab := make(map[string]int, len(words))
	for i, w := range words {
		vocab[w] = i
	}
	return &vocabEmbedder{vocab: vocab, dims: len(words)}
}

func (e *vocabEmbedder) vector(text string) []float32 {
	v := make([]float32, e.dims)
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	}) {
		if i, ok := e.vocab[w]; ok {
			v[i]++
		}
	}
	return v
}

func (e *vocabEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (e *vocabEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()

	if len(texts) > 1 && e.batchErr != nil {
		return nil, e.batchErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if e.failOn != "" && strings.Contains(t, e.failOn) {
			return nil, &domain.EmbeddingError{Provider: "vocab", Message: "rejected input"}
		}
		out[i] = e.vector(t)
	}
	return out, nil
}

func (e *vocabEmbedder) Dimensions() int             { return e.dims }
func (e *vocabEmbedder) ModelName() string           { return "vocab" }
func (e *vocabEmbedder) Ping(_ context.Context) error { return nil }
func (e *vocabEmbedder) Close() error                { return nil }

func (e *vocabEmbedder) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// stubLexical implements driven.LexicalIndex with canned results.
type stubLexical struct {
	results   []domain.SearchResult
	searchErr error
	reindexed []string
	lastLimit int
}

func (s *stubLexical) Ensure(_ context.Context) (int, error)           { return 0, nil }
func (s *stubLexical) Available(_ context.Context) (bool, error)       { return s.searchErr == nil, nil }
func (s *stubLexical) Index(_ context.Context, _ domain.Chunk) error   { return nil }
func (s *stubLexical) Remove(_ context.Context, _ string) error        { return nil }
func (s *stubLexical) Reindex(_ context.Context, _ domain.Chunk) error { return nil }

func (s *stubLexical) ReindexSource(_ context.Context, sourceID string, _ domain.SourceKind) (int, error) {
	if s.searchErr != nil {
		return 0, s.searchErr
	}
	s.reindexed = append(s.reindexed, sourceID)
	return 1, nil
}

func (s *stubLexical) Search(_ context.Context, _ string, kind domain.SourceKind,
	limit int) ([]domain.SearchResult, error) {
	s.lastLimit = limit
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	var out []domain.SearchResult
	for _, r := range s.results {
		if kind != "" && r.SourceKind != kind {
			continue
		}
		if len(out) == limit {
			break
		}
		out = append(out, r)
	}
	return out, nil
}

// blockingEmbeddings implements driven.EmbeddingStore and holds
// ListEmbeddings open until release is closed.
type blockingEmbeddings struct {
	driven.EmbeddingStore
	entered chan struct{}
	release chan struct{}
}

func (b *blockingEmbeddings) ListEmbeddings(_ context.Context, _ string) ([]driven.IndexedEmbedding, error) {
	close(b.entered)
	<-b.release
	return nil, nil
}

// --- Fixtures ---

// searchFixture wires the real SQLite store, chunker, flat index and a
// vocabulary embedder the way cmd/recall does.
type searchFixture struct {
	store     *sqlite.Store
	embedder  *vocabEmbedder
	vectors   *VectorIndexManager
	embedding *EmbeddingJobService
	chunking  *ChunkingService
	ingest    *IngestService
	search    *SearchService
}

func newSearchFixture(t *testing.T, withEmbedder bool, opts ...SearchOption) *searchFixture {
	t.Helper()

	store, err := sqlite.NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	f := &searchFixture{store: store}
	f.embedder = newVocabEmbedder("cats", "purr", "softly", "kittens", "dogs", "bark", "loudly", "and",
		"marketing", "strategy", "for", "q4", "launch", "cooking", "recipe", "pasta", "plan", "new", "product")

	var embedder driven.EmbeddingService
	if withEmbedder {
		embedder = f.embedder
	}

	index, err := flat.New(f.embedder.Dimensions())
	require.NoError(t, err)

	f.vectors = NewVectorIndexManager(index, store.EmbeddingStore(), f.embedder.ModelName())
	f.embedding = NewEmbeddingJobService(embedder, store.ChunkStore(), store.EmbeddingStore(), 8)
	f.chunking = NewChunkingService(store.SourceStore(), store.ChunkStore(), chunker.New(), f.embedding)
	f.ingest = NewIngestService(store.SourceStore(), store.ChunkStore(), store.LexicalIndex(), f.chunking)
	if withEmbedder {
		f.search = NewSearchService(store.LexicalIndex(), store.ChunkStore(), f.vectors, embedder, opts...)
	} else {
		f.search = NewSearchService(store.LexicalIndex(), store.ChunkStore(), nil, nil, opts...)
	}
	return f
}

// setup creates the lexical index.
func (f *searchFixture) setup(t *testing.T) {
	t.Helper()
	_, err := f.store.LexicalIndex().Ensure(context.Background())
	require.NoError(t, err)
}

// addDocument ingests a document and returns its ID.
func (f *searchFixture) addDocument(t *testing.T, title, content string) string {
	t.Helper()
	doc, _, err := f.ingest.AddDocument(context.Background(), newDocument(title, content))
	require.NoError(t, err)
	return doc.ID
}

// newMemoryServices wires chunking and embedding over in-memory stores.
func newMemoryServices(embedder driven.EmbeddingService, batchSize int) (
	*memory.SourceStore, *memory.ChunkStore, *EmbeddingJobService, *ChunkingService) {
	sources := memory.NewSourceStore()
	chunks := memory.NewChunkStore(sources)
	embedding := NewEmbeddingJobService(embedder, chunks, chunks, batchSize)
	chunking := NewChunkingService(sources, chunks, chunker.New(chunker.WithChunkSize(40), chunker.WithOverlap(10)), embedding)
	return sources, chunks, embedding, chunking
}

func newDocument(title, content string) driving.NewDocument {
	return driving.NewDocument{Title: title, Content: content, FileType: "txt"}
}

func sourceIDs(results []domain.SearchResult) []string {
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.SourceID
	}
	return ids
}

// failingReplaceStore wraps a chunk store and fails every replace.
type failingReplaceStore struct {
	driven.ChunkStore
	err error
}

func (f failingReplaceStore) ReplaceChunks(context.Context, string, domain.SourceKind, []domain.Chunk) (int, error) {
	return 0, f.err
}
