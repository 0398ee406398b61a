package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// Ensure ChunkStore implements the interfaces.
var (
	_ driven.ChunkStore     = (*ChunkStore)(nil)
	_ driven.EmbeddingStore = (*ChunkStore)(nil)
)

// ChunkStore is an in-memory implementation of driven.ChunkStore and
// driven.EmbeddingStore. Chunks keep their insertion order, and deleting
// a chunk drops its embeddings.
type ChunkStore struct {
	mu         sync.RWMutex
	sources    driven.SourceReader
	chunks     map[string]domain.Chunk
	order      []string
	embeddings map[string]map[string]domain.Embedding // chunk ID -> model -> embedding
}

// NewChunkStore creates a new in-memory chunk store. The source reader
// supplies titles and container labels for DescribeChunks and may be nil.
func NewChunkStore(sources driven.SourceReader) *ChunkStore {
	return &ChunkStore{
		sources:    sources,
		chunks:     make(map[string]domain.Chunk),
		embeddings: make(map[string]map[string]domain.Embedding),
	}
}

// SaveChunks stores chunks atomically. A duplicate ID rejects the whole batch.
func (s *ChunkStore) SaveChunks(_ context.Context, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkNew(chunks, nil); err != nil {
		return err
	}
	s.insert(chunks)
	return nil
}

// ReplaceChunks swaps a source's chunks for a new set under one lock. A
// duplicate ID rejects the batch and leaves the old chunks in place.
func (s *ChunkStore) ReplaceChunks(_ context.Context, sourceID string, kind domain.SourceKind, chunks []domain.Chunk) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	replaced := func(c domain.Chunk) bool { return c.SourceID == sourceID && c.SourceKind == kind }
	if err := s.checkNew(chunks, replaced); err != nil {
		return 0, err
	}
	removed := s.remove(sourceID, kind)
	s.insert(chunks)
	return removed, nil
}

// checkNew rejects IDs already stored or repeated in the batch. Stored chunks
// matched by replaced are ignored since the caller removes them first.
func (s *ChunkStore) checkNew(chunks []domain.Chunk, replaced func(domain.Chunk) bool) error {
	seen := make(map[string]bool, len(chunks))
	for _, c := range chunks {
		existing, ok := s.chunks[c.ID]
		if ok && replaced != nil && replaced(existing) {
			ok = false
		}
		if ok || seen[c.ID] {
			return fmt.Errorf("saving chunk %s: %w", c.ID, domain.ErrAlreadyExists)
		}
		seen[c.ID] = true
	}
	return nil
}

func (s *ChunkStore) insert(chunks []domain.Chunk) {
	for _, c := range chunks {
		if c.CreatedAt.IsZero() {
			c.CreatedAt = time.Now()
		}
		s.chunks[c.ID] = c
		s.order = append(s.order, c.ID)
	}
}

// GetChunk retrieves a chunk by ID.
func (s *ChunkStore) GetChunk(_ context.Context, id string) (*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.chunks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

// GetChunks retrieves a source's chunks ordered by sequence index.
func (s *ChunkStore) GetChunks(_ context.Context, sourceID string, kind domain.SourceKind) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.filter(func(c domain.Chunk) bool {
		return c.SourceID == sourceID && c.SourceKind == kind
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].SequenceIndex < out[j].SequenceIndex })
	return out, nil
}

// CountChunks returns how many chunks a source has.
func (s *ChunkStore) CountChunks(ctx context.Context, sourceID string, kind domain.SourceKind) (int, error) {
	chunks, err := s.GetChunks(ctx, sourceID, kind)
	return len(chunks), err
}

// DeleteChunks removes a source's chunks and their embeddings.
func (s *ChunkStore) DeleteChunks(_ context.Context, sourceID string, kind domain.SourceKind) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.remove(sourceID, kind), nil
}

func (s *ChunkStore) remove(sourceID string, kind domain.SourceKind) int {
	kept := s.order[:0]
	removed := 0
	for _, id := range s.order {
		c := s.chunks[id]
		if c.SourceID == sourceID && c.SourceKind == kind {
			delete(s.chunks, id)
			delete(s.embeddings, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
	return removed
}

// ListUnembedded returns chunks of the kind with no embedding for the model.
func (s *ChunkStore) ListUnembedded(_ context.Context, kind domain.SourceKind, model string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter(func(c domain.Chunk) bool {
		if kind != "" && c.SourceKind != kind {
			return false
		}
		_, ok := s.embeddings[c.ID][model]
		return !ok
	}), nil
}

// DescribeChunks returns content and source metadata for the given chunk IDs.
func (s *ChunkStore) DescribeChunks(ctx context.Context, ids []string) (map[string]domain.SearchResult, error) {
	s.mu.RLock()
	found := make([]domain.Chunk, 0, len(ids))
	for _, id := range ids {
		if c, ok := s.chunks[id]; ok {
			found = append(found, c)
		}
	}
	s.mu.RUnlock()

	out := make(map[string]domain.SearchResult, len(found))
	for _, c := range found {
		sc := domain.SourceContext{Title: domain.UnknownSourceTitle, ContainerLabel: domain.RootContainerLabel}
		if s.sources != nil {
			if got, err := s.sources.SourceContext(ctx, c.SourceID, c.SourceKind); err == nil {
				sc = got
			}
		}
		out[c.ID] = domain.SearchResult{
			ChunkID:        c.ID,
			Content:        c.Content,
			SourceID:       c.SourceID,
			SourceKind:     c.SourceKind,
			SourceTitle:    sc.Title,
			ContainerLabel: sc.ContainerLabel,
			OriginLabel:    c.OriginLabel,
			FileType:       sc.FileType,
			SequenceIndex:  c.SequenceIndex,
		}
	}
	return out, nil
}

// SaveEmbedding stores or replaces the embedding for (chunk, model).
func (s *ChunkStore) SaveEmbedding(_ context.Context, e domain.Embedding) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("embedding for chunk %s: %w", e.ChunkID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chunks[e.ChunkID]; !ok {
		return fmt.Errorf("embedding for chunk %s: %w", e.ChunkID, domain.ErrNotFound)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	e.Vector = append([]float32(nil), e.Vector...)
	if s.embeddings[e.ChunkID] == nil {
		s.embeddings[e.ChunkID] = make(map[string]domain.Embedding)
	}
	s.embeddings[e.ChunkID][e.ModelName] = e
	return nil
}

// GetEmbedding retrieves the embedding for a chunk under a model.
func (s *ChunkStore) GetEmbedding(_ context.Context, chunkID, model string) (*domain.Embedding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.embeddings[chunkID][model]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &e, nil
}

// ListEmbeddings returns every embedding for the model in chunk insertion order.
func (s *ChunkStore) ListEmbeddings(_ context.Context, model string) ([]driven.IndexedEmbedding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []driven.IndexedEmbedding
	for _, id := range s.order {
		e, ok := s.embeddings[id][model]
		if !ok {
			continue
		}
		out = append(out, driven.IndexedEmbedding{Embedding: e, Kind: s.chunks[id].SourceKind})
	}
	return out, nil
}

// CountEmbeddings returns how many embeddings exist for the model.
func (s *ChunkStore) CountEmbeddings(_ context.Context, model string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, byModel := range s.embeddings {
		if _, ok := byModel[model]; ok {
			n++
		}
	}
	return n, nil
}

// PutRawEmbedding stores an embedding without validation, for exercising
// corrupt records in tests.
func (s *ChunkStore) PutRawEmbedding(e domain.Embedding, kind domain.SourceKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chunks[e.ChunkID]; !ok {
		s.chunks[e.ChunkID] = domain.Chunk{ID: e.ChunkID, SourceKind: kind}
		s.order = append(s.order, e.ChunkID)
	}
	if s.embeddings[e.ChunkID] == nil {
		s.embeddings[e.ChunkID] = make(map[string]domain.Embedding)
	}
	s.embeddings[e.ChunkID][e.ModelName] = e
}

// filter returns matching chunks in insertion order. Callers hold the lock.
func (s *ChunkStore) filter(keep func(domain.Chunk) bool) []domain.Chunk {
	var out []domain.Chunk
	for _, id := range s.order {
		if c := s.chunks[id]; keep(c) {
			out = append(out, c)
		}
	}
	return out
}
