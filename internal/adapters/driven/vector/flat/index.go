package flat

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// cancelCheckInterval is how many entries Build and Search process between
// context checks.
const cancelCheckInterval = 1024

// entry is one normalised vector.
type entry struct {
	chunkID string
	kind    domain.SourceKind
	vector  []float32
}

// Index provides exact inner-product search over normalised vectors.
// Searches read an immutable snapshot; Build swaps in a new one.
type Index struct {
	mu        sync.RWMutex
	entries   []entry
	dimension int
}

// New creates an empty index for vectors of the given dimension.
func New(dimension int) (*Index, error) {
	if dimension <= 0 {
		return nil, errors.New("flat: dimension must be positive")
	}
	return &Index{dimension: dimension}, nil
}

// Build replaces the index contents with the given entries.
// Every entry is validated before anything is swapped, so a failed build
// leaves the previous contents searchable.
func (idx *Index) Build(ctx context.Context, entries []driven.VectorEntry) error {
	built := make([]entry, 0, len(entries))
	for i, e := range entries {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if len(e.Vector) != idx.dimension {
			return &domain.DimensionError{Expected: idx.dimension, Actual: len(e.Vector)}
		}
		built = append(built, entry{
			chunkID: e.ChunkID,
			kind:    e.Kind,
			vector:  Normalize(e.Vector),
		})
	}

	idx.mu.Lock()
	idx.entries = built
	idx.mu.Unlock()
	return nil
}

// Search returns the k entries with the highest cosine similarity to query.
// Equal similarities keep build order. kind filters entries before ranking;
// an empty kind searches everything.
func (idx *Index) Search(ctx context.Context, query []float32, kind domain.SourceKind,
	k int) ([]driven.VectorHit, error) {
	if len(query) != idx.dimension {
		return nil, &domain.DimensionError{Expected: idx.dimension, Actual: len(query)}
	}
	if k <= 0 {
		return []driven.VectorHit{}, nil
	}

	idx.mu.RLock()
	entries := idx.entries
	idx.mu.RUnlock()

	q := Normalize(query)
	hits := make([]driven.VectorHit, 0, min(k, len(entries)))
	for i := range entries {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		e := &entries[i]
		if kind != "" && e.kind != kind {
			continue
		}
		hits = append(hits, driven.VectorHit{
			ChunkID:    e.chunkID,
			Similarity: dot(q, e.vector),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Len returns the number of indexed vectors.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// Dimensions returns the vector size the index accepts.
func (idx *Index) Dimensions() int {
	return idx.dimension
}

// Normalize returns a unit-length copy of v. A zero vector stays zero.
func Normalize(v []float32) []float32 {
	out := make([]float32, len(v))
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return out
	}
	inv := 1.0 / math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}
