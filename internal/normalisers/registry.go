package normalisers

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/normalisers/docx"
	"github.com/custodia-labs/recall/internal/normalisers/html"
	"github.com/custodia-labs/recall/internal/normalisers/markdown"
	"github.com/custodia-labs/recall/internal/normalisers/plaintext"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry dispatches documents to the highest priority normaliser that
// handles their file type, falling back to AnyFileType normalisers.
type Registry struct {
	mu     sync.RWMutex
	byType map[string][]driven.Normaliser
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byType: make(map[string][]driven.Normaliser)}
}

// NewDefaultRegistry creates a registry with every built-in normaliser.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(markdown.New())
	r.Register(html.New())
	r.Register(docx.New())
	r.Register(plaintext.New())
	return r
}

// Register adds a normaliser under each of its file types.
func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ft := range n.FileTypes() {
		ft = strings.ToLower(ft)
		list := append(r.byType[ft], n)
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Priority() > list[j].Priority()
		})
		r.byType[ft] = list
	}
}

// Normalise runs the best normaliser for raw.FileType.
func (r *Registry) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	n := r.pick(strings.ToLower(raw.FileType))
	if n == nil {
		return nil, fmt.Errorf("%w: no normaliser for file type %q", domain.ErrInvalidInput, raw.FileType)
	}
	return n.Normalise(ctx, raw)
}

// SupportedFileTypes returns the explicitly registered file types, sorted.
func (r *Registry) SupportedFileTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.byType))
	for ft := range r.byType {
		if ft != driven.AnyFileType {
			types = append(types, ft)
		}
	}
	sort.Strings(types)
	return types
}

func (r *Registry) pick(fileType string) driven.Normaliser {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var best driven.Normaliser
	if list := r.byType[fileType]; len(list) > 0 {
		best = list[0]
	}
	if list := r.byType[driven.AnyFileType]; len(list) > 0 {
		if best == nil || list[0].Priority() > best.Priority() {
			best = list[0]
		}
	}
	return best
}
