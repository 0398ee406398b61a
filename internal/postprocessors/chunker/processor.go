// Package chunker provides an overlapping window text splitter that prefers
// to cut at sentence and clause boundaries.
package chunker

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = domain.DefaultChunkSize

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = domain.DefaultChunkOverlap

// DefaultBoundaryWindow is how many characters before the window end are
// searched for a break point.
const DefaultBoundaryWindow = domain.DefaultBoundaryWindow

// breakChars are the fallback break points, in preference order, tried
// when no sentence end ('.') is found in the boundary window.
var breakChars = []rune{'\n', '!', '?', ';'}

var _ driven.Splitter = (*Processor)(nil)

// Processor splits text into overlapping windows.
// Lengths are counted in characters (runes), not bytes.
type Processor struct {
	chunkSize      int
	overlap        int
	boundaryWindow int
	newID          func() string
	now            func() time.Time
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// WithBoundaryWindow sets how far back from a window end to look for a break point.
func WithBoundaryWindow(window int) Option {
	return func(p *Processor) {
		if window >= 0 {
			p.boundaryWindow = window
		}
	}
}

// WithIDGenerator replaces the chunk ID generator. Used by tests.
func WithIDGenerator(fn func() string) Option {
	return func(p *Processor) {
		if fn != nil {
			p.newID = fn
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize:      DefaultChunkSize,
		overlap:        DefaultChunkOverlap,
		boundaryWindow: DefaultBoundaryWindow,
		newID:          func() string { return uuid.New().String() },
		now:            time.Now,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Split cuts text into windows of at most chunkSize characters, advancing by
// chunkSize-overlap. A window that does not reach the end of the text is cut
// after the last '.' within the boundary window, else after the last
// newline, '!', '?' or ';' (in that order), else at the raw boundary.
func (p *Processor) Split(text string) []string {
	runes := []rune(text)
	n := len(runes)
	if n <= p.chunkSize {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < n {
		end := start + p.chunkSize
		if end < n {
			end = p.snap(runes, start, end)
		} else {
			end = n
		}

		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}

		if end >= n {
			break
		}

		next := end - p.overlap
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks
}

// snap moves a window end back to the preferred break point, if any.
func (p *Processor) snap(runes []rune, start, end int) int {
	searchStart := end - p.boundaryWindow
	if searchStart < start {
		searchStart = start
	}

	if pos := lastIndex(runes, '.', searchStart, end); pos > start {
		return pos + 1
	}
	for _, c := range breakChars {
		if pos := lastIndex(runes, c, searchStart, end); pos > start {
			return pos + 1
		}
	}
	return end
}

// lastIndex returns the last position of c in runes[from:to], or -1.
func lastIndex(runes []rune, c rune, from, to int) int {
	for i := to - 1; i >= from; i-- {
		if runes[i] == c {
			return i
		}
	}
	return -1
}

// Process splits each unit and numbers the chunks across the whole source.
// Units that are empty after trimming produce no chunks.
func (p *Processor) Process(ctx context.Context, sourceID string, kind domain.SourceKind,
	units []domain.TextUnit) ([]domain.Chunk, error) {
	now := p.now()
	var chunks []domain.Chunk
	seq := 0

	for _, unit := range units {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if strings.TrimSpace(unit.Text) == "" {
			continue
		}
		for _, piece := range p.Split(unit.Text) {
			chunks = append(chunks, domain.Chunk{
				ID:            p.newID(),
				SourceID:      sourceID,
				SourceKind:    kind,
				Content:       piece,
				SequenceIndex: seq,
				OriginLabel:   unit.Label,
				CreatedAt:     now,
			})
			seq++
		}
	}

	return chunks, nil
}
