// Package chunker provides a fixed-size character window chunker.
package chunker

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 500

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 50

// Name is the registry name of this chunker.
const Name = "chunker"

// namespace scopes chunk IDs so they never collide with other SHA1 UUIDs.
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("ragcore:chunk"))

// ChunkID derives the deterministic ID of the chunk starting at offset.
func ChunkID(documentID string, offset int) string {
	return uuid.NewSHA1(namespace, []byte(documentID+"#"+strconv.Itoa(offset))).String()
}

// Processor splits document text into overlapping fixed-size windows.
// Sizes are measured in characters, not bytes, so multi-byte text is
// never split inside a character.
type Processor struct {
	chunkSize int
	overlap   int
}

var _ driven.Chunker = (*Processor)(nil)

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		p.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		p.overlap = overlap
	}
}

// New creates a new chunker processor with the given options.
// Returns domain.ErrInvalidConfig unless 0 <= overlap < chunkSize.
func New(opts ...Option) (*Processor, error) {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	settings := domain.ChunkerSettings{ChunkSize: p.chunkSize, Overlap: p.overlap}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("chunker: %w", err)
	}

	return p, nil
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return Name
}

// ChunkSize returns the window size in characters.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Overlap returns the overlap in characters.
func (p *Processor) Overlap() int {
	return p.overlap
}

// Chunk splits the document text into chunks.
//
// The window advances by chunkSize-overlap while its start lies inside
// the text. A document no longer than chunkSize yields exactly one chunk.
func (p *Processor) Chunk(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: document is nil", domain.ErrInvalidInput)
	}

	runes := []rune(doc.Text)
	n := len(runes)
	if n == 0 {
		return nil, nil
	}

	if n <= p.chunkSize {
		return []domain.Chunk{p.newChunk(doc, string(runes), 0)}, nil
	}

	step := p.chunkSize - p.overlap
	chunks := make([]domain.Chunk, 0, n/step+1)

	for start := 0; start < n; start += step {
		end := min(start+p.chunkSize, n)
		chunks = append(chunks, p.newChunk(doc, string(runes[start:end]), start))
	}

	return chunks, nil
}

func (p *Processor) newChunk(doc *domain.Document, text string, offset int) domain.Chunk {
	return domain.Chunk{
		ID:         ChunkID(doc.ID, offset),
		DocumentID: doc.ID,
		Text:       text,
		Offset:     offset,
		Metadata:   domain.CopyMetadata(doc.Metadata),
	}
}
