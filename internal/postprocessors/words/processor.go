// Package words provides a chunker that windows over whitespace-delimited words.
package words

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/postprocessors/chunker"
)

// DefaultMaxWords is the default number of words per chunk.
const DefaultMaxWords = 100

// Name is the registry name of this chunker.
const Name = "words"

// Processor groups words into windows of maxWords, sharing overlap words
// between neighbours. Chunk text joins the words with single spaces;
// offsets are character positions of each window's first word.
type Processor struct {
	maxWords int
	overlap  int
}

var _ driven.Chunker = (*Processor)(nil)

// New creates a word chunker.
// Returns domain.ErrInvalidConfig unless 0 <= overlap < maxWords.
func New(maxWords, overlap int) (*Processor, error) {
	settings := domain.ChunkerSettings{ChunkSize: maxWords, Overlap: overlap}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("words: %w", err)
	}
	return &Processor{maxWords: maxWords, overlap: overlap}, nil
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return Name
}

type word struct {
	text   string
	offset int
}

// Chunk splits the document text into word windows.
func (p *Processor) Chunk(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: document is nil", domain.ErrInvalidInput)
	}

	words := splitWords(doc.Text)
	if len(words) == 0 {
		return nil, nil
	}

	if len(words) <= p.maxWords {
		return []domain.Chunk{newChunk(doc, words)}, nil
	}

	step := p.maxWords - p.overlap
	chunks := make([]domain.Chunk, 0, len(words)/step+1)

	for start := 0; start < len(words); start += step {
		end := min(start+p.maxWords, len(words))
		chunks = append(chunks, newChunk(doc, words[start:end]))
	}

	return chunks, nil
}

func newChunk(doc *domain.Document, window []word) domain.Chunk {
	parts := make([]string, len(window))
	for i, w := range window {
		parts[i] = w.text
	}
	offset := window[0].offset
	return domain.Chunk{
		ID:         chunker.ChunkID(doc.ID, offset),
		DocumentID: doc.ID,
		Text:       strings.Join(parts, " "),
		Offset:     offset,
		Metadata:   domain.CopyMetadata(doc.Metadata),
	}
}

// splitWords splits on Unicode whitespace, recording character offsets.
func splitWords(text string) []word {
	var (
		words []word
		b     strings.Builder
		start = -1
		pos   = 0
	)
	for _, r := range text {
		if unicode.IsSpace(r) {
			if start >= 0 {
				words = append(words, word{text: b.String(), offset: start})
				b.Reset()
				start = -1
			}
		} else {
			if start < 0 {
				start = pos
			}
			b.WriteRune(r)
		}
		pos++
	}
	if start >= 0 {
		words = append(words, word{text: b.String(), offset: start})
	}
	return words
}
