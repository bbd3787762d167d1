package services

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driving"
)

// Prompt frame around the context blocks.
const (
	promptHeader   = "Given the following context, answer the question below.\nContext:\n"
	promptQuestion = "\nQuestion:\n"
	blockSeparator = "\n\n"
)

// Ensure Assembler implements the interface.
var _ driving.ContextAssembler = (*Assembler)(nil)

// Assembler packs ranked chunks into a bounded prompt payload.
type Assembler struct{}

// NewAssembler creates a context assembler.
func NewAssembler() *Assembler {
	return &Assembler{}
}

// Assemble builds the prompt for query from results in ranked order.
//
// Blocks are appended until the next one would push the payload past
// maxContextChars characters; the rest are omitted. Chunks are never cut.
func (a *Assembler) Assemble(query string, results []domain.SearchResult, maxContextChars int) (string, error) {
	if maxContextChars <= 0 {
		return "", fmt.Errorf("assemble: %w: max_context_chars must be positive", domain.ErrInvalidConfig)
	}

	frame := utf8.RuneCountInString(promptHeader) +
		utf8.RuneCountInString(promptQuestion) +
		utf8.RuneCountInString(query)
	if frame > maxContextChars {
		return "", fmt.Errorf("assemble: %w: prompt frame needs %d characters, budget is %d",
			domain.ErrInvalidConfig, frame, maxContextChars)
	}

	var blocks []string
	used := frame
	for _, r := range results {
		block := formatBlock(r.Chunk)
		cost := utf8.RuneCountInString(block)
		if len(blocks) > 0 {
			cost += utf8.RuneCountInString(blockSeparator)
		}
		if used+cost > maxContextChars {
			break
		}
		blocks = append(blocks, block)
		used += cost
	}

	var b strings.Builder
	b.WriteString(promptHeader)
	b.WriteString(strings.Join(blocks, blockSeparator))
	b.WriteString(promptQuestion)
	b.WriteString(query)
	return b.String(), nil
}

// formatBlock renders "[source @offset]\ntext".
func formatBlock(c domain.Chunk) string {
	return "[" + c.Source() + " @" + strconv.Itoa(c.Offset) + "]\n" + c.Text
}
