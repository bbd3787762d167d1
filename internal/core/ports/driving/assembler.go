package driving

import "github.com/custodia-labs/ragcore/internal/core/domain"

// ContextAssembler packs ranked results into a bounded prompt payload.
type ContextAssembler interface {
	// Assemble returns a payload no longer than maxContextChars characters.
	// Chunks are never split; those that do not fit are omitted from the tail.
	Assemble(query string, results []domain.SearchResult, maxContextChars int) (string, error)
}
