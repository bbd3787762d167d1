package postprocessors

import (
	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/postprocessors/chunker"
	"github.com/custodia-labs/ragcore/internal/postprocessors/words"
)

// RegisterDefaults registers all built-in chunkers with the registry.
// Call this during application initialisation to enable standard chunkers.
func RegisterDefaults(r *Registry) {
	r.Register(chunker.Name, buildChunker)
	r.Register(words.Name, buildWords)
}

// DefaultRegistry returns a registry with the built-in chunkers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	RegisterDefaults(r)
	return r
}

// FromSettings builds the chunker named by settings.Strategy.
func FromSettings(r *Registry, settings domain.ChunkerSettings) (driven.Chunker, error) {
	return r.Build(settings.Strategy, map[string]any{
		"chunk_size": settings.ChunkSize,
		"overlap":    settings.Overlap,
	})
}

// buildChunker creates a character chunker from generic config.
// Supported config keys:
//   - chunk_size (int): Characters per chunk (default: 500)
//   - overlap (int): Overlapping characters between chunks (default: 50)
func buildChunker(cfg map[string]any) (driven.Chunker, error) {
	var opts []chunker.Option

	if size, ok := getIntFromConfig(cfg, "chunk_size"); ok {
		opts = append(opts, chunker.WithChunkSize(size))
	}
	if overlap, ok := getIntFromConfig(cfg, "overlap"); ok {
		opts = append(opts, chunker.WithOverlap(overlap))
	}

	return chunker.New(opts...)
}

// buildWords creates a word chunker from generic config.
// Supported config keys:
//   - chunk_size (int): Words per chunk (default: 100)
//   - overlap (int): Overlapping words between chunks (default: 0)
func buildWords(cfg map[string]any) (driven.Chunker, error) {
	size, ok := getIntFromConfig(cfg, "chunk_size")
	if !ok {
		size = words.DefaultMaxWords
	}
	overlap, _ := getIntFromConfig(cfg, "overlap")
	return words.New(size, overlap)
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) (int, bool) {
	val, ok := cfg[key]
	if !ok {
		return 0, false
	}

	switch v := val.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
