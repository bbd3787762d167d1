// Package postprocessors builds chunkers from configuration.
package postprocessors

import (
	"fmt"
	"sort"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

// BuilderFunc creates a Chunker from generic config.
// Config is a map of chunker-specific settings parsed from user config.
type BuilderFunc func(cfg map[string]any) (driven.Chunker, error)

// Registry maps chunker names to their builders.
// It allows dynamic construction of chunkers from configuration.
type Registry struct {
	builders map[string]BuilderFunc
}

// NewRegistry creates a new chunker registry.
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]BuilderFunc),
	}
}

// Register adds a chunker builder to the registry.
// Name should be unique and match the chunker's Name() return value.
func (r *Registry) Register(name string, builder BuilderFunc) {
	r.builders[name] = builder
}

// Build creates a chunker by name with the given config.
// Returns domain.ErrUnsupportedType if the name is not registered.
func (r *Registry) Build(name string, cfg map[string]any) (driven.Chunker, error) {
	builder, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown chunker %q", domain.ErrUnsupportedType, name)
	}
	return builder(cfg)
}

// Has returns true if a chunker with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.builders[name]
	return ok
}

// Names returns all registered chunker names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
