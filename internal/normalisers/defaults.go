package normalisers

import (
	"github.com/custodia-labs/ragcore/internal/normalisers/docx"
	"github.com/custodia-labs/ragcore/internal/normalisers/eml"
	"github.com/custodia-labs/ragcore/internal/normalisers/html"
	"github.com/custodia-labs/ragcore/internal/normalisers/markdown"
	"github.com/custodia-labs/ragcore/internal/normalisers/pdf"
	"github.com/custodia-labs/ragcore/internal/normalisers/plaintext"
)

// RegisterDefaults registers the built-in normalisers with the registry.
func RegisterDefaults(r *Registry) {
	r.Register(plaintext.New())
	r.Register(markdown.New())
	r.Register(html.New())
	r.Register(pdf.New())
	r.Register(docx.New())
	r.Register(eml.New())
}

// DefaultRegistry returns a registry with the built-in normalisers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	RegisterDefaults(r)
	return r
}
