package normalisers

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry dispatches raw documents to the highest-priority normaliser
// registered for their MIME type.
type Registry struct {
	mu     sync.RWMutex
	byMIME map[string][]driven.Normaliser
}

// NewRegistry creates an empty normaliser registry.
func NewRegistry() *Registry {
	return &Registry{
		byMIME: make(map[string][]driven.Normaliser),
	}
}

// Register adds a normaliser for each of its MIME types.
// Normalisers of equal priority keep registration order.
func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, mime := range n.SupportedMIMETypes() {
		mime = strings.ToLower(mime)
		list := append(r.byMIME[mime], n)
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Priority() > list[j].Priority()
		})
		r.byMIME[mime] = list
	}
}

// Normalise transforms raw using the best matching normaliser.
func (r *Registry) Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	n, ok := r.lookup(raw.MIMEType)
	if !ok {
		return nil, fmt.Errorf("%w: no normaliser for %q (%s)", domain.ErrUnsupportedType, raw.MIMEType, raw.URI)
	}
	return n.Normalise(ctx, raw)
}

// Supports reports whether a normaliser is registered for mimeType.
func (r *Registry) Supports(mimeType string) bool {
	_, ok := r.lookup(mimeType)
	return ok
}

// SupportedMIMETypes returns all MIME types that can be normalised, sorted.
func (r *Registry) SupportedMIMETypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.byMIME))
	for mime := range r.byMIME {
		types = append(types, mime)
	}
	sort.Strings(types)
	return types
}

func (r *Registry) lookup(mimeType string) (driven.Normaliser, bool) {
	// Strip parameters such as "; charset=utf-8".
	mime, _, _ := strings.Cut(mimeType, ";")
	mime = strings.ToLower(strings.TrimSpace(mime))

	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.byMIME[mime]
	if len(list) == 0 {
		return nil, false
	}
	return list[0], true
}
