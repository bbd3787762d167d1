package driven

import (
	"context"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// NormaliserRegistry selects the appropriate normaliser for a document.
// It dispatches on MIME type to the highest-priority normaliser.
type NormaliserRegistry interface {
	// Normalise transforms a raw document using the best matching normaliser.
	// Returns domain.ErrUnsupportedType when no normaliser handles the type.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error)

	// Register adds a normaliser to the registry.
	Register(normaliser Normaliser)

	// SupportedMIMETypes returns all MIME types that can be normalised.
	SupportedMIMETypes() []string
}
