// Package plaintext provides the fallback Normaliser for text files.
package plaintext

import (
	"context"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles plain text documents.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{
		"text/plain",
		"text/csv",
		"text/x-rst",
		"text/x-org",
		"text/markdown",
		"text/html",
		"application/json",
		"text/yaml",
	}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 5 // Fallback normaliser
}

// Normalise returns the content as text. Invalid UTF-8 sequences are
// replaced so chunk offsets stay well defined.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	text := string(raw.Content)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "�")
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")

	metadata := make(map[string]string, len(raw.Metadata)+2)
	for k, v := range raw.Metadata {
		metadata[k] = v
	}
	if metadata["title"] == "" {
		metadata["title"] = extractTitle(raw.URI)
	}
	metadata["mime_type"] = raw.MIMEType

	return &domain.Document{
		ID:       raw.DocumentID(),
		Text:     text,
		Metadata: metadata,
	}, nil
}

// extractTitle extracts a human-readable title from a URI.
func extractTitle(uri string) string {
	filename := filepath.Base(uri)
	filename = strings.TrimSuffix(filename, filepath.Ext(filename))
	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")
	return filename
}
