// Package pdf provides a Normaliser that extracts plain text from PDF files.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles PDF documents.
type Normaliser struct{}

// New creates a new PDF normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"application/pdf"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise extracts the text layer of every page.
// Scanned PDFs without a text layer yield an empty document.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	text, pages, err := extractText(raw.Content)
	if err != nil {
		return nil, fmt.Errorf("pdf %s: %w", raw.URI, err)
	}

	metadata := make(map[string]string, len(raw.Metadata)+4)
	for k, v := range raw.Metadata {
		metadata[k] = v
	}
	if metadata["title"] == "" {
		metadata["title"] = extractTitle(raw.URI)
	}
	metadata["mime_type"] = raw.MIMEType
	metadata["format"] = "pdf"
	metadata["pages"] = fmt.Sprint(pages)

	return &domain.Document{
		ID:       raw.DocumentID(),
		Text:     text,
		Metadata: metadata,
	}, nil
}

var (
	multiSpaces   = regexp.MustCompile(`[ \t]+`)
	multiNewlines = regexp.MustCompile(`\n{3,}`)
)

// extractText reads the plain text of content and returns it with the page count.
// The parser panics on some malformed files; that is reported as an error.
func extractText(content []byte) (text string, pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, pages, err = "", 0, fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	if len(content) == 0 {
		return "", 0, fmt.Errorf("%w: empty file", domain.ErrInvalidInput)
	}

	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", 0, fmt.Errorf("open: %w", err)
	}

	plain, err := r.GetPlainText()
	if err != nil {
		return "", 0, fmt.Errorf("read text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", 0, fmt.Errorf("read text: %w", err)
	}

	return cleanText(buf.String()), r.NumPage(), nil
}

// cleanText collapses the whitespace runs left by text extraction.
func cleanText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = multiSpaces.ReplaceAllString(s, " ")
	s = multiNewlines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// extractTitle extracts a human-readable title from a URI.
func extractTitle(uri string) string {
	filename := filepath.Base(uri)
	filename = strings.TrimSuffix(filename, filepath.Ext(filename))
	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")
	return filename
}
