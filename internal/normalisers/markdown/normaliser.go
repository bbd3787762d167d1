// Package markdown provides a Normaliser for Markdown documents.
package markdown

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles Markdown documents.
type Normaliser struct{}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Generic MIME normaliser, higher than plaintext
}

// Normalise converts a markdown document to plain text.
// The title comes from the first H1 heading, or the file name.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	rawContent := string(raw.Content)

	metadata := make(map[string]string, len(raw.Metadata)+3)
	for k, v := range raw.Metadata {
		metadata[k] = v
	}
	if metadata["title"] == "" {
		metadata["title"] = extractMarkdownTitle(rawContent, raw.URI)
	}
	metadata["mime_type"] = raw.MIMEType
	metadata["format"] = "markdown"

	return &domain.Document{
		ID:       raw.DocumentID(),
		Text:     stripMarkdown(rawContent),
		Metadata: metadata,
	}, nil
}

// extractMarkdownTitle extracts a title from the markdown content or falls back to filename.
func extractMarkdownTitle(content, uri string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "#"))
		}
	}

	filename := filepath.Base(uri)
	filename = strings.TrimSuffix(filename, filepath.Ext(filename))
	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")
	return filename
}

// Pre-compiled regular expressions for markdown stripping.
var (
	codeFence    = regexp.MustCompile("(?m)^```.*$")
	inlineCode   = regexp.MustCompile("`([^`]+)`")
	images       = regexp.MustCompile(`!\[([^\]]*)\]\([^)]+\)`)
	links        = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headings     = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	emphasis     = regexp.MustCompile(`(\*\*|__|\*|_)([^*_\n]+)(\*\*|__|\*|_)`)
	blockquote   = regexp.MustCompile(`(?m)^>\s?`)
	rules        = regexp.MustCompile(`(?m)^\s*([-*_]\s*){3,}$`)
	listMarkers  = regexp.MustCompile(`(?m)^(\s*)[-*+]\s+`)
	numberedList = regexp.MustCompile(`(?m)^(\s*)\d+\.\s+`)
	tableRules   = regexp.MustCompile(`(?m)^\s*\|?\s*:?-{3,}.*$`)
	multiNewline = regexp.MustCompile(`\n{3,}`)
)

// stripMarkdown removes markdown syntax and keeps the readable text.
// Code blocks keep their content; only the fences are dropped.
func stripMarkdown(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = codeFence.ReplaceAllString(content, "")
	content = inlineCode.ReplaceAllString(content, "$1")
	content = images.ReplaceAllString(content, "$1")
	content = links.ReplaceAllString(content, "$1")
	content = headings.ReplaceAllString(content, "")
	content = emphasis.ReplaceAllString(content, "$2")
	content = blockquote.ReplaceAllString(content, "")
	content = rules.ReplaceAllString(content, "")
	content = tableRules.ReplaceAllString(content, "")
	content = listMarkers.ReplaceAllString(content, "$1")
	content = numberedList.ReplaceAllString(content, "$1")
	content = multiNewline.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}
