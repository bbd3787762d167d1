package html

import (
	"context"
	"html"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles HTML documents.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise converts the markup to text with Text.
// The title comes from the <title> element, or the file name.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	content := string(raw.Content)

	metadata := domain.CopyMetadata(raw.Metadata)
	if metadata == nil {
		metadata = make(map[string]string, 3)
	}
	if metadata["title"] == "" {
		metadata["title"] = extractHTMLTitle(content, raw.URI)
	}
	metadata["mime_type"] = raw.MIMEType
	metadata["format"] = "html"

	return &domain.Document{
		ID:       raw.DocumentID(),
		Text:     Text(content),
		Metadata: metadata,
	}, nil
}

var (
	titleTag = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)

	// dropped elements are removed with their content.
	dropped = []*regexp.Regexp{
		regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`),
		regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`),
		regexp.MustCompile(`(?is)<noscript[^>]*>.*?</noscript>`),
		regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`),
		regexp.MustCompile(`(?is)<svg[^>]*>.*?</svg>`),
		regexp.MustCompile(`(?s)<!--.*?-->`),
	}

	// breaks start a new line.
	breaks = regexp.MustCompile(
		`(?i)</?(p|div|h[1-6]|li|tr|blockquote|pre|table|section|article)(\s[^>]*)?>|<(br|hr)\s*/?>`)

	anyTag    = regexp.MustCompile(`<[^>]+>`)
	spaceRuns = regexp.MustCompile(`[ \t]+`)
)

// Text extracts readable text from HTML: one line per block element, inline
// markup removed, entities decoded and blank lines dropped.
func Text(content string) string {
	for _, re := range dropped {
		content = re.ReplaceAllString(content, "")
	}
	content = breaks.ReplaceAllString(content, "\n")
	content = anyTag.ReplaceAllString(content, "")
	content = html.UnescapeString(content)
	content = spaceRuns.ReplaceAllString(content, " ")

	lines := strings.Split(content, "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// extractHTMLTitle returns the <title> text, or a title derived from uri.
func extractHTMLTitle(content, uri string) string {
	if m := titleTag.FindStringSubmatch(content); len(m) > 1 {
		if title := strings.TrimSpace(html.UnescapeString(m[1])); title != "" {
			return title
		}
	}

	name := filepath.Base(uri)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return strings.NewReplacer("_", " ", "-", " ").Replace(name)
}
