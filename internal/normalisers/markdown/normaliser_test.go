package markdown

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

func TestSupportedMIMETypes(t *testing.T) {
	mimeTypes := New().SupportedMIMETypes()

	assert.Contains(t, mimeTypes, "text/markdown")
	assert.Contains(t, mimeTypes, "text/x-markdown")
	assert.Len(t, mimeTypes, 2)
}

func TestPriority(t *testing.T) {
	assert.Equal(t, 50, New().Priority())
}

func TestNormalise_NilDocument(t *testing.T) {
	doc, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, doc)
}

func TestNormalise_Success(t *testing.T) {
	raw := &domain.RawDocument{
		URI:      "/path/to/document.md",
		MIMEType: "text/markdown",
		Content:  []byte("# Hello World\n\nThis is a **test** with a [link](https://example.com)."),
		Metadata: map[string]string{"source": "document.md", "lang": "en"},
	}

	doc, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, "/path/to/document.md", doc.ID)
	assert.Equal(t, "Hello World\n\nThis is a test with a link.", doc.Text)
	assert.Equal(t, "Hello World", doc.Metadata["title"])
	assert.Equal(t, "markdown", doc.Metadata["format"])
	assert.Equal(t, "text/markdown", doc.Metadata["mime_type"])
	assert.Equal(t, "en", doc.Metadata["lang"])
	assert.Equal(t, "document.md", doc.Metadata["source"])

	// The raw metadata is not modified.
	assert.NotContains(t, raw.Metadata, "format")
}

func TestNormalise_ExplicitIDAndTitle(t *testing.T) {
	raw := &domain.RawDocument{
		ID:       "guide",
		URI:      "docs/user-guide.md",
		MIMEType: "text/markdown",
		Content:  []byte("no heading here"),
		Metadata: map[string]string{"title": "The Guide"},
	}

	doc, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "guide", doc.ID)
	assert.Equal(t, "The Guide", doc.Metadata["title"])
}

func TestExtractMarkdownTitle(t *testing.T) {
	tests := []struct {
		name    string
		content string
		uri     string
		want    string
	}{
		{"h1 heading", "# Title\nbody", "a.md", "Title"},
		{"indented h1", "intro\n   # Later Title", "a.md", "Later Title"},
		{"h2 is not a title", "## Sub\nbody", "my_notes-file.md", "my notes file"},
		{"empty content", "", "/x/readme.markdown", "readme"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractMarkdownTitle(tt.content, tt.uri))
		})
	}
}

func TestStripMarkdown(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"headings", "## Section\ntext", "Section\ntext"},
		{"inline code keeps content", "use `go test` here", "use go test here"},
		{"code fence keeps body", "```go\nx := 1\n```", "x := 1"},
		{"image keeps alt", "![diagram](img.png)", "diagram"},
		{"lists", "- one\n* two\n1. three", "one\ntwo\nthree"},
		{"blockquote", "> quoted", "quoted"},
		{"emphasis", "*a* and __b__", "a and b"},
		{"horizontal rule", "above\n\n---\n\nbelow", "above\n\nbelow"},
		{"snake case survives", "call my_function now", "call my_function now"},
		{"crlf", "line1\r\nline2", "line1\nline2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripMarkdown(tt.input))
		})
	}
}
