// Package docx provides a Normaliser that extracts paragraph text from
// Word documents.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

// MIMEType is the Office Open XML word processing type.
const MIMEType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles DOCX documents.
type Normaliser struct{}

// New creates a new DOCX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{MIMEType}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise joins the text runs of each paragraph, one paragraph per line.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	archive, err := zip.NewReader(bytes.NewReader(raw.Content), int64(len(raw.Content)))
	if err != nil {
		return nil, fmt.Errorf("docx %s: %w: not a zip archive", raw.URI, domain.ErrInvalidInput)
	}

	body, err := readPart(archive, "word/document.xml")
	if err != nil {
		return nil, fmt.Errorf("docx %s: %w", raw.URI, err)
	}

	metadata := domain.CopyMetadata(raw.Metadata)
	if metadata == nil {
		metadata = make(map[string]string, 3)
	}
	if metadata["title"] == "" {
		metadata["title"] = coreTitle(archive, raw.URI)
	}
	metadata["mime_type"] = raw.MIMEType
	metadata["format"] = "docx"

	return &domain.Document{
		ID:       raw.DocumentID(),
		Text:     paragraphText(body),
		Metadata: metadata,
	}, nil
}

// readPart returns the bytes of the named archive member.
// A missing member is not an error and yields nil.
func readPart(archive *zip.Reader, name string) ([]byte, error) {
	for _, f := range archive.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: open %s: %v", domain.ErrInvalidInput, name, err)
		}
		defer rc.Close()

		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", domain.ErrInvalidInput, name, err)
		}
		return data, nil
	}
	return nil, nil
}

type documentXML struct {
	Paragraphs []struct {
		Runs []struct {
			Text []string `xml:"t"`
		} `xml:"r"`
	} `xml:"body>p"`
}

// paragraphText extracts the text of word/document.xml.
func paragraphText(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	var doc documentXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return ""
	}

	lines := make([]string, 0, len(doc.Paragraphs))
	for _, p := range doc.Paragraphs {
		var b strings.Builder
		for _, r := range p.Runs {
			for _, t := range r.Text {
				b.WriteString(t)
			}
		}
		lines = append(lines, b.String())
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// coreTitle reads dc:title from docProps/core.xml, falling back to the file name.
func coreTitle(archive *zip.Reader, uri string) string {
	data, err := readPart(archive, "docProps/core.xml")
	if err == nil && len(data) > 0 {
		var props struct {
			Title string `xml:"title"`
		}
		if xml.Unmarshal(data, &props) == nil {
			if title := strings.TrimSpace(props.Title); title != "" {
				return title
			}
		}
	}

	name := filepath.Base(uri)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return strings.NewReplacer("_", " ", "-", " ").Replace(name)
}
