// Package eml provides a Normaliser for RFC 822 email messages.
package eml

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/normalisers/html"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles EML documents.
type Normaliser struct{}

// New creates a new EML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"message/rfc822"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// headers are copied into the text and the metadata, in this order.
var headers = []string{"From", "To", "Date", "Subject"}

// Normalise renders the headers followed by the body. Plain text parts are
// preferred over HTML ones.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	msg, err := mail.ReadMessage(bytes.NewReader(raw.Content))
	if err != nil {
		return nil, fmt.Errorf("eml %s: %w: %v", raw.URI, domain.ErrInvalidInput, err)
	}

	body, err := messageBody(msg.Header.Get("Content-Type"), msg.Body)
	if err != nil {
		return nil, fmt.Errorf("eml %s: %w", raw.URI, err)
	}

	metadata := domain.CopyMetadata(raw.Metadata)
	if metadata == nil {
		metadata = make(map[string]string, len(headers)+2)
	}

	var text strings.Builder
	for _, name := range headers {
		value := decodeHeader(msg.Header.Get(name))
		if value == "" {
			continue
		}
		fmt.Fprintf(&text, "%s: %s\n", name, value)
		metadata[strings.ToLower(name)] = value
	}
	text.WriteString("\n")
	text.WriteString(body)

	if metadata["title"] == "" {
		metadata["title"] = metadata["subject"]
	}
	if metadata["title"] == "" {
		name := filepath.Base(raw.URI)
		metadata["title"] = strings.TrimSuffix(name, filepath.Ext(name))
	}
	delete(metadata, "subject")
	metadata["mime_type"] = raw.MIMEType
	metadata["format"] = "eml"

	return &domain.Document{
		ID:       raw.DocumentID(),
		Text:     strings.TrimSpace(text.String()),
		Metadata: metadata,
	}, nil
}

// decodeHeader decodes RFC 2047 encoded words, keeping the raw value on failure.
func decodeHeader(value string) string {
	if value == "" {
		return ""
	}
	decoded, err := new(mime.WordDecoder).DecodeHeader(value)
	if err != nil {
		return value
	}
	return decoded
}

// messageBody extracts the text of a message or message part.
func messageBody(contentType string, r io.Reader) (string, error) {
	if contentType == "" {
		contentType = "text/plain"
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		return multipartBody(r, params["boundary"])
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", domain.ErrInvalidInput, err)
	}
	if mediaType == "text/html" {
		return html.Text(string(data)), nil
	}
	return strings.ReplaceAll(string(data), "\r\n", "\n"), nil
}

// multipartBody collects the text parts, falling back to HTML parts when
// there are none. Attachments are skipped.
func multipartBody(r io.Reader, boundary string) (string, error) {
	if boundary == "" {
		return "", nil
	}

	var plain, rich []string
	mr := multipart.NewReader(r, boundary)
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Truncated messages keep what was read so far.
			break
		}

		mediaType, _, err := mime.ParseMediaType(part.Header.Get("Content-Type"))
		if err != nil {
			mediaType = "text/plain"
		}
		if part.FileName() != "" {
			continue
		}

		switch {
		case mediaType == "text/plain":
			text, err := messageBody(mediaType, part)
			if err == nil {
				plain = append(plain, text)
			}
		case mediaType == "text/html":
			text, err := messageBody(mediaType, part)
			if err == nil {
				rich = append(rich, text)
			}
		case strings.HasPrefix(mediaType, "multipart/"):
			text, err := messageBody(part.Header.Get("Content-Type"), part)
			if err == nil && text != "" {
				plain = append(plain, text)
			}
		}
	}

	if len(plain) > 0 {
		return strings.Join(plain, "\n"), nil
	}
	return strings.Join(rich, "\n"), nil
}
