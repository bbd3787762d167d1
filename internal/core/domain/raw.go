package domain

// RawDocument represents opaque bytes fetched by a connector.
// It is the connector's output before normalisation.
type RawDocument struct {
	// ID overrides the document ID. Empty means the URI is used.
	ID string

	// URI is the original location, usually a file path.
	URI string

	// MIMEType is the content type (e.g., "application/pdf").
	MIMEType string

	// Content is the raw bytes.
	Content []byte

	// Metadata is copied onto the normalised document.
	Metadata map[string]string
}

// DocumentID returns the explicit ID, falling back to the URI.
func (r *RawDocument) DocumentID() string {
	if r.ID != "" {
		return r.ID
	}
	return r.URI
}

// ChangeType represents the type of document change.
type ChangeType int

const (
	// ChangeCreated indicates a new document.
	ChangeCreated ChangeType = iota

	// ChangeUpdated indicates a modified document.
	ChangeUpdated

	// ChangeDeleted indicates a removed document.
	ChangeDeleted
)

// String returns the change name.
func (c ChangeType) String() string {
	switch c {
	case ChangeCreated:
		return "created"
	case ChangeUpdated:
		return "updated"
	case ChangeDeleted:
		return "deleted"
	default:
		return unknownDescription
	}
}

// RawDocumentChange represents a change event from a connector.
type RawDocumentChange struct {
	// Type is the kind of change.
	Type ChangeType

	// Document is the affected document. Content is empty for deletions.
	Document RawDocument
}
