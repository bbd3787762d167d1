package domain

// MetadataSource is the metadata key holding a human-readable origin
// (usually a file path) for a document and its chunks.
const MetadataSource = "source"

// Document is a unit of source text submitted for indexing.
// Documents are immutable once ingested; a changed document is
// re-ingested under the same ID during a full re-index.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Text is the full document text before chunking.
	Text string

	// Metadata contains arbitrary key-value pairs.
	// It is copied onto every chunk derived from the document.
	Metadata map[string]string
}

// Source returns the document's source metadata, falling back to its ID.
func (d Document) Source() string {
	if s := d.Metadata[MetadataSource]; s != "" {
		return s
	}
	return d.ID
}

// Chunk is a bounded span of a document's text.
// Chunks are derived deterministically by a chunker.
type Chunk struct {
	// ID is derived from the document ID and offset.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Text is the content of this span.
	Text string

	// Offset is the character position of the span within the document.
	Offset int

	// Metadata is a copy of the parent document's metadata.
	Metadata map[string]string
}

// Source returns the chunk's source metadata, falling back to its document ID.
func (c Chunk) Source() string {
	if s := c.Metadata[MetadataSource]; s != "" {
		return s
	}
	return c.DocumentID
}

// IndexEntry pairs a chunk with its embedding.
type IndexEntry struct {
	Chunk     Chunk
	Embedding []float32
}

// CopyMetadata returns a shallow copy of m, or nil when m is empty.
func CopyMetadata(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
