package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocument_Source(t *testing.T) {
	doc := Document{ID: "doc-1", Metadata: map[string]string{MetadataSource: "notes/a.md"}}
	assert.Equal(t, "notes/a.md", doc.Source())

	bare := Document{ID: "doc-2"}
	assert.Equal(t, "doc-2", bare.Source())
}

func TestChunk_Source(t *testing.T) {
	chunk := Chunk{ID: "c1", DocumentID: "doc-1"}
	assert.Equal(t, "doc-1", chunk.Source())

	chunk.Metadata = map[string]string{MetadataSource: "report.pdf"}
	assert.Equal(t, "report.pdf", chunk.Source())
}

func TestCopyMetadata(t *testing.T) {
	assert.Nil(t, CopyMetadata(nil))
	assert.Nil(t, CopyMetadata(map[string]string{}))

	src := map[string]string{"lang": "en"}
	cp := CopyMetadata(src)
	assert.Equal(t, src, cp)

	cp["lang"] = "de"
	assert.Equal(t, "en", src["lang"], "copy must not alias the source map")
}
