package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// buildDocx zips the given members into a minimal DOCX file.
func buildDocx(t *testing.T, parts map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range parts {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

const documentBody = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Key rotation</w:t></w:r></w:p>
    <w:p><w:r><w:t>Rotate keys </w:t></w:r><w:r><w:t>every ninety days.</w:t></w:r></w:p>
  </w:body>
</w:document>`

func TestNew(t *testing.T) {
	n := New()
	require.NotNil(t, n)
	assert.Equal(t, []string{MIMEType}, n.SupportedMIMETypes())
	assert.Equal(t, 50, n.Priority())
}

func TestNormalise_NilDocument(t *testing.T) {
	doc, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, doc)
}

func TestNormalise_NotAZip(t *testing.T) {
	raw := &domain.RawDocument{URI: "fake.docx", MIMEType: MIMEType, Content: []byte("plain text")}

	_, err := New().Normalise(context.Background(), raw)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "fake.docx")
}

func TestNormalise(t *testing.T) {
	raw := &domain.RawDocument{
		URI:      "/docs/security_policy.docx",
		MIMEType: MIMEType,
		Content:  buildDocx(t, map[string]string{"word/document.xml": documentBody}),
		Metadata: map[string]string{"team": "security"},
	}

	doc, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, "/docs/security_policy.docx", doc.ID)
	assert.Equal(t, "Key rotation\nRotate keys every ninety days.", doc.Text)
	assert.Equal(t, "security policy", doc.Metadata["title"])
	assert.Equal(t, "docx", doc.Metadata["format"])
	assert.Equal(t, "security", doc.Metadata["team"])
	assert.Equal(t, map[string]string{"team": "security"}, raw.Metadata, "input metadata is not modified")
}

func TestNormalise_CoreTitle(t *testing.T) {
	core := `<?xml version="1.0" encoding="UTF-8"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties"
  xmlns:dc="http://purl.org/dc/elements/1.1/"><dc:title> Security Policy </dc:title></cp:coreProperties>`
	raw := &domain.RawDocument{
		ID:       "policy",
		URI:      "policy.docx",
		MIMEType: MIMEType,
		Content: buildDocx(t, map[string]string{
			"word/document.xml": documentBody,
			"docProps/core.xml": core,
		}),
	}

	doc, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "policy", doc.ID)
	assert.Equal(t, "Security Policy", doc.Metadata["title"])
}

func TestNormalise_NoBody(t *testing.T) {
	raw := &domain.RawDocument{
		URI:      "empty.docx",
		MIMEType: MIMEType,
		Content:  buildDocx(t, map[string]string{"[Content_Types].xml": "<Types/>"}),
	}

	doc, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)
	assert.Empty(t, doc.Text)
}

func TestParagraphText_Malformed(t *testing.T) {
	assert.Empty(t, paragraphText([]byte("<w:document><w:body>")))
}
