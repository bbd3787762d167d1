package eml

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

func rawEmail(uri, content string) *domain.RawDocument {
	return &domain.RawDocument{
		URI:      uri,
		MIMEType: "message/rfc822",
		Content:  []byte(strings.ReplaceAll(content, "\n", "\r\n")),
	}
}

func TestNew(t *testing.T) {
	n := New()
	require.NotNil(t, n)
	assert.Equal(t, []string{"message/rfc822"}, n.SupportedMIMETypes())
	assert.Equal(t, 50, n.Priority())
}

func TestNormalise_NilDocument(t *testing.T) {
	doc, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, doc)
}

func TestNormalise_PlainText(t *testing.T) {
	raw := rawEmail("mail/rotation.eml", `From: Ops <ops@example.com>
To: team@example.com
Date: Mon, 2 Jun 2025 10:00:00 +0000
Subject: Key rotation

Rotate keys every ninety days.
`)

	doc, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, "mail/rotation.eml", doc.ID)
	assert.True(t, strings.HasPrefix(doc.Text, "From: Ops <ops@example.com>\nTo: team@example.com\n"))
	assert.Contains(t, doc.Text, "Subject: Key rotation\n\nRotate keys every ninety days.")
	assert.Equal(t, "Key rotation", doc.Metadata["title"])
	assert.Equal(t, "Ops <ops@example.com>", doc.Metadata["from"])
	assert.Equal(t, "eml", doc.Metadata["format"])
	assert.NotContains(t, doc.Metadata, "subject")
}

func TestNormalise_EncodedSubject(t *testing.T) {
	raw := rawEmail("m.eml", `Subject: =?UTF-8?B?UmVzdW3DqQ==?=

body
`)

	doc, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "Resumé", doc.Metadata["title"])
}

func TestNormalise_MultipartPrefersPlain(t *testing.T) {
	raw := rawEmail("m.eml", `Subject: Update
Content-Type: multipart/alternative; boundary="b1"

--b1
Content-Type: text/plain

plain body
--b1
Content-Type: text/html

<p>html body</p>
--b1--
`)

	doc, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)
	assert.Contains(t, doc.Text, "plain body")
	assert.NotContains(t, doc.Text, "html body")
}

func TestNormalise_HTMLOnly(t *testing.T) {
	raw := rawEmail("m.eml", `Content-Type: multipart/mixed; boundary="b1"

--b1
Content-Type: text/html

<html><body><p>Hello &amp; welcome</p><p>Second</p></body></html>
--b1
Content-Type: application/pdf
Content-Disposition: attachment; filename="report.pdf"

%PDF-1.4
--b1--
`)

	doc, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)
	assert.Contains(t, doc.Text, "Hello & welcome\nSecond")
	assert.NotContains(t, doc.Text, "PDF-1.4")
	assert.Equal(t, "m", doc.Metadata["title"])
}

func TestNormalise_Malformed(t *testing.T) {
	_, err := New().Normalise(context.Background(), &domain.RawDocument{URI: "bad.eml", Content: []byte{}})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
