package mhtml

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime/quotedprintable"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeArchive(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "page.mhtml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

// buildMultipart assembles a browser-style MHTML archive.
func buildMultipart(boundary string, parts ...string) string {
	var b strings.Builder
	b.WriteString("From: <Saved by Browser>\r\n")
	b.WriteString("Subject: Saved Page\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/related; boundary=%q\r\n", boundary)
	b.WriteString("\r\n")
	for _, part := range parts {
		fmt.Fprintf(&b, "--%s\r\n", boundary)
		b.WriteString(part)
		b.WriteString("\r\n")
	}
	fmt.Fprintf(&b, "--%s--\r\n", boundary)
	return b.String()
}

func htmlPart(encoding, body string) string {
	var b strings.Builder
	b.WriteString("Content-Type: text/html; charset=utf-8\r\n")
	if encoding != "" {
		fmt.Fprintf(&b, "Content-Transfer-Encoding: %s\r\n", encoding)
	}
	b.WriteString("\r\n")
	b.WriteString(body)
	return b.String()
}

const pageHTML = `<html><body><article><p>The archived essay text lives here.</p></article></body></html>`

func TestRun_QuotedPrintablePart(t *testing.T) {
	var encoded strings.Builder
	w := quotedprintable.NewWriter(&encoded)
	_, err := w.Write([]byte(pageHTML))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	archive := buildMultipart("----boundary42",
		htmlPart("quoted-printable", encoded.String()),
		"Content-Type: image/png\r\nContent-Transfer-Encoding: base64\r\n\r\naWdub3JlZA==",
	)

	text, err := run(context.Background(), writeArchive(t, archive))
	require.NoError(t, err)
	assert.Contains(t, text, "The archived essay text lives here.")
}

func TestRun_Base64Part(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte(pageHTML))
	archive := buildMultipart("----boundary42", htmlPart("base64", encoded))

	text, err := run(context.Background(), writeArchive(t, archive))
	require.NoError(t, err)
	assert.Contains(t, text, "The archived essay text lives here.")
}

func TestRun_PicksLargestHTMLPart(t *testing.T) {
	adFrame := `<html><body><p>sponsored banner</p></body></html>`
	archive := buildMultipart("----boundary42",
		htmlPart("", adFrame),
		htmlPart("", pageHTML),
	)

	text, err := run(context.Background(), writeArchive(t, archive))
	require.NoError(t, err)
	assert.Contains(t, text, "The archived essay text lives here.")
	assert.NotContains(t, text, "sponsored banner")
}

func TestRun_SinglePartHTML(t *testing.T) {
	archive := "MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=utf-8\r\n" +
		"\r\n" + pageHTML

	text, err := run(context.Background(), writeArchive(t, archive))
	require.NoError(t, err)
	assert.Contains(t, text, "The archived essay text lives here.")
}

func TestRun_NoHTMLPart(t *testing.T) {
	archive := buildMultipart("----boundary42",
		"Content-Type: image/png\r\nContent-Transfer-Encoding: base64\r\n\r\naWdub3JlZA==",
	)

	_, err := run(context.Background(), writeArchive(t, archive))
	assert.Error(t, err)
}

func TestRun_NotAnArchive(t *testing.T) {
	_, err := run(context.Background(), writeArchive(t, "<html><body>plain html, no headers</body></html>"))
	assert.Error(t, err)
}
