package epub

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeEPUB assembles a zip archive from name/content pairs.
func writeEPUB(t *testing.T, files map[string]string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "book.epub")
	f, err := os.Create(path)
	require.NoError(t, err)

	zw := zip.NewWriter(f)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

const containerFile = `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

const opfFile = `<?xml version="1.0"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0">
  <manifest>
    <item id="ch1" href="chapter1.xhtml" media-type="application/xhtml+xml"/>
    <item id="ch2" href="chapter2.xhtml" media-type="application/xhtml+xml"/>
    <item id="css" href="style.css" media-type="text/css"/>
  </manifest>
  <spine>
    <itemref idref="ch2"/>
    <itemref idref="ch1"/>
  </spine>
</package>`

func TestRunZipReader_SpineOrder(t *testing.T) {
	path := writeEPUB(t, map[string]string{
		"META-INF/container.xml": containerFile,
		"OEBPS/content.opf":      opfFile,
		"OEBPS/chapter1.xhtml":   "<html><body><p>First in name order.</p></body></html>",
		"OEBPS/chapter2.xhtml":   "<html><body><p>Listed first in the spine.</p></body></html>",
		"OEBPS/style.css":        "p { margin: 0 }",
	})

	text, err := runZipReader(context.Background(), path)
	require.NoError(t, err)

	// The spine, not the entry names, dictates reading order.
	spinePos := strings.Index(text, "Listed first in the spine.")
	namePos := strings.Index(text, "First in name order.")
	require.GreaterOrEqual(t, spinePos, 0)
	require.GreaterOrEqual(t, namePos, 0)
	assert.Less(t, spinePos, namePos)
}

func TestRunZipReader_FallbackWithoutPackage(t *testing.T) {
	// No container.xml: every HTML entry is read in name order.
	path := writeEPUB(t, map[string]string{
		"b_second.xhtml": "<html><body><p>Second chapter.</p></body></html>",
		"a_first.xhtml":  "<html><body><p>First chapter.</p></body></html>",
		"cover.png":      "not html",
	})

	text, err := runZipReader(context.Background(), path)
	require.NoError(t, err)
	assert.Less(t, strings.Index(text, "First chapter."), strings.Index(text, "Second chapter."))
}

func TestRunZipReader_NoChapters(t *testing.T) {
	path := writeEPUB(t, map[string]string{
		"mimetype": "application/epub+zip",
	})

	_, err := runZipReader(context.Background(), path)
	assert.Error(t, err)
}

func TestRunZipReader_NotAZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.epub")
	require.NoError(t, os.WriteFile(path, []byte("not a zip archive"), 0600))

	_, err := runZipReader(context.Background(), path)
	assert.Error(t, err)
}

