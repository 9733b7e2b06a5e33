// Package epub extracts text from EPUB archives. The chain prefers the
// in-process package reader, falling back to pandoc and then Calibre's
// ebook-convert for files the reader cannot handle.
package epub

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/leaflib/curator-cli/internal/core/ports/driven"
	"github.com/leaflib/curator-cli/internal/extractors/html"
	"github.com/leaflib/curator-cli/internal/extractors/tools"
)

// Strategies returns the ordered EPUB chain.
func Strategies() []driven.Strategy {
	return []driven.Strategy{
		{Name: "epub_zip", Run: runZipReader},
		{Name: "pandoc", Run: runPandoc},
		{Name: "ebook_convert", Run: RunEbookConvert},
	}
}

// container.xml locates the OPF package document.
type containerXML struct {
	Rootfiles []struct {
		FullPath string `xml:"full-path,attr"`
	} `xml:"rootfiles>rootfile"`
}

// opfPackage is the subset of the OPF package document we need: the
// manifest maps item IDs to hrefs, the spine gives reading order.
type opfPackage struct {
	Manifest []struct {
		ID        string `xml:"id,attr"`
		Href      string `xml:"href,attr"`
		MediaType string `xml:"media-type,attr"`
	} `xml:"manifest>item"`
	Spine []struct {
		IDRef string `xml:"idref,attr"`
	} `xml:"spine>itemref"`
}

// runZipReader reads the archive in-process: container.xml → OPF →
// spine-ordered chapter documents, tags stripped. Falls back to every
// HTML-ish entry in name order when the package metadata is unusable.
func runZipReader(_ context.Context, filePath string) (string, error) {
	zr, err := zip.OpenReader(filePath)
	if err != nil {
		return "", fmt.Errorf("opening archive: %w", err)
	}
	defer zr.Close()

	entries := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		entries[f.Name] = f
	}

	chapters, err := spineChapters(entries)
	if err != nil {
		chapters = htmlEntriesByName(zr.File)
	}
	if len(chapters) == 0 {
		return "", fmt.Errorf("no readable chapters found")
	}

	var b strings.Builder
	for _, f := range chapters {
		content, readErr := readZipEntry(f)
		if readErr != nil {
			continue
		}
		if text := html.StripTags(content); text != "" {
			b.WriteString(text)
			b.WriteString("\n\n")
		}
	}

	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", fmt.Errorf("chapters contained no text")
	}
	return text, nil
}

// spineChapters resolves the OPF spine to zip entries in reading order.
func spineChapters(entries map[string]*zip.File) ([]*zip.File, error) {
	containerEntry, ok := entries["META-INF/container.xml"]
	if !ok {
		return nil, fmt.Errorf("missing META-INF/container.xml")
	}
	containerData, err := readZipEntry(containerEntry)
	if err != nil {
		return nil, err
	}

	var container containerXML
	if err := xml.Unmarshal([]byte(containerData), &container); err != nil {
		return nil, fmt.Errorf("parsing container.xml: %w", err)
	}
	if len(container.Rootfiles) == 0 {
		return nil, fmt.Errorf("container.xml lists no rootfile")
	}

	opfPath := container.Rootfiles[0].FullPath
	opfEntry, ok := entries[opfPath]
	if !ok {
		return nil, fmt.Errorf("missing package document %s", opfPath)
	}
	opfData, err := readZipEntry(opfEntry)
	if err != nil {
		return nil, err
	}

	var pkg opfPackage
	if err := xml.Unmarshal([]byte(opfData), &pkg); err != nil {
		return nil, fmt.Errorf("parsing package document: %w", err)
	}

	hrefs := make(map[string]string, len(pkg.Manifest))
	for _, item := range pkg.Manifest {
		hrefs[item.ID] = item.Href
	}

	opfDir := path.Dir(opfPath)
	var chapters []*zip.File
	for _, ref := range pkg.Spine {
		href, ok := hrefs[ref.IDRef]
		if !ok {
			continue
		}
		name := href
		if opfDir != "." {
			name = path.Join(opfDir, href)
		}
		if f, ok := entries[name]; ok {
			chapters = append(chapters, f)
		}
	}

	if len(chapters) == 0 {
		return nil, fmt.Errorf("spine resolved to no entries")
	}
	return chapters, nil
}

// htmlEntriesByName is the fallback chapter list: every HTML-ish entry
// sorted by name.
func htmlEntriesByName(files []*zip.File) []*zip.File {
	var chapters []*zip.File
	for _, f := range files {
		ext := strings.ToLower(path.Ext(f.Name))
		if ext == ".xhtml" || ext == ".html" || ext == ".htm" {
			chapters = append(chapters, f)
		}
	}
	sort.Slice(chapters, func(i, j int) bool { return chapters[i].Name < chapters[j].Name })
	return chapters
}

func readZipEntry(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", f.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", f.Name, err)
	}
	return string(data), nil
}

// runPandoc converts the EPUB to plain text with pandoc.
func runPandoc(ctx context.Context, filePath string) (string, error) {
	out, err := tools.Run(ctx, "pandoc", "-f", "epub", "-t", "plain", "--wrap=none", filePath)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// RunEbookConvert converts the file to text with Calibre's ebook-convert.
// Exported because the MOBI path reuses it after its EPUB conversion.
func RunEbookConvert(ctx context.Context, filePath string) (string, error) {
	tmpPath, cleanup, err := tools.TempFile("curator-*.txt")
	if err != nil {
		return "", err
	}
	defer cleanup()

	if _, err := tools.Run(ctx, "ebook-convert", filePath, tmpPath); err != nil {
		return "", err
	}

	data, err := os.ReadFile(tmpPath)
	if err != nil {
		return "", fmt.Errorf("reading converted text: %w", err)
	}
	return string(data), nil
}
