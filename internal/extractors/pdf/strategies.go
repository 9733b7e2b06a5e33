// Package pdf extracts text from PDF files. The chain prefers the
// external pdftotext layout tool, then the in-process parser, then a
// crude content-stream scan as a last resort for damaged files.
package pdf

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/leaflib/curator-cli/internal/core/ports/driven"
	"github.com/leaflib/curator-cli/internal/extractors/tools"
)

// Strategies returns the ordered PDF chain.
func Strategies() []driven.Strategy {
	return []driven.Strategy{
		{Name: "pdftotext", Run: runPdftotext},
		{Name: "ledongthuc_pdf", Run: runLibrary},
		{Name: "raw_scan", Run: runRawScan},
	}
}

// runPdftotext shells out to poppler's pdftotext with layout preserved.
func runPdftotext(ctx context.Context, path string) (string, error) {
	out, err := tools.Run(ctx, "pdftotext", "-layout", path, "-")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// runLibrary extracts page text with the ledongthuc/pdf parser.
func runLibrary(_ context.Context, path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}

	if strings.TrimSpace(b.String()) == "" {
		return "", fmt.Errorf("no text layer found")
	}
	return b.String(), nil
}

// Content-stream string operators: (text) Tj and [(a) (b)] TJ.
var (
	tjString  = regexp.MustCompile(`\(((?:[^()\\]|\\.)*)\)\s*Tj`)
	tjArray   = regexp.MustCompile(`\[((?:[^\[\]\\]|\\.)*)\]\s*TJ`)
	arrString = regexp.MustCompile(`\(((?:[^()\\]|\\.)*)\)`)
	pdfEscape = regexp.MustCompile(`\\([nrtbf()\\]|[0-7]{1,3})`)
)

// runRawScan scrapes literal strings out of uncompressed content streams.
// Only useful for malformed files the real parsers reject, and only when
// the streams are not Flate-compressed.
func runRawScan(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading file: %w", err)
	}

	content := string(data)
	var parts []string

	for _, m := range tjString.FindAllStringSubmatch(content, -1) {
		parts = append(parts, decodePDFString(m[1]))
	}
	for _, m := range tjArray.FindAllStringSubmatch(content, -1) {
		for _, s := range arrString.FindAllStringSubmatch(m[1], -1) {
			parts = append(parts, decodePDFString(s[1]))
		}
	}

	text := strings.TrimSpace(strings.Join(parts, " "))
	if text == "" {
		return "", fmt.Errorf("no literal text strings found")
	}
	return text, nil
}

// decodePDFString resolves PDF literal-string escapes.
func decodePDFString(s string) string {
	return pdfEscape.ReplaceAllStringFunc(s, func(m string) string {
		esc := m[1:]
		switch esc {
		case "n":
			return "\n"
		case "r", "b", "f":
			return ""
		case "t":
			return "\t"
		case "(", ")", "\\":
			return esc
		}
		// Octal escape
		var v int
		for _, c := range esc {
			v = v*8 + int(c-'0')
		}
		if v >= 0x20 && v < 0x7f {
			return string(rune(v))
		}
		return ""
	})
}
