// Package mhtml extracts text from MIME-multipart web archives
// (.mhtml/.mht). It walks the multipart sections, decodes the transfer
// encoding of each part and extracts from the most article-like HTML
// container, preferring semantic content elements over the raw body.
package mhtml

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"os"
	"strings"

	"github.com/leaflib/curator-cli/internal/core/ports/driven"
	"github.com/leaflib/curator-cli/internal/extractors/html"
)

// Strategy returns the specialised MIME-walking extractor. It runs ahead
// of the generic HTML chain for archive extensions.
func Strategy() driven.Strategy {
	return driven.Strategy{Name: "mhtml_mime", Run: run}
}

func run(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading file: %w", err)
	}

	msg, err := mail.ReadMessage(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("parsing MIME envelope: %w", err)
	}

	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("parsing content type: %w", err)
	}

	var htmlPart string
	if strings.HasPrefix(mediaType, "multipart/") {
		htmlPart, err = largestHTMLPart(msg.Body, params["boundary"])
		if err != nil {
			return "", err
		}
	} else if mediaType == "text/html" {
		htmlPart, err = decodeBody(msg.Body, msg.Header.Get("Content-Transfer-Encoding"))
		if err != nil {
			return "", err
		}
	}

	if strings.TrimSpace(htmlPart) == "" {
		return "", fmt.Errorf("no html part found")
	}

	text := html.ExtractReadable(htmlPart)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("html part contained no text")
	}
	return text, nil
}

// largestHTMLPart walks the multipart sections and returns the decoded
// body of the largest text/html part. Browsers store the page itself as
// the dominant part; subframes and ads are smaller.
func largestHTMLPart(r io.Reader, boundary string) (string, error) {
	if boundary == "" {
		return "", fmt.Errorf("multipart archive without boundary")
	}

	mr := multipart.NewReader(r, boundary)
	var best string

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		partType, params, parseErr := mime.ParseMediaType(part.Header.Get("Content-Type"))
		if parseErr != nil {
			part.Close()
			continue
		}

		switch {
		case partType == "text/html":
			body, decErr := decodeBody(part, part.Header.Get("Content-Transfer-Encoding"))
			part.Close()
			if decErr != nil {
				continue
			}
			if len(body) > len(best) {
				best = body
			}

		case strings.HasPrefix(partType, "multipart/"):
			raw, readErr := io.ReadAll(part)
			part.Close()
			if readErr != nil {
				continue
			}
			nested, nestedErr := largestHTMLPart(bytes.NewReader(raw), params["boundary"])
			if nestedErr == nil && len(nested) > len(best) {
				best = nested
			}

		default:
			part.Close()
		}
	}

	if best == "" {
		return "", fmt.Errorf("no html part found")
	}
	return best, nil
}

// decodeBody applies the part's transfer encoding.
func decodeBody(r io.Reader, encoding string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "quoted-printable":
		r = quotedprintable.NewReader(r)
	case "base64":
		// The decoder ignores embedded line breaks.
		r = base64.NewDecoder(base64.StdEncoding, r)
	}

	body, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("decoding part body: %w", err)
	}
	return string(body), nil
}
