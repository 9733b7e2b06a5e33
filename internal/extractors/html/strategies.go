// Package html extracts text from HTML documents. The chain prefers
// pandoc's markdown conversion, then an in-process tokenizer walk, then
// a raw regex tag stripper for markup too broken to parse.
package html

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	xhtml "golang.org/x/net/html"

	"github.com/leaflib/curator-cli/internal/core/ports/driven"
	"github.com/leaflib/curator-cli/internal/extractors/tools"
)

// Strategies returns the ordered HTML chain.
func Strategies() []driven.Strategy {
	return []driven.Strategy{
		{Name: "pandoc", Run: runPandoc},
		{Name: "net_html", Run: runTokenizer},
		{Name: "regex_strip", Run: runRegexStrip},
	}
}

// runPandoc converts the document to plain text with pandoc.
func runPandoc(ctx context.Context, path string) (string, error) {
	out, err := tools.Run(ctx, "pandoc", "-f", "html", "-t", "plain", "--wrap=none", path)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// skipElements are subtrees that carry no article text.
var skipElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"head":     true,
	"svg":      true,
	"nav":      true,
	"header":   true,
	"footer":   true,
	"aside":    true,
}

// runTokenizer walks the token stream, skipping non-content subtrees.
func runTokenizer(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading file: %w", err)
	}

	z := xhtml.NewTokenizer(strings.NewReader(string(data)))
	var b strings.Builder
	var skipDepth int

	for {
		tt := z.Next()
		switch tt {
		case xhtml.ErrorToken:
			text := strings.TrimSpace(b.String())
			if text == "" {
				return "", fmt.Errorf("no text content found")
			}
			return text, nil

		case xhtml.StartTagToken:
			name, _ := z.TagName()
			if skipElements[string(name)] {
				skipDepth++
			}

		case xhtml.EndTagToken:
			name, _ := z.TagName()
			if skipElements[string(name)] && skipDepth > 0 {
				skipDepth--
			}

		case xhtml.TextToken:
			if skipDepth == 0 {
				if t := strings.TrimSpace(string(z.Text())); t != "" {
					b.WriteString(t)
					b.WriteString("\n")
				}
			}
		}
	}
}

// Pre-compiled regular expressions for the raw stripper.
var (
	scriptTag     = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleTag      = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	noscriptTag   = regexp.MustCompile(`(?is)<noscript[^>]*>.*?</noscript>`)
	headTag       = regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`)
	svgTag        = regexp.MustCompile(`(?is)<svg[^>]*>.*?</svg>`)
	htmlComments  = regexp.MustCompile(`(?s)<!--.*?-->`)
	blockElements = regexp.MustCompile(`(?i)</?(p|div|br|hr|h[1-6]|li|tr|blockquote|pre|table|section|article)[^>]*>`)
	allTags       = regexp.MustCompile(`<[^>]+>`)
)

// runRegexStrip removes markup with regexes. Last resort: survives markup
// that neither pandoc nor the tokenizer accepts.
func runRegexStrip(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading file: %w", err)
	}

	text := StripTags(string(data))
	if text == "" {
		return "", fmt.Errorf("no text content found")
	}
	return text, nil
}

// StripTags removes HTML markup from a fragment using regexes only.
func StripTags(content string) string {
	content = scriptTag.ReplaceAllString(content, "")
	content = styleTag.ReplaceAllString(content, "")
	content = noscriptTag.ReplaceAllString(content, "")
	content = headTag.ReplaceAllString(content, "")
	content = svgTag.ReplaceAllString(content, "")
	content = htmlComments.ReplaceAllString(content, "")
	content = blockElements.ReplaceAllString(content, "\n")
	content = allTags.ReplaceAllString(content, "")

	lines := strings.Split(content, "\n")
	var kept []string
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// contentContainers are class/id substrings that usually wrap the
// article body.
var contentContainers = []string{"content", "article", "post", "entry", "main", "body"}

// ExtractReadable parses a full HTML document and extracts text from the
// most article-like container: <main> or <article> when present, then a
// div whose class or id names a content container, then the whole body.
func ExtractReadable(content string) string {
	root, err := xhtml.Parse(strings.NewReader(content))
	if err != nil {
		return StripTags(content)
	}

	if node := findSemanticContainer(root); node != nil {
		if text := collectText(node); strings.TrimSpace(text) != "" {
			return text
		}
	}

	if body := findElement(root, "body"); body != nil {
		return collectText(body)
	}
	return collectText(root)
}

// findSemanticContainer returns the best content-bearing element.
func findSemanticContainer(root *xhtml.Node) *xhtml.Node {
	if n := findElement(root, "main"); n != nil {
		return n
	}
	if n := findElement(root, "article"); n != nil {
		return n
	}

	var match *xhtml.Node
	var walk func(*xhtml.Node)
	walk = func(n *xhtml.Node) {
		if match != nil {
			return
		}
		if n.Type == xhtml.ElementNode && n.Data == "div" {
			for _, attr := range n.Attr {
				if attr.Key != "class" && attr.Key != "id" {
					continue
				}
				val := strings.ToLower(attr.Val)
				for _, marker := range contentContainers {
					if strings.Contains(val, marker) {
						match = n
						return
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return match
}

// findElement returns the first element with the given tag name.
func findElement(root *xhtml.Node, name string) *xhtml.Node {
	var match *xhtml.Node
	var walk func(*xhtml.Node)
	walk = func(n *xhtml.Node) {
		if match != nil {
			return
		}
		if n.Type == xhtml.ElementNode && n.Data == name {
			match = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return match
}

// collectText gathers text nodes beneath n, skipping non-content subtrees.
func collectText(n *xhtml.Node) string {
	var b strings.Builder
	var walk func(*xhtml.Node)
	walk = func(n *xhtml.Node) {
		if n.Type == xhtml.ElementNode && skipElements[n.Data] {
			return
		}
		if n.Type == xhtml.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				b.WriteString(t)
				b.WriteString("\n")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}
