package html

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripTags(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "simple markup",
			input: "<p>Hello <b>world</b></p>",
			want:  "Hello world",
		},
		{
			name:  "script content removed",
			input: "<p>before</p><script>var x = 1;</script><p>after</p>",
			want:  "before\nafter",
		},
		{
			name:  "style content removed",
			input: "<style>.a { color: red }</style>text",
			want:  "text",
		},
		{
			name:  "comments removed",
			input: "keep <!-- secret --> this",
			want:  "keep  this",
		},
		{
			name:  "block elements become line breaks",
			input: "<div>one</div><div>two</div>",
			want:  "one\ntwo",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripTags(tt.input))
		})
	}
}

func TestExtractReadable_PrefersArticle(t *testing.T) {
	doc := `<html><head><title>Page</title></head><body>
		<nav>Home About Contact</nav>
		<article><p>The actual article text.</p></article>
		<footer>Copyright 2026</footer>
	</body></html>`

	got := ExtractReadable(doc)
	assert.Contains(t, got, "The actual article text.")
	assert.NotContains(t, got, "Home About Contact")
	assert.NotContains(t, got, "Copyright 2026")
}

func TestExtractReadable_PrefersMainOverArticle(t *testing.T) {
	doc := `<html><body>
		<main><p>Main body.</p></main>
		<article><p>Secondary article.</p></article>
	</body></html>`

	got := ExtractReadable(doc)
	assert.Contains(t, got, "Main body.")
	assert.NotContains(t, got, "Secondary article.")
}

func TestExtractReadable_ContentDivFallback(t *testing.T) {
	doc := `<html><body>
		<div class="sidebar">Related links</div>
		<div class="post-content"><p>Saved essay text.</p></div>
	</body></html>`

	got := ExtractReadable(doc)
	assert.Contains(t, got, "Saved essay text.")
}

func TestExtractReadable_BodyFallback(t *testing.T) {
	doc := `<html><body><p>Bare paragraph.</p></body></html>`
	assert.Contains(t, ExtractReadable(doc), "Bare paragraph.")
}

func TestRunTokenizer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	doc := `<html><head><script>tracker()</script></head><body>
		<nav>menu items</nav>
		<p>Visible paragraph.</p>
		<aside>ad text</aside>
	</body></html>`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0600))

	got, err := runTokenizer(context.Background(), path)
	require.NoError(t, err)
	assert.Contains(t, got, "Visible paragraph.")
	assert.NotContains(t, got, "tracker()")
	assert.NotContains(t, got, "menu items")
	assert.NotContains(t, got, "ad text")
}

func TestRunTokenizer_NoText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.html")
	require.NoError(t, os.WriteFile(path, []byte("<html><head></head></html>"), 0600))

	_, err := runTokenizer(context.Background(), path)
	assert.Error(t, err)
}

func TestRunRegexStrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.html")
	// Unclosed tags that trip stricter parsers.
	require.NoError(t, os.WriteFile(path, []byte("<p>broken <b>markup text"), 0600))

	got, err := runRegexStrip(context.Background(), path)
	require.NoError(t, err)
	assert.Contains(t, got, "broken")
	assert.Contains(t, got, "markup text")
}
