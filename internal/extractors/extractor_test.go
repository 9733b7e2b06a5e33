package extractors

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leaflib/curator-cli/internal/core/domain"
	"github.com/leaflib/curator-cli/internal/core/ports/driven"
)

func TestSupported(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"article.pdf", true},
		{"ARTICLE.PDF", true},
		{"page.html", true},
		{"page.htm", true},
		{"saved.mhtml", true},
		{"saved.mht", true},
		{"book.epub", true},
		{"book.mobi", true},
		{"book.azw3", true},
		{"notes.txt", true},
		{"notes.md", true},
		{"image.png", false},
		{"archive.zip", false},
		{"noextension", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, Supported(tt.path))
		})
	}
}

func TestExtract_UnsupportedFormat(t *testing.T) {
	e := New()
	_, err := e.Extract(context.Background(), "photo.png", 100)
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestExtract_PlainText(t *testing.T) {
	e := New()
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("Plain text survives extraction intact."), 0600))

	extraction, err := e.Extract(context.Background(), path, 100)
	require.NoError(t, err)
	assert.Equal(t, "Plain text survives extraction intact.", extraction.Text)
	assert.Equal(t, "direct_read", extraction.Method)
	assert.Equal(t, 5, extraction.WordCount)
}

func TestExtract_TruncatesToBudget(t *testing.T) {
	e := New()
	content := ""
	for i := 0; i < 50; i++ {
		content += "word "
	}
	path := filepath.Join(t.TempDir(), "long.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	extraction, err := e.Extract(context.Background(), path, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, extraction.WordCount)
}

func TestExtract_MissingFileReturnsExtractionError(t *testing.T) {
	e := New()
	_, err := e.Extract(context.Background(), filepath.Join(t.TempDir(), "missing.txt"), 100)
	require.Error(t, err)

	extErr, ok := domain.IsExtractionError(err)
	require.True(t, ok)
	assert.True(t, extErr.Logged)
	assert.NotEmpty(t, extErr.Failures)
}

func TestRunChain_FallsThroughToLaterStrategy(t *testing.T) {
	chain := []driven.Strategy{
		{Name: "broken", Run: func(context.Context, string) (string, error) {
			return "", errors.New("tool not installed")
		}},
		{Name: "empty", Run: func(context.Context, string) (string, error) {
			return "   \n  ", nil
		}},
		{Name: "works", Run: func(context.Context, string) (string, error) {
			return "recovered text", nil
		}},
	}

	text, method, failures := runChain(context.Background(), chain, "any.pdf")
	assert.Equal(t, "recovered text", text)
	assert.Equal(t, "works", method)
	require.Len(t, failures, 2)
	assert.Equal(t, "broken", failures[0].Strategy)
	assert.Equal(t, "empty", failures[1].Strategy)
	assert.ErrorIs(t, failures[1].Err, domain.ErrEmptyExtraction)
}

func TestRunChain_FirstWinSkipsRest(t *testing.T) {
	called := false
	chain := []driven.Strategy{
		{Name: "first", Run: func(context.Context, string) (string, error) {
			return "first text", nil
		}},
		{Name: "second", Run: func(context.Context, string) (string, error) {
			called = true
			return "second text", nil
		}},
	}

	text, method, failures := runChain(context.Background(), chain, "any.pdf")
	assert.Equal(t, "first text", text)
	assert.Equal(t, "first", method)
	assert.Empty(t, failures)
	assert.False(t, called)
}

func TestRunChain_AllFail(t *testing.T) {
	chain := []driven.Strategy{
		{Name: "a", Run: func(context.Context, string) (string, error) {
			return "", errors.New("fail a")
		}},
		{Name: "b", Run: func(context.Context, string) (string, error) {
			return "", errors.New("fail b")
		}},
	}

	text, method, failures := runChain(context.Background(), chain, "any.pdf")
	assert.Empty(t, text)
	assert.Empty(t, method)
	assert.Len(t, failures, 2)
}

func TestRunChain_CancelledContextStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	chain := []driven.Strategy{
		{Name: "never", Run: func(context.Context, string) (string, error) {
			t.Fatal("strategy ran despite cancelled context")
			return "", nil
		}},
	}

	text, _, failures := runChain(ctx, chain, "any.pdf")
	assert.Empty(t, text)
	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0].Err, context.Canceled)
}
