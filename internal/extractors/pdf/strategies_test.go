package pdf

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePDFStream(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "file.pdf")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestRunRawScan_TjOperator(t *testing.T) {
	stream := `BT /F1 12 Tf (Hello from a content stream) Tj ET`
	path := writePDFStream(t, stream)

	text, err := runRawScan(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Hello from a content stream", text)
}

func TestRunRawScan_TJArray(t *testing.T) {
	stream := `BT [(Kerned) -250 (text) -250 (pieces)] TJ ET`
	path := writePDFStream(t, stream)

	text, err := runRawScan(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Kerned text pieces", text)
}

func TestRunRawScan_EscapedParens(t *testing.T) {
	stream := `(f\(x\) = y) Tj`
	path := writePDFStream(t, stream)

	text, err := runRawScan(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "f(x) = y", text)
}

func TestRunRawScan_NoStrings(t *testing.T) {
	path := writePDFStream(t, "%PDF-1.4 stream of compressed bytes endstream")

	_, err := runRawScan(context.Background(), path)
	assert.Error(t, err)
}

func TestDecodePDFString(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "plain text", "plain text"},
		{"newline escape", `line\none`, "line\none"},
		{"tab escape", `a\tb`, "a\tb"},
		{"paren escapes", `\(x\)`, "(x)"},
		{"backslash escape", `a\\b`, `a\b`},
		{"octal escape", `\101\102`, "AB"},
		{"octal control char dropped", `a\001b`, "ab"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, decodePDFString(tt.input))
		})
	}
}
