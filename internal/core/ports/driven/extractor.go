package driven

import (
	"context"

	"github.com/leaflib/curator-cli/internal/core/domain"
)

// Strategy is one way of pulling text out of a file. Strategies for a
// format are tried in order; the first non-empty result wins.
type Strategy struct {
	// Name identifies the strategy in extraction provenance
	// (e.g. "pdftotext", "ledongthuc_pdf").
	Name string

	// Run attempts the extraction. An error or empty result moves the
	// dispatcher on to the next strategy.
	Run func(ctx context.Context, path string) (string, error)
}

// TextExtractor turns heterogeneous document files into cleaned text.
type TextExtractor interface {
	// Extract detects the file's format, runs that format's strategy
	// chain, cleans the winning text and truncates it to maxWords.
	// Returns a *domain.ExtractionError when every strategy fails.
	Extract(ctx context.Context, path string, maxWords int) (*domain.Extraction, error)
}

// ContentHasher fingerprints files for identity and for export manifests.
type ContentHasher interface {
	// Hash returns the stable identity fingerprint of the file.
	Hash(path string) (string, error)

	// ManifestHash returns a content-addressable hash of the whole file,
	// used only for cross-system export manifests.
	ManifestHash(path string) (string, error)
}
