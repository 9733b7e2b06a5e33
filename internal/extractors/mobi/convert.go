// Package mobi handles Kindle formats (.mobi/.azw/.azw3) by converting
// to EPUB with Calibre's ebook-convert and reusing the EPUB chain. The
// dispatcher prefixes the winning method with "mobi_via_" for
// provenance.
package mobi

import (
	"context"
	"fmt"

	"github.com/leaflib/curator-cli/internal/extractors/tools"
)

// ConvertToEPUB converts the file to a temporary EPUB and returns its
// path plus a cleanup function the caller must defer.
func ConvertToEPUB(ctx context.Context, path string) (string, func(), error) {
	tmpPath, cleanup, err := tools.TempFile("curator-*.epub")
	if err != nil {
		return "", nil, err
	}

	if _, err := tools.Run(ctx, "ebook-convert", path, tmpPath); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("converting to epub: %w", err)
	}

	return tmpPath, cleanup, nil
}
