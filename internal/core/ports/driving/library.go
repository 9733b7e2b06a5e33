package driving

import (
	"context"

	"github.com/leaflib/curator-cli/internal/core/domain"
)

// Library provides registration, search and housekeeping over the
// article library.
type Library interface {
	// Scan registers every library file by content hash without
	// summarising, and returns the number of files seen.
	Scan(ctx context.Context) (int, error)

	// SearchByTags returns documents matching the boolean tag query,
	// keyed by file name. An entirely empty query returns no results.
	SearchByTags(ctx context.Context, andTags, anyTags, notAnyTags []string) ([]domain.Document, error)

	// Cleanup removes document rows whose backing file no longer exists
	// and tags with zero assignments.
	Cleanup(ctx context.Context) (*domain.CleanupReport, error)

	// Manifest produces a content-addressable export manifest of the
	// library using the streaming full-file hash.
	Manifest(ctx context.Context) ([]domain.ManifestEntry, error)
}
