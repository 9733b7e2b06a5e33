package driving

import (
	"context"

	"github.com/leaflib/curator-cli/internal/core/domain"
)

// Summariser produces and persists article summaries.
type Summariser interface {
	// SummariseLibrary scans the library directory, registers new files
	// by content hash, and summarises every document needing a summary
	// on a bounded worker pool. Partial progress survives cancellation.
	SummariseLibrary(ctx context.Context) (*domain.SummaryReport, error)

	// GetArticleSummary returns the summary for one file, computing and
	// persisting it if absent. The boolean is false when the model
	// judged the content insufficient.
	GetArticleSummary(ctx context.Context, path string) (string, bool, error)
}
