package driving

import (
	"context"

	"github.com/leaflib/curator-cli/internal/core/domain"
)

// Tagger classifies documents against the configured tag set.
type Tagger interface {
	// ApplyTags selects documents needing tagging, evaluates the
	// applicable tags concurrently and commits one result row per
	// evaluated (document, tag) pair. Unit failures never abort
	// siblings; unevaluated pairs stay eligible for a future run.
	ApplyTags(ctx context.Context) (*domain.TagReport, error)

	// SyncTags reconciles stored tags with the configured definitions,
	// invalidating assignments for changed tags.
	SyncTags(ctx context.Context, defs []domain.TagDefinition) error
}
