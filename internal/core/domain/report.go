package domain

// SummaryReport aggregates the outcome of one summarisation batch.
// Every candidate ends the run in exactly one bucket.
type SummaryReport struct {
	// Summarised counts documents that received real summary text.
	Summarised int

	// Insufficient counts documents terminally marked as too thin.
	Insufficient int

	// Failed counts transient failures left retryable.
	Failed int
}

// TagReport aggregates the outcome of one tagging batch.
type TagReport struct {
	// Documents is the number of candidate documents processed.
	Documents int

	// Evaluated counts (document, tag) pairs that received a result row.
	Evaluated int

	// Matched counts pairs committed as matches=true.
	Matched int

	// FailedUnits counts work units that yielded no results.
	FailedUnits int
}

// CleanupReport aggregates the outcome of a housekeeping pass.
type CleanupReport struct {
	// DocumentsRemoved counts rows whose backing file no longer exists.
	DocumentsRemoved int

	// TagsRemoved counts orphaned tags deleted.
	TagsRemoved int
}

// ManifestEntry is one line of a content-addressable export manifest.
type ManifestEntry struct {
	// FileName is the library-relative name.
	FileName string `json:"file_name"`

	// Hash is the streaming full-content hash, suitable for
	// content-addressable storage. Not the identity hash.
	Hash string `json:"hash"`
}
