package driven

import (
	"context"

	"github.com/leaflib/curator-cli/internal/core/domain"
)

// DocumentMeta is the mutable display metadata supplied when registering
// a document. It is not part of identity.
type DocumentMeta struct {
	FileName   string
	FileFormat string
}

// TagSearch is a boolean tag-set query. A document matches when it has a
// matches=true row for every AndTags entry, at least one matches=true row
// among AnyTags (when non-empty), and no matches=true row for any
// NotAnyTags entry. An entirely empty query returns the empty set by
// contract; "no filter" must be special-cased by the caller.
type TagSearch struct {
	AndTags    []string
	AnyTags    []string
	NotAnyTags []string
}

// IsEmpty reports whether no clause constrains the query.
func (q TagSearch) IsEmpty() bool {
	return len(q.AndTags) == 0 && len(q.AnyTags) == 0 && len(q.NotAnyTags) == 0
}

// DocumentStore persists documents, tags and tag assignments.
// Backed by SQLite. Upserts must be safe under concurrent callers; the
// schema's uniqueness constraints, not application-level checks, enforce
// single rows per identity.
type DocumentStore interface {
	// GetOrCreateByHash registers a document by content hash, returning
	// the existing row's ID when the hash is already known. Display
	// metadata is refreshed on conflict; identity never changes.
	GetOrCreateByHash(ctx context.Context, contentHash string, meta DocumentMeta) (string, error)

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// GetDocumentByHash retrieves a document by content hash.
	GetDocumentByHash(ctx context.Context, contentHash string) (*domain.Document, error)

	// ListDocuments returns every document row.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// DocumentsNeedingSummary returns up to limit documents whose summary
	// is absent or marked extraction-failed, in randomized order.
	DocumentsNeedingSummary(ctx context.Context, limit int) ([]domain.Document, error)

	// DocumentsNeedingTagging returns up to limit documents with zero
	// assignment rows and real summary text, in randomized order.
	DocumentsNeedingTagging(ctx context.Context, limit int) ([]domain.Document, error)

	// SetSummary stores summary text (or a sentinel) plus its provenance.
	SetSummary(ctx context.Context, documentID, summary, method string, wordCount int) error

	// ClearSummary resets a document's summary to the unprocessed state.
	ClearSummary(ctx context.Context, documentID string) error

	// DeleteDocument removes a document and its assignments.
	DeleteDocument(ctx context.Context, id string) error

	// ListTags returns every stored tag.
	ListTags(ctx context.Context) ([]domain.Tag, error)

	// GetTagByName retrieves a tag by its unique name.
	GetTagByName(ctx context.Context, name string) (*domain.Tag, error)

	// SetTagResult upserts the evaluation result for one (document, tag)
	// pair. A later call for the same pair overwrites the earlier result.
	SetTagResult(ctx context.Context, documentID, tagID string, matches bool) error

	// SearchByTagExpression returns the IDs of documents matching the
	// boolean tag query.
	SearchByTagExpression(ctx context.Context, query TagSearch) (map[string]bool, error)

	// SyncTagsFromConfig diffs tag definitions against stored tags.
	// Changed definitions bump the property hash and cascade-delete the
	// tag's assignments; stored tags absent from the definitions are
	// deleted with their assignments; new definitions are inserted.
	SyncTagsFromConfig(ctx context.Context, defs []domain.TagDefinition) error

	// RemoveDocumentsNotIn deletes document rows whose content hash is
	// absent from the given set, cascading to assignments. Used by
	// housekeeping after a library scan.
	RemoveDocumentsNotIn(ctx context.Context, contentHashes map[string]bool) (int, error)

	// RemoveOrphanTags deletes tags with zero assignment rows.
	RemoveOrphanTags(ctx context.Context) (int, error)

	// Close releases the underlying connection.
	Close() error
}
