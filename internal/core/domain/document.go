package domain

import "time"

// Summary sentinel values. These are stored in the summary column in place
// of real summary text to record a classification outcome.
const (
	// SummaryInsufficient marks a document whose content the model judged
	// too thin to summarise. This is terminal: the document is never
	// retried.
	SummaryInsufficient = "[insufficient-text]"

	// SummaryExtractionFailed marks a document whose text could not be
	// extracted. This is retryable: a future run attempts it again.
	SummaryExtractionFailed = "[extraction-failed]"
)

// Document represents one unique file in the article library.
// Identity is the content hash, never the file name.
type Document struct {
	// ID is the unique identifier, assigned on first insert.
	ID string

	// ContentHash is the stable fingerprint of the file's bytes.
	// Unique and immutable once assigned.
	ContentHash string

	// FileName is the display name on disk. Mutable, not identity.
	FileName string

	// FileFormat is the lowercased extension without the dot (e.g. "pdf").
	FileFormat string

	// Summary is nil until the document has been summarised. It holds
	// either summary text or one of the summary sentinel values.
	Summary *string

	// ExtractionMethod records which extraction strategy produced the
	// text the summary was generated from.
	ExtractionMethod string

	// WordCount is the number of words of extracted text used.
	WordCount int

	// CreatedAt is when the document was first registered.
	CreatedAt time.Time
}

// HasSummaryText reports whether the document carries real summary text,
// as opposed to nil or a sentinel value.
func (d *Document) HasSummaryText() bool {
	if d.Summary == nil {
		return false
	}
	s := *d.Summary
	return s != "" && s != SummaryInsufficient && s != SummaryExtractionFailed
}

// NeedsSummary reports whether a future run should attempt to summarise
// this document. Extraction failures are retryable; the insufficiency
// sentinel is terminal.
func (d *Document) NeedsSummary() bool {
	if d.Summary == nil {
		return true
	}
	return *d.Summary == SummaryExtractionFailed
}

// Extraction is the result of pulling normalised text out of a file.
type Extraction struct {
	// Text is the cleaned, truncated text.
	Text string

	// Method names the strategy that produced the text (e.g. "pdftotext").
	Method string

	// WordCount is the number of whitespace-delimited tokens in Text.
	WordCount int
}
