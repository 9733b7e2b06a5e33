package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedFormat indicates a file format no extractor handles.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrEmptyExtraction indicates a strategy ran without error but
	// produced no text. The dispatcher treats it as a failure and moves
	// to the next strategy.
	ErrEmptyExtraction = errors.New("no text extracted")

	// ErrLLMUnavailable indicates the LLM service is not configured or
	// not reachable. Summarisation and tagging require it.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrProtocol indicates the model's response did not conform to the
	// expected delimiter or JSON contract. Retried a bounded number of
	// times before giving up; distinct from insufficiency.
	ErrProtocol = errors.New("malformed model response")

	// ErrInsufficientText indicates the model judged the input too thin
	// to summarise. This is the only model-driven outcome allowed to
	// permanently mark a document.
	ErrInsufficientText = errors.New("insufficient text to summarise")
)

// StrategyFailure records one extraction strategy's failure.
type StrategyFailure struct {
	// Strategy is the strategy name (e.g. "pdftotext").
	Strategy string

	// Err is the failure.
	Err error
}

// ExtractionError aggregates the failures of every strategy tried for a
// file. It is only returned when no strategy produced text.
type ExtractionError struct {
	// Path is the file that could not be extracted.
	Path string

	// Failures holds one entry per strategy attempted, in order.
	Failures []StrategyFailure

	// Logged marks the error as already reported at the extraction
	// boundary, so callers do not log it a second time.
	Logged bool
}

// Error implements the error interface.
func (e *ExtractionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "all extraction strategies failed for %s", e.Path)
	for _, f := range e.Failures {
		fmt.Fprintf(&b, "; %s: %v", f.Strategy, f.Err)
	}
	return b.String()
}

// IsExtractionError reports whether err is (or wraps) an ExtractionError.
func IsExtractionError(err error) (*ExtractionError, bool) {
	var ee *ExtractionError
	if errors.As(err, &ee) {
		return ee, true
	}
	return nil, false
}
