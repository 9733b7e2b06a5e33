package extractors

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/leaflib/curator-cli/internal/core/domain"
	"github.com/leaflib/curator-cli/internal/core/ports/driven"
	"github.com/leaflib/curator-cli/internal/extractors/epub"
	"github.com/leaflib/curator-cli/internal/extractors/html"
	"github.com/leaflib/curator-cli/internal/extractors/mhtml"
	"github.com/leaflib/curator-cli/internal/extractors/mobi"
	"github.com/leaflib/curator-cli/internal/extractors/pdf"
	"github.com/leaflib/curator-cli/internal/extractors/plaintext"
	"github.com/leaflib/curator-cli/internal/logger"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// Extractor dispatches files to per-format strategy chains.
type Extractor struct{}

// New creates a new Extractor.
func New() *Extractor {
	return &Extractor{}
}

// Format identifiers, derived from the file extension.
const (
	formatPDF   = "pdf"
	formatHTML  = "html"
	formatMHTML = "mhtml"
	formatEPUB  = "epub"
	formatMOBI  = "mobi"
	formatText  = "text"
)

// formatByExtension maps lowercased extensions to formats.
var formatByExtension = map[string]string{
	".pdf":      formatPDF,
	".html":     formatHTML,
	".htm":      formatHTML,
	".mhtml":    formatMHTML,
	".mht":      formatMHTML,
	".epub":     formatEPUB,
	".mobi":     formatMOBI,
	".azw":      formatMOBI,
	".azw3":     formatMOBI,
	".txt":      formatText,
	".md":       formatText,
	".markdown": formatText,
}

// Supported reports whether the file's extension maps to a known format.
func Supported(path string) bool {
	_, ok := formatByExtension[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Extract runs the format's strategy chain, cleans the winning text and
// truncates it to maxWords. Returns *domain.ExtractionError when every
// strategy fails; the error is logged here and marked as such.
func (e *Extractor) Extract(ctx context.Context, path string, maxWords int) (*domain.Extraction, error) {
	format, ok := formatByExtension[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, domain.ErrUnsupportedFormat
	}

	var (
		text     string
		method   string
		failures []domain.StrategyFailure
	)

	switch format {
	case formatMOBI:
		text, method, failures = e.extractMobi(ctx, path)
	default:
		text, method, failures = runChain(ctx, chainFor(format), path)
	}

	if strings.TrimSpace(text) == "" {
		extErr := &domain.ExtractionError{Path: path, Failures: failures, Logged: true}
		logger.Warn("Extraction failed: %v", extErr)
		return nil, extErr
	}

	cleaned := Clean(text)
	truncated, count := Truncate(cleaned, maxWords)

	logger.Debug("Extracted %s via %s (%d words)", path, method, count)
	return &domain.Extraction{
		Text:      truncated,
		Method:    method,
		WordCount: count,
	}, nil
}

// chainFor returns the ordered strategy chain for a format.
func chainFor(format string) []driven.Strategy {
	switch format {
	case formatPDF:
		return pdf.Strategies()
	case formatHTML:
		return html.Strategies()
	case formatMHTML:
		// The MIME walker runs first; generic HTML strategies catch
		// archives that are really bare HTML with the wrong extension.
		return append([]driven.Strategy{mhtml.Strategy()}, html.Strategies()...)
	case formatEPUB:
		return epub.Strategies()
	case formatText:
		return plaintext.Strategies()
	}
	return nil
}

// extractMobi converts to EPUB then reuses the EPUB chain. The winning
// method carries a "mobi_via_" prefix for provenance.
func (e *Extractor) extractMobi(ctx context.Context, path string) (string, string, []domain.StrategyFailure) {
	epubPath, cleanup, err := mobi.ConvertToEPUB(ctx, path)
	if err != nil {
		logger.Debug("Strategy ebook_convert failed for %s: %v", path, err)
		return "", "", []domain.StrategyFailure{{Strategy: "ebook_convert", Err: err}}
	}
	defer cleanup()

	text, method, failures := runChain(ctx, epub.Strategies(), epubPath)
	for i := range failures {
		failures[i].Strategy = "mobi_via_" + failures[i].Strategy
	}
	if method != "" {
		method = "mobi_via_" + method
	}
	return text, method, failures
}

// runChain tries each strategy in order, accepting the first non-empty
// result. Individual failures log at debug level only; the caller
// surfaces the aggregate.
func runChain(ctx context.Context, chain []driven.Strategy, path string) (string, string, []domain.StrategyFailure) {
	var failures []domain.StrategyFailure

	for _, strategy := range chain {
		if ctx.Err() != nil {
			failures = append(failures, domain.StrategyFailure{Strategy: strategy.Name, Err: ctx.Err()})
			return "", "", failures
		}

		text, err := strategy.Run(ctx, path)
		if err != nil {
			logger.Debug("Strategy %s failed for %s: %v", strategy.Name, path, err)
			failures = append(failures, domain.StrategyFailure{Strategy: strategy.Name, Err: err})
			continue
		}
		if strings.TrimSpace(text) == "" {
			logger.Debug("Strategy %s returned empty text for %s", strategy.Name, path)
			failures = append(failures, domain.StrategyFailure{Strategy: strategy.Name, Err: domain.ErrEmptyExtraction})
			continue
		}
		return text, strategy.Name, failures
	}

	return "", "", failures
}
