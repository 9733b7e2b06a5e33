package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/leaflib/curator-cli/internal/core/domain"
	"github.com/leaflib/curator-cli/internal/core/ports/driven"
	"github.com/leaflib/curator-cli/internal/core/ports/driving"
	"github.com/leaflib/curator-cli/internal/logger"
)

// Ensure Summariser implements the interface.
var _ driving.Summariser = (*Summariser)(nil)

// Response protocol constants. The model wraps its summary between the
// delimiters and emits the insufficiency token as the summary body when
// the input has too little substance.
const (
	summaryBegin      = "<<<SUMMARY>>>"
	summaryEnd        = "<<<END_SUMMARY>>>"
	insufficientToken = "INSUFFICIENT_TEXT"

	// maxProtocolAttempts bounds the corrective retry loop when the
	// model's response violates the delimiter contract.
	maxProtocolAttempts = 3
)

// summarySystemPrompt defines the delimiter protocol. Truncated input is
// called out explicitly: ending mid-sentence never counts as
// insufficient.
const summarySystemPrompt = `You summarise articles for a personal reading library.

Write a summary of the article text the user provides, in 3 to 6 sentences,
capturing the core argument or findings. Wrap the entire summary between the
markers ` + summaryBegin + ` and ` + summaryEnd + ` with nothing else outside them.

If the text does not contain enough substantive content to summarise
meaningfully (for example it is only boilerplate, navigation fragments or an
error page), put the single token ` + insufficientToken + ` between the markers
instead. Text that is merely cut off mid-sentence still counts as
summarisable.`

// SummariserConfig holds the batch settings for the summariser.
type SummariserConfig struct {
	// ArticlesDir is the library directory scanned for files.
	ArticlesDir string

	// MaxWords caps extracted text per document.
	MaxWords int

	// Workers sizes the worker pool for batch runs.
	Workers int

	// MaxArticlesPerSession bounds one batch run.
	MaxArticlesPerSession int

	// SkipFiles are file names never processed.
	SkipFiles map[string]bool
}

// Summariser produces and persists article summaries.
type Summariser struct {
	store     driven.DocumentStore
	extractor driven.TextExtractor
	hasher    driven.ContentHasher
	llm       driven.LLMService
	cfg       SummariserConfig
}

// NewSummariser creates a new summariser service.
func NewSummariser(
	store driven.DocumentStore,
	extractor driven.TextExtractor,
	hasher driven.ContentHasher,
	llm driven.LLMService,
	cfg SummariserConfig,
) *Summariser {
	return &Summariser{
		store:     store,
		extractor: extractor,
		hasher:    hasher,
		llm:       llm,
		cfg:       cfg,
	}
}

// SummariseLibrary scans the library, registers new files by content
// hash and summarises every document needing a summary on a bounded
// worker pool. Each document independently ends the run summarised,
// marked insufficient, or left retryable; cancellation preserves rows
// already written.
func (s *Summariser) SummariseLibrary(ctx context.Context) (*domain.SummaryReport, error) {
	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}
	if err := s.llm.Ping(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrLLMUnavailable, err)
	}

	if _, err := s.registerLibrary(ctx); err != nil {
		return nil, err
	}

	docs, err := s.store.DocumentsNeedingSummary(ctx, s.cfg.MaxArticlesPerSession)
	if err != nil {
		return nil, fmt.Errorf("selecting candidates: %w", err)
	}

	logger.Info("Summarising %d documents", len(docs))

	var (
		mu     sync.Mutex
		report domain.SummaryReport
	)

	jobs := make([]func(ctx context.Context), 0, len(docs))
	for _, doc := range docs {
		doc := doc
		jobs = append(jobs, func(ctx context.Context) {
			outcome := s.summariseOne(ctx, &doc)
			mu.Lock()
			defer mu.Unlock()
			switch outcome {
			case outcomeSummarised:
				report.Summarised++
			case outcomeInsufficient:
				report.Insufficient++
			default:
				report.Failed++
			}
		})
	}

	runPool(ctx, s.cfg.Workers, jobs)

	logger.Info("Summary run complete: %d summarised, %d insufficient, %d failed",
		report.Summarised, report.Insufficient, report.Failed)
	return &report, nil
}

// GetArticleSummary returns the summary for one file, computing and
// persisting it if absent. The boolean is false when the model judged
// the content insufficient.
func (s *Summariser) GetArticleSummary(ctx context.Context, path string) (string, bool, error) {
	hash, err := s.hasher.Hash(path)
	if err != nil {
		return "", false, fmt.Errorf("hashing %s: %w", path, err)
	}

	id, err := s.store.GetOrCreateByHash(ctx, hash, driven.DocumentMeta{
		FileName:   filepath.Base(path),
		FileFormat: fileFormat(path),
	})
	if err != nil {
		return "", false, fmt.Errorf("registering %s: %w", path, err)
	}

	doc, err := s.store.GetDocument(ctx, id)
	if err != nil {
		return "", false, fmt.Errorf("loading document: %w", err)
	}

	if doc.HasSummaryText() {
		return *doc.Summary, true, nil
	}
	if doc.Summary != nil && *doc.Summary == domain.SummaryInsufficient {
		return "", false, nil
	}

	switch s.summariseOne(ctx, doc) {
	case outcomeSummarised:
		updated, err := s.store.GetDocument(ctx, id)
		if err != nil {
			return "", false, fmt.Errorf("reloading document: %w", err)
		}
		return *updated.Summary, true, nil
	case outcomeInsufficient:
		return "", false, nil
	default:
		return "", false, fmt.Errorf("summarising %s failed", path)
	}
}

// registerLibrary hashes every processable library file into the store.
func (s *Summariser) registerLibrary(ctx context.Context) (int, error) {
	paths, err := listArticleFiles(s.cfg.ArticlesDir, s.cfg.SkipFiles)
	if err != nil {
		return 0, err
	}

	for _, path := range paths {
		hash, err := s.hasher.Hash(path)
		if err != nil {
			logger.Warn("Hashing %s failed: %v", path, err)
			continue
		}
		if _, err := s.store.GetOrCreateByHash(ctx, hash, driven.DocumentMeta{
			FileName:   filepath.Base(path),
			FileFormat: fileFormat(path),
		}); err != nil {
			return 0, fmt.Errorf("registering %s: %w", path, err)
		}
	}
	return len(paths), nil
}

// Outcomes of one document's summarisation attempt.
type summariseOutcome int

const (
	outcomeFailed summariseOutcome = iota
	outcomeSummarised
	outcomeInsufficient
)

// summariseOne extracts, summarises and persists one document.
// Only the model's explicit insufficiency verdict is terminal; the
// extraction-failed sentinel keeps the document retryable, and every
// other failure leaves the summary untouched (null).
func (s *Summariser) summariseOne(ctx context.Context, doc *domain.Document) summariseOutcome {
	path := filepath.Join(s.cfg.ArticlesDir, doc.FileName)

	extraction, err := s.extractor.Extract(ctx, path, s.cfg.MaxWords)
	if err != nil {
		if _, ok := domain.IsExtractionError(err); ok {
			// Already logged at the extraction boundary.
			if setErr := s.store.SetSummary(ctx, doc.ID, domain.SummaryExtractionFailed, "", 0); setErr != nil {
				logger.Warn("Recording extraction failure for %s: %v", doc.FileName, setErr)
			}
		} else {
			logger.Warn("Extracting %s: %v", doc.FileName, err)
		}
		return outcomeFailed
	}

	summary, sufficient, err := s.summariseText(ctx, extraction.Text)
	if err != nil {
		logger.Warn("Summarising %s: %v", doc.FileName, err)
		return outcomeFailed
	}

	if !sufficient {
		if err := s.store.SetSummary(ctx, doc.ID, domain.SummaryInsufficient, extraction.Method, extraction.WordCount); err != nil {
			logger.Warn("Recording insufficiency for %s: %v", doc.FileName, err)
			return outcomeFailed
		}
		return outcomeInsufficient
	}

	if err := s.store.SetSummary(ctx, doc.ID, summary, extraction.Method, extraction.WordCount); err != nil {
		logger.Warn("Saving summary for %s: %v", doc.FileName, err)
		return outcomeFailed
	}
	return outcomeSummarised
}

// summariseText drives the delimiter protocol with a bounded corrective
// retry loop. Returns sufficient=false only on the explicit
// insufficiency token; a missing delimiter pair is a protocol failure,
// never insufficiency.
func (s *Summariser) summariseText(ctx context.Context, text string) (string, bool, error) {
	messages := []driven.ChatMessage{
		{Role: "system", Content: summarySystemPrompt},
		{Role: "user", Content: text},
	}

	var lastErr error
	for attempt := 1; attempt <= maxProtocolAttempts; attempt++ {
		raw, err := s.llm.Chat(ctx, messages, driven.ChatOptions{MaxTokens: 512, Temperature: 0.3})
		if err != nil {
			return "", false, fmt.Errorf("chat request: %w", err)
		}

		content, err := extractDelimited(raw)
		if err != nil {
			lastErr = err
			logger.Debug("Summary protocol violation (attempt %d): %v", attempt, err)
			messages = append(messages,
				driven.ChatMessage{Role: "assistant", Content: raw},
				driven.ChatMessage{Role: "user", Content: fmt.Sprintf(
					"Your previous response was invalid: %v. Respond again with the summary wrapped between %s and %s and nothing outside the markers.",
					err, summaryBegin, summaryEnd)},
			)
			continue
		}

		if strings.HasPrefix(content, insufficientToken) {
			return "", false, nil
		}
		return content, true, nil
	}

	return "", false, fmt.Errorf("%w: %v", domain.ErrProtocol, lastErr)
}

// extractDelimited returns the content strictly between the delimiter
// pair.
func extractDelimited(raw string) (string, error) {
	start := strings.Index(raw, summaryBegin)
	if start < 0 {
		return "", errors.New("missing opening marker")
	}
	rest := raw[start+len(summaryBegin):]

	end := strings.Index(rest, summaryEnd)
	if end < 0 {
		return "", errors.New("missing closing marker")
	}

	content := strings.TrimSpace(rest[:end])
	if content == "" {
		return "", errors.New("empty summary between markers")
	}
	return content, nil
}
