package services

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/leaflib/curator-cli/internal/core/domain"
	"github.com/leaflib/curator-cli/internal/core/ports/driven"
	"github.com/leaflib/curator-cli/internal/core/ports/driving"
	"github.com/leaflib/curator-cli/internal/logger"
)

// Ensure Tagger implements the interface.
var _ driving.Tagger = (*Tagger)(nil)

// TaggerConfig holds the batch settings for the tagging orchestrator.
type TaggerConfig struct {
	// ArticlesDir is the library directory.
	ArticlesDir string

	// MaxWords caps extracted text for full-text evaluations.
	MaxWords int

	// Workers sizes the worker pool.
	Workers int

	// MaxArticlesPerSession bounds one batch run.
	MaxArticlesPerSession int

	// TagBatchSize caps how many tags one work unit carries.
	TagBatchSize int
}

// Tagger evaluates the configured tag set against documents and commits
// one assignment row per evaluated pair.
type Tagger struct {
	store     driven.DocumentStore
	extractor driven.TextExtractor
	llm       driven.LLMService
	eval      *TagEvaluator
	cfg       TaggerConfig
}

// NewTagger creates a new tagging orchestrator.
func NewTagger(
	store driven.DocumentStore,
	extractor driven.TextExtractor,
	llm driven.LLMService,
	cfg TaggerConfig,
) *Tagger {
	return &Tagger{
		store:     store,
		extractor: extractor,
		llm:       llm,
		eval:      NewTagEvaluator(llm),
		cfg:       cfg,
	}
}

// tagUnit is one schedulable piece of work: a subset of a document's
// eligible tags sharing the same input kind.
type tagUnit struct {
	doc        domain.Document
	tags       []domain.Tag
	useSummary bool
}

// tagResult is one evaluated pair awaiting commit.
type tagResult struct {
	documentID string
	tagID      string
	matches    bool
}

// ApplyTags runs one tagging batch. Candidates are documents with real
// summary text and zero assignment rows; each tag's pre-filter is
// resolved once up front. Evaluation runs on a bounded pool, results
// are collected and then committed sequentially, so an interrupt loses
// at most uncommitted work.
func (t *Tagger) ApplyTags(ctx context.Context) (*domain.TagReport, error) {
	if t.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}
	if err := t.llm.Ping(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrLLMUnavailable, err)
	}

	docs, err := t.store.DocumentsNeedingTagging(ctx, t.cfg.MaxArticlesPerSession)
	if err != nil {
		return nil, fmt.Errorf("selecting candidates: %w", err)
	}

	tags, err := t.store.ListTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading tags: %w", err)
	}
	if len(tags) == 0 {
		logger.Info("No tags configured, nothing to do")
		return &domain.TagReport{Documents: len(docs)}, nil
	}

	prefilter, err := t.resolvePreFilters(ctx, tags)
	if err != nil {
		return nil, err
	}

	units := t.buildUnits(docs, tags, prefilter)
	logger.Info("Tagging %d documents across %d work units", len(docs), len(units))

	var (
		mu      sync.Mutex
		results []tagResult
		failed  int
	)

	jobs := make([]func(ctx context.Context), 0, len(units))
	for _, unit := range units {
		unit := unit
		jobs = append(jobs, func(ctx context.Context) {
			unitResults, err := t.runUnit(ctx, unit)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Warn("Tagging unit for %s failed: %v", unit.doc.FileName, err)
				failed++
				return
			}
			results = append(results, unitResults...)
		})
	}

	runPool(ctx, t.cfg.Workers, jobs)

	report := &domain.TagReport{Documents: len(docs), FailedUnits: failed}
	for _, r := range results {
		if ctx.Err() != nil {
			break
		}
		if err := t.store.SetTagResult(ctx, r.documentID, r.tagID, r.matches); err != nil {
			logger.Warn("Committing tag result: %v", err)
			continue
		}
		report.Evaluated++
		if r.matches {
			report.Matched++
		}
	}

	logger.Info("Tagging run complete: %d pairs evaluated, %d matched, %d units failed",
		report.Evaluated, report.Matched, report.FailedUnits)
	return report, nil
}

// SyncTags reconciles stored tags with the configured definitions.
func (t *Tagger) SyncTags(ctx context.Context, defs []domain.TagDefinition) error {
	return t.store.SyncTagsFromConfig(ctx, defs)
}

// resolvePreFilters evaluates each pre-filtered tag's expression once,
// returning per-tag candidate document ID sets. Tags without a
// pre-filter have no entry and accept every document.
func (t *Tagger) resolvePreFilters(ctx context.Context, tags []domain.Tag) (map[string]map[string]bool, error) {
	prefilter := make(map[string]map[string]bool)
	for _, tag := range tags {
		if !tag.HasPreFilter() {
			continue
		}
		ids, err := t.store.SearchByTagExpression(ctx, driven.TagSearch{
			AndTags:    tag.AndTags,
			AnyTags:    tag.AnyTags,
			NotAnyTags: tag.NotAnyTags,
		})
		if err != nil {
			return nil, fmt.Errorf("resolving pre-filter for tag %q: %w", tag.Name, err)
		}
		prefilter[tag.ID] = ids
	}
	return prefilter, nil
}

// buildUnits pairs every candidate document with its eligible tags,
// separated by input kind and chunked by the batch size.
func (t *Tagger) buildUnits(docs []domain.Document, tags []domain.Tag, prefilter map[string]map[string]bool) []tagUnit {
	batch := t.cfg.TagBatchSize
	if batch <= 0 {
		batch = 1
	}

	var units []tagUnit
	for _, doc := range docs {
		var summaryTags, fullTextTags []domain.Tag
		for _, tag := range tags {
			if ids, ok := prefilter[tag.ID]; ok && !ids[doc.ID] {
				continue
			}
			if tag.UseSummary {
				summaryTags = append(summaryTags, tag)
			} else {
				fullTextTags = append(fullTextTags, tag)
			}
		}
		for _, chunk := range chunkTags(summaryTags, batch) {
			units = append(units, tagUnit{doc: doc, tags: chunk, useSummary: true})
		}
		for _, chunk := range chunkTags(fullTextTags, batch) {
			units = append(units, tagUnit{doc: doc, tags: chunk, useSummary: false})
		}
	}
	return units
}

func chunkTags(tags []domain.Tag, size int) [][]domain.Tag {
	var chunks [][]domain.Tag
	for len(tags) > size {
		chunks = append(chunks, tags[:size])
		tags = tags[size:]
	}
	if len(tags) > 0 {
		chunks = append(chunks, tags)
	}
	return chunks
}

// runUnit obtains the unit's input text and evaluates each tag in turn.
// Evaluation itself never errors; only a missing input fails the unit.
func (t *Tagger) runUnit(ctx context.Context, unit tagUnit) ([]tagResult, error) {
	text, err := t.unitText(ctx, unit)
	if err != nil {
		return nil, err
	}

	results := make([]tagResult, 0, len(unit.tags))
	for _, tag := range unit.tags {
		if ctx.Err() != nil {
			break
		}
		matches := t.eval.Evaluate(ctx, tag.Name, tag.Description, text)
		logger.Debug("Tag %q on %s: %v", tag.Name, unit.doc.FileName, matches)
		results = append(results, tagResult{
			documentID: unit.doc.ID,
			tagID:      tag.ID,
			matches:    matches,
		})
	}
	return results, nil
}

func (t *Tagger) unitText(ctx context.Context, unit tagUnit) (string, error) {
	if unit.useSummary {
		if !unit.doc.HasSummaryText() {
			return "", fmt.Errorf("document %s has no usable summary", unit.doc.FileName)
		}
		return *unit.doc.Summary, nil
	}

	path := filepath.Join(t.cfg.ArticlesDir, unit.doc.FileName)
	extraction, err := t.extractor.Extract(ctx, path, t.cfg.MaxWords)
	if err != nil {
		return "", fmt.Errorf("extracting %s: %w", unit.doc.FileName, err)
	}
	return extraction.Text, nil
}
