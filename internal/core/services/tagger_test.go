package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leaflib/curator-cli/internal/adapters/driven/storage/memory"
	"github.com/leaflib/curator-cli/internal/core/domain"
	"github.com/leaflib/curator-cli/internal/core/ports/driven"
)

// addSummarisedDoc registers a document with real summary text.
func addSummarisedDoc(t *testing.T, store *memory.DocumentStore, hash, name string) string {
	t.Helper()
	ctx := context.Background()
	id, err := store.GetOrCreateByHash(ctx, hash, driven.DocumentMeta{FileName: name, FileFormat: "txt"})
	require.NoError(t, err)
	require.NoError(t, store.SetSummary(ctx, id, "summary of "+name, "direct_read", 30))
	return id
}

func newTagger(store *memory.DocumentStore, llm *mockLLM, extractor *mockExtractor, batch int) *Tagger {
	return NewTagger(store, extractor, llm, TaggerConfig{
		ArticlesDir:           "/library",
		MaxWords:              3000,
		Workers:               2,
		MaxArticlesPerSession: 25,
		TagBatchSize:          batch,
	})
}

func TestApplyTags_EvaluatesAndCommits(t *testing.T) {
	ctx := context.Background()
	store := memory.NewDocumentStore()
	d1 := addSummarisedDoc(t, store, "h1", "one.txt")
	d2 := addSummarisedDoc(t, store, "h2", "two.txt")

	require.NoError(t, store.SyncTagsFromConfig(ctx, []domain.TagDefinition{
		{Name: "science", Description: "about science", UseSummary: true},
		{Name: "history", Description: "about history", UseSummary: true},
	}))

	llm := &mockLLM{responses: []string{`{"matches": true}`}}
	tagger := newTagger(store, llm, &mockExtractor{}, 3)

	report, err := tagger.ApplyTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Documents)
	assert.Equal(t, 4, report.Evaluated)
	assert.Equal(t, 4, report.Matched)
	assert.Zero(t, report.FailedUnits)

	matches, err := store.SearchByTagExpression(ctx, driven.TagSearch{
		AndTags: []string{"science", "history"},
	})
	require.NoError(t, err)
	assert.True(t, matches[d1])
	assert.True(t, matches[d2])
}

func TestApplyTags_FalseVerdictsStillCommitted(t *testing.T) {
	ctx := context.Background()
	store := memory.NewDocumentStore()
	addSummarisedDoc(t, store, "h1", "one.txt")

	require.NoError(t, store.SyncTagsFromConfig(ctx, []domain.TagDefinition{
		{Name: "science", Description: "about science", UseSummary: true},
	}))

	llm := &mockLLM{responses: []string{`{"matches": false}`}}
	tagger := newTagger(store, llm, &mockExtractor{}, 3)

	report, err := tagger.ApplyTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Evaluated)
	assert.Zero(t, report.Matched)

	// The explicit false settles the document: it is no longer a
	// tagging candidate.
	pending, err := store.DocumentsNeedingTagging(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestApplyTags_FullTextTagUsesExtractor(t *testing.T) {
	ctx := context.Background()
	store := memory.NewDocumentStore()
	addSummarisedDoc(t, store, "h1", "one.txt")

	require.NoError(t, store.SyncTagsFromConfig(ctx, []domain.TagDefinition{
		{Name: "verbose", Description: "needs the full text", UseSummary: false},
	}))

	llm := &mockLLM{responses: []string{`{"matches": true}`}}
	extractor := &mockExtractor{text: "the full article text"}
	tagger := newTagger(store, llm, extractor, 3)

	report, err := tagger.ApplyTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Evaluated)

	paths := extractor.extractedPaths()
	require.Len(t, paths, 1)
	assert.Equal(t, "/library/one.txt", paths[0])

	// The evaluation prompt carries the extracted text, not the summary.
	call := llm.lastCall()
	assert.Contains(t, call[1].Content, "the full article text")
}

func TestApplyTags_ExtractionFailureFailsUnitOnly(t *testing.T) {
	ctx := context.Background()
	store := memory.NewDocumentStore()
	addSummarisedDoc(t, store, "h1", "one.txt")

	require.NoError(t, store.SyncTagsFromConfig(ctx, []domain.TagDefinition{
		{Name: "verbose", Description: "needs full text", UseSummary: false},
		{Name: "science", Description: "about science", UseSummary: true},
	}))

	llm := &mockLLM{responses: []string{`{"matches": true}`}}
	extractor := &mockExtractor{err: errors.New("no text")}
	tagger := newTagger(store, llm, extractor, 3)

	report, err := tagger.ApplyTags(ctx)
	require.NoError(t, err)

	// The summary-based unit succeeds; the full-text unit fails without
	// aborting the run.
	assert.Equal(t, 1, report.Evaluated)
	assert.Equal(t, 1, report.FailedUnits)
}

func TestApplyTags_NoTags(t *testing.T) {
	ctx := context.Background()
	store := memory.NewDocumentStore()
	addSummarisedDoc(t, store, "h1", "one.txt")

	llm := &mockLLM{responses: []string{`{"matches": true}`}}
	tagger := newTagger(store, llm, &mockExtractor{}, 3)

	report, err := tagger.ApplyTags(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Evaluated)
	assert.Zero(t, llm.callCount())
}

func TestApplyTags_PingFailure(t *testing.T) {
	store := memory.NewDocumentStore()
	llm := &mockLLM{pingErr: errors.New("down")}
	tagger := newTagger(store, llm, &mockExtractor{}, 3)

	_, err := tagger.ApplyTags(context.Background())
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestBuildUnits_PreFilterRestrictsTags(t *testing.T) {
	docs := []domain.Document{
		{ID: "d1", FileName: "one.txt"},
		{ID: "d2", FileName: "two.txt"},
	}
	tags := []domain.Tag{
		{ID: "t-open", Name: "open", UseSummary: true},
		{ID: "t-filtered", Name: "filtered", UseSummary: true, AndTags: []string{"open"}},
	}
	// Only d1 passes the filtered tag's expression.
	prefilter := map[string]map[string]bool{
		"t-filtered": {"d1": true},
	}

	tagger := newTagger(memory.NewDocumentStore(), &mockLLM{}, &mockExtractor{}, 3)
	units := tagger.buildUnits(docs, tags, prefilter)

	perDoc := make(map[string][]string)
	for _, unit := range units {
		for _, tag := range unit.tags {
			perDoc[unit.doc.ID] = append(perDoc[unit.doc.ID], tag.Name)
		}
	}
	assert.ElementsMatch(t, []string{"open", "filtered"}, perDoc["d1"])
	assert.ElementsMatch(t, []string{"open"}, perDoc["d2"])
}

func TestBuildUnits_SplitsByInputKindAndBatch(t *testing.T) {
	docs := []domain.Document{{ID: "d1", FileName: "one.txt"}}
	tags := []domain.Tag{
		{ID: "s1", Name: "s1", UseSummary: true},
		{ID: "s2", Name: "s2", UseSummary: true},
		{ID: "s3", Name: "s3", UseSummary: true},
		{ID: "f1", Name: "f1", UseSummary: false},
	}

	tagger := newTagger(memory.NewDocumentStore(), &mockLLM{}, &mockExtractor{}, 2)
	units := tagger.buildUnits(docs, tags, nil)

	// Three summary tags at batch size 2 give two units, plus one
	// full-text unit.
	require.Len(t, units, 3)

	var summaryUnits, fullTextUnits int
	for _, unit := range units {
		if unit.useSummary {
			summaryUnits++
			assert.LessOrEqual(t, len(unit.tags), 2)
		} else {
			fullTextUnits++
		}
	}
	assert.Equal(t, 2, summaryUnits)
	assert.Equal(t, 1, fullTextUnits)
}

func TestChunkTags(t *testing.T) {
	tags := []domain.Tag{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}, {ID: "e"}}

	chunks := chunkTags(tags, 2)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 2)
	assert.Len(t, chunks[1], 2)
	assert.Len(t, chunks[2], 1)

	assert.Empty(t, chunkTags(nil, 2))
}

func TestSyncTags_Delegates(t *testing.T) {
	ctx := context.Background()
	store := memory.NewDocumentStore()
	tagger := newTagger(store, &mockLLM{}, &mockExtractor{}, 3)

	require.NoError(t, tagger.SyncTags(ctx, []domain.TagDefinition{
		{Name: "science", Description: "about science", UseSummary: true},
	}))

	tags, err := store.ListTags(ctx)
	require.NoError(t, err)
	assert.Len(t, tags, 1)
}
