package services

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/leaflib/curator-cli/internal/core/domain"
	"github.com/leaflib/curator-cli/internal/core/ports/driven"
	"github.com/leaflib/curator-cli/internal/core/ports/driving"
	"github.com/leaflib/curator-cli/internal/logger"
)

// Ensure LibraryService implements the interface.
var _ driving.Library = (*LibraryService)(nil)

// LibraryService handles registration, search and housekeeping.
type LibraryService struct {
	store  driven.DocumentStore
	hasher driven.ContentHasher
	dir    string
	skip   map[string]bool
}

// NewLibraryService creates a new library service.
func NewLibraryService(store driven.DocumentStore, hasher driven.ContentHasher, dir string, skip map[string]bool) *LibraryService {
	return &LibraryService{store: store, hasher: hasher, dir: dir, skip: skip}
}

// Scan registers every processable library file by content hash.
func (l *LibraryService) Scan(ctx context.Context) (int, error) {
	paths, err := listArticleFiles(l.dir, l.skip)
	if err != nil {
		return 0, err
	}

	for _, path := range paths {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		hash, err := l.hasher.Hash(path)
		if err != nil {
			logger.Warn("Hashing %s failed: %v", path, err)
			continue
		}
		if _, err := l.store.GetOrCreateByHash(ctx, hash, driven.DocumentMeta{
			FileName:   filepath.Base(path),
			FileFormat: fileFormat(path),
		}); err != nil {
			return 0, fmt.Errorf("registering %s: %w", path, err)
		}
	}
	return len(paths), nil
}

// SearchByTags resolves the boolean tag query to documents, sorted by
// file name. An entirely empty query returns no results.
func (l *LibraryService) SearchByTags(ctx context.Context, andTags, anyTags, notAnyTags []string) ([]domain.Document, error) {
	ids, err := l.store.SearchByTagExpression(ctx, driven.TagSearch{
		AndTags:    andTags,
		AnyTags:    anyTags,
		NotAnyTags: notAnyTags,
	})
	if err != nil {
		return nil, fmt.Errorf("evaluating tag query: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	all, err := l.store.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading documents: %w", err)
	}

	matched := make([]domain.Document, 0, len(ids))
	for _, doc := range all {
		if ids[doc.ID] {
			matched = append(matched, doc)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].FileName < matched[j].FileName
	})
	return matched, nil
}

// Cleanup removes document rows whose backing file is gone, then tags
// left with zero assignments.
func (l *LibraryService) Cleanup(ctx context.Context) (*domain.CleanupReport, error) {
	paths, err := listArticleFiles(l.dir, l.skip)
	if err != nil {
		return nil, err
	}

	present := make(map[string]bool, len(paths))
	for _, path := range paths {
		hash, err := l.hasher.Hash(path)
		if err != nil {
			logger.Warn("Hashing %s failed: %v", path, err)
			continue
		}
		present[hash] = true
	}

	docsRemoved, err := l.store.RemoveDocumentsNotIn(ctx, present)
	if err != nil {
		return nil, fmt.Errorf("removing stale documents: %w", err)
	}

	tagsRemoved, err := l.store.RemoveOrphanTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("removing orphan tags: %w", err)
	}

	logger.Info("Cleanup removed %d documents and %d tags", docsRemoved, tagsRemoved)
	return &domain.CleanupReport{
		DocumentsRemoved: docsRemoved,
		TagsRemoved:      tagsRemoved,
	}, nil
}

// Manifest hashes every library file with the streaming full-content
// hash and returns entries sorted by file name.
func (l *LibraryService) Manifest(ctx context.Context) ([]domain.ManifestEntry, error) {
	paths, err := listArticleFiles(l.dir, l.skip)
	if err != nil {
		return nil, err
	}

	entries := make([]domain.ManifestEntry, 0, len(paths))
	for _, path := range paths {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		hash, err := l.hasher.ManifestHash(path)
		if err != nil {
			return nil, fmt.Errorf("hashing %s: %w", path, err)
		}
		entries = append(entries, domain.ManifestEntry{
			FileName: filepath.Base(path),
			Hash:     hash,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].FileName < entries[j].FileName
	})
	return entries, nil
}
