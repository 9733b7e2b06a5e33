// Package memory provides an in-memory DocumentStore. Used by service
// tests; query semantics mirror the SQLite store.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/leaflib/curator-cli/internal/core/domain"
	"github.com/leaflib/curator-cli/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

type assignmentKey struct {
	documentID string
	tagID      string
}

// DocumentStore is an in-memory implementation of driven.DocumentStore.
type DocumentStore struct {
	mu          sync.RWMutex
	documents   map[string]domain.Document
	byHash      map[string]string
	tags        map[string]domain.Tag
	tagHashes   map[string]string
	assignments map[assignmentKey]domain.TagAssignment
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents:   make(map[string]domain.Document),
		byHash:      make(map[string]string),
		tags:        make(map[string]domain.Tag),
		tagHashes:   make(map[string]string),
		assignments: make(map[assignmentKey]domain.TagAssignment),
	}
}

// GetOrCreateByHash registers a document by content hash, refreshing
// display metadata when the hash already exists.
func (s *DocumentStore) GetOrCreateByHash(_ context.Context, contentHash string, meta driven.DocumentMeta) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byHash[contentHash]; ok {
		doc := s.documents[id]
		doc.FileName = meta.FileName
		doc.FileFormat = meta.FileFormat
		s.documents[id] = doc
		return id, nil
	}

	id := uuid.NewString()
	s.documents[id] = domain.Document{
		ID:          id,
		ContentHash: contentHash,
		FileName:    meta.FileName,
		FileFormat:  meta.FileFormat,
		CreatedAt:   time.Now(),
	}
	s.byHash[contentHash] = id
	return id, nil
}

// GetDocument retrieves a document by ID.
func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// GetDocumentByHash retrieves a document by content hash.
func (s *DocumentStore) GetDocumentByHash(_ context.Context, contentHash string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byHash[contentHash]
	if !ok {
		return nil, domain.ErrNotFound
	}
	doc := s.documents[id]
	return &doc, nil
}

// ListDocuments returns every document, sorted by file name.
func (s *DocumentStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]domain.Document, 0, len(s.documents))
	for _, doc := range s.documents {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].FileName < docs[j].FileName })
	return docs, nil
}

// DocumentsNeedingSummary returns up to limit documents whose summary is
// absent or marked extraction-failed.
func (s *DocumentStore) DocumentsNeedingSummary(_ context.Context, limit int) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var docs []domain.Document
	for _, doc := range s.documents {
		if doc.NeedsSummary() {
			docs = append(docs, doc)
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].FileName < docs[j].FileName })
	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

// DocumentsNeedingTagging returns up to limit documents with real
// summary text and zero assignment rows.
func (s *DocumentStore) DocumentsNeedingTagging(_ context.Context, limit int) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	assigned := make(map[string]bool)
	for key := range s.assignments {
		assigned[key.documentID] = true
	}

	var docs []domain.Document
	for _, doc := range s.documents {
		if doc.HasSummaryText() && !assigned[doc.ID] {
			docs = append(docs, doc)
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].FileName < docs[j].FileName })
	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

// SetSummary stores summary text plus its provenance.
func (s *DocumentStore) SetSummary(_ context.Context, documentID, summary, method string, wordCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[documentID]
	if !ok {
		return domain.ErrNotFound
	}
	doc.Summary = &summary
	doc.ExtractionMethod = method
	doc.WordCount = wordCount
	s.documents[documentID] = doc
	return nil
}

// ClearSummary resets a document to the unprocessed state.
func (s *DocumentStore) ClearSummary(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[documentID]
	if !ok {
		return domain.ErrNotFound
	}
	doc.Summary = nil
	doc.ExtractionMethod = ""
	doc.WordCount = 0
	s.documents[documentID] = doc
	return nil
}

// DeleteDocument removes a document and its assignments.
func (s *DocumentStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(s.documents, id)
	delete(s.byHash, doc.ContentHash)
	for key := range s.assignments {
		if key.documentID == id {
			delete(s.assignments, key)
		}
	}
	return nil
}

// ListTags returns every stored tag, sorted by name.
func (s *DocumentStore) ListTags(_ context.Context) ([]domain.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tags := make([]domain.Tag, 0, len(s.tags))
	for _, tag := range s.tags {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return tags, nil
}

// GetTagByName retrieves a tag by its unique name.
func (s *DocumentStore) GetTagByName(_ context.Context, name string) (*domain.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, tag := range s.tags {
		if tag.Name == name {
			t := tag
			return &t, nil
		}
	}
	return nil, domain.ErrNotFound
}

// SetTagResult upserts the evaluation result for one pair.
func (s *DocumentStore) SetTagResult(_ context.Context, documentID, tagID string, matches bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignments[assignmentKey{documentID, tagID}] = domain.TagAssignment{
		DocumentID:  documentID,
		TagID:       tagID,
		Matches:     matches,
		EvaluatedAt: time.Now(),
	}
	return nil
}

// SearchByTagExpression returns IDs of documents matching the boolean
// tag query. An entirely empty query returns the empty set.
func (s *DocumentStore) SearchByTagExpression(_ context.Context, query driven.TagSearch) (map[string]bool, error) {
	if query.IsEmpty() {
		return map[string]bool{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]bool)
	for id := range s.documents {
		if s.matchesLocked(id, query) {
			result[id] = true
		}
	}
	return result, nil
}

func (s *DocumentStore) matchesLocked(documentID string, query driven.TagSearch) bool {
	for _, name := range query.AndTags {
		if !s.hasMatchLocked(documentID, name) {
			return false
		}
	}
	if len(query.AnyTags) > 0 {
		any := false
		for _, name := range query.AnyTags {
			if s.hasMatchLocked(documentID, name) {
				any = true
				break
			}
		}
		if !any {
			return false
		}
	}
	for _, name := range query.NotAnyTags {
		if s.hasMatchLocked(documentID, name) {
			return false
		}
	}
	return true
}

func (s *DocumentStore) hasMatchLocked(documentID, tagName string) bool {
	for _, tag := range s.tags {
		if tag.Name != tagName {
			continue
		}
		a, ok := s.assignments[assignmentKey{documentID, tag.ID}]
		return ok && a.Matches
	}
	return false
}

// SyncTagsFromConfig diffs definitions against stored tags, invalidating
// assignments for changed definitions and deleting absent tags.
func (s *DocumentStore) SyncTagsFromConfig(_ context.Context, defs []domain.TagDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	defined := make(map[string]bool, len(defs))
	for _, def := range defs {
		defined[def.Name] = true

		var existing *domain.Tag
		for _, tag := range s.tags {
			if tag.Name == def.Name {
				t := tag
				existing = &t
				break
			}
		}

		hash := def.PropertyHash()
		if existing == nil {
			id := uuid.NewString()
			s.tags[id] = domain.Tag{
				ID:          id,
				Name:        def.Name,
				Description: def.Description,
				UseSummary:  def.UseSummary,
				AnyTags:     def.AnyTags,
				AndTags:     def.AndTags,
				NotAnyTags:  def.NotAnyTags,
				CreatedAt:   time.Now(),
				UpdatedAt:   time.Now(),
			}
			s.tagHashes[id] = hash
			continue
		}

		if s.tagHashes[existing.ID] != hash {
			for key := range s.assignments {
				if key.tagID == existing.ID {
					delete(s.assignments, key)
				}
			}
		}
		existing.Description = def.Description
		existing.UseSummary = def.UseSummary
		existing.AnyTags = def.AnyTags
		existing.AndTags = def.AndTags
		existing.NotAnyTags = def.NotAnyTags
		existing.UpdatedAt = time.Now()
		s.tags[existing.ID] = *existing
		s.tagHashes[existing.ID] = hash
	}

	for id, tag := range s.tags {
		if defined[tag.Name] {
			continue
		}
		delete(s.tags, id)
		delete(s.tagHashes, id)
		for key := range s.assignments {
			if key.tagID == id {
				delete(s.assignments, key)
			}
		}
	}
	return nil
}

// RemoveDocumentsNotIn deletes documents whose content hash is absent
// from the given set.
func (s *DocumentStore) RemoveDocumentsNotIn(_ context.Context, contentHashes map[string]bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, doc := range s.documents {
		if contentHashes[doc.ContentHash] {
			continue
		}
		delete(s.documents, id)
		delete(s.byHash, doc.ContentHash)
		for key := range s.assignments {
			if key.documentID == id {
				delete(s.assignments, key)
			}
		}
		removed++
	}
	return removed, nil
}

// RemoveOrphanTags deletes tags with zero assignment rows.
func (s *DocumentStore) RemoveOrphanTags(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	referenced := make(map[string]bool)
	for key := range s.assignments {
		referenced[key.tagID] = true
	}

	removed := 0
	for id := range s.tags {
		if referenced[id] {
			continue
		}
		delete(s.tags, id)
		delete(s.tagHashes, id)
		removed++
	}
	return removed, nil
}

// Close is a no-op for the in-memory store.
func (s *DocumentStore) Close() error {
	return nil
}
