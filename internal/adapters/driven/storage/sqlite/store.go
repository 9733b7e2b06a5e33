package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/leaflib/curator-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/leaflib/curator-cli/internal/core/domain"
	"github.com/leaflib/curator-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.DocumentStore = (*Store)(nil)

// Store is the SQLite-backed document store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.curator/data/library.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".curator", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "library.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Documents ====================

// GetOrCreateByHash registers a document by content hash. The unique
// constraint on content_hash plus the conflict clause make this safe
// under concurrent callers: the same hash always resolves to one row.
func (s *Store) GetOrCreateByHash(ctx context.Context, contentHash string, meta driven.DocumentMeta) (string, error) {
	if contentHash == "" {
		return "", domain.ErrInvalidInput
	}

	var id string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO documents (id, content_hash, file_name, file_format, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(content_hash) DO UPDATE SET
			file_name = excluded.file_name,
			file_format = excluded.file_format
		RETURNING id
	`, uuid.New().String(), contentHash, meta.FileName, meta.FileFormat, time.Now().UTC()).Scan(&id)

	if err != nil {
		return "", fmt.Errorf("upserting document: %w", err)
	}
	return id, nil
}

const documentColumns = `id, content_hash, file_name, file_format, summary, extraction_method, word_count, created_at`

// GetDocument retrieves a document by ID.
func (s *Store) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	return scanDocument(row)
}

// GetDocumentByHash retrieves a document by content hash.
func (s *Store) GetDocumentByHash(ctx context.Context, contentHash string) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE content_hash = ?`, contentHash)
	return scanDocument(row)
}

// ListDocuments returns every document row.
func (s *Store) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents ORDER BY file_name`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	return scanDocuments(rows)
}

// DocumentsNeedingSummary returns up to limit documents whose summary is
// absent or marked extraction-failed. Randomized order avoids a
// systematic bias toward alphabetically-early files across repeated
// bounded runs.
func (s *Store) DocumentsNeedingSummary(ctx context.Context, limit int) ([]domain.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+documentColumns+` FROM documents
		WHERE summary IS NULL OR summary = ? OR summary = ''
		ORDER BY RANDOM() LIMIT ?
	`, domain.SummaryExtractionFailed, limit)
	if err != nil {
		return nil, fmt.Errorf("querying documents needing summary: %w", err)
	}
	defer rows.Close()

	return scanDocuments(rows)
}

// DocumentsNeedingTagging returns up to limit documents with zero
// assignment rows and real summary text, in randomized order. "Needs
// tagging" means no rows at all, not no matching rows.
func (s *Store) DocumentsNeedingTagging(ctx context.Context, limit int) ([]domain.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+documentColumns+` FROM documents d
		WHERE NOT EXISTS (
			SELECT 1 FROM document_tags dt WHERE dt.document_id = d.id
		)
		AND d.summary IS NOT NULL AND d.summary != '' AND d.summary NOT IN (?, ?)
		ORDER BY RANDOM() LIMIT ?
	`, domain.SummaryInsufficient, domain.SummaryExtractionFailed, limit)
	if err != nil {
		return nil, fmt.Errorf("querying documents needing tagging: %w", err)
	}
	defer rows.Close()

	return scanDocuments(rows)
}

// SetSummary stores summary text (or a sentinel) plus its provenance.
func (s *Store) SetSummary(ctx context.Context, documentID, summary, method string, wordCount int) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE documents SET summary = ?, extraction_method = ?, word_count = ?
		WHERE id = ?
	`, summary, method, wordCount, documentID)
	if err != nil {
		return fmt.Errorf("setting summary: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking summary update: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ClearSummary resets a document's summary to the unprocessed state.
func (s *Store) ClearSummary(ctx context.Context, documentID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE documents SET summary = NULL, extraction_method = '', word_count = 0
		WHERE id = ?
	`, documentID)
	if err != nil {
		return fmt.Errorf("clearing summary: %w", err)
	}
	return nil
}

// DeleteDocument removes a document; assignments cascade.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

// ==================== Tags ====================

const tagColumns = `id, name, description, use_summary, any_tags, and_tags, not_any_tags, created_at, updated_at`

// ListTags returns every stored tag.
func (s *Store) ListTags(ctx context.Context) ([]domain.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+tagColumns+` FROM tags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying tags: %w", err)
	}
	defer rows.Close()

	var tags []domain.Tag //nolint:prealloc // size unknown from query
	for rows.Next() {
		tag, err := scanTagRows(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, *tag)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tags: %w", err)
	}
	return tags, nil
}

// GetTagByName retrieves a tag by its unique name.
func (s *Store) GetTagByName(ctx context.Context, name string) (*domain.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+tagColumns+` FROM tags WHERE name = ?`, name)
	if err != nil {
		return nil, fmt.Errorf("querying tag: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("querying tag: %w", err)
		}
		return nil, domain.ErrNotFound
	}
	return scanTagRows(rows)
}

// SetTagResult upserts the evaluation result for one (document, tag)
// pair. A later call for the same pair overwrites the earlier result.
func (s *Store) SetTagResult(ctx context.Context, documentID, tagID string, matches bool) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO document_tags (document_id, tag_id, matches, evaluated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(document_id, tag_id) DO UPDATE SET
			matches = excluded.matches,
			evaluated_at = excluded.evaluated_at
	`, documentID, tagID, matches, time.Now().UTC())

	if err != nil {
		return fmt.Errorf("setting tag result: %w", err)
	}
	return nil
}

// SearchByTagExpression compiles the boolean tag query to SQL. The
// document must have a matches=true row for every AndTags entry, at
// least one among AnyTags when non-empty, and none for NotAnyTags. An
// entirely empty query returns the empty set by contract.
func (s *Store) SearchByTagExpression(ctx context.Context, query driven.TagSearch) (map[string]bool, error) {
	if query.IsEmpty() {
		return map[string]bool{}, nil
	}

	var (
		b    strings.Builder
		args []any
	)
	b.WriteString("SELECT d.id FROM documents d WHERE 1=1")

	for _, name := range query.AndTags {
		b.WriteString(matchClause("", "t.name = ?"))
		args = append(args, name)
	}
	if len(query.AnyTags) > 0 {
		b.WriteString(matchClause("", "t.name IN ("+placeholders(len(query.AnyTags))+")"))
		for _, name := range query.AnyTags {
			args = append(args, name)
		}
	}
	if len(query.NotAnyTags) > 0 {
		b.WriteString(matchClause("NOT ", "t.name IN ("+placeholders(len(query.NotAnyTags))+")"))
		for _, name := range query.NotAnyTags {
			args = append(args, name)
		}
	}

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("searching by tag expression: %w", err)
	}
	defer rows.Close()

	matches := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning document id: %w", err)
		}
		matches[id] = true
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating matches: %w", err)
	}
	return matches, nil
}

// matchClause builds one EXISTS subquery over matching assignments.
func matchClause(not, nameCond string) string {
	return ` AND ` + not + `EXISTS (
		SELECT 1 FROM document_tags dt
		JOIN tags t ON t.id = dt.tag_id
		WHERE dt.document_id = d.id AND dt.matches = 1 AND ` + nameCond + `)`
}

// placeholders returns n comma-separated SQL placeholders.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// SyncTagsFromConfig diffs tag definitions against stored tags. A
// changed property hash updates the tag, bumps the audit row and
// cascade-deletes the tag's assignments so it is re-evaluated fresh.
// Stored tags absent from config are deleted outright.
func (s *Store) SyncTagsFromConfig(ctx context.Context, defs []domain.TagDefinition) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stored, err := storedTagHashes(ctx, tx)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	seen := make(map[string]bool, len(defs))

	for _, def := range defs {
		if def.Name == "" {
			return domain.ErrInvalidInput
		}
		seen[def.Name] = true
		hash := def.PropertyHash()

		existing, ok := stored[def.Name]
		switch {
		case !ok:
			if err := insertTag(ctx, tx, def, hash, now); err != nil {
				return err
			}

		case existing.propertyHash != hash:
			if err := updateTag(ctx, tx, existing.id, def, hash, now); err != nil {
				return err
			}
			// Stale assignments must not survive a definition change.
			if _, err := tx.ExecContext(ctx,
				"DELETE FROM document_tags WHERE tag_id = ?", existing.id); err != nil {
				return fmt.Errorf("invalidating assignments for %s: %w", def.Name, err)
			}
		}
	}

	// Tags no longer in config are removed along with their assignments.
	for name, existing := range stored {
		if seen[name] {
			continue
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM tags WHERE id = ?", existing.id); err != nil {
			return fmt.Errorf("deleting tag %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing tag sync: %w", err)
	}
	return nil
}

// storedTag pairs a tag ID with its audited property hash.
type storedTag struct {
	id           string
	propertyHash string
}

func storedTagHashes(ctx context.Context, tx *sql.Tx) (map[string]storedTag, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT t.id, t.name, COALESCE(h.property_hash, '')
		FROM tags t LEFT JOIN tag_hashes h ON h.tag_id = t.id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying stored tags: %w", err)
	}
	defer rows.Close()

	stored := make(map[string]storedTag)
	for rows.Next() {
		var st storedTag
		var name string
		if err := rows.Scan(&st.id, &name, &st.propertyHash); err != nil {
			return nil, fmt.Errorf("scanning stored tag: %w", err)
		}
		stored[name] = st
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating stored tags: %w", err)
	}
	return stored, nil
}

func insertTag(ctx context.Context, tx *sql.Tx, def domain.TagDefinition, hash string, now time.Time) error {
	anyJSON, andJSON, notAnyJSON, err := marshalTagLists(def)
	if err != nil {
		return err
	}

	id := uuid.New().String()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO tags (id, name, description, use_summary, any_tags, and_tags, not_any_tags, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, def.Name, def.Description, def.UseSummary, anyJSON, andJSON, notAnyJSON, now, now)
	if err != nil {
		return fmt.Errorf("inserting tag %s: %w", def.Name, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO tag_hashes (tag_id, property_hash, updated_at) VALUES (?, ?, ?)
	`, id, hash, now)
	if err != nil {
		return fmt.Errorf("inserting tag hash for %s: %w", def.Name, err)
	}
	return nil
}

func updateTag(ctx context.Context, tx *sql.Tx, id string, def domain.TagDefinition, hash string, now time.Time) error {
	anyJSON, andJSON, notAnyJSON, err := marshalTagLists(def)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE tags SET description = ?, use_summary = ?, any_tags = ?, and_tags = ?, not_any_tags = ?, updated_at = ?
		WHERE id = ?
	`, def.Description, def.UseSummary, anyJSON, andJSON, notAnyJSON, now, id)
	if err != nil {
		return fmt.Errorf("updating tag %s: %w", def.Name, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO tag_hashes (tag_id, property_hash, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(tag_id) DO UPDATE SET
			property_hash = excluded.property_hash,
			updated_at = excluded.updated_at
	`, id, hash, now)
	if err != nil {
		return fmt.Errorf("updating tag hash for %s: %w", def.Name, err)
	}
	return nil
}

func marshalTagLists(def domain.TagDefinition) (string, string, string, error) {
	anyJSON, err := json.Marshal(emptyIfNil(def.AnyTags))
	if err != nil {
		return "", "", "", fmt.Errorf("marshalling any_tags: %w", err)
	}
	andJSON, err := json.Marshal(emptyIfNil(def.AndTags))
	if err != nil {
		return "", "", "", fmt.Errorf("marshalling and_tags: %w", err)
	}
	notAnyJSON, err := json.Marshal(emptyIfNil(def.NotAnyTags))
	if err != nil {
		return "", "", "", fmt.Errorf("marshalling not_any_tags: %w", err)
	}
	return string(anyJSON), string(andJSON), string(notAnyJSON), nil
}

func emptyIfNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

// ==================== Housekeeping ====================

// RemoveDocumentsNotIn deletes document rows whose content hash is
// absent from the given set. Assignments cascade.
func (s *Store) RemoveDocumentsNotIn(ctx context.Context, contentHashes map[string]bool) (int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, content_hash FROM documents")
	if err != nil {
		return 0, fmt.Errorf("querying documents: %w", err)
	}

	var stale []string
	for rows.Next() {
		var id, hash string
		if err := rows.Scan(&id, &hash); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scanning document: %w", err)
		}
		if !contentHashes[hash] {
			stale = append(stale, id)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, fmt.Errorf("iterating documents: %w", err)
	}
	rows.Close()

	for _, id := range stale {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id); err != nil {
			return 0, fmt.Errorf("deleting stale document: %w", err)
		}
	}
	return len(stale), nil
}

// RemoveOrphanTags deletes tags with zero assignment rows.
func (s *Store) RemoveOrphanTags(ctx context.Context) (int, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM tags WHERE id NOT IN (SELECT DISTINCT tag_id FROM document_tags)
	`)
	if err != nil {
		return 0, fmt.Errorf("removing orphan tags: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting removed tags: %w", err)
	}
	return int(affected), nil
}

// ==================== Scan helpers ====================

// scanDocument scans a single document row.
func scanDocument(row *sql.Row) (*domain.Document, error) {
	var doc domain.Document
	var summary sql.NullString

	if err := row.Scan(&doc.ID, &doc.ContentHash, &doc.FileName, &doc.FileFormat,
		&summary, &doc.ExtractionMethod, &doc.WordCount, &doc.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	if summary.Valid {
		doc.Summary = &summary.String
	}
	return &doc, nil
}

// scanDocuments scans document rows.
func scanDocuments(rows *sql.Rows) ([]domain.Document, error) {
	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		var doc domain.Document
		var summary sql.NullString

		if err := rows.Scan(&doc.ID, &doc.ContentHash, &doc.FileName, &doc.FileFormat,
			&summary, &doc.ExtractionMethod, &doc.WordCount, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}

		if summary.Valid {
			doc.Summary = &summary.String
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// scanTagRows scans a tag from *sql.Rows.
func scanTagRows(rows *sql.Rows) (*domain.Tag, error) {
	var tag domain.Tag
	var anyJSON, andJSON, notAnyJSON string

	if err := rows.Scan(&tag.ID, &tag.Name, &tag.Description, &tag.UseSummary,
		&anyJSON, &andJSON, &notAnyJSON, &tag.CreatedAt, &tag.UpdatedAt); err != nil {
		return nil, fmt.Errorf("scanning tag: %w", err)
	}

	for _, pair := range []struct {
		raw  string
		dest *[]string
	}{
		{anyJSON, &tag.AnyTags},
		{andJSON, &tag.AndTags},
		{notAnyJSON, &tag.NotAnyTags},
	} {
		if pair.raw == "" {
			continue
		}
		if err := json.Unmarshal([]byte(pair.raw), pair.dest); err != nil {
			return nil, fmt.Errorf("unmarshalling tag list: %w", err)
		}
	}

	return &tag, nil
}
