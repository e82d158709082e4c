package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/legalgate/internal/canonical"
	"github.com/roach88/legalgate/internal/legal"
)

// DocumentStore implements legal.DocumentRepository.
type DocumentStore struct {
	db *sql.DB
}

var _ legal.DocumentRepository = (*DocumentStore)(nil)

const documentColumns = `
	d.id, d.label, d.require_signup, d.require_existing,
	COALESCE((SELECT v.id FROM document_versions v WHERE v.document_id = d.id AND v.published = 1), '')
`

// Create inserts a new document. The PublishedVersionID field is ignored;
// publish a version with CreateVersion or Publish instead.
func (s *DocumentStore) Create(ctx context.Context, doc *legal.Document) error {
	if doc.ID == "" {
		return fmt.Errorf("create document: id is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, label, require_signup, require_existing)
		VALUES (?, ?, ?, ?)
	`,
		doc.ID,
		canonical.Normalize(doc.Label),
		boolToInt(doc.RequireSignup),
		boolToInt(doc.RequireExisting),
	)
	if err != nil {
		return fmt.Errorf("create document %q: %w", doc.ID, err)
	}
	return nil
}

// Get returns the document with the given ID, or legal.ErrNotFound.
func (s *DocumentStore) Get(ctx context.Context, id string) (*legal.Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents d WHERE d.id = ?`, id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %q: %w", id, legal.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get document %q: %w", id, err)
	}
	return doc, nil
}

// FindByLabel returns the first document, by ID, carrying the label.
// Returns nil, nil when no document matches.
func (s *DocumentStore) FindByLabel(ctx context.Context, label string) (*legal.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+documentColumns+`
		FROM documents d
		WHERE d.label = ?
		ORDER BY d.id ASC
		LIMIT 1
	`, canonical.Normalize(label))
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find document by label %q: %w", label, err)
	}
	return doc, nil
}

// LoadAll returns all documents when ids is nil, otherwise the documents with
// the given IDs. Missing IDs are omitted. Results are ordered by ID.
func (s *DocumentStore) LoadAll(ctx context.Context, ids []string) ([]*legal.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents d`
	var args []any
	if ids != nil {
		if len(ids) == 0 {
			return []*legal.Document{}, nil
		}
		query += ` WHERE d.id IN (?` + strings.Repeat(",?", len(ids)-1) + `)`
		for _, id := range ids {
			args = append(args, id)
		}
	}
	query += ` ORDER BY d.id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}
	defer rows.Close()

	docs := []*legal.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("load documents: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}
	return docs, nil
}

// Save persists the document's label and requirement flags.
// Returns legal.ErrNotFound if the document no longer exists.
func (s *DocumentStore) Save(ctx context.Context, doc *legal.Document) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE documents
		SET label = ?, require_signup = ?, require_existing = ?
		WHERE id = ?
	`,
		canonical.Normalize(doc.Label),
		boolToInt(doc.RequireSignup),
		boolToInt(doc.RequireExisting),
		doc.ID,
	)
	if err != nil {
		return fmt.Errorf("save document %q: %w", doc.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save document %q: %w", doc.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("save document %q: %w", doc.ID, legal.ErrNotFound)
	}
	return nil
}

// Delete removes a document together with its versions and acceptances.
// Deleting a missing document is a no-op.
func (s *DocumentStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete document %q: %w", id, err)
	}
	return nil
}

// PublishedVersion returns the document's published version, or nil, nil.
func (s *DocumentStore) PublishedVersion(ctx context.Context, doc *legal.Document) (*legal.Version, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, label, document_id, published
		FROM document_versions
		WHERE document_id = ? AND published = 1
	`, doc.ID)
	v, err := scanVersion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("published version of %q: %w", doc.ID, err)
	}
	return v, nil
}

// CreateVersion inserts a version. If v.Published is set, any previously
// published version of the same document is unpublished first.
func (s *DocumentStore) CreateVersion(ctx context.Context, v *legal.Version) error {
	if v.ID == "" || v.DocumentID == "" {
		return fmt.Errorf("create version: id and document id are required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("create version %q: begin tx: %w", v.ID, err)
	}
	defer tx.Rollback() // No-op if committed

	if v.Published {
		if err := unpublishAll(ctx, tx, v.DocumentID); err != nil {
			return fmt.Errorf("create version %q: %w", v.ID, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO document_versions (id, document_id, label, published)
		VALUES (?, ?, ?, ?)
	`, v.ID, v.DocumentID, canonical.Normalize(v.Label), boolToInt(v.Published))
	if err != nil {
		return fmt.Errorf("create version %q: %w", v.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("create version %q: commit: %w", v.ID, err)
	}
	return nil
}

// Publish makes the version the published version of its document.
func (s *DocumentStore) Publish(ctx context.Context, versionID string) error {
	v, err := s.GetVersion(ctx, versionID)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("publish %q: begin tx: %w", versionID, err)
	}
	defer tx.Rollback() // No-op if committed

	if err := unpublishAll(ctx, tx, v.DocumentID); err != nil {
		return fmt.Errorf("publish %q: %w", versionID, err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE document_versions SET published = 1 WHERE id = ?`, versionID); err != nil {
		return fmt.Errorf("publish %q: %w", versionID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("publish %q: commit: %w", versionID, err)
	}
	return nil
}

// GetVersion returns the version with the given ID, or legal.ErrNotFound.
func (s *DocumentStore) GetVersion(ctx context.Context, id string) (*legal.Version, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, label, document_id, published
		FROM document_versions
		WHERE id = ?
	`, id)
	v, err := scanVersion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("version %q: %w", id, legal.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get version %q: %w", id, err)
	}
	return v, nil
}

// FindVersion resolves a version name among documentID's versions, trying
// the ID first and then the label. An empty documentID searches every
// document. Returns nil, nil when nothing matches.
func (s *DocumentStore) FindVersion(ctx context.Context, documentID, name string) (*legal.Version, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, label, document_id, published
		FROM document_versions
		WHERE (id = ? OR label = ?) AND (? = '' OR document_id = ?)
		ORDER BY (id = ?) DESC, published DESC, id ASC
		LIMIT 1
	`, name, canonical.Normalize(name), documentID, documentID, name)
	v, err := scanVersion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find version %q: %w", name, err)
	}
	return v, nil
}

// ListVersions returns a document's versions ordered by ID.
func (s *DocumentStore) ListVersions(ctx context.Context, documentID string) ([]*legal.Version, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, label, document_id, published
		FROM document_versions
		WHERE document_id = ?
		ORDER BY id ASC
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("list versions of %q: %w", documentID, err)
	}
	defer rows.Close()

	versions := []*legal.Version{}
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("list versions of %q: %w", documentID, err)
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

func unpublishAll(ctx context.Context, tx *sql.Tx, documentID string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE document_versions SET published = 0
		WHERE document_id = ? AND published = 1
	`, documentID)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*legal.Document, error) {
	var doc legal.Document
	var signup, existing int
	if err := row.Scan(&doc.ID, &doc.Label, &signup, &existing, &doc.PublishedVersionID); err != nil {
		return nil, err
	}
	doc.RequireSignup = signup != 0
	doc.RequireExisting = existing != 0
	return &doc, nil
}

func scanVersion(row scanner) (*legal.Version, error) {
	var v legal.Version
	var published int
	if err := row.Scan(&v.ID, &v.Label, &v.DocumentID, &published); err != nil {
		return nil, err
	}
	v.Published = published != 0
	return &v, nil
}
