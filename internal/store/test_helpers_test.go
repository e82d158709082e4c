package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/legalgate/internal/legal"
	"github.com/roach88/legalgate/internal/testutil"
)

// createTestStore creates a new file-backed store with deterministic IDs.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithIDGenerator(testutil.NewSequenceIDGenerator("acc")))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// seedDocument inserts a document with the given flags.
func seedDocument(t *testing.T, s *Store, id, label string, signup, existing bool) *legal.Document {
	t.Helper()
	doc := &legal.Document{ID: id, Label: label, RequireSignup: signup, RequireExisting: existing}
	if err := s.Documents().Create(context.Background(), doc); err != nil {
		t.Fatalf("seed document %q: %v", id, err)
	}
	return doc
}

// seedVersion inserts a version of a document.
func seedVersion(t *testing.T, s *Store, id, documentID, label string, published bool) {
	t.Helper()
	v := &legal.Version{ID: id, DocumentID: documentID, Label: label, Published: published}
	if err := s.Documents().CreateVersion(context.Background(), v); err != nil {
		t.Fatalf("seed version %q: %v", id, err)
	}
}

// seedAccount inserts an account.
func seedAccount(t *testing.T, s *Store, id, name string) {
	t.Helper()
	if err := s.Accounts().Create(context.Background(), legal.Account{ID: id, Name: name}); err != nil {
		t.Fatalf("seed account %q: %v", id, err)
	}
}
