package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/legalgate/internal/legal"
	"github.com/roach88/legalgate/internal/store"
)

// seedDatabase creates an application database with an Admin account, the
// enforced "my_terms" document (two versions, the second published) and the
// unenforced "privacy_policy" document.
func seedDatabase(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.db")
	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	require.NoError(t, st.Accounts().Create(ctx, legal.Account{ID: "1", Name: "Admin"}))
	require.NoError(t, st.Documents().Create(ctx, &legal.Document{
		ID: "terms", Label: "my_terms", RequireSignup: true, RequireExisting: true,
	}))
	require.NoError(t, st.Documents().CreateVersion(ctx, &legal.Version{
		ID: "terms_999", DocumentID: "terms", Label: "my_terms_999",
	}))
	require.NoError(t, st.Documents().CreateVersion(ctx, &legal.Version{
		ID: "terms_12345", DocumentID: "terms", Label: "my_terms_12345", Published: true,
	}))
	require.NoError(t, st.Documents().Create(ctx, &legal.Document{ID: "privacy", Label: "privacy_policy"}))
	require.NoError(t, st.Documents().CreateVersion(ctx, &legal.Version{
		ID: "privacy_1", DocumentID: "privacy", Label: "privacy_policy_1", Published: true,
	}))
	return path
}

// openDatabase reopens a seeded database for inspection.
func openDatabase(t *testing.T, path string) *store.Store {
	t.Helper()
	st, err := store.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

// execute runs a subcommand built by newCmd and returns its stdout.
func execute(t *testing.T, newCmd func(*RootOptions) *cobra.Command, opts *RootOptions, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := newCmd(opts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func textOpts(dbPath string) *RootOptions {
	return &RootOptions{Format: "text", Database: dbPath}
}

func jsonOpts(dbPath string) *RootOptions {
	return &RootOptions{Format: "json", Database: dbPath}
}
