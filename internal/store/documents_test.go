package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/legalgate/internal/legal"
)

func TestDocuments_CreateAndGet(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	seedDocument(t, s, "terms", "my_terms", true, false)

	doc, err := s.Documents().Get(ctx, "terms")
	require.NoError(t, err)
	assert.Equal(t, "my_terms", doc.Label)
	assert.True(t, doc.RequireSignup)
	assert.False(t, doc.RequireExisting)
	assert.Empty(t, doc.PublishedVersionID)
}

func TestDocuments_GetMissing(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Documents().Get(context.Background(), "nope")
	assert.ErrorIs(t, err, legal.ErrNotFound)
}

func TestDocuments_CreateRequiresID(t *testing.T) {
	s := createTestStore(t)

	err := s.Documents().Create(context.Background(), &legal.Document{Label: "x"})
	assert.Error(t, err)
}

func TestDocuments_FindByLabel(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	seedDocument(t, s, "b_terms", "my_terms", true, false)
	seedDocument(t, s, "a_terms", "my_terms", false, true)
	seedDocument(t, s, "privacy", "privacy_policy", true, true)

	doc, err := s.Documents().FindByLabel(ctx, "my_terms")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "a_terms", doc.ID, "first match by id wins")

	doc, err = s.Documents().FindByLabel(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestDocuments_FindByLabelNormalizes(t *testing.T) {
	s := createTestStore(t)
	seedDocument(t, s, "cafe", "cafe\u0301 terms", true, false)

	doc, err := s.Documents().FindByLabel(context.Background(), "caf\u00e9 terms")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "cafe", doc.ID)
}

func TestDocuments_LoadAll(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	seedDocument(t, s, "c", "c", false, false)
	seedDocument(t, s, "a", "a", true, false)
	seedDocument(t, s, "b", "b", false, true)

	all, err := s.Documents().LoadAll(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, "b", all[1].ID)
	assert.Equal(t, "c", all[2].ID)

	some, err := s.Documents().LoadAll(ctx, []string{"c", "missing", "a"})
	require.NoError(t, err)
	require.Len(t, some, 2)
	assert.Equal(t, "a", some[0].ID)
	assert.Equal(t, "c", some[1].ID)

	none, err := s.Documents().LoadAll(ctx, []string{})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDocuments_Save(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	doc := seedDocument(t, s, "terms", "my_terms", true, true)

	doc.SetFlags(legal.FlagPair{})
	require.NoError(t, s.Documents().Save(ctx, doc))

	got, err := s.Documents().Get(ctx, "terms")
	require.NoError(t, err)
	assert.Equal(t, legal.FlagPair{}, got.Flags())
}

func TestDocuments_SaveMissing(t *testing.T) {
	s := createTestStore(t)

	err := s.Documents().Save(context.Background(), &legal.Document{ID: "gone"})
	assert.ErrorIs(t, err, legal.ErrNotFound)
}

func TestDocuments_DeleteCascades(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	seedDocument(t, s, "terms", "my_terms", true, true)
	seedVersion(t, s, "terms_1", "terms", "my_terms_1", true)
	seedAccount(t, s, "1", "Admin")

	_, err := s.Acceptances().Create(ctx, legal.AcceptanceInput{
		VersionName: legal.StringPtr("terms_1"),
		AcceptedAt:  epoch,
		Fields:      map[string]string{"uid": "Admin"},
	})
	require.NoError(t, err)

	require.NoError(t, s.Documents().Delete(ctx, "terms"))

	_, err = s.Documents().Get(ctx, "terms")
	assert.ErrorIs(t, err, legal.ErrNotFound)
	n, err := s.Acceptances().Count(ctx, AcceptanceFilter{})
	require.NoError(t, err)
	assert.Zero(t, n)

	// Deleting again is a no-op.
	assert.NoError(t, s.Documents().Delete(ctx, "terms"))
}

func TestDocuments_PublishedVersion(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	doc := seedDocument(t, s, "terms", "my_terms", true, false)

	v, err := s.Documents().PublishedVersion(ctx, doc)
	require.NoError(t, err)
	assert.Nil(t, v)

	seedVersion(t, s, "terms_1", "terms", "my_terms_1", false)
	seedVersion(t, s, "terms_2", "terms", "my_terms_2", true)

	v, err = s.Documents().PublishedVersion(ctx, doc)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "terms_2", v.ID)
	assert.Equal(t, "my_terms_2", v.Label)

	got, err := s.Documents().Get(ctx, "terms")
	require.NoError(t, err)
	assert.Equal(t, "terms_2", got.PublishedVersionID)
}

func TestDocuments_CreatePublishedVersionUnpublishesPrevious(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	seedDocument(t, s, "terms", "my_terms", true, false)
	seedVersion(t, s, "terms_1", "terms", "my_terms_1", true)
	seedVersion(t, s, "terms_2", "terms", "my_terms_2", true)

	versions, err := s.Documents().ListVersions(ctx, "terms")
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.False(t, versions[0].Published)
	assert.True(t, versions[1].Published)
}

func TestDocuments_Publish(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	doc := seedDocument(t, s, "terms", "my_terms", true, false)
	seedVersion(t, s, "terms_1", "terms", "my_terms_1", true)
	seedVersion(t, s, "terms_2", "terms", "my_terms_2", false)

	require.NoError(t, s.Documents().Publish(ctx, "terms_2"))

	v, err := s.Documents().PublishedVersion(ctx, doc)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "terms_2", v.ID)

	err = s.Documents().Publish(ctx, "missing")
	assert.ErrorIs(t, err, legal.ErrNotFound)
}

func TestDocuments_FindVersion(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	seedDocument(t, s, "terms", "my_terms", true, false)
	seedVersion(t, s, "terms_1", "terms", "my_terms_12345", true)
	seedVersion(t, s, "my_terms_12345", "terms", "confusing", false)

	v, err := s.Documents().FindVersion(ctx, "", "terms_1")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "terms_1", v.ID)

	// An ID match beats a label match.
	v, err = s.Documents().FindVersion(ctx, "", "my_terms_12345")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "my_terms_12345", v.ID)

	v, err = s.Documents().FindVersion(ctx, "", "confusing")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "my_terms_12345", v.ID)

	v, err = s.Documents().FindVersion(ctx, "", "nothing")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestDocuments_FindVersionScopedToDocument(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	seedDocument(t, s, "a_privacy", "privacy", true, false)
	seedDocument(t, s, "b_terms", "terms", true, false)
	seedVersion(t, s, "a_v1", "a_privacy", "Version 1", true)
	seedVersion(t, s, "b_v1", "b_terms", "Version 1", true)

	v, err := s.Documents().FindVersion(ctx, "b_terms", "Version 1")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "b_v1", v.ID)

	v, err = s.Documents().FindVersion(ctx, "b_terms", "a_v1")
	require.NoError(t, err)
	assert.Nil(t, v, "another document's version is not visible")

	v, err = s.Documents().FindVersion(ctx, "", "Version 1")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "a_v1", v.ID, "unscoped lookup breaks ties by ID")
}
