package fixture

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/legalgate/internal/legal"
	"github.com/roach88/legalgate/internal/testutil"
)

func newTestAcceptor(docs *memDocs) (*AutoAcceptor, *agreeingCreator) {
	policy := &memPolicy{docs: docs, agreed: map[string]bool{}}
	creator := &agreeingCreator{policy: policy}
	return NewAutoAcceptor(docs, policy, creator, testutil.NewFixedClock(fixedNow), nil), creator
}

func TestAcceptAll_Idempotent(t *testing.T) {
	a, creator := newTestAcceptor(termsDocs())
	ctx := context.Background()

	n, err := a.AcceptAll(ctx, "1", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = a.AcceptAll(ctx, "1", nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.Len(t, creator.inputs, 1)
	in := creator.inputs[0]
	assert.Equal(t, "terms_12345", *in.VersionName, "published version referenced by ID")
	assert.True(t, fixedNow.Equal(in.AcceptedAt))
	assert.Equal(t, map[string]string{"uid": "1"}, in.Fields)
}

func TestAcceptAll_SkipsUnrequiredDocuments(t *testing.T) {
	docs := newMemDocs(
		&legal.Document{ID: "a", Label: "a", RequireExisting: true},
		&legal.Document{ID: "b", Label: "b", RequireSignup: true},
		&legal.Document{ID: "c", Label: "c", RequireExisting: true},
	)
	docs.publish("a", "a1", "a1")
	docs.publish("b", "b1", "b1")
	// c has nothing published.

	a, creator := newTestAcceptor(docs)

	n, err := a.AcceptAll(context.Background(), "1", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, creator.inputs, 1)
	assert.Equal(t, "a1", *creator.inputs[0].VersionName)
}

func TestAcceptAll_GivenDocuments(t *testing.T) {
	docs := newMemDocs(
		&legal.Document{ID: "a", Label: "a", RequireExisting: true},
		&legal.Document{ID: "b", Label: "b", RequireExisting: true},
	)
	docs.publish("a", "a1", "a1")
	docs.publish("b", "b1", "b1")
	a, _ := newTestAcceptor(docs)
	ctx := context.Background()

	only, err := docs.Get(ctx, "b")
	require.NoError(t, err)

	n, err := a.AcceptAll(ctx, "1", []*legal.Document{only})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = a.AcceptAll(ctx, "1", []*legal.Document{})
	require.NoError(t, err)
	assert.Zero(t, n, "an empty slice is not all documents")
}

func TestAcceptDocument(t *testing.T) {
	docs := termsDocs()
	a, _ := newTestAcceptor(docs)
	ctx := context.Background()
	doc, err := docs.Get(ctx, "terms")
	require.NoError(t, err)

	ok, err := a.AcceptDocument(ctx, "1", doc)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.AcceptDocument(ctx, "1", doc)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = a.AcceptDocument(ctx, "2", doc)
	require.NoError(t, err)
	assert.True(t, ok, "agreement is per account")
}
