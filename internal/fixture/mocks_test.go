package fixture

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/roach88/legalgate/internal/legal"
)

var fixedNow = time.Date(2024, 6, 15, 9, 30, 0, 0, time.UTC)

// memDocs is an in-memory DocumentRepository.
type memDocs struct {
	docs      map[string]*legal.Document
	versions  map[string]*legal.Version // keyed by document ID, published only
	failSave  map[string]error
	failLoad  error
	saveCalls []string
}

func newMemDocs(docs ...*legal.Document) *memDocs {
	m := &memDocs{
		docs:     map[string]*legal.Document{},
		versions: map[string]*legal.Version{},
		failSave: map[string]error{},
	}
	for _, d := range docs {
		cp := *d
		m.docs[d.ID] = &cp
	}
	return m
}

func (m *memDocs) publish(documentID, versionID, label string) {
	m.versions[documentID] = &legal.Version{ID: versionID, Label: label, DocumentID: documentID, Published: true}
}

func (m *memDocs) Get(_ context.Context, id string) (*legal.Document, error) {
	d, ok := m.docs[id]
	if !ok {
		return nil, fmt.Errorf("document %q: %w", id, legal.ErrNotFound)
	}
	cp := *d
	return &cp, nil
}

func (m *memDocs) FindByLabel(_ context.Context, label string) (*legal.Document, error) {
	for _, id := range m.ids() {
		if m.docs[id].Label == label {
			cp := *m.docs[id]
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memDocs) LoadAll(_ context.Context, ids []string) ([]*legal.Document, error) {
	if m.failLoad != nil {
		return nil, m.failLoad
	}
	if ids == nil {
		ids = m.ids()
	}
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	out := []*legal.Document{}
	for _, id := range sorted {
		if d, ok := m.docs[id]; ok {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memDocs) PublishedVersion(_ context.Context, doc *legal.Document) (*legal.Version, error) {
	return m.versions[doc.ID], nil
}

func (m *memDocs) Save(_ context.Context, doc *legal.Document) error {
	m.saveCalls = append(m.saveCalls, doc.ID)
	if err := m.failSave[doc.ID]; err != nil {
		return err
	}
	if _, ok := m.docs[doc.ID]; !ok {
		return legal.ErrNotFound
	}
	cp := *doc
	m.docs[doc.ID] = &cp
	return nil
}

func (m *memDocs) ids() []string {
	ids := make([]string, 0, len(m.docs))
	for id := range m.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (m *memDocs) flags(id string) legal.FlagPair {
	return m.docs[id].Flags()
}

// recordingCreator records inputs and fails from the given call onwards.
type recordingCreator struct {
	inputs []legal.AcceptanceInput
	failAt int // zero-based call index; -1 never fails
}

func newRecordingCreator() *recordingCreator {
	return &recordingCreator{failAt: -1}
}

var errCreate = errors.New("create failed")

func (c *recordingCreator) Create(_ context.Context, in legal.AcceptanceInput) (*legal.Acceptance, error) {
	if c.failAt >= 0 && len(c.inputs) >= c.failAt {
		return nil, errCreate
	}
	c.inputs = append(c.inputs, in)
	return &legal.Acceptance{
		ID:         fmt.Sprintf("acc-%d", len(c.inputs)),
		VersionID:  *in.VersionName,
		AccountID:  in.Fields[legal.ColumnAccount],
		AcceptedAt: in.AcceptedAt,
	}, nil
}

// memPolicy tracks agreements made through its creator.
type memPolicy struct {
	docs   *memDocs
	agreed map[string]bool // documentID/accountID
}

func (p *memPolicy) MustAgree(ctx context.Context, doc *legal.Document, _ string, newUser bool) (bool, error) {
	required := doc.RequireExisting
	if newUser {
		required = doc.RequireSignup
	}
	if !required {
		return false, nil
	}
	v, _ := p.docs.PublishedVersion(ctx, doc)
	return v != nil, nil
}

func (p *memPolicy) HasAgreed(_ context.Context, doc *legal.Document, accountID string) (bool, error) {
	return p.agreed[doc.ID+"/"+accountID], nil
}

// agreeingCreator marks agreements on a memPolicy.
type agreeingCreator struct {
	policy *memPolicy
	inputs []legal.AcceptanceInput
}

func (c *agreeingCreator) Create(_ context.Context, in legal.AcceptanceInput) (*legal.Acceptance, error) {
	c.inputs = append(c.inputs, in)
	for docID, v := range c.policy.docs.versions {
		if v.ID == *in.VersionName {
			c.policy.agreed[docID+"/"+in.Fields[legal.ColumnAccount]] = true
		}
	}
	return &legal.Acceptance{ID: fmt.Sprintf("acc-%d", len(c.inputs)), VersionID: *in.VersionName}, nil
}
