// Package legal defines the legal document acceptance model shared by the
// fixture engine and its collaborators.
//
// A Document gates accounts behind agreement to its published Version. An
// Acceptance records that an account agreed to a specific version at a
// specific time. The fixture engine only ever toggles the two requirement
// flags of a Document and creates Acceptance records; everything else about
// their lifecycle belongs to the repository implementation.
package legal

import (
	"sort"
	"time"
)

// Well-known fixture table columns.
const (
	ColumnVersionName    = "document_version_name"
	ColumnAcceptanceDate = "acceptance_date"
	ColumnAccount        = "uid"
)

// Document is a gating policy that requires user agreement.
type Document struct {
	ID    string `json:"id"`
	Label string `json:"label"`

	// RequireSignup gates new account registration.
	RequireSignup bool `json:"require_signup"`

	// RequireExisting gates login of accounts that already exist.
	RequireExisting bool `json:"require_existing"`

	// PublishedVersionID is empty when no version is published.
	PublishedVersionID string `json:"published_version_id,omitempty"`
}

// Flags returns the document's current requirement flag pair.
func (d *Document) Flags() FlagPair {
	return FlagPair{RequireSignup: d.RequireSignup, RequireExisting: d.RequireExisting}
}

// SetFlags overwrites both requirement flags.
func (d *Document) SetFlags(f FlagPair) {
	d.RequireSignup = f.RequireSignup
	d.RequireExisting = f.RequireExisting
}

// Enforced reports whether either requirement flag is set.
func (d *Document) Enforced() bool {
	return d.RequireSignup || d.RequireExisting
}

// FlagPair is the enforcement state of one document.
type FlagPair struct {
	RequireSignup   bool `json:"require_signup"`
	RequireExisting bool `json:"require_existing"`
}

// Version is one revision of a document's text.
type Version struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	DocumentID string `json:"document_id"`
	Published  bool   `json:"published"`
}

// Account is an account that can agree to documents.
type Account struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Acceptance is proof that an account agreed to a version at a point in time.
// Acceptances are immutable once created.
type Acceptance struct {
	ID         string            `json:"id"`
	VersionID  string            `json:"version_id"`
	AccountID  string            `json:"account_id"`
	AcceptedAt time.Time         `json:"accepted_at"`
	Data       map[string]string `json:"data,omitempty"`
}

// AcceptanceInput is a fully resolved fixture row, ready for creation.
type AcceptanceInput struct {
	// DocumentID scopes VersionName to one document's versions. Empty
	// searches every document.
	DocumentID string

	// VersionName identifies the version agreed to, by ID or label.
	// Nil leaves the decision to the creator, which rejects it.
	VersionName *string

	AcceptedAt time.Time

	// Fields holds every other column of the source row verbatim.
	Fields map[string]string
}

// Field returns a pass-through column value.
func (in AcceptanceInput) Field(name string) (string, bool) {
	v, ok := in.Fields[name]
	return v, ok
}

// FieldNames returns the pass-through column names in sorted order.
func (in AcceptanceInput) FieldNames() []string {
	names := make([]string, 0, len(in.Fields))
	for k := range in.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// FixtureDefaults are the values a fixture batch falls back to when a row
// leaves a column empty. They are derived per document per batch.
type FixtureDefaults struct {
	AcceptedAt time.Time

	// VersionLabel is the label of the document's published version,
	// nil when nothing is published.
	VersionLabel *string
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
