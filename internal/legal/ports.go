package legal

import (
	"context"
	"time"
)

// Repository reads one kind of record by ID.
type Repository[T any] interface {
	// Get returns ErrNotFound when no record has the given ID.
	Get(ctx context.Context, id string) (T, error)
}

// DocumentRepository loads and persists documents.
type DocumentRepository interface {
	Repository[*Document]

	// FindByLabel returns nil, nil when no document carries the label.
	FindByLabel(ctx context.Context, label string) (*Document, error)

	// LoadAll returns every document when ids is nil. Otherwise it returns
	// the documents with the given IDs, silently omitting missing ones.
	LoadAll(ctx context.Context, ids []string) ([]*Document, error)

	// PublishedVersion returns nil, nil when the document has no published
	// version.
	PublishedVersion(ctx context.Context, doc *Document) (*Version, error)

	// Save persists the document's flags.
	Save(ctx context.Context, doc *Document) error
}

// AcceptanceCreator turns resolved fixture rows into stored acceptances.
type AcceptanceCreator interface {
	Create(ctx context.Context, in AcceptanceInput) (*Acceptance, error)
}

// AgreementPolicy answers whether an account has to agree to a document.
type AgreementPolicy interface {
	// MustAgree reports whether the account is required to agree. newUser
	// selects the signup requirement over the existing-account one.
	MustAgree(ctx context.Context, doc *Document, accountID string, newUser bool) (bool, error)

	// HasAgreed reports whether the account already agreed to the
	// document's published version.
	HasAgreed(ctx context.Context, doc *Document, accountID string) (bool, error)
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// TimeResolver turns a free-form time expression into a timestamp.
type TimeResolver interface {
	// Resolve returns def for an empty expression, or the clock's now if def
	// is zero as well.
	Resolve(expr string, def time.Time) (time.Time, error)
}
