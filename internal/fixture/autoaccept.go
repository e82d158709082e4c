package fixture

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/legalgate/internal/legal"
)

// AutoAcceptor makes an account agree to the documents it is required to
// agree to.
type AutoAcceptor struct {
	docs    legal.DocumentRepository
	policy  legal.AgreementPolicy
	creator legal.AcceptanceCreator
	clock   legal.Clock
	logger  *slog.Logger
}

// NewAutoAcceptor creates an acceptor. A nil logger discards.
func NewAutoAcceptor(
	docs legal.DocumentRepository,
	policy legal.AgreementPolicy,
	creator legal.AcceptanceCreator,
	clock legal.Clock,
	logger *slog.Logger,
) *AutoAcceptor {
	if logger == nil {
		logger = discardLogger()
	}
	return &AutoAcceptor{
		docs:    docs,
		policy:  policy,
		creator: creator,
		clock:   clock,
		logger:  logger,
	}
}

// AcceptAll accepts each document on behalf of the account and returns the
// number of acceptances created. A nil slice means every document.
//
// Documents the account need not agree to, or has already agreed to, are
// skipped, so calling AcceptAll again creates nothing.
func (a *AutoAcceptor) AcceptAll(ctx context.Context, accountID string, documents []*legal.Document) (int, error) {
	if documents == nil {
		docs, err := a.docs.LoadAll(ctx, nil)
		if err != nil {
			return 0, fmt.Errorf("auto accept: %w", err)
		}
		documents = docs
	}

	created := 0
	for _, doc := range documents {
		ok, err := a.AcceptDocument(ctx, accountID, doc)
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}
	return created, nil
}

// AcceptDocument accepts the published version of one document on behalf of
// the account. It reports whether an acceptance was created.
func (a *AutoAcceptor) AcceptDocument(ctx context.Context, accountID string, doc *legal.Document) (bool, error) {
	must, err := a.policy.MustAgree(ctx, doc, accountID, false)
	if err != nil {
		return false, fmt.Errorf("auto accept %q: %w", doc.ID, err)
	}
	if !must {
		return false, nil
	}
	agreed, err := a.policy.HasAgreed(ctx, doc, accountID)
	if err != nil {
		return false, fmt.Errorf("auto accept %q: %w", doc.ID, err)
	}
	if agreed {
		return false, nil
	}

	version, err := a.docs.PublishedVersion(ctx, doc)
	if err != nil {
		return false, fmt.Errorf("auto accept %q: %w", doc.ID, err)
	}
	if version == nil {
		return false, nil
	}

	acc, err := a.creator.Create(ctx, legal.AcceptanceInput{
		DocumentID:  doc.ID,
		VersionName: legal.StringPtr(version.ID),
		AcceptedAt:  a.clock.Now(),
		Fields:      map[string]string{legal.ColumnAccount: accountID},
	})
	if err != nil {
		return false, fmt.Errorf("auto accept %q: %w", doc.ID, err)
	}

	a.logger.Info("document accepted",
		"document", doc.ID,
		"account", accountID,
		"version", version.ID,
		"acceptance", acc.ID,
	)
	return true, nil
}
