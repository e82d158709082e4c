package fixture

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/legalgate/internal/legal"
)

// BatchBuilder creates acceptances from a table of rows that all belong to
// one document.
type BatchBuilder struct {
	docs    legal.DocumentRepository
	creator legal.AcceptanceCreator
	clock   legal.Clock
	times   legal.TimeResolver
	logger  *slog.Logger
}

// NewBatchBuilder creates a builder. A nil logger discards.
func NewBatchBuilder(
	docs legal.DocumentRepository,
	creator legal.AcceptanceCreator,
	clock legal.Clock,
	times legal.TimeResolver,
	logger *slog.Logger,
) *BatchBuilder {
	if logger == nil {
		logger = discardLogger()
	}
	return &BatchBuilder{
		docs:    docs,
		creator: creator,
		clock:   clock,
		times:   times,
		logger:  logger,
	}
}

// Build resolves every row against the document with the given label.
//
// Defaults are computed once for the whole batch so that every row shares
// the same now. Outputs keep the input order. The first row that fails to
// resolve aborts the build; its error carries the row index.
func (b *BatchBuilder) Build(ctx context.Context, documentLabel string, rows []map[string]string) ([]legal.AcceptanceInput, error) {
	doc, err := b.docs.FindByLabel(ctx, documentLabel)
	if err != nil {
		return nil, fmt.Errorf("find document %q: %w", documentLabel, err)
	}
	if doc == nil {
		return nil, legal.NewDocumentNotFoundError(documentLabel)
	}

	defaults, err := Defaults(ctx, b.docs, b.clock, doc)
	if err != nil {
		return nil, err
	}

	inputs := make([]legal.AcceptanceInput, 0, len(rows))
	for i, row := range rows {
		in, err := ResolveRow(row, defaults, b.times)
		if err != nil {
			return nil, atRow(err, i)
		}
		in.DocumentID = doc.ID
		inputs = append(inputs, in)
	}
	return inputs, nil
}

// Apply builds the batch and creates one acceptance per row, in order.
//
// Creation stops at the first failure. The records created before it are
// returned together with the error. Resolution errors create nothing.
func (b *BatchBuilder) Apply(ctx context.Context, documentLabel string, rows []map[string]string) ([]*legal.Acceptance, error) {
	inputs, err := b.Build(ctx, documentLabel, rows)
	if err != nil {
		return nil, err
	}

	created := make([]*legal.Acceptance, 0, len(inputs))
	for i, in := range inputs {
		acc, err := b.creator.Create(ctx, in)
		if err != nil {
			return created, atRow(err, i)
		}
		created = append(created, acc)
		b.logger.Debug("acceptance created",
			"document", documentLabel,
			"row", i,
			"id", acc.ID,
			"version", acc.VersionID,
		)
	}

	b.logger.Info("fixture batch applied", "document", documentLabel, "rows", len(created))
	return created, nil
}

// atRow attributes err to a table row.
func atRow(err error, row int) error {
	if fe, ok := err.(*legal.FixtureError); ok {
		return fe.AtRow(row)
	}
	return fmt.Errorf("row %d: %w", row, err)
}
