package fixture

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/legalgate/internal/legal"
)

// ResolveRow turns one sparse table row into a complete acceptance input.
//
// An empty document_version_name falls back to defaults.VersionLabel and
// stays nil when there is none. An empty acceptance_date falls back to
// defaults.AcceptedAt, or to the resolver's now when that is zero as well. A
// non-empty acceptance_date must parse. Every other column is passed through
// unchanged. The row is not modified.
func ResolveRow(row map[string]string, defaults legal.FixtureDefaults, times legal.TimeResolver) (legal.AcceptanceInput, error) {
	in := legal.AcceptanceInput{Fields: make(map[string]string, len(row))}

	for col, val := range row {
		switch col {
		case legal.ColumnVersionName, legal.ColumnAcceptanceDate:
		default:
			in.Fields[col] = val
		}
	}

	if name := row[legal.ColumnVersionName]; strings.TrimSpace(name) != "" {
		in.VersionName = legal.StringPtr(name)
	} else if defaults.VersionLabel != nil {
		in.VersionName = legal.StringPtr(*defaults.VersionLabel)
	}

	at, err := times.Resolve(row[legal.ColumnAcceptanceDate], defaults.AcceptedAt)
	if err != nil {
		return legal.AcceptanceInput{}, err
	}
	in.AcceptedAt = at

	return in, nil
}

// Defaults computes the fallback values for rows of one document: the
// clock's now and the label of the published version, if any.
func Defaults(ctx context.Context, docs legal.DocumentRepository, clock legal.Clock, doc *legal.Document) (legal.FixtureDefaults, error) {
	d := legal.FixtureDefaults{AcceptedAt: clock.Now()}
	v, err := docs.PublishedVersion(ctx, doc)
	if err != nil {
		return legal.FixtureDefaults{}, fmt.Errorf("defaults for %q: %w", doc.ID, err)
	}
	if v != nil {
		d.VersionLabel = legal.StringPtr(v.Label)
	}
	return d, nil
}
