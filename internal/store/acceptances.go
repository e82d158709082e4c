package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/legalgate/internal/canonical"
	"github.com/roach88/legalgate/internal/legal"
)

// AcceptanceStore implements legal.AcceptanceCreator and legal.AgreementPolicy.
type AcceptanceStore struct {
	db        *sql.DB
	ids       IDGenerator
	documents *DocumentStore
	accounts  *AccountStore
}

var (
	_ legal.AcceptanceCreator             = (*AcceptanceStore)(nil)
	_ legal.AgreementPolicy               = (*AcceptanceStore)(nil)
	_ legal.Repository[*legal.Acceptance] = (*AcceptanceStore)(nil)
)

// AcceptanceFilter narrows List and Count. Empty fields match everything.
type AcceptanceFilter struct {
	DocumentID string
	VersionID  string
	// AccountID matches the account's ID or name.
	AccountID string
}

// Create stores a resolved fixture row as an acceptance.
//
// The version name is resolved by ID, then label, within in.DocumentID when
// it is set. The account comes from the
// "uid" column and is resolved by ID, then name. Remaining columns are kept
// as the acceptance's data. Resolution failures are fixture errors.
func (s *AcceptanceStore) Create(ctx context.Context, in legal.AcceptanceInput) (*legal.Acceptance, error) {
	if in.VersionName == nil || *in.VersionName == "" {
		return nil, legal.NewVersionUnresolvedError("")
	}
	version, err := s.documents.FindVersion(ctx, in.DocumentID, *in.VersionName)
	if err != nil {
		return nil, err
	}
	if version == nil {
		return nil, legal.NewVersionUnresolvedError(*in.VersionName)
	}

	uid, _ := in.Field(legal.ColumnAccount)
	acct, err := s.accounts.Resolve(ctx, uid)
	if err != nil {
		return nil, err
	}

	if in.AcceptedAt.IsZero() {
		return nil, fmt.Errorf("create acceptance: acceptance date is required")
	}

	data := make(map[string]string, len(in.Fields))
	for k, v := range in.Fields {
		if k != legal.ColumnAccount {
			data[k] = v
		}
	}
	dataJSON, err := canonical.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("create acceptance: marshal data: %w", err)
	}

	acc := &legal.Acceptance{
		ID:         s.ids.Generate(),
		VersionID:  version.ID,
		AccountID:  acct.ID,
		AcceptedAt: time.Unix(in.AcceptedAt.Unix(), 0).UTC(),
		Data:       data,
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO acceptances (id, version_id, account_id, accepted_at, data)
		VALUES (?, ?, ?, ?, ?)
	`, acc.ID, acc.VersionID, acc.AccountID, acc.AcceptedAt.Unix(), string(dataJSON))
	if err != nil {
		return nil, fmt.Errorf("create acceptance: %w", err)
	}
	return acc, nil
}

// Get returns the acceptance with the given ID, or legal.ErrNotFound.
func (s *AcceptanceStore) Get(ctx context.Context, id string) (*legal.Acceptance, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, version_id, account_id, accepted_at, data
		FROM acceptances WHERE id = ?
	`, id)
	acc, err := scanAcceptance(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("acceptance %q: %w", id, legal.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get acceptance %q: %w", id, err)
	}
	return acc, nil
}

// List returns matching acceptances in creation order.
func (s *AcceptanceStore) List(ctx context.Context, f AcceptanceFilter) ([]*legal.Acceptance, error) {
	where, args := f.clause()
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.version_id, a.account_id, a.accepted_at, a.data
		FROM acceptances a
		JOIN document_versions v ON v.id = a.version_id
		JOIN accounts u ON u.id = a.account_id
		`+where+`
		ORDER BY a.seq ASC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("list acceptances: %w", err)
	}
	defer rows.Close()

	list := []*legal.Acceptance{}
	for rows.Next() {
		acc, err := scanAcceptance(rows)
		if err != nil {
			return nil, fmt.Errorf("list acceptances: %w", err)
		}
		list = append(list, acc)
	}
	return list, rows.Err()
}

// Count returns the number of matching acceptances.
func (s *AcceptanceStore) Count(ctx context.Context, f AcceptanceFilter) (int, error) {
	where, args := f.clause()
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM acceptances a
		JOIN document_versions v ON v.id = a.version_id
		JOIN accounts u ON u.id = a.account_id
		`+where, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count acceptances: %w", err)
	}
	return n, nil
}

// MustAgree reports whether the account is required to agree to the
// document: the relevant requirement flag is set and there is a published
// version to agree to.
func (s *AcceptanceStore) MustAgree(ctx context.Context, doc *legal.Document, accountID string, newUser bool) (bool, error) {
	required := doc.RequireExisting
	if newUser {
		required = doc.RequireSignup
	}
	if !required {
		return false, nil
	}
	if _, err := s.accounts.Resolve(ctx, accountID); err != nil {
		return false, err
	}
	v, err := s.documents.PublishedVersion(ctx, doc)
	if err != nil {
		return false, err
	}
	return v != nil, nil
}

// HasAgreed reports whether the account accepted the document's currently
// published version. Acceptances of older versions do not count.
func (s *AcceptanceStore) HasAgreed(ctx context.Context, doc *legal.Document, accountID string) (bool, error) {
	v, err := s.documents.PublishedVersion(ctx, doc)
	if err != nil {
		return false, err
	}
	if v == nil {
		return false, nil
	}
	n, err := s.Count(ctx, AcceptanceFilter{VersionID: v.ID, AccountID: accountID})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (f AcceptanceFilter) clause() (string, []any) {
	where := "WHERE 1 = 1"
	var args []any
	if f.DocumentID != "" {
		where += " AND v.document_id = ?"
		args = append(args, f.DocumentID)
	}
	if f.VersionID != "" {
		where += " AND a.version_id = ?"
		args = append(args, f.VersionID)
	}
	if f.AccountID != "" {
		where += " AND (u.id = ? OR u.name = ?)"
		args = append(args, f.AccountID, f.AccountID)
	}
	return where, args
}

func scanAcceptance(row scanner) (*legal.Acceptance, error) {
	var acc legal.Acceptance
	var acceptedAt int64
	var data string
	if err := row.Scan(&acc.ID, &acc.VersionID, &acc.AccountID, &acceptedAt, &data); err != nil {
		return nil, err
	}
	acc.AcceptedAt = time.Unix(acceptedAt, 0).UTC()
	acc.Data = map[string]string{}
	if data != "" {
		if err := json.Unmarshal([]byte(data), &acc.Data); err != nil {
			return nil, fmt.Errorf("unmarshal acceptance data: %w", err)
		}
	}
	return &acc, nil
}
