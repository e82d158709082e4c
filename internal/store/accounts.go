package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/legalgate/internal/legal"
)

// AccountStore stores accounts.
type AccountStore struct {
	db *sql.DB
}

var _ legal.Repository[*legal.Account] = (*AccountStore)(nil)

// Create inserts an account. An empty name defaults to the ID.
func (s *AccountStore) Create(ctx context.Context, acct legal.Account) error {
	if acct.ID == "" {
		return fmt.Errorf("create account: id is required")
	}
	if acct.Name == "" {
		acct.Name = acct.ID
	}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO accounts (id, name) VALUES (?, ?)`, acct.ID, acct.Name); err != nil {
		return fmt.Errorf("create account %q: %w", acct.ID, err)
	}
	return nil
}

// Get returns the account with the given ID, or legal.ErrNotFound.
func (s *AccountStore) Get(ctx context.Context, id string) (*legal.Account, error) {
	var acct legal.Account
	err := s.db.QueryRowContext(ctx, `SELECT id, name FROM accounts WHERE id = ?`, id).Scan(&acct.ID, &acct.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("account %q: %w", id, legal.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get account %q: %w", id, err)
	}
	return &acct, nil
}

// Resolve finds an account by ID, falling back to name. Fixture tables
// usually refer to accounts by name ("Admin").
// Returns an ACCOUNT_NOT_FOUND fixture error when nothing matches.
func (s *AccountStore) Resolve(ctx context.Context, ref string) (*legal.Account, error) {
	if ref == "" {
		return nil, legal.NewAccountNotFoundError("")
	}
	var acct legal.Account
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name FROM accounts
		WHERE id = ? OR name = ?
		ORDER BY (id = ?) DESC
		LIMIT 1
	`, ref, ref, ref).Scan(&acct.ID, &acct.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, legal.NewAccountNotFoundError(ref)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve account %q: %w", ref, err)
	}
	return &acct, nil
}

// List returns all accounts ordered by ID.
func (s *AccountStore) List(ctx context.Context) ([]legal.Account, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM accounts ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	accounts := []legal.Account{}
	for rows.Next() {
		var acct legal.Account
		if err := rows.Scan(&acct.ID, &acct.Name); err != nil {
			return nil, fmt.Errorf("list accounts: %w", err)
		}
		accounts = append(accounts, acct)
	}
	return accounts, rows.Err()
}
