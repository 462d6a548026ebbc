package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"inboxia/internal/models"

	"github.com/jmoiron/sqlx"
)

// AccountStore provides access to mail accounts and users
type AccountStore struct {
	db *sqlx.DB
}

// NewAccountStore creates a new account store
func NewAccountStore(db *sqlx.DB) *AccountStore {
	return &AccountStore{db: db}
}

// GetByID fetches one account; returns (nil, nil) when it does not exist
func (s *AccountStore) GetByID(ctx context.Context, id int) (*models.MailAccount, error) {
	var a models.MailAccount
	query := `SELECT id, user_id, kind, imap_host, imap_user, imap_password,
		smtp_host, smtp_user, smtp_password, created_at
		FROM mail_accounts WHERE id = $1`
	err := s.db.GetContext(ctx, &a, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch account %d: %w", id, err)
	}
	return &a, nil
}

// List returns all mail accounts
func (s *AccountStore) List(ctx context.Context) ([]models.MailAccount, error) {
	var accounts []models.MailAccount
	query := `SELECT id, user_id, kind, imap_host, imap_user, imap_password,
		smtp_host, smtp_user, smtp_password, created_at
		FROM mail_accounts ORDER BY id ASC`
	if err := s.db.SelectContext(ctx, &accounts, query); err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

// GetUserByEmail fetches a user for login; returns (nil, nil) when absent
func (s *AccountStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	query := `SELECT id, email, password_hash, created_at FROM users WHERE email = $1`
	err := s.db.GetContext(ctx, &u, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return &u, nil
}
