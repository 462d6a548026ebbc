package store

import (
	"context"
	"fmt"

	"inboxia/internal/models"

	"github.com/jmoiron/sqlx"
)

// FolderStore provides access to the folders table
type FolderStore struct {
	db *sqlx.DB
}

// NewFolderStore creates a new folder store
func NewFolderStore(db *sqlx.DB) *FolderStore {
	return &FolderStore{db: db}
}

// Ensure returns the folder row for (account, name), creating it if needed
func (s *FolderStore) Ensure(ctx context.Context, accountID int, name string) (*models.Folder, error) {
	var f models.Folder
	query := `
		INSERT INTO folders (account_id, name, last_uid)
		VALUES ($1, $2, 0)
		ON CONFLICT (account_id, name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, account_id, name, last_uid
	`
	if err := s.db.GetContext(ctx, &f, query, accountID, name); err != nil {
		return nil, fmt.Errorf("failed to ensure folder %q: %w", name, err)
	}
	return &f, nil
}

// ListByAccount returns an account's folders
func (s *FolderStore) ListByAccount(ctx context.Context, accountID int) ([]models.Folder, error) {
	var folders []models.Folder
	query := `SELECT id, account_id, name, last_uid FROM folders WHERE account_id = $1 ORDER BY name ASC`
	if err := s.db.SelectContext(ctx, &folders, query, accountID); err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}
	return folders, nil
}

// UpdateLastUID advances the folder's IMAP UID watermark
func (s *FolderStore) UpdateLastUID(ctx context.Context, folderID, lastUID int) error {
	query := `UPDATE folders SET last_uid = GREATEST(last_uid, $1) WHERE id = $2`
	if _, err := s.db.ExecContext(ctx, query, lastUID, folderID); err != nil {
		return fmt.Errorf("failed to update folder last_uid: %w", err)
	}
	return nil
}
