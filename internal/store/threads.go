package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"inboxia/internal/models"

	"github.com/jmoiron/sqlx"
)

// ThreadStore provides access to the threads table
type ThreadStore struct {
	db *sqlx.DB
}

// NewThreadStore creates a new thread store
func NewThreadStore(db *sqlx.DB) *ThreadStore {
	return &ThreadStore{db: db}
}

// GetByID fetches one thread; returns (nil, nil) when it does not exist
func (s *ThreadStore) GetByID(ctx context.Context, id int) (*models.Thread, error) {
	var t models.Thread
	query := `SELECT id, account_id, thread_key, subject_norm, last_date FROM threads WHERE id = $1`
	err := s.db.GetContext(ctx, &t, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch thread %d: %w", id, err)
	}
	return &t, nil
}

// GetByKey fetches the thread for (account, thread_key); (nil, nil) when absent
func (s *ThreadStore) GetByKey(ctx context.Context, accountID int, threadKey string) (*models.Thread, error) {
	var t models.Thread
	query := `SELECT id, account_id, thread_key, subject_norm, last_date
		FROM threads WHERE account_id = $1 AND thread_key = $2`
	err := s.db.GetContext(ctx, &t, query, accountID, threadKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch thread by key: %w", err)
	}
	return &t, nil
}

// Insert creates a thread. Returns false without error when another writer
// won the race on (account_id, thread_key); the caller re-fetches.
func (s *ThreadStore) Insert(ctx context.Context, t *models.Thread) (bool, error) {
	query := `
		INSERT INTO threads (account_id, thread_key, subject_norm, last_date)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (account_id, thread_key) DO NOTHING
		RETURNING id
	`
	err := s.db.QueryRowContext(ctx, query, t.AccountID, t.ThreadKey, t.SubjectNorm, t.LastDate).Scan(&t.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to insert thread: %w", err)
	}
	return true, nil
}

// UpdateLastDate advances last_date; it never regresses
func (s *ThreadStore) UpdateLastDate(ctx context.Context, threadID int, sentAt time.Time) error {
	query := `UPDATE threads SET last_date = GREATEST(COALESCE(last_date, $1), $1) WHERE id = $2`
	if _, err := s.db.ExecContext(ctx, query, sentAt, threadID); err != nil {
		return fmt.Errorf("failed to update thread last_date: %w", err)
	}
	return nil
}

// List returns an account's threads ordered by last activity. When folderID
// is set, only threads with at least one message in that folder are returned.
func (s *ThreadStore) List(ctx context.Context, accountID int, folderID *int) ([]models.Thread, error) {
	var threads []models.Thread
	if folderID != nil {
		query := `
			SELECT t.id, t.account_id, t.thread_key, t.subject_norm, t.last_date
			FROM threads t
			WHERE t.account_id = $1
			  AND t.id IN (SELECT DISTINCT thread_id FROM messages WHERE folder_id = $2)
			ORDER BY t.last_date DESC NULLS LAST
		`
		if err := s.db.SelectContext(ctx, &threads, query, accountID, *folderID); err != nil {
			return nil, fmt.Errorf("failed to list threads: %w", err)
		}
		return threads, nil
	}

	query := `SELECT id, account_id, thread_key, subject_norm, last_date
		FROM threads WHERE account_id = $1 ORDER BY last_date DESC NULLS LAST`
	if err := s.db.SelectContext(ctx, &threads, query, accountID); err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}
	return threads, nil
}
