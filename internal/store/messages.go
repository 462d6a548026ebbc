package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"inboxia/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const messageColumns = `id, account_id, folder_id, thread_id, message_id_header, in_reply_to,
	"references", subject, sent_at, from_name, from_email, to_json, cc_json, bcc_json,
	body_text, body_html, raw_rfc822, created_at`

// MessageStore provides access to the messages table
type MessageStore struct {
	db *sqlx.DB
}

// NewMessageStore creates a new message store
func NewMessageStore(db *sqlx.DB) *MessageStore {
	return &MessageStore{db: db}
}

// Insert stores a message and fills in its generated ID
func (s *MessageStore) Insert(ctx context.Context, m *models.Message) error {
	query := `
		INSERT INTO messages (account_id, folder_id, thread_id, message_id_header, in_reply_to,
			"references", subject, sent_at, from_name, from_email, to_json, cc_json, bcc_json,
			body_text, body_html, raw_rfc822)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id
	`
	err := s.db.QueryRowContext(ctx, query,
		m.AccountID, m.FolderID, m.ThreadID, m.MessageIDHeader, m.InReplyTo,
		m.References, m.Subject, m.SentAt, m.FromName, m.FromEmail,
		m.To, m.Cc, m.Bcc, m.BodyText, m.BodyHTML, m.RawRFC822,
	).Scan(&m.ID)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// GetByID fetches one message; returns (nil, nil) when it does not exist
func (s *MessageStore) GetByID(ctx context.Context, id int) (*models.Message, error) {
	var m models.Message
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = $1`
	err := s.db.GetContext(ctx, &m, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch message %d: %w", id, err)
	}
	return &m, nil
}

// GetByIDs fetches messages by id, keyed by id
func (s *MessageStore) GetByIDs(ctx context.Context, ids []int) (map[int]*models.Message, error) {
	result := make(map[int]*models.Message, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var messages []models.Message
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = ANY($1)`
	if err := s.db.SelectContext(ctx, &messages, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}
	for i := range messages {
		result[messages[i].ID] = &messages[i]
	}
	return result, nil
}

// List returns an account's messages, newest first
func (s *MessageStore) List(ctx context.Context, accountID int, folderID *int, limit, offset int) ([]models.Message, error) {
	var messages []models.Message
	if folderID != nil {
		query := `SELECT ` + messageColumns + ` FROM messages
			WHERE account_id = $1 AND folder_id = $2
			ORDER BY sent_at DESC LIMIT $3 OFFSET $4`
		if err := s.db.SelectContext(ctx, &messages, query, accountID, *folderID, limit, offset); err != nil {
			return nil, fmt.Errorf("failed to list messages: %w", err)
		}
		return messages, nil
	}

	query := `SELECT ` + messageColumns + ` FROM messages
		WHERE account_id = $1
		ORDER BY sent_at DESC LIMIT $2 OFFSET $3`
	if err := s.db.SelectContext(ctx, &messages, query, accountID, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}

// ListByThread returns a thread's messages in sent order
func (s *MessageStore) ListByThread(ctx context.Context, threadID int) ([]models.Message, error) {
	var messages []models.Message
	query := `SELECT ` + messageColumns + ` FROM messages WHERE thread_id = $1 ORDER BY sent_at ASC`
	if err := s.db.SelectContext(ctx, &messages, query, threadID); err != nil {
		return nil, fmt.Errorf("failed to list thread messages: %w", err)
	}
	return messages, nil
}

// FindThreadIDByHeaders returns the thread of any message in the account
// whose message-id header matches one of refs. One-hop lookup only; clients
// carry the full ancestor chain in References per RFC 5322.
func (s *MessageStore) FindThreadIDByHeaders(ctx context.Context, accountID int, refs []string) (int, bool, error) {
	if len(refs) == 0 {
		return 0, false, nil
	}

	var threadID int
	query := `
		SELECT thread_id FROM messages
		WHERE account_id = $1 AND message_id_header = ANY($2)
		ORDER BY id ASC
		LIMIT 1
	`
	err := s.db.GetContext(ctx, &threadID, query, accountID, pq.Array(refs))
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to look up references: %w", err)
	}
	return threadID, true, nil
}
