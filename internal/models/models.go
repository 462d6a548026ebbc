package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// StringList is a JSON-encoded string slice stored in a JSONB column.
// Order is preserved (recipient lists are order-sensitive).
type StringList []string

// Value implements driver.Valuer
func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (s *StringList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*s = nil
		return nil
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("cannot scan %T into StringList", src)
	}
}

// User represents an application user
type User struct {
	ID           int       `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// MailAccount holds IMAP/SMTP connection settings for one mailbox
type MailAccount struct {
	ID           int       `db:"id" json:"id"`
	UserID       int       `db:"user_id" json:"user_id"`
	Kind         string    `db:"kind" json:"kind"`
	IMAPHost     string    `db:"imap_host" json:"imap_host"`
	IMAPUser     string    `db:"imap_user" json:"imap_user"`
	IMAPPassword string    `db:"imap_password" json:"-"`
	SMTPHost     string    `db:"smtp_host" json:"smtp_host"`
	SMTPUser     string    `db:"smtp_user" json:"smtp_user"`
	SMTPPassword string    `db:"smtp_password" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Folder is a mailbox folder with an IMAP UID watermark
type Folder struct {
	ID        int    `db:"id" json:"id"`
	AccountID int    `db:"account_id" json:"account_id"`
	Name      string `db:"name" json:"name"`
	LastUID   int    `db:"last_uid" json:"last_uid"`
}

// Thread is a conversation bucket. ThreadKey is the derived grouping key
// (normalized subject + participant set + UTC day); LastDate never regresses.
type Thread struct {
	ID          int        `db:"id" json:"id"`
	AccountID   int        `db:"account_id" json:"account_id"`
	ThreadKey   string     `db:"thread_key" json:"thread_key"`
	SubjectNorm string     `db:"subject_norm" json:"subject_norm"`
	LastDate    *time.Time `db:"last_date" json:"last_date,omitempty"`
}

// Message is one email, immutable once created
type Message struct {
	ID              int        `db:"id" json:"id"`
	AccountID       int        `db:"account_id" json:"account_id"`
	FolderID        int        `db:"folder_id" json:"folder_id"`
	ThreadID        int        `db:"thread_id" json:"thread_id"`
	MessageIDHeader *string    `db:"message_id_header" json:"message_id_header,omitempty"`
	InReplyTo       *string    `db:"in_reply_to" json:"in_reply_to,omitempty"`
	References      *string    `db:"references" json:"references,omitempty"`
	Subject         string     `db:"subject" json:"subject"`
	SentAt          time.Time  `db:"sent_at" json:"sent_at"`
	FromName        string     `db:"from_name" json:"from_name"`
	FromEmail       string     `db:"from_email" json:"from_email"`
	To              StringList `db:"to_json" json:"to"`
	Cc              StringList `db:"cc_json" json:"cc"`
	Bcc             StringList `db:"bcc_json" json:"bcc"`
	BodyText        string     `db:"body_text" json:"body_text"`
	BodyHTML        *string    `db:"body_html" json:"body_html,omitempty"`
	RawRFC822       *string    `db:"raw_rfc822" json:"-"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}

// Embedding is one embedded chunk of a message body. The full set for a
// message is replaced atomically on re-embedding; ChunkIndex is contiguous
// from 0.
type Embedding struct {
	ID         int    `db:"id" json:"id"`
	MessageID  int    `db:"message_id" json:"message_id"`
	Model      string `db:"model" json:"model"`
	ChunkIndex int    `db:"chunk_index" json:"chunk_index"`
	Content    string `db:"content" json:"content"`
	Vector     string `db:"vector" json:"-"` // pgvector literal, e.g. "[0.1,0.2]"
}

// Citation is a compact reference returned alongside a generated answer
type Citation struct {
	MessageID int       `json:"message_id"`
	SentAt    time.Time `json:"sent_at"`
	FromEmail string    `json:"from_email"`
	Subject   string    `json:"subject"`
}
