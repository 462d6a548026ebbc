package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// CreateTables creates the database schema (PostgreSQL with pgvector)
func CreateTables(db *sqlx.DB) error {
	// Enable pgvector extension first
	if _, err := db.Exec(`CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		fmt.Printf("Warning: Failed to create vector extension (may already exist): %v\n", err)
	}

	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id SERIAL PRIMARY KEY,
			email VARCHAR(255) UNIQUE NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS mail_accounts (
			id SERIAL PRIMARY KEY,
			user_id INT NOT NULL REFERENCES users(id),
			kind VARCHAR(32) NOT NULL DEFAULT 'imap',
			imap_host VARCHAR(255) NOT NULL,
			imap_user VARCHAR(255) NOT NULL,
			imap_password VARCHAR(255) NOT NULL,
			smtp_host VARCHAR(255) NOT NULL,
			smtp_user VARCHAR(255) NOT NULL,
			smtp_password VARCHAR(255) NOT NULL,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS folders (
			id SERIAL PRIMARY KEY,
			account_id INT NOT NULL REFERENCES mail_accounts(id),
			name VARCHAR(255) NOT NULL,
			last_uid INT DEFAULT 0,
			UNIQUE (account_id, name)
		)`,

		// Duplicate-thread races resolve through this unique constraint:
		// insert, catch conflict, re-fetch.
		`CREATE TABLE IF NOT EXISTS threads (
			id SERIAL PRIMARY KEY,
			account_id INT NOT NULL REFERENCES mail_accounts(id),
			thread_key VARCHAR(512) NOT NULL,
			subject_norm VARCHAR(255) NOT NULL,
			last_date TIMESTAMPTZ,
			UNIQUE (account_id, thread_key)
		)`,

		`CREATE TABLE IF NOT EXISTS messages (
			id SERIAL PRIMARY KEY,
			account_id INT NOT NULL REFERENCES mail_accounts(id),
			folder_id INT NOT NULL REFERENCES folders(id),
			thread_id INT NOT NULL REFERENCES threads(id),
			message_id_header VARCHAR(255) UNIQUE,
			in_reply_to VARCHAR(255),
			"references" TEXT,
			subject VARCHAR(255),
			sent_at TIMESTAMPTZ,
			from_name VARCHAR(255),
			from_email VARCHAR(255),
			to_json JSONB DEFAULT '[]',
			cc_json JSONB DEFAULT '[]',
			bcc_json JSONB DEFAULT '[]',
			body_text TEXT,
			body_html TEXT,
			raw_rfc822 TEXT,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		)`,

		// Embeddings table - pgvector, 1536 dimensions
		`CREATE TABLE IF NOT EXISTS embeddings (
			id SERIAL PRIMARY KEY,
			message_id INT NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
			model VARCHAR(128) NOT NULL,
			chunk_index INT NOT NULL,
			content TEXT NOT NULL,
			vector vector(1536) NOT NULL,
			UNIQUE (message_id, chunk_index)
		)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	// Create indexes separately
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_messages_account_sent ON messages(account_id, sent_at)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_thread_id ON messages(thread_id)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_message_id_header ON messages(message_id_header)`,
		`CREATE INDEX IF NOT EXISTS idx_threads_account_key ON threads(account_id, thread_key)`,
		`CREATE INDEX IF NOT EXISTS idx_threads_last_date ON threads(last_date)`,
		`CREATE INDEX IF NOT EXISTS idx_embeddings_message_id ON embeddings(message_id)`,
		// HNSW index for fast cosine similarity search with pgvector
		`CREATE INDEX IF NOT EXISTS idx_embeddings_hnsw ON embeddings USING hnsw (vector vector_cosine_ops)`,
	}

	for _, query := range indexes {
		if _, err := db.Exec(query); err != nil {
			// Ignore errors for index creation (they might already exist)
			fmt.Printf("Warning: Failed to create index: %v\n", err)
		}
	}

	return nil
}
