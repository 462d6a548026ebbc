package vectorindex

import (
	"context"
	"fmt"
	"strings"

	"inboxia/internal/models"

	"github.com/jmoiron/sqlx"
)

// PgVectorIndex runs similarity search in PostgreSQL using the pgvector
// extension. Embeddings live next to the messages, so filter predicates
// become plain SQL on the join.
type PgVectorIndex struct {
	db *sqlx.DB
}

// NewPgVectorIndex creates a pgvector-backed index
func NewPgVectorIndex(db *sqlx.DB) *PgVectorIndex {
	return &PgVectorIndex{db: db}
}

// ReplaceMessage deletes all embedding rows for the message and inserts the
// new set in one transaction. chunk_index follows list position.
func (p *PgVectorIndex) ReplaceMessage(ctx context.Context, msg *models.Message, model string, contents []string, vectors [][]float32) error {
	if len(contents) != len(vectors) {
		return fmt.Errorf("content/vector count mismatch: %d vs %d", len(contents), len(vectors))
	}

	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM embeddings WHERE message_id = $1`, msg.ID); err != nil {
		return fmt.Errorf("failed to delete old embeddings: %w", err)
	}

	insert := `INSERT INTO embeddings (message_id, model, chunk_index, content, vector)
		VALUES ($1, $2, $3, $4, $5::vector)`
	for i, content := range contents {
		if _, err := tx.ExecContext(ctx, insert, msg.ID, model, i, content, FormatVector(vectors[i])); err != nil {
			return fmt.Errorf("failed to insert embedding chunk %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit embeddings: %w", err)
	}
	return nil
}

// Search ranks matching chunks by ascending cosine distance. Ties break on
// message id then chunk index so results are deterministic.
func (p *PgVectorIndex) Search(ctx context.Context, q Query) ([]Hit, error) {
	conditions := []string{"m.account_id = $2"}
	args := []interface{}{FormatVector(q.Vector), q.AccountID}
	next := 3

	addCondition := func(clause string, value interface{}) {
		conditions = append(conditions, fmt.Sprintf(clause, next))
		args = append(args, value)
		next++
	}

	if q.ThreadID != nil {
		addCondition("m.thread_id = $%d", *q.ThreadID)
	}
	if q.From != "" {
		addCondition("m.from_email ILIKE $%d", "%"+q.From+"%")
	}
	if q.Subject != "" {
		addCondition("m.subject ILIKE $%d", "%"+q.Subject+"%")
	}
	if q.To != "" {
		addCondition("m.to_json @> jsonb_build_array($%d::text)", q.To)
	}
	if q.Before != nil {
		addCondition("m.sent_at < $%d", *q.Before)
	}
	if q.After != nil {
		addCondition("m.sent_at > $%d", *q.After)
	}

	query := fmt.Sprintf(`
		SELECT e.message_id, e.chunk_index, e.content, (e.vector <=> $1::vector) AS distance
		FROM embeddings e
		JOIN messages m ON m.id = e.message_id
		WHERE %s
		ORDER BY distance ASC, e.message_id ASC, e.chunk_index ASC
		LIMIT $%d
	`, strings.Join(conditions, " AND "), next)
	args = append(args, q.TopK)

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			fmt.Printf("Warning: Error closing rows: %v\n", err)
		}
	}()

	var hits []Hit
	for rows.Next() {
		var h Hit
		if err := rows.Scan(&h.MessageID, &h.ChunkIndex, &h.Content, &h.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan search hit: %w", err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate search hits: %w", err)
	}
	return hits, nil
}

// DeleteMessage removes all embedding rows for a message
func (p *PgVectorIndex) DeleteMessage(ctx context.Context, messageID int) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM embeddings WHERE message_id = $1`, messageID); err != nil {
		return fmt.Errorf("failed to delete embeddings: %w", err)
	}
	return nil
}
