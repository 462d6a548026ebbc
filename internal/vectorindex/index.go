// Package vectorindex abstracts similarity search over embedded message
// chunks. The pgvector backend searches in-database; the qdrant backend
// keeps a mirrored collection with message metadata as payload.
package vectorindex

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"inboxia/internal/config"
	"inboxia/internal/models"

	"github.com/jmoiron/sqlx"
)

// Hit is one ranked chunk returned by a similarity search.
// Distance is cosine distance: smaller means more similar.
type Hit struct {
	MessageID  int
	ChunkIndex int
	Content    string
	Distance   float64
}

// Query scopes and ranks a similarity search. All predicates are
// AND-combined; AccountID is always enforced.
type Query struct {
	AccountID int
	ThreadID  *int       // scope to one thread
	From      string     // case-insensitive substring on sender
	To        string     // exact membership in the recipient list
	Subject   string     // case-insensitive substring
	Before    *time.Time // strict sent_at upper bound
	After     *time.Time // strict sent_at lower bound
	Vector    []float32
	TopK      int
}

// Index stores and searches embedded chunks. ReplaceMessage swaps the full
// chunk set for a message atomically so no stale chunk indices survive a
// re-embed.
type Index interface {
	ReplaceMessage(ctx context.Context, msg *models.Message, model string, contents []string, vectors [][]float32) error
	Search(ctx context.Context, q Query) ([]Hit, error)
	DeleteMessage(ctx context.Context, messageID int) error
}

// New selects the configured vector index backend
func New(cfg *config.Config, db *sqlx.DB) (Index, error) {
	switch cfg.VectorBackend {
	case "pgvector", "":
		return NewPgVectorIndex(db), nil
	case "qdrant":
		return NewQdrantIndex(cfg)
	default:
		return nil, fmt.Errorf("unknown vector backend %q (expected \"pgvector\" or \"qdrant\")", cfg.VectorBackend)
	}
}

// FormatVector converts a float32 slice to pgvector string format.
// Example output: "[0.1,0.2,0.3]"
func FormatVector(embedding []float32) string {
	parts := make([]string, len(embedding))
	for i, v := range embedding {
		parts[i] = strconv.FormatFloat(float64(v), 'f', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
