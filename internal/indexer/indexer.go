// Package indexer turns persisted messages into embedded chunks. Indexing
// fully replaces a message's embeddings, so re-running it after a body
// correction (or a duplicate queue delivery) is safe.
package indexer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"inboxia/internal/chunker"
	"inboxia/internal/metrics"
	"inboxia/internal/models"
	"inboxia/internal/provider"
	"inboxia/internal/vectorindex"
)

// MessageGetter loads one message by id
type MessageGetter interface {
	GetByID(ctx context.Context, id int) (*models.Message, error)
}

// Indexer chunks and embeds messages
type Indexer struct {
	messages MessageGetter
	index    vectorindex.Index
	provider provider.Provider
	maxChars int
}

// New creates an indexer
func New(messages MessageGetter, index vectorindex.Index, p provider.Provider, maxChars int) *Indexer {
	if maxChars <= 0 {
		maxChars = chunker.DefaultMaxChars
	}
	return &Indexer{
		messages: messages,
		index:    index,
		provider: p,
		maxChars: maxChars,
	}
}

// IndexMessage chunks the message body, embeds all chunks in one batched
// provider call and replaces the stored embedding set. Returns the number
// of chunks embedded. A missing message is a normal empty case, not an
// error.
func (ix *Indexer) IndexMessage(ctx context.Context, messageID int) (int, error) {
	msg, err := ix.messages.GetByID(ctx, messageID)
	if err != nil {
		return 0, err
	}
	if msg == nil {
		fmt.Printf("[INDEXER] Message %d not found, nothing to embed\n", messageID)
		return 0, nil
	}

	chunks := chunker.ChunkBody(msg.BodyText, ix.maxChars)
	contents := make([]string, len(chunks))
	for i, chunk := range chunks {
		contents[i] = chunker.BuildEmbeddingContent(
			msg.Subject,
			msg.SentAt.Format(time.RFC3339),
			msg.FromEmail,
			strings.Join(msg.To, ", "),
			chunk,
		)
	}

	vectors, err := ix.provider.Embed(ctx, contents)
	if err != nil {
		return 0, fmt.Errorf("failed to embed message %d: %w", messageID, err)
	}
	if len(vectors) != len(contents) {
		return 0, fmt.Errorf("provider returned %d vectors for %d chunks", len(vectors), len(contents))
	}

	if err := ix.index.ReplaceMessage(ctx, msg, ix.provider.Name(), contents, vectors); err != nil {
		return 0, fmt.Errorf("failed to store embeddings for message %d: %w", messageID, err)
	}

	metrics.ChunksEmbedded.Add(float64(len(contents)))
	fmt.Printf("[INDEXER] Embedded message %d (%d chunks)\n", messageID, len(contents))
	return len(contents), nil
}
