// Package retrieval turns a free-text question into a ranked, citable set
// of message fragments. Structured filter tokens in the query become hard
// predicates; the remaining text is embedded and matched by cosine
// distance against the vector index.
package retrieval

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"inboxia/internal/metrics"
	"inboxia/internal/models"
	"inboxia/internal/provider"
	"inboxia/internal/vectorindex"
)

// DefaultTopK bounds a retrieval when no explicit limit is configured
const DefaultTopK = 8

// MessageLoader resolves hit message ids to full records
type MessageLoader interface {
	GetByIDs(ctx context.Context, ids []int) (map[int]*models.Message, error)
}

// Fragment is one retrieved chunk paired with its owning message,
// in similarity order.
type Fragment struct {
	Message  *models.Message
	Content  string
	Distance float64
}

// Retriever runs the query pipeline against a vector index and message store
type Retriever struct {
	provider provider.Provider
	index    vectorindex.Index
	messages MessageLoader
	topK     int
}

// New creates a retriever
func New(p provider.Provider, index vectorindex.Index, messages MessageLoader, topK int) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Retriever{
		provider: p,
		index:    index,
		messages: messages,
		topK:     topK,
	}
}

// Retrieve fetches the top-K fragments for a query within one account.
// With a selected thread the query text is embedded verbatim and candidates
// are scoped to that thread; filter syntax is treated as literal text there,
// since the thread already is the scope. Without one, structured filters are
// parsed out and applied as AND-combined predicates, and the residual text
// is embedded.
func (r *Retriever) Retrieve(ctx context.Context, accountID int, query string, selectedThreadID *int) ([]Fragment, error) {
	start := time.Now()

	q := vectorindex.Query{
		AccountID: accountID,
		TopK:      r.topK,
	}

	embedText := query
	if selectedThreadID != nil {
		q.ThreadID = selectedThreadID
	} else {
		residual, filters := ParseFilters(query)
		embedText = residual
		q.From = filters.From
		q.To = filters.To
		q.Subject = filters.Subject
		q.Before = parseFilterDate(filters.Before)
		q.After = parseFilterDate(filters.After)
	}

	vectors, err := r.provider.Embed(ctx, []string{embedText})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("provider returned %d vectors for the query", len(vectors))
	}
	q.Vector = vectors[0]

	hits, err := r.index.Search(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	fragments, err := r.loadFragments(ctx, hits)
	if err != nil {
		return nil, err
	}

	metrics.RetrievalDuration.Observe(time.Since(start).Seconds())
	return fragments, nil
}

// loadFragments joins hits with their messages, preserving hit order.
// Messages hold the account scoping already enforced by the search, so a
// hit whose message disappeared between search and load is dropped.
func (r *Retriever) loadFragments(ctx context.Context, hits []vectorindex.Hit) ([]Fragment, error) {
	if len(hits) == 0 {
		return nil, nil
	}

	seen := make(map[int]bool, len(hits))
	ids := make([]int, 0, len(hits))
	for _, h := range hits {
		if !seen[h.MessageID] {
			seen[h.MessageID] = true
			ids = append(ids, h.MessageID)
		}
	}

	byID, err := r.messages.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages for hits: %w", err)
	}

	fragments := make([]Fragment, 0, len(hits))
	for _, h := range hits {
		msg, ok := byID[h.MessageID]
		if !ok {
			continue
		}
		fragments = append(fragments, Fragment{
			Message:  msg,
			Content:  h.Content,
			Distance: h.Distance,
		})
	}
	return fragments, nil
}

// parseFilterDate accepts an ISO-8601 date or timestamp. An unparseable
// value disables just that predicate; the query still runs.
func parseFilterDate(value string) *time.Time {
	if value == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	log.Debug().Str("value", value).Msg("Dropping date filter with unparseable value")
	return nil
}
