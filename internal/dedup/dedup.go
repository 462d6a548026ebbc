// Package dedup guards at-least-once queue deliveries with a Redis SetNX
// window so a redelivered event is processed once.
package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Deduper marks events as seen for a TTL window
type Deduper struct {
	rdb *redis.Client
	ttl time.Duration
}

// New creates a deduper
func New(rdb *redis.Client, ttl time.Duration) *Deduper {
	return &Deduper{rdb: rdb, ttl: ttl}
}

// AcquireOnce reports whether this is the first delivery of an event to a
// handler. When Redis is unavailable it allows processing rather than
// stalling the pipeline; consumers are idempotent, duplicates are wasted
// work, not corruption.
func (d *Deduper) AcquireOnce(ctx context.Context, handler, eventID string) bool {
	key := fmt.Sprintf("dedup:%s:%s", handler, eventID)

	ok, err := d.rdb.SetNX(ctx, key, 1, d.ttl).Result()
	if err != nil {
		log.Warn().Err(err).Str("handler", handler).Str("event_id", eventID).
			Msg("Redis dedup check failed, allowing processing")
		return true
	}

	if !ok {
		log.Info().Str("handler", handler).Str("event_id", eventID).Str("dedup_key", key).
			Msg("Skipped duplicated event")
	}
	return ok
}
