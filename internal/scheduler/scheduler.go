// Package scheduler triggers periodic account syncs on a cron expression.
// It only publishes ingest events; the worker does the actual sync, so a
// slow mailbox never delays the schedule.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"
	"github.com/rs/zerolog/log"

	"inboxia/internal/models"
	"inboxia/internal/queue"
)

// AccountLister enumerates the accounts to sync
type AccountLister interface {
	List(ctx context.Context) ([]models.MailAccount, error)
}

// EventPublisher dispatches ingest events
type EventPublisher interface {
	Publish(routingKey string, payload any) error
}

// Scheduler publishes one ingest event per account on each cron tick
type Scheduler struct {
	accounts AccountLister
	producer EventPublisher
	cronExpr string
}

// New validates the cron expression and creates a scheduler
func New(accounts AccountLister, producer EventPublisher, cronExpr string) (*Scheduler, error) {
	if cronExpr == "" {
		cronExpr = "*/15 * * * *"
	}
	if !gronx.IsValid(cronExpr) {
		return nil, fmt.Errorf("invalid ingest cron expression: %s", cronExpr)
	}
	return &Scheduler{accounts: accounts, producer: producer, cronExpr: cronExpr}, nil
}

// Run blocks until the context is cancelled, sweeping accounts at every
// tick. Call it from a goroutine.
func (s *Scheduler) Run(ctx context.Context) {
	log.Info().Str("cron", s.cronExpr).Msg("Ingest scheduler started")

	for {
		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(s.cronExpr, now, false)
		if err != nil {
			log.Error().Err(err).Str("cron", s.cronExpr).Msg("Failed to compute next tick")
			select {
			case <-time.After(30 * time.Second):
				continue
			case <-ctx.Done():
				return
			}
		}

		select {
		case <-time.After(time.Until(next)):
		case <-ctx.Done():
			log.Info().Msg("Ingest scheduler stopping")
			return
		}

		if err := s.Sweep(ctx); err != nil {
			log.Error().Err(err).Msg("Ingest sweep failed")
		}
	}
}

// Sweep publishes an ingest event for every account
func (s *Scheduler) Sweep(ctx context.Context) error {
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}

	for _, account := range accounts {
		if err := s.producer.Publish(queue.RoutingKeyAccountIngest, queue.NewAccountIngestEvent(account.ID)); err != nil {
			return fmt.Errorf("failed to publish ingest event for account %d: %w", account.ID, err)
		}
	}

	log.Info().Int("accounts", len(accounts)).Msg("Ingest sweep dispatched")
	return nil
}
