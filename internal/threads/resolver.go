package threads

import (
	"context"
	"fmt"
	"time"

	"inboxia/internal/models"
)

// MessageLookup is the one-hop reference lookup the resolver needs
type MessageLookup interface {
	FindThreadIDByHeaders(ctx context.Context, accountID int, refs []string) (int, bool, error)
}

// ThreadAccess covers thread reads, guarded creation and last_date updates
type ThreadAccess interface {
	GetByID(ctx context.Context, id int) (*models.Thread, error)
	GetByKey(ctx context.Context, accountID int, threadKey string) (*models.Thread, error)
	Insert(ctx context.Context, t *models.Thread) (bool, error)
	UpdateLastDate(ctx context.Context, threadID int, sentAt time.Time) error
}

// Resolver assigns messages to conversation threads. Explicit reference
// linkage takes priority over the heuristic key, so messages whose subject
// was edited mid-thread still join the original thread.
type Resolver struct {
	messages MessageLookup
	threads  ThreadAccess
}

// NewResolver creates a thread resolver
func NewResolver(messages MessageLookup, threads ThreadAccess) *Resolver {
	return &Resolver{messages: messages, threads: threads}
}

// ResolveOrCreate finds the thread a message belongs to, creating one when
// neither the reference hop nor the heuristic key matches. Creation is
// guarded by the (account_id, thread_key) unique constraint: on conflict the
// resolver re-fetches the winning row instead of failing.
func (r *Resolver) ResolveOrCreate(ctx context.Context, accountID int, subject, fromEmail string, toEmails []string, sentAt time.Time, references []string) (*models.Thread, error) {
	// 1. Reference-based match: any stored message whose message-id header
	// appears in the reference list decides the thread.
	if threadID, found, err := r.messages.FindThreadIDByHeaders(ctx, accountID, references); err != nil {
		return nil, err
	} else if found {
		thread, err := r.threads.GetByID(ctx, threadID)
		if err != nil {
			return nil, err
		}
		if thread != nil {
			return thread, nil
		}
	}

	// 2. Heuristic key match.
	threadKey := DeriveThreadKey(subject, fromEmail, toEmails, sentAt)
	thread, err := r.threads.GetByKey(ctx, accountID, threadKey)
	if err != nil {
		return nil, err
	}
	if thread != nil {
		return thread, nil
	}

	// 3. Create, with a single retry-on-conflict re-fetch.
	lastDate := sentAt
	candidate := &models.Thread{
		AccountID:   accountID,
		ThreadKey:   threadKey,
		SubjectNorm: NormalizeSubject(subject),
		LastDate:    &lastDate,
	}
	created, err := r.threads.Insert(ctx, candidate)
	if err != nil {
		return nil, err
	}
	if created {
		return candidate, nil
	}

	// Lost the creation race; the row exists now. Advance its last_date so
	// the invariant holds for the message we are placing.
	thread, err = r.threads.GetByKey(ctx, accountID, threadKey)
	if err != nil {
		return nil, err
	}
	if thread == nil {
		return nil, fmt.Errorf("thread %q vanished after insert conflict", threadKey)
	}
	if err := r.threads.UpdateLastDate(ctx, thread.ID, sentAt); err != nil {
		return nil, err
	}
	return thread, nil
}

// UpdateLastDate advances a thread's last_date; it never regresses
func (r *Resolver) UpdateLastDate(ctx context.Context, threadID int, sentAt time.Time) error {
	return r.threads.UpdateLastDate(ctx, threadID, sentAt)
}
