package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"inboxia/internal/metrics"
	"inboxia/internal/models"
	"inboxia/internal/queue"
)

// uniqueViolation is the Postgres error code raised on a duplicate
// message_id_header; a refetched message is skipped, not an error.
const uniqueViolation = "23505"

// AccountGetter loads one mail account
type AccountGetter interface {
	GetByID(ctx context.Context, id int) (*models.MailAccount, error)
}

// FolderAccess upserts folders and advances their UID watermark
type FolderAccess interface {
	Ensure(ctx context.Context, accountID int, name string) (*models.Folder, error)
	UpdateLastUID(ctx context.Context, folderID, lastUID int) error
}

// MessageInserter persists one parsed message
type MessageInserter interface {
	Insert(ctx context.Context, m *models.Message) error
}

// ThreadResolver assigns a message to its conversation thread
type ThreadResolver interface {
	ResolveOrCreate(ctx context.Context, accountID int, subject, fromEmail string, toEmails []string, sentAt time.Time, references []string) (*models.Thread, error)
	UpdateLastDate(ctx context.Context, threadID int, sentAt time.Time) error
}

// EventPublisher dispatches work to the broker
type EventPublisher interface {
	Publish(routingKey string, payload any) error
}

// Ingestor syncs mail accounts: fetch new messages per folder, resolve
// threads, persist, then hand embedding to the worker.
type Ingestor struct {
	accounts AccountGetter
	folders  FolderAccess
	messages MessageInserter
	resolver ThreadResolver
	producer EventPublisher
	dial     SourceDialer
}

// New creates an ingestor
func New(accounts AccountGetter, folders FolderAccess, messages MessageInserter, resolver ThreadResolver, producer EventPublisher, dial SourceDialer) *Ingestor {
	return &Ingestor{
		accounts: accounts,
		folders:  folders,
		messages: messages,
		resolver: resolver,
		producer: producer,
		dial:     dial,
	}
}

// IngestAccount syncs every folder of one account above its stored UID
// watermark. Returns the number of messages stored. A failing folder stops
// the sync so the watermark never skips past unfetched messages.
func (ing *Ingestor) IngestAccount(ctx context.Context, accountID int) (int, error) {
	account, err := ing.accounts.GetByID(ctx, accountID)
	if err != nil {
		return 0, err
	}
	if account == nil {
		return 0, fmt.Errorf("mail account %d not found", accountID)
	}

	source, err := ing.dial(account)
	if err != nil {
		return 0, err
	}
	defer source.Close()

	folderNames, err := source.Folders(ctx)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, name := range folderNames {
		stored, err := ing.syncFolder(ctx, source, account, name)
		if err != nil {
			return total, fmt.Errorf("failed to sync folder %s: %w", name, err)
		}
		total += stored
	}

	fmt.Printf("[INGEST] Account %d synced: %d new messages across %d folders\n", accountID, total, len(folderNames))
	return total, nil
}

func (ing *Ingestor) syncFolder(ctx context.Context, source MailSource, account *models.MailAccount, name string) (int, error) {
	folder, err := ing.folders.Ensure(ctx, account.ID, name)
	if err != nil {
		return 0, err
	}

	rawMessages, err := source.FetchSince(ctx, name, uint32(folder.LastUID))
	if err != nil {
		return 0, err
	}

	stored := 0
	for _, raw := range rawMessages {
		if err := ing.storeMessage(ctx, account.ID, folder.ID, raw.Raw); err != nil {
			return stored, err
		}
		if err := ing.folders.UpdateLastUID(ctx, folder.ID, int(raw.UID)); err != nil {
			return stored, err
		}
		stored++
	}

	if stored > 0 {
		metrics.MessagesIngested.WithLabelValues(name).Add(float64(stored))
		fmt.Printf("[INGEST] Folder %s: stored %d messages\n", name, stored)
	}
	return stored, nil
}

// storeMessage parses one raw message, resolves its thread, persists it
// and publishes the embed event. Duplicate message-id headers are skipped.
func (ing *Ingestor) storeMessage(ctx context.Context, accountID, folderID int, raw []byte) error {
	parsed, err := ParseRFC822(raw)
	if err != nil {
		return err
	}

	references := append(append([]string{}, parsed.References...), parsed.InReplyTo...)
	thread, err := ing.resolver.ResolveOrCreate(ctx, accountID, parsed.Subject, parsed.FromEmail, parsed.To, parsed.Date, references)
	if err != nil {
		return err
	}

	msg := &models.Message{
		AccountID: accountID,
		FolderID:  folderID,
		ThreadID:  thread.ID,
		Subject:   parsed.Subject,
		SentAt:    parsed.Date,
		FromName:  parsed.FromName,
		FromEmail: parsed.FromEmail,
		To:        parsed.To,
		Cc:        parsed.Cc,
		Bcc:       parsed.Bcc,
		BodyText:  parsed.TextBody,
	}
	if parsed.MessageID != "" {
		msg.MessageIDHeader = &parsed.MessageID
	}
	if len(parsed.InReplyTo) > 0 {
		msg.InReplyTo = &parsed.InReplyTo[0]
	}
	if len(parsed.References) > 0 {
		refs := joinMsgIDs(parsed.References)
		msg.References = &refs
	}
	if parsed.HTMLBody != "" {
		msg.BodyHTML = &parsed.HTMLBody
	}
	rawCopy := string(raw)
	msg.RawRFC822 = &rawCopy

	if err := ing.messages.Insert(ctx, msg); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			fmt.Printf("[INGEST] Skipping duplicate message %s\n", parsed.MessageID)
			return nil
		}
		return err
	}

	if err := ing.resolver.UpdateLastDate(ctx, thread.ID, parsed.Date); err != nil {
		return err
	}

	if err := ing.producer.Publish(queue.RoutingKeyMessageEmbed, queue.NewMessageEmbedEvent(msg.ID)); err != nil {
		return fmt.Errorf("failed to publish embed event for message %d: %w", msg.ID, err)
	}
	return nil
}

func joinMsgIDs(ids []string) string {
	out := ""
	for i, id := range ids {
		if i > 0 {
			out += " "
		}
		out += "<" + id + ">"
	}
	return out
}
