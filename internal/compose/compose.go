// Package compose drafts outgoing email with the generation provider and
// sends it over SMTP or SendGrid, storing a copy in the Sent folder so the
// conversation stays searchable.
package compose

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/google/uuid"
	sendgrid "github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"inboxia/internal/models"
	"inboxia/internal/provider"
	"inboxia/internal/queue"
)

// AccountGetter loads one mail account
type AccountGetter interface {
	GetByID(ctx context.Context, id int) (*models.MailAccount, error)
}

// FolderEnsurer upserts the Sent folder
type FolderEnsurer interface {
	Ensure(ctx context.Context, accountID int, name string) (*models.Folder, error)
}

// MessageInserter persists the sent copy
type MessageInserter interface {
	Insert(ctx context.Context, m *models.Message) error
}

// ThreadResolver places the sent copy in its conversation
type ThreadResolver interface {
	ResolveOrCreate(ctx context.Context, accountID int, subject, fromEmail string, toEmails []string, sentAt time.Time, references []string) (*models.Thread, error)
	UpdateLastDate(ctx context.Context, threadID int, sentAt time.Time) error
}

// EventPublisher dispatches the embed event for the sent copy
type EventPublisher interface {
	Publish(routingKey string, payload any) error
}

// Transport delivers one assembled message
type Transport func(account *models.MailAccount, to []string, subject, body string) error

// Service drafts and sends email for one workspace
type Service struct {
	provider provider.Provider
	accounts AccountGetter
	folders  FolderEnsurer
	messages MessageInserter
	resolver ThreadResolver
	producer EventPublisher
	send     Transport
}

// New creates a compose service. A nil transport defaults to SMTP.
func New(p provider.Provider, accounts AccountGetter, folders FolderEnsurer, messages MessageInserter, resolver ThreadResolver, producer EventPublisher, send Transport) *Service {
	if send == nil {
		send = SendSMTP
	}
	return &Service{
		provider: p,
		accounts: accounts,
		folders:  folders,
		messages: messages,
		resolver: resolver,
		producer: producer,
		send:     send,
	}
}

// Draft asks the provider for a subject and body. The provider is told to
// return them separated by a blank line; when it does not, the subject hint
// stands in and the whole response becomes the body.
func (s *Service) Draft(ctx context.Context, to []string, subjectHint, instructions string) (string, string, error) {
	prompt := fmt.Sprintf(
		"Write a concise email draft.\nTo: %s\nSubject hint: %s\nInstructions: %s\nReturn a subject line and body separated by a blank line.",
		strings.Join(to, ", "), subjectHint, instructions,
	)

	response, err := s.provider.Chat(ctx, prompt)
	if err != nil {
		return "", "", fmt.Errorf("failed to draft email: %w", err)
	}

	subject, body, found := strings.Cut(response, "\n\n")
	if !found {
		return subjectHint, strings.TrimSpace(response), nil
	}
	return strings.TrimSpace(subject), strings.TrimSpace(body), nil
}

// Send delivers the message and stores a copy in the account's Sent
// folder, threaded like any received message. Returns the stored copy.
func (s *Service) Send(ctx context.Context, accountID int, to []string, subject, body string) (*models.Message, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, fmt.Errorf("mail account %d not found", accountID)
	}

	if err := s.send(account, to, subject, body); err != nil {
		return nil, err
	}

	sentFolder, err := s.folders.Ensure(ctx, accountID, "Sent")
	if err != nil {
		return nil, err
	}

	sentAt := time.Now().UTC()
	fromEmail := strings.ToLower(account.SMTPUser)
	thread, err := s.resolver.ResolveOrCreate(ctx, accountID, subject, fromEmail, to, sentAt, nil)
	if err != nil {
		return nil, err
	}

	messageID := fmt.Sprintf("%s@inboxia", uuid.New().String())
	msg := &models.Message{
		AccountID:       accountID,
		FolderID:        sentFolder.ID,
		ThreadID:        thread.ID,
		MessageIDHeader: &messageID,
		Subject:         subject,
		SentAt:          sentAt,
		FromEmail:       fromEmail,
		To:              to,
		BodyText:        body,
	}
	if err := s.messages.Insert(ctx, msg); err != nil {
		return nil, err
	}
	if err := s.resolver.UpdateLastDate(ctx, thread.ID, sentAt); err != nil {
		return nil, err
	}

	if err := s.producer.Publish(queue.RoutingKeyMessageEmbed, queue.NewMessageEmbedEvent(msg.ID)); err != nil {
		return nil, fmt.Errorf("failed to publish embed event for message %d: %w", msg.ID, err)
	}

	fmt.Printf("[COMPOSE] Sent message %d to %s\n", msg.ID, strings.Join(to, ", "))
	return msg, nil
}

// SendSMTP delivers over the account's SMTP server with PLAIN auth.
// Hosts without an explicit port default to 587.
func SendSMTP(account *models.MailAccount, to []string, subject, body string) error {
	addr := account.SMTPHost
	if !strings.Contains(addr, ":") {
		addr += ":587"
	}

	raw, err := buildMIME(account.SMTPUser, to, subject, body)
	if err != nil {
		return err
	}

	auth := sasl.NewPlainClient("", account.SMTPUser, account.SMTPPassword)
	if err := smtp.SendMail(addr, auth, account.SMTPUser, to, bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("failed to send via SMTP %s: %w", addr, err)
	}
	return nil
}

// NewSendGridTransport delivers through the SendGrid API instead of the
// account's SMTP server.
func NewSendGridTransport(apiKey string) Transport {
	return func(account *models.MailAccount, to []string, subject, body string) error {
		if apiKey == "" {
			return fmt.Errorf("SendGrid API key not configured")
		}
		if len(to) == 0 {
			return fmt.Errorf("no recipients")
		}

		from := sgmail.NewEmail("", account.SMTPUser)
		first := sgmail.NewEmail("", to[0])
		message := sgmail.NewSingleEmail(from, subject, first, body, body)
		if len(message.Personalizations) > 0 {
			for _, addr := range to[1:] {
				message.Personalizations[0].AddTos(sgmail.NewEmail("", addr))
			}
		}

		client := sendgrid.NewSendClient(apiKey)
		response, err := client.Send(message)
		if err != nil {
			return fmt.Errorf("failed to send email: %w", err)
		}
		if response.StatusCode >= 400 {
			return fmt.Errorf("SendGrid API error: status %d, body: %s", response.StatusCode, response.Body)
		}
		return nil
	}
}

// buildMIME assembles a single-part plain-text message
func buildMIME(from string, to []string, subject, body string) ([]byte, error) {
	var buf bytes.Buffer

	var h mail.Header
	h.SetDate(time.Now().UTC())
	h.SetSubject(subject)
	h.SetAddressList("From", []*mail.Address{{Address: from}})
	toAddrs := make([]*mail.Address, 0, len(to))
	for _, addr := range to {
		toAddrs = append(toAddrs, &mail.Address{Address: addr})
	}
	h.SetAddressList("To", toAddrs)
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})

	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("failed to build message: %w", err)
	}
	if _, err := w.Write([]byte(body)); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
