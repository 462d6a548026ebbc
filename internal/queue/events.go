// Package queue carries work between the API process and the worker over
// RabbitMQ. Ingestion publishes an embed event after a message commits;
// the worker consumes it and embeds. Delivery is at-least-once, so every
// consumer side effect must be idempotent.
package queue

import (
	"time"

	"github.com/google/uuid"
)

// ExchangeName is the shared topic exchange all events flow through
const ExchangeName = "events"

// Routing keys for the worker pipeline
const (
	RoutingKeyMessageEmbed  = "message.embed"
	RoutingKeyAccountIngest = "account.ingest"
)

// MessageEmbedEvent asks the worker to chunk and embed one stored message
type MessageEmbedEvent struct {
	EventID   string    `json:"event_id"`
	MessageID int       `json:"message_id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessageEmbedEvent creates an embed event with a fresh event id
func NewMessageEmbedEvent(messageID int) MessageEmbedEvent {
	return MessageEmbedEvent{
		EventID:   uuid.New().String(),
		MessageID: messageID,
		Timestamp: time.Now().UTC(),
	}
}

// AccountIngestEvent asks the worker to sync one mail account
type AccountIngestEvent struct {
	EventID   string    `json:"event_id"`
	AccountID int       `json:"account_id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewAccountIngestEvent creates an ingest event with a fresh event id
func NewAccountIngestEvent(accountID int) AccountIngestEvent {
	return AccountIngestEvent{
		EventID:   uuid.New().String(),
		AccountID: accountID,
		Timestamp: time.Now().UTC(),
	}
}
