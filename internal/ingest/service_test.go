package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inboxia/internal/models"
	"inboxia/internal/queue"
)

type fakeAccounts struct {
	account *models.MailAccount
}

func (f *fakeAccounts) GetByID(_ context.Context, id int) (*models.MailAccount, error) {
	if f.account != nil && f.account.ID == id {
		return f.account, nil
	}
	return nil, nil
}

type fakeFolders struct {
	folders  map[string]*models.Folder
	lastUIDs map[int]int
	nextID   int
}

func (f *fakeFolders) Ensure(_ context.Context, accountID int, name string) (*models.Folder, error) {
	if f.folders == nil {
		f.folders = map[string]*models.Folder{}
		f.lastUIDs = map[int]int{}
	}
	if existing, ok := f.folders[name]; ok {
		return existing, nil
	}
	f.nextID++
	folder := &models.Folder{ID: f.nextID, AccountID: accountID, Name: name}
	f.folders[name] = folder
	return folder, nil
}

func (f *fakeFolders) UpdateLastUID(_ context.Context, folderID, lastUID int) error {
	if lastUID > f.lastUIDs[folderID] {
		f.lastUIDs[folderID] = lastUID
	}
	return nil
}

type fakeInserter struct {
	inserted []*models.Message
	nextID   int
}

func (f *fakeInserter) Insert(_ context.Context, m *models.Message) error {
	f.nextID++
	m.ID = f.nextID
	f.inserted = append(f.inserted, m)
	return nil
}

type fakeResolver struct {
	thread        *models.Thread
	lastDateCalls int
	references    [][]string
}

func (f *fakeResolver) ResolveOrCreate(_ context.Context, _ int, _, _ string, _ []string, _ time.Time, references []string) (*models.Thread, error) {
	f.references = append(f.references, references)
	return f.thread, nil
}

func (f *fakeResolver) UpdateLastDate(_ context.Context, _ int, _ time.Time) error {
	f.lastDateCalls++
	return nil
}

type fakePublisher struct {
	published []string
	payloads  []any
}

func (f *fakePublisher) Publish(routingKey string, payload any) error {
	f.published = append(f.published, routingKey)
	f.payloads = append(f.payloads, payload)
	return nil
}

type fakeSource struct {
	folders  []string
	messages map[string][]RawMessage
	fetched  map[string]uint32
	closed   bool
}

func (f *fakeSource) Folders(_ context.Context) ([]string, error) { return f.folders, nil }

func (f *fakeSource) FetchSince(_ context.Context, folder string, lastUID uint32) ([]RawMessage, error) {
	if f.fetched == nil {
		f.fetched = map[string]uint32{}
	}
	f.fetched[folder] = lastUID
	return f.messages[folder], nil
}

func (f *fakeSource) Close() error {
	f.closed = true
	return nil
}

func TestIngestAccount(t *testing.T) {
	source := &fakeSource{
		folders: []string{"INBOX", "Sent"},
		messages: map[string][]RawMessage{
			"INBOX": {
				{UID: 11, Raw: []byte(plainMessage)},
				{UID: 12, Raw: []byte(htmlOnlyMessage)},
			},
		},
	}
	accounts := &fakeAccounts{account: &models.MailAccount{ID: 1, IMAPHost: "imap.example.com"}}
	folders := &fakeFolders{}
	inserter := &fakeInserter{}
	resolver := &fakeResolver{thread: &models.Thread{ID: 5}}
	publisher := &fakePublisher{}

	ing := New(accounts, folders, inserter, resolver, publisher, func(_ *models.MailAccount) (MailSource, error) {
		return source, nil
	})

	stored, err := ing.IngestAccount(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, stored)
	assert.True(t, source.closed)

	require.Len(t, inserter.inserted, 2)
	first := inserter.inserted[0]
	assert.Equal(t, 5, first.ThreadID)
	assert.Equal(t, "alice@example.com", first.FromEmail)
	require.NotNil(t, first.MessageIDHeader)
	assert.Equal(t, "msg-1@example.com", *first.MessageIDHeader)

	// References plus In-Reply-To feed the one-hop thread lookup
	assert.Equal(t, []string{"root@example.com", "msg-0@example.com", "msg-0@example.com"}, resolver.references[0])
	assert.Equal(t, 2, resolver.lastDateCalls)

	// Watermark advanced to the highest UID stored
	inbox := folders.folders["INBOX"]
	assert.Equal(t, 12, folders.lastUIDs[inbox.ID])

	// One embed event per stored message
	assert.Equal(t, []string{queue.RoutingKeyMessageEmbed, queue.RoutingKeyMessageEmbed}, publisher.published)
	event, ok := publisher.payloads[0].(queue.MessageEmbedEvent)
	require.True(t, ok)
	assert.Equal(t, 1, event.MessageID)
	assert.NotEmpty(t, event.EventID)
}

func TestIngestAccountUnknownAccount(t *testing.T) {
	ing := New(&fakeAccounts{}, &fakeFolders{}, &fakeInserter{}, &fakeResolver{}, &fakePublisher{}, nil)

	_, err := ing.IngestAccount(context.Background(), 99)
	assert.Error(t, err)
}
