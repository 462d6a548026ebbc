package threads

import (
	"context"
	"testing"
	"time"

	"inboxia/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeThreadDB struct {
	threadsByID   map[int]*models.Thread
	threadsByKey  map[string]*models.Thread
	headerThreads map[string]int // message_id_header -> thread id
	nextID        int
	insertLosesTo *models.Thread // when set, Insert reports a conflict
	lastDateCalls []time.Time
}

func newFakeThreadDB() *fakeThreadDB {
	return &fakeThreadDB{
		threadsByID:   make(map[int]*models.Thread),
		threadsByKey:  make(map[string]*models.Thread),
		headerThreads: make(map[string]int),
		nextID:        1,
	}
}

func (f *fakeThreadDB) FindThreadIDByHeaders(_ context.Context, _ int, refs []string) (int, bool, error) {
	for _, ref := range refs {
		if id, ok := f.headerThreads[ref]; ok {
			return id, true, nil
		}
	}
	return 0, false, nil
}

func (f *fakeThreadDB) GetByID(_ context.Context, id int) (*models.Thread, error) {
	return f.threadsByID[id], nil
}

func (f *fakeThreadDB) GetByKey(_ context.Context, _ int, key string) (*models.Thread, error) {
	return f.threadsByKey[key], nil
}

func (f *fakeThreadDB) Insert(_ context.Context, t *models.Thread) (bool, error) {
	if f.insertLosesTo != nil {
		f.threadsByID[f.insertLosesTo.ID] = f.insertLosesTo
		f.threadsByKey[f.insertLosesTo.ThreadKey] = f.insertLosesTo
		return false, nil
	}
	t.ID = f.nextID
	f.nextID++
	f.threadsByID[t.ID] = t
	f.threadsByKey[t.ThreadKey] = t
	return true, nil
}

func (f *fakeThreadDB) UpdateLastDate(_ context.Context, threadID int, sentAt time.Time) error {
	f.lastDateCalls = append(f.lastDateCalls, sentAt)
	if t, ok := f.threadsByID[threadID]; ok {
		if t.LastDate == nil || sentAt.After(*t.LastDate) {
			t.LastDate = &sentAt
		}
	}
	return nil
}

func TestResolveOrCreate_ReferenceMatchWins(t *testing.T) {
	db := newFakeThreadDB()
	existing := &models.Thread{ID: 7, AccountID: 1, ThreadKey: "old key", SubjectNorm: "original"}
	db.threadsByID[7] = existing
	db.headerThreads["<abc>"] = 7

	resolver := NewResolver(db, db)
	sentAt := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)

	// The subject was edited mid-thread, so the heuristic key differs from
	// the existing thread's key; the reference hop still wins.
	thread, err := resolver.ResolveOrCreate(context.Background(), 1, "Completely different subject", "a@x.com", []string{"b@y.com"}, sentAt, []string{"<abc>"})

	require.NoError(t, err)
	assert.Equal(t, 7, thread.ID)
	assert.Equal(t, "original", thread.SubjectNorm)
}

func TestResolveOrCreate_HeuristicKeyMatch(t *testing.T) {
	db := newFakeThreadDB()
	sentAt := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	key := DeriveThreadKey("Re: Budget", "a@x.com", []string{"b@y.com"}, sentAt)
	existing := &models.Thread{ID: 3, AccountID: 1, ThreadKey: key, SubjectNorm: "budget"}
	db.threadsByID[3] = existing
	db.threadsByKey[key] = existing

	resolver := NewResolver(db, db)

	thread, err := resolver.ResolveOrCreate(context.Background(), 1, "Budget", "b@y.com", []string{"a@x.com"}, sentAt.Add(2*time.Hour), nil)

	require.NoError(t, err)
	assert.Equal(t, 3, thread.ID)
}

func TestResolveOrCreate_CreatesThread(t *testing.T) {
	db := newFakeThreadDB()
	resolver := NewResolver(db, db)
	sentAt := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)

	thread, err := resolver.ResolveOrCreate(context.Background(), 1, "Re: New Topic", "a@x.com", []string{"b@y.com"}, sentAt, []string{"<nowhere>"})

	require.NoError(t, err)
	assert.NotZero(t, thread.ID)
	assert.Equal(t, "new topic", thread.SubjectNorm)
	assert.Equal(t, DeriveThreadKey("New Topic", "a@x.com", []string{"b@y.com"}, sentAt), thread.ThreadKey)
	require.NotNil(t, thread.LastDate)
	assert.True(t, thread.LastDate.Equal(sentAt))
}

func TestResolveOrCreate_InsertConflictRefetches(t *testing.T) {
	db := newFakeThreadDB()
	sentAt := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	key := DeriveThreadKey("Topic", "a@x.com", []string{"b@y.com"}, sentAt)
	winner := &models.Thread{ID: 12, AccountID: 1, ThreadKey: key, SubjectNorm: "topic"}
	db.insertLosesTo = winner

	resolver := NewResolver(db, db)

	thread, err := resolver.ResolveOrCreate(context.Background(), 1, "Topic", "a@x.com", []string{"b@y.com"}, sentAt, nil)

	require.NoError(t, err)
	assert.Equal(t, 12, thread.ID)
	// The loser still advances last_date for the message it is placing
	assert.Len(t, db.lastDateCalls, 1)
}
