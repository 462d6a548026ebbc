package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inboxia/internal/models"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

func TestThreadStoreGetByKeyMissing(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewThreadStore(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM threads WHERE account_id = $1 AND thread_key = $2")).
		WithArgs(1, "hi|a@x.com,b@y.com|2024-01-01").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	thread, err := s.GetByKey(context.Background(), 1, "hi|a@x.com,b@y.com|2024-01-01")
	require.NoError(t, err)
	assert.Nil(t, thread, "missing thread is not an error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestThreadStoreInsertConflict(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewThreadStore(db)

	now := time.Now()
	thread := threadFixture("key", now)

	// ON CONFLICT DO NOTHING returns no row when another writer won
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO threads")).
		WithArgs(1, "key", "subject", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	created, err := s.Insert(context.Background(), thread)
	require.NoError(t, err)
	assert.False(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestThreadStoreInsertCreated(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewThreadStore(db)

	now := time.Now()
	thread := threadFixture("key", now)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO threads")).
		WithArgs(1, "key", "subject", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(12))

	created, err := s.Insert(context.Background(), thread)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 12, thread.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestThreadStoreUpdateLastDateNeverRegresses(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewThreadStore(db)

	sentAt := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE threads SET last_date = GREATEST(COALESCE(last_date, $1), $1) WHERE id = $2")).
		WithArgs(sentAt, 3).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.UpdateLastDate(context.Background(), 3, sentAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func threadFixture(key string, now time.Time) *models.Thread {
	return &models.Thread{AccountID: 1, ThreadKey: key, SubjectNorm: "subject", LastDate: &now}
}
