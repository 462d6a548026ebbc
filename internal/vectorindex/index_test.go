package vectorindex

import (
	"context"
	"testing"
	"time"

	"inboxia/internal/config"
	"inboxia/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatVector(t *testing.T) {
	assert.Equal(t, "[0.5,1,-0.25]", FormatVector([]float32{0.5, 1, -0.25}))
	assert.Equal(t, "[]", FormatVector(nil))
}

func TestNew_UnknownBackend(t *testing.T) {
	_, err := New(&config.Config{VectorBackend: "faiss"}, nil)
	assert.Error(t, err)
}

func newMockIndex(t *testing.T) (*PgVectorIndex, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPgVectorIndex(sqlx.NewDb(db, "postgres")), mock
}

func TestPgVectorIndex_ReplaceMessage(t *testing.T) {
	idx, mock := newMockIndex(t)
	msg := &models.Message{ID: 42, AccountID: 1}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM embeddings WHERE message_id").
		WithArgs(42).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO embeddings").
		WithArgs(42, "stub", 0, "chunk a", "[1,0]").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO embeddings").
		WithArgs(42, "stub", 1, "chunk b", "[0,1]").
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	err := idx.ReplaceMessage(context.Background(), msg, "stub",
		[]string{"chunk a", "chunk b"},
		[][]float32{{1, 0}, {0, 1}})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgVectorIndex_ReplaceMessage_CountMismatch(t *testing.T) {
	idx, _ := newMockIndex(t)

	err := idx.ReplaceMessage(context.Background(), &models.Message{ID: 1}, "stub",
		[]string{"one chunk"}, nil)

	assert.Error(t, err)
}

func TestPgVectorIndex_Search_AccountScopeOnly(t *testing.T) {
	idx, mock := newMockIndex(t)

	rows := sqlmock.NewRows([]string{"message_id", "chunk_index", "content", "distance"}).
		AddRow(10, 0, "closest", 0.1).
		AddRow(11, 2, "further", 0.4)
	mock.ExpectQuery("SELECT e.message_id, e.chunk_index, e.content").
		WithArgs("[1,0]", 1, 8).
		WillReturnRows(rows)

	hits, err := idx.Search(context.Background(), Query{
		AccountID: 1,
		Vector:    []float32{1, 0},
		TopK:      8,
	})

	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, 10, hits[0].MessageID)
	assert.Equal(t, "closest", hits[0].Content)
	assert.InDelta(t, 0.1, hits[0].Distance, 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgVectorIndex_Search_AllFilters(t *testing.T) {
	idx, mock := newMockIndex(t)

	threadID := 5
	before := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	after := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT e.message_id, e.chunk_index, e.content").
		WithArgs("[1]", 1, threadID, "%alice%", "%update%", "bob@y.com", before, after, 3).
		WillReturnRows(sqlmock.NewRows([]string{"message_id", "chunk_index", "content", "distance"}))

	_, err := idx.Search(context.Background(), Query{
		AccountID: 1,
		ThreadID:  &threadID,
		From:      "alice",
		Subject:   "update",
		To:        "bob@y.com",
		Before:    &before,
		After:     &after,
		Vector:    []float32{1},
		TopK:      3,
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
