package indexer

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inboxia/internal/models"
	"inboxia/internal/vectorindex"
)

type fakeMessages struct {
	byID map[int]*models.Message
}

func (f *fakeMessages) GetByID(_ context.Context, id int) (*models.Message, error) {
	return f.byID[id], nil
}

type fakeEmbedder struct {
	calls [][]string
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls = append(f.calls, texts)
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i), 1}
	}
	return out, nil
}

func (f *fakeEmbedder) Chat(_ context.Context, prompt string) (string, error) { return "", nil }
func (f *fakeEmbedder) Name() string                                          { return "fake" }

type fakeIndex struct {
	replaced map[int][]string
	models   map[int]string
}

func (f *fakeIndex) ReplaceMessage(_ context.Context, msg *models.Message, model string, contents []string, _ [][]float32) error {
	if f.replaced == nil {
		f.replaced = map[int][]string{}
		f.models = map[int]string{}
	}
	f.replaced[msg.ID] = contents
	f.models[msg.ID] = model
	return nil
}

func (f *fakeIndex) Search(_ context.Context, _ vectorindex.Query) ([]vectorindex.Hit, error) {
	return nil, nil
}

func (f *fakeIndex) DeleteMessage(_ context.Context, messageID int) error {
	delete(f.replaced, messageID)
	return nil
}

func TestIndexMessageMissing(t *testing.T) {
	ix := New(&fakeMessages{byID: map[int]*models.Message{}}, nil, &fakeEmbedder{}, 0)

	n, err := ix.IndexMessage(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestIndexMessageSingleChunk(t *testing.T) {
	msg := &models.Message{
		ID:        7,
		AccountID: 1,
		Subject:   "Quarterly numbers",
		SentAt:    time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		FromEmail: "alice@example.com",
		To:        models.StringList{"bob@example.com", "carol@example.com"},
		BodyText:  "short body",
	}
	embedder := &fakeEmbedder{}
	index := &fakeIndex{}
	ix := New(&fakeMessages{byID: map[int]*models.Message{7: msg}}, index, embedder, 0)

	n, err := ix.IndexMessage(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.Len(t, embedder.calls, 1, "all chunks should go out in one batch")
	require.Len(t, embedder.calls[0], 1)
	content := embedder.calls[0][0]
	assert.Contains(t, content, "Subject: Quarterly numbers")
	assert.Contains(t, content, "From: alice@example.com")
	assert.Contains(t, content, "To: bob@example.com, carol@example.com")
	assert.True(t, strings.HasSuffix(content, "Body: short body"))

	assert.Equal(t, "fake", index.models[7])
	assert.Equal(t, embedder.calls[0], index.replaced[7])
}

func TestIndexMessageReplacesPriorChunks(t *testing.T) {
	msg := &models.Message{
		ID:       3,
		Subject:  "s",
		SentAt:   time.Now(),
		BodyText: strings.Repeat("a", 30) + "\n\n" + strings.Repeat("b", 30),
	}
	embedder := &fakeEmbedder{}
	index := &fakeIndex{replaced: map[int][]string{3: {"stale"}}, models: map[int]string{3: "old"}}
	ix := New(&fakeMessages{byID: map[int]*models.Message{3: msg}}, index, embedder, 40)

	n, err := ix.IndexMessage(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, index.replaced[3], 2)
	assert.NotContains(t, index.replaced[3], "stale")
}
