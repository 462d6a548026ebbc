package retrieval

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inboxia/internal/models"
)

func TestBuildPrompt(t *testing.T) {
	sent := time.Date(2024, 2, 10, 15, 30, 0, 0, time.UTC)
	fragments := []Fragment{
		{
			Message: &models.Message{ID: 12, SentAt: sent, FromEmail: "alice@example.com", Subject: "Launch plan"},
			Content: "We ship on Friday.",
		},
		{
			Message: &models.Message{ID: 31, SentAt: sent.Add(time.Hour), FromEmail: "bob@example.com", Subject: "Re: Launch plan"},
			Content: "Confirmed, Friday works.",
		},
	}

	prompt, citations := BuildPrompt("when do we ship?", fragments)

	assert.Contains(t, prompt, "Question: when do we ship?")
	assert.Contains(t, prompt, "[Message 12 | 2024-02-10T15:30:00Z | From: alice@example.com | Subject: Launch plan]\nWe ship on Friday.")
	assert.Contains(t, prompt, "[Message 31 | 2024-02-10T16:30:00Z | From: bob@example.com | Subject: Re: Launch plan]\nConfirmed, Friday works.")
	assert.True(t, strings.HasPrefix(prompt, "Answer the question using only the context below."))

	require.Len(t, citations, 2, "citations are index-aligned with context blocks")
	assert.Equal(t, 12, citations[0].MessageID)
	assert.Equal(t, "alice@example.com", citations[0].FromEmail)
	assert.Equal(t, 31, citations[1].MessageID)
}

func TestBuildPromptTruncatesLongContent(t *testing.T) {
	fragments := []Fragment{{
		Message: &models.Message{ID: 1, SentAt: time.Now(), FromEmail: "a@x.com", Subject: "s"},
		Content: strings.Repeat("x", 2000),
	}}

	prompt, _ := BuildPrompt("q", fragments)

	assert.Contains(t, prompt, strings.Repeat("x", 800))
	assert.NotContains(t, prompt, strings.Repeat("x", 801))
}

func TestBuildPromptEmptyResults(t *testing.T) {
	prompt, citations := BuildPrompt("anything here?", nil)

	assert.Contains(t, prompt, "Question: anything here?")
	assert.Empty(t, citations)
}
