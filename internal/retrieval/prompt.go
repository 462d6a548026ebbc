package retrieval

import (
	"fmt"
	"strings"
	"time"

	"inboxia/internal/models"
)

// contextCharLimit caps how much of each fragment enters the prompt
const contextCharLimit = 800

const promptTemplate = "Answer the question using only the context below. Do not invent facts. Cite message ids you used.\n\nQuestion: %s\n\nContext:\n%s"

// BuildPrompt assembles the grounding prompt and its citation list from
// fragments in retrieval order. Citations are index-aligned with the
// context blocks.
func BuildPrompt(query string, fragments []Fragment) (string, []models.Citation) {
	blocks := make([]string, 0, len(fragments))
	citations := make([]models.Citation, 0, len(fragments))

	for _, f := range fragments {
		msg := f.Message
		header := fmt.Sprintf("[Message %d | %s | From: %s | Subject: %s]",
			msg.ID, msg.SentAt.Format(time.RFC3339), msg.FromEmail, msg.Subject)
		blocks = append(blocks, header+"\n"+truncate(f.Content, contextCharLimit))
		citations = append(citations, models.Citation{
			MessageID: msg.ID,
			SentAt:    msg.SentAt,
			FromEmail: msg.FromEmail,
			Subject:   msg.Subject,
		})
	}

	prompt := fmt.Sprintf(promptTemplate, query, strings.Join(blocks, "\n\n"))
	return prompt, citations
}

// truncate cuts s to at most limit characters without splitting a rune
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
