// Package chunker splits message bodies into bounded fragments and builds
// the content strings that get embedded.
package chunker

import (
	"fmt"
	"strings"
)

// DefaultMaxChars bounds a chunk's length in characters
const DefaultMaxChars = 4000

// ChunkBody splits a body into chunks of at most maxChars characters.
// Bodies within the limit come back as a single chunk, even when empty.
// Longer bodies are split on blank-line paragraph boundaries and packed
// greedily; paragraph order is preserved. A single paragraph longer than
// maxChars becomes its own over-length chunk - paragraphs are never split
// mid-way.
func ChunkBody(body string, maxChars int) []string {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	if len(body) <= maxChars {
		return []string{body}
	}

	var paragraphs []string
	for _, p := range strings.Split(body, "\n\n") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			paragraphs = append(paragraphs, trimmed)
		}
	}

	var chunks []string
	var current []string
	currentLen := 0
	for _, paragraph := range paragraphs {
		// +2 accounts for the blank-line separator when joining
		if currentLen+len(paragraph)+2 > maxChars && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, "\n\n"))
			current = []string{paragraph}
			currentLen = len(paragraph)
		} else {
			current = append(current, paragraph)
			currentLen += len(paragraph) + 2
		}
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, "\n\n"))
	}
	return chunks
}

// BuildEmbeddingContent prepends a fixed header block to a body chunk so
// that sender, date and subject terms contribute to semantic similarity.
func BuildEmbeddingContent(subject, sentAtISO, fromEmail, toLine, chunk string) string {
	return fmt.Sprintf("Subject: %s\nDate: %s\nFrom: %s\nTo: %s\n\nBody: %s",
		subject, sentAtISO, fromEmail, toLine, chunk)
}
