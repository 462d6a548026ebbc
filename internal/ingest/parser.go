// Package ingest syncs mail accounts over IMAP, parses fetched messages
// and persists them with their thread assignment already resolved.
// Embedding is dispatched to the worker afterwards, never done inline.
package ingest

import (
	"bytes"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
)

// ParsedEmail is the header and body material extracted from one RFC 822
// message, before storage.
type ParsedEmail struct {
	MessageID  string
	InReplyTo  []string
	References []string
	Subject    string
	Date       time.Time
	FromName   string
	FromEmail  string
	To         []string
	Cc         []string
	Bcc        []string
	TextBody   string
	HTMLBody   string
}

// ParseRFC822 parses a raw message into its addressable parts. A body that
// fails MIME parsing is kept verbatim as plain text rather than discarded.
// When only an HTML part exists, a tag-stripped copy backs the text body so
// chunking and embedding always have plain text to work with.
func ParseRFC822(raw []byte) (*ParsedEmail, error) {
	parsed := &ParsedEmail{}

	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		parsed.TextBody = string(raw)
		parsed.Date = time.Now().UTC()
		return parsed, nil
	}
	defer mr.Close()

	h := mr.Header
	if id, err := h.MessageID(); err == nil {
		parsed.MessageID = id
	}
	if refs, err := h.MsgIDList("References"); err == nil {
		parsed.References = refs
	}
	if irt, err := h.MsgIDList("In-Reply-To"); err == nil {
		parsed.InReplyTo = irt
	}
	if subject, err := h.Subject(); err == nil {
		parsed.Subject = subject
	}
	if date, err := h.Date(); err == nil && !date.IsZero() {
		parsed.Date = date.UTC()
	} else {
		parsed.Date = time.Now().UTC()
	}
	if from, err := h.AddressList("From"); err == nil && len(from) > 0 {
		parsed.FromName = from[0].Name
		parsed.FromEmail = strings.ToLower(from[0].Address)
	}
	parsed.To = addressStrings(h, "To")
	parsed.Cc = addressStrings(h, "Cc")
	parsed.Bcc = addressStrings(h, "Bcc")

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		inline, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, _ := inline.ContentType()
		body, readErr := io.ReadAll(part.Body)
		if readErr != nil {
			continue
		}

		switch {
		case strings.HasPrefix(contentType, "text/plain"):
			if parsed.TextBody == "" {
				parsed.TextBody = string(body)
			}
		case strings.HasPrefix(contentType, "text/html"):
			if parsed.HTMLBody == "" {
				parsed.HTMLBody = string(body)
			}
		}
	}

	if parsed.TextBody == "" && parsed.HTMLBody != "" {
		parsed.TextBody = StripHTML(parsed.HTMLBody)
	}

	return parsed, nil
}

func addressStrings(h mail.Header, key string) []string {
	list, err := h.AddressList(key)
	if err != nil || len(list) == 0 {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, a := range list {
		out = append(out, strings.ToLower(a.Address))
	}
	return out
}

// StripHTML reduces an HTML body to readable text: tags removed, block
// boundaries kept as newlines, runs of blank lines collapsed.
func StripHTML(html string) string {
	var b strings.Builder
	inTag := false
	for i := 0; i < len(html); i++ {
		c := html[i]
		switch {
		case c == '<':
			inTag = true
			tag := lowerTagAt(html, i+1)
			if tag == "br" || tag == "p" || tag == "div" || tag == "tr" || tag == "li" {
				b.WriteByte('\n')
			}
		case c == '>':
			inTag = false
		case !inTag:
			b.WriteByte(c)
		}
	}

	text := b.String()
	text = strings.ReplaceAll(text, "&nbsp;", " ")
	text = strings.ReplaceAll(text, "&amp;", "&")
	text = strings.ReplaceAll(text, "&lt;", "<")
	text = strings.ReplaceAll(text, "&gt;", ">")
	text = strings.ReplaceAll(text, "&quot;", "\"")
	text = strings.ReplaceAll(text, "&#39;", "'")

	lines := strings.Split(text, "\n")
	var kept []string
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			kept = append(kept, trimmed)
		}
	}
	return strings.Join(kept, "\n")
}

func lowerTagAt(html string, start int) string {
	end := start
	for end < len(html) {
		c := html[end]
		if c == '>' || c == ' ' || c == '/' {
			break
		}
		end++
	}
	return strings.ToLower(html[start:end])
}
