package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const plainMessage = "From: Alice Example <Alice@Example.com>\r\n" +
	"To: bob@example.com, Carol <carol@example.com>\r\n" +
	"Cc: dave@example.com\r\n" +
	"Subject: Re: Launch plan\r\n" +
	"Date: Sat, 10 Feb 2024 15:30:00 +0000\r\n" +
	"Message-ID: <msg-1@example.com>\r\n" +
	"In-Reply-To: <msg-0@example.com>\r\n" +
	"References: <root@example.com> <msg-0@example.com>\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"We ship on Friday.\r\n"

const htmlOnlyMessage = "From: alice@example.com\r\n" +
	"To: bob@example.com\r\n" +
	"Subject: Update\r\n" +
	"Date: Sat, 10 Feb 2024 15:30:00 +0000\r\n" +
	"Content-Type: text/html; charset=utf-8\r\n" +
	"\r\n" +
	"<html><body><p>Hello &amp; welcome</p><p>Second line</p></body></html>\r\n"

func TestParseRFC822Plain(t *testing.T) {
	parsed, err := ParseRFC822([]byte(plainMessage))
	require.NoError(t, err)

	assert.Equal(t, "msg-1@example.com", parsed.MessageID)
	assert.Equal(t, []string{"root@example.com", "msg-0@example.com"}, parsed.References)
	assert.Equal(t, []string{"msg-0@example.com"}, parsed.InReplyTo)
	assert.Equal(t, "Re: Launch plan", parsed.Subject)
	assert.Equal(t, "Alice Example", parsed.FromName)
	assert.Equal(t, "alice@example.com", parsed.FromEmail, "addresses are lowercased")
	assert.Equal(t, []string{"bob@example.com", "carol@example.com"}, parsed.To)
	assert.Equal(t, []string{"dave@example.com"}, parsed.Cc)
	assert.Equal(t, "We ship on Friday.\r\n", parsed.TextBody)
	assert.Equal(t, 2024, parsed.Date.Year())
}

func TestParseRFC822HTMLFallback(t *testing.T) {
	parsed, err := ParseRFC822([]byte(htmlOnlyMessage))
	require.NoError(t, err)

	assert.NotEmpty(t, parsed.HTMLBody)
	assert.Equal(t, "Hello & welcome\nSecond line", parsed.TextBody)
}

func TestParseRFC822Unparseable(t *testing.T) {
	parsed, err := ParseRFC822([]byte("not a mime message at all"))
	require.NoError(t, err)

	assert.Equal(t, "not a mime message at all", parsed.TextBody)
	assert.False(t, parsed.Date.IsZero())
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"tags removed", "<b>bold</b> text", "bold text"},
		{"breaks become newlines", "line one<br>line two", "line one\nline two"},
		{"entities decoded", "a &lt;b&gt; &quot;c&quot;", "a <b> \"c\""},
		{"blank lines collapsed", "<div>a</div><div></div><div>b</div>", "a\nb"},
		{"plain text untouched", "no markup here", "no markup here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripHTML(tt.in))
		})
	}
}
