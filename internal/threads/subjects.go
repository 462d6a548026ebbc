package threads

import (
	"regexp"
	"strings"
)

// NoSubject is the sentinel for empty or absent subject lines
const NoSubject = "(no subject)"

var subjectPrefixRe = regexp.MustCompile(`^(?i)(re|fw|fwd):\s*`)

// NormalizeSubject canonicalizes a subject line for thread grouping. It
// strips reply/forward prefixes repeatedly (handles "Fwd: Re: Re: ..."),
// trims whitespace and lower-cases the result. Idempotent.
func NormalizeSubject(subject string) string {
	cleaned := strings.TrimSpace(subject)
	if cleaned == "" {
		return NoSubject
	}
	for subjectPrefixRe.MatchString(cleaned) {
		cleaned = strings.TrimSpace(subjectPrefixRe.ReplaceAllString(cleaned, ""))
	}
	if cleaned == "" {
		return NoSubject
	}
	return strings.ToLower(cleaned)
}
