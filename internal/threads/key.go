package threads

import (
	"sort"
	"strings"
	"time"
)

// participantSet canonicalizes a participant list: lower-cased, trimmed,
// de-duplicated, sorted, comma-joined. Invariant under reordering and
// re-casing of the input.
func participantSet(addresses []string) string {
	seen := make(map[string]struct{}, len(addresses))
	unique := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		normalized := strings.ToLower(strings.TrimSpace(addr))
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		unique = append(unique, normalized)
	}
	sort.Strings(unique)
	return strings.Join(unique, ",")
}

// DeriveThreadKey computes the heuristic grouping key: normalized subject,
// participant set (from + to) and UTC calendar day. The day bucket bounds
// thread continuation to one day per subject/participant set.
func DeriveThreadKey(subject, fromEmail string, toEmails []string, sentAt time.Time) string {
	participants := make([]string, 0, len(toEmails)+1)
	participants = append(participants, fromEmail)
	participants = append(participants, toEmails...)

	dayBucket := sentAt.UTC().Format("2006-01-02")
	return NormalizeSubject(subject) + "|" + participantSet(participants) + "|" + dayBucket
}
