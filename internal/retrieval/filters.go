package retrieval

import (
	"strings"
)

// filterField enumerates the recognized structured predicates. Anything
// outside this set stays in the residual query text.
type filterField string

const (
	fieldFrom    filterField = "from"
	fieldTo      filterField = "to"
	fieldSubject filterField = "subject"
	fieldBefore  filterField = "before"
	fieldAfter   filterField = "after"
)

var knownFields = map[filterField]bool{
	fieldFrom:    true,
	fieldTo:      true,
	fieldSubject: true,
	fieldBefore:  true,
	fieldAfter:   true,
}

// Filters holds the extracted predicate values as raw strings. Date values
// are validated later, at query-build time, not here.
type Filters struct {
	From    string
	To      string
	Subject string
	Before  string
	After   string
}

type filterToken struct {
	field filterField
	value string
}

// tokenize splits the query on whitespace and classifies each token as
// either a filter token ("field:value" with a recognized field and a
// non-empty value) or residual free text.
func tokenize(query string) ([]filterToken, []string) {
	var tokens []filterToken
	var residual []string
	for _, word := range strings.Fields(query) {
		field, value, ok := strings.Cut(word, ":")
		if ok && value != "" && knownFields[filterField(field)] {
			tokens = append(tokens, filterToken{field: filterField(field), value: value})
			continue
		}
		residual = append(residual, word)
	}
	return tokens, residual
}

// ParseFilters extracts structured predicates from a free-text query.
// Every recognized token is removed from the query even when its value
// later proves unparseable; if a field repeats, the last occurrence wins.
// The residual is the remaining text with surrounding whitespace trimmed.
func ParseFilters(query string) (string, Filters) {
	tokens, residual := tokenize(query)
	var f Filters
	for _, tok := range tokens {
		switch tok.field {
		case fieldFrom:
			f.From = tok.value
		case fieldTo:
			f.To = tok.value
		case fieldSubject:
			f.Subject = tok.value
		case fieldBefore:
			f.Before = tok.value
		case fieldAfter:
			f.After = tok.value
		}
	}
	return strings.TrimSpace(strings.Join(residual, " ")), f
}
