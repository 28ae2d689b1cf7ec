package domain

import "strings"

// Query is a validated, trimmed research question. The zero value is invalid;
// construct via NewQuery.
type Query struct {
	text string
}

// NewQuery validates and trims a raw query string. Empty or whitespace-only
// input yields ErrInvalidQuery.
func NewQuery(raw string) (Query, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Query{}, ErrInvalidQuery
	}
	return Query{text: trimmed}, nil
}

// String returns the trimmed query text.
func (q Query) String() string { return q.text }

// IsZero reports whether the query was never constructed via NewQuery.
func (q Query) IsZero() bool { return q.text == "" }
