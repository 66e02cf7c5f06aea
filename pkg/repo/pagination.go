package repo

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// DefaultLimit is the page size used when a request does not set one.
const DefaultLimit = 1000

// Pagination describes a page request. Before and After are opaque cursor
// tokens; Limit 0 means "all rows" and suppresses PageMeta.
type Pagination struct {
	Before *string `json:"before,omitempty"`
	After  *string `json:"after,omitempty"`
	Limit  int     `json:"limit"`
}

func NewPagination() Pagination {
	return Pagination{Limit: DefaultLimit}
}

// All reports whether the request asks for every row.
func (p Pagination) All() bool {
	return p.Limit == 0
}

func (p Pagination) Validate() error {
	if p.Limit < 0 {
		return fmt.Errorf("%w: limit must be >= 0, got %d", ErrInvalidPagination, p.Limit)
	}
	if p.Before != nil && p.After != nil {
		return fmt.Errorf("%w: before and after are mutually exclusive", ErrInvalidPagination)
	}
	for _, c := range []*string{p.Before, p.After} {
		if c == nil {
			continue
		}
		if _, err := DecodeCursor(*c); err != nil {
			return err
		}
	}
	return nil
}

// PageRequest is what list endpoints receive: pagination plus an ordered
// list of JSON-encoded filter tuples.
type PageRequest struct {
	Pagination
	Filters []string `json:"filters,omitempty"`
}

func NewPageRequest(filters ...string) PageRequest {
	return PageRequest{Pagination: NewPagination(), Filters: filters}
}

// UnmarshalJSON applies DefaultLimit when "limit" is missing.
func (r *PageRequest) UnmarshalJSON(b []byte) error {
	type alias struct {
		Before  *string  `json:"before"`
		After   *string  `json:"after"`
		Limit   *int     `json:"limit"`
		Filters []string `json:"filters"`
	}
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	r.Before, r.After, r.Filters = a.Before, a.After, a.Filters
	r.Limit = DefaultLimit
	if a.Limit != nil {
		r.Limit = *a.Limit
	}
	return nil
}

// ParseFilters decodes every filter expression in order.
func (r PageRequest) ParseFilters() ([]Filter, error) {
	out := make([]Filter, 0, len(r.Filters))
	for i, expr := range r.Filters {
		f, err := ParseFilterExpression(expr)
		if err != nil {
			return nil, fmt.Errorf("filter %d: %w", i, err)
		}
		out = append(out, f)
	}
	return out, nil
}

// PageMeta is returned alongside a page of rows.
type PageMeta struct {
	Before  *string `json:"before,omitempty"`
	After   *string `json:"after,omitempty"`
	Limit   int     `json:"limit"`
	HasMore bool    `json:"has_more"`
}

// BuildMeta derives response metadata from the keys of the first and last
// rows of a page. It returns nil for unpaginated (Limit 0) requests.
func BuildMeta(p Pagination, firstKey, lastKey string, hasMore bool) *PageMeta {
	if p.All() {
		return nil
	}
	m := &PageMeta{Limit: p.Limit, HasMore: hasMore}
	if firstKey != "" && (p.After != nil || p.Before != nil) {
		c := EncodeCursor(firstKey)
		m.Before = &c
	}
	if lastKey != "" && hasMore {
		c := EncodeCursor(lastKey)
		m.After = &c
	}
	return m
}

func EncodeCursor(key string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(key))
}

func DecodeCursor(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", fmt.Errorf("%w: empty token", ErrInvalidCursor)
	}
	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	return string(b), nil
}

// FormatLimit renders the LIMIT clause for p, or "" for unpaginated requests.
func FormatLimit(p Pagination) string {
	if p.All() {
		return ""
	}
	return FormatLimitOffset(p.Limit, 0)
}
