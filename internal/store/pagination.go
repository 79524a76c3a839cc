package store

import (
	"encoding/base64"
)

// PaginationParams holds list request parameters.
type PaginationParams struct {
	Limit  int    // Items per page, default 50, max 200
	Cursor string // Opaque cursor from a previous page; empty for the first page
}

// PaginatedResult is one page of items.
type PaginatedResult[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
}

// Normalize clamps Limit into range.
func (p *PaginationParams) Normalize() {
	switch {
	case p.Limit <= 0:
		p.Limit = 50
	case p.Limit > 200:
		p.Limit = 200
	}
}

// EncodeCursor makes an opaque cursor from the last key of a page.
func EncodeCursor(key string) string {
	if key == "" {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString([]byte(key))
}

// DecodeCursor reverses EncodeCursor.
func DecodeCursor(cursor string) (string, error) {
	if cursor == "" {
		return "", nil
	}
	decoded, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return "", ErrInvalidCursor.WithCause(err)
	}
	return string(decoded), nil
}
