package domain

import "time"

// Book is a catalog entry that clubs can suggest and read.
type Book struct {
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	SortTitle     string    `json:"-"`
	Author        string    `json:"author"`
	ISBN          string    `json:"isbn,omitempty"` // ISBN-13 digits, empty when unknown
	CoverURL      string    `json:"cover_url,omitempty"`
	Description   string    `json:"description,omitempty"` // Markdown
	PageCount     int       `json:"page_count,omitempty"`
	PublishedYear int       `json:"published_year,omitempty"`
}
