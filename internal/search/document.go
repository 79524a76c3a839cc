// Package search provides full-text search over the book catalog using Bleve.
// Titles and authors are indexed twice: once through the English analyzer for
// stemming, and once accent-folded so "Garcia Marquez" finds "García Márquez".
package search

import (
	"github.com/bookcrush/bookcrush-server/internal/domain"
	"github.com/bookcrush/bookcrush-server/internal/normalize"
)

// BookDocument is the indexed representation of a catalog book.
type BookDocument struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	TitleFolded   string `json:"title_folded"`
	Author        string `json:"author"`
	AuthorFolded  string `json:"author_folded"`
	ISBN          string `json:"isbn,omitempty"`
	Description   string `json:"description,omitempty"`
	PublishedYear int    `json:"published_year,omitempty"`
	CreatedAt     int64  `json:"created_at"` // Unix millis
}

// BookToDocument converts a domain book to its search document.
func BookToDocument(b *domain.Book) *BookDocument {
	return &BookDocument{
		ID:            b.ID,
		Title:         b.Title,
		TitleFolded:   normalize.Fold(b.Title),
		Author:        b.Author,
		AuthorFolded:  normalize.Fold(b.Author),
		ISBN:          b.ISBN,
		Description:   b.Description,
		PublishedYear: b.PublishedYear,
		CreatedAt:     b.CreatedAt.UnixMilli(),
	}
}

// ToMap converts the document to a map keyed by the mapping's field names.
// Bleve would otherwise index Go field names.
func (d *BookDocument) ToMap() map[string]any {
	m := map[string]any{
		"id":            d.ID,
		"title":         d.Title,
		"title_folded":  d.TitleFolded,
		"author":        d.Author,
		"author_folded": d.AuthorFolded,
		"created_at":    d.CreatedAt,
	}
	if d.ISBN != "" {
		m["isbn"] = d.ISBN
	}
	if d.Description != "" {
		m["description"] = d.Description
	}
	if d.PublishedYear > 0 {
		m["published_year"] = d.PublishedYear
	}
	return m
}
