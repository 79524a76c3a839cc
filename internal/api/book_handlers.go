package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bookcrush/bookcrush-server/internal/domain"
	"github.com/bookcrush/bookcrush-server/internal/search"
	"github.com/bookcrush/bookcrush-server/internal/service"
	"github.com/bookcrush/bookcrush-server/internal/store"
)

func (s *Server) registerBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createBook",
		Method:        http.MethodPost,
		Path:          "/api/v1/books",
		Summary:       "Add book",
		Description:   "Adds a book to the shared catalog. ISBNs are stored as ISBN-13 and must be unique.",
		Tags:          []string{"Books"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "listBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books",
		Summary:     "List books",
		Description: "Pages through the catalog in title order",
		Tags:        []string{"Books"},
		Security:    bearerSecurity,
	}, s.handleListBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/search",
		Summary:     "Search books",
		Description: "Full-text search over titles, authors, ISBNs and descriptions. Tolerates typos and accents.",
		Tags:        []string{"Books"},
		Security:    bearerSecurity,
	}, s.handleSearchBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBook",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{bookId}",
		Summary:     "Get book",
		Description: "Returns a catalog book",
		Tags:        []string{"Books"},
		Security:    bearerSecurity,
	}, s.handleGetBook)
}

// === DTOs ===

// CreateBookRequest is the request body for adding a book.
type CreateBookRequest struct {
	Title         string `json:"title" doc:"Book title"`
	Author        string `json:"author" doc:"Author name"`
	ISBN          string `json:"isbn,omitempty" doc:"ISBN-10 or ISBN-13, hyphens allowed"`
	CoverURL      string `json:"cover_url,omitempty" doc:"Cover image URL"`
	Description   string `json:"description,omitempty" doc:"Description; HTML is converted to markdown"`
	PageCount     int    `json:"page_count,omitempty" minimum:"0" doc:"Number of pages"`
	PublishedYear int    `json:"published_year,omitempty" minimum:"0" doc:"Year of first publication"`
}

// CreateBookInput wraps the create book request for Huma.
type CreateBookInput struct {
	Body CreateBookRequest
}

// BookOutput wraps a book for Huma.
type BookOutput struct {
	Body *domain.Book
}

// ListBooksInput contains pagination parameters.
type ListBooksInput struct {
	Limit  int    `query:"limit" minimum:"0" maximum:"200" doc:"Page size (default 50)"`
	Cursor string `query:"cursor" doc:"Cursor from the previous page"`
}

// BookListResponse is one page of the catalog.
type BookListResponse struct {
	Items      []*domain.Book `json:"items" doc:"Books on this page"`
	NextCursor string         `json:"next_cursor,omitempty" doc:"Cursor for the next page"`
	HasMore    bool           `json:"has_more" doc:"Whether more pages follow"`
}

// BookListOutput wraps a catalog page for Huma.
type BookListOutput struct {
	Body BookListResponse
}

// SearchBooksInput contains search parameters.
type SearchBooksInput struct {
	Query   string `query:"q" doc:"Search text; empty matches everything"`
	MinYear int    `query:"min_year" minimum:"0" doc:"Earliest publication year"`
	MaxYear int    `query:"max_year" minimum:"0" doc:"Latest publication year"`
	Limit   int    `query:"limit" minimum:"0" maximum:"100" doc:"Max hits (default 20)"`
	Offset  int    `query:"offset" minimum:"0" doc:"Hits to skip"`
}

// SearchBooksOutput wraps search results for Huma.
type SearchBooksOutput struct {
	Body *search.SearchResult
}

// GetBookInput identifies a book.
type GetBookInput struct {
	BookID string `path:"bookId" doc:"Book ID"`
}

// === Handlers ===

func (s *Server) handleCreateBook(ctx context.Context, input *CreateBookInput) (*BookOutput, error) {
	if _, err := GetUserID(ctx); err != nil {
		return nil, err
	}

	book, err := s.services.Book.CreateBook(ctx, service.CreateBookRequest{
		Title:         input.Body.Title,
		Author:        input.Body.Author,
		ISBN:          input.Body.ISBN,
		CoverURL:      input.Body.CoverURL,
		Description:   input.Body.Description,
		PageCount:     input.Body.PageCount,
		PublishedYear: input.Body.PublishedYear,
	})
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: book}, nil
}

func (s *Server) handleListBooks(ctx context.Context, input *ListBooksInput) (*BookListOutput, error) {
	if _, err := GetUserID(ctx); err != nil {
		return nil, err
	}

	page, err := s.services.Book.ListBooks(ctx, store.PaginationParams{
		Limit:  input.Limit,
		Cursor: input.Cursor,
	})
	if err != nil {
		return nil, err
	}

	items := page.Items
	if items == nil {
		items = []*domain.Book{}
	}
	return &BookListOutput{Body: BookListResponse{
		Items:      items,
		NextCursor: page.NextCursor,
		HasMore:    page.HasMore,
	}}, nil
}

func (s *Server) handleSearchBooks(ctx context.Context, input *SearchBooksInput) (*SearchBooksOutput, error) {
	if _, err := GetUserID(ctx); err != nil {
		return nil, err
	}

	result, err := s.services.Book.SearchBooks(ctx, search.SearchParams{
		Query:   input.Query,
		MinYear: input.MinYear,
		MaxYear: input.MaxYear,
		Limit:   input.Limit,
		Offset:  input.Offset,
	})
	if err != nil {
		return nil, err
	}
	return &SearchBooksOutput{Body: result}, nil
}

func (s *Server) handleGetBook(ctx context.Context, input *GetBookInput) (*BookOutput, error) {
	if _, err := GetUserID(ctx); err != nil {
		return nil, err
	}

	book, err := s.services.Book.GetBook(ctx, input.BookID)
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: book}, nil
}
