package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bookcrush/bookcrush-server/internal/domain"
	domainerrors "github.com/bookcrush/bookcrush-server/internal/errors"
	"github.com/bookcrush/bookcrush-server/internal/id"
	"github.com/bookcrush/bookcrush-server/internal/normalize"
	"github.com/bookcrush/bookcrush-server/internal/search"
	"github.com/bookcrush/bookcrush-server/internal/sse"
	"github.com/bookcrush/bookcrush-server/internal/store"
	"github.com/bookcrush/bookcrush-server/internal/validation"
)

// CatalogIndex is the full-text index behind SearchBooks.
type CatalogIndex interface {
	IndexBook(b *domain.Book) error
	IndexBooks(books []*domain.Book) error
	NeedsReindex(catalogSize int) bool
	Search(ctx context.Context, params search.SearchParams) (*search.SearchResult, error)
}

// BookService manages the shared book catalog.
type BookService struct {
	store     store.Store
	index     CatalogIndex
	events    sse.Emitter
	validator *validation.Validator
	logger    *slog.Logger
}

// NewBookService creates a new book service.
func NewBookService(store store.Store, index CatalogIndex, events sse.Emitter, v *validation.Validator, logger *slog.Logger) *BookService {
	if events == nil {
		events = nopEmitter{}
	}
	return &BookService{store: store, index: index, events: events, validator: v, logger: logger}
}

// CreateBookRequest contains catalog entry data.
type CreateBookRequest struct {
	Title         string `json:"title" validate:"required,max=500"`
	Author        string `json:"author" validate:"required,max=300"`
	ISBN          string `json:"isbn,omitempty" validate:"omitempty,isbn"`
	CoverURL      string `json:"cover_url,omitempty" validate:"omitempty,http_url"`
	Description   string `json:"description,omitempty" validate:"max=20000"`
	PageCount     int    `json:"page_count,omitempty" validate:"min=0,max=100000"`
	PublishedYear int    `json:"published_year,omitempty" validate:"min=0,max=3000"`
}

// CreateBook adds a book to the catalog. ISBNs are stored as ISBN-13 and must be
// unique; HTML descriptions are converted to markdown.
func (s *BookService) CreateBook(ctx context.Context, req CreateBookRequest) (*domain.Book, error) {
	req.Title = normalize.Text(req.Title)
	req.Author = normalize.Text(req.Author)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	isbn := ""
	if req.ISBN != "" {
		isbn, _ = normalize.ISBN(req.ISBN)
	}

	bookID, err := id.Generate(id.PrefixBook)
	if err != nil {
		return nil, fmt.Errorf("generate book ID: %w", err)
	}

	now := time.Now().UTC()
	book := &domain.Book{
		ID:            bookID,
		Title:         req.Title,
		SortTitle:     normalize.SortKey(req.Title),
		Author:        req.Author,
		ISBN:          isbn,
		CoverURL:      req.CoverURL,
		Description:   normalize.Description(req.Description),
		PageCount:     req.PageCount,
		PublishedYear: req.PublishedYear,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.store.CreateBook(ctx, book); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("a book with this ISBN already exists")
		}
		return nil, mapStoreErr(err, "book")
	}

	// The catalog row is the source of truth; a failed index write only
	// degrades search until the next reindex.
	if err := s.index.IndexBook(book); err != nil {
		s.logger.Warn("failed to index book", "book_id", bookID, "error", err)
	}

	s.logger.Info("book added to catalog", "book_id", bookID, "title", book.Title)
	s.events.Emit(sse.NewBookAddedEvent(book.ID, book.Title, book.Author))

	return book, nil
}

// GetBook returns a catalog book.
func (s *BookService) GetBook(ctx context.Context, bookID string) (*domain.Book, error) {
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return nil, mapStoreErr(err, "book")
	}
	return book, nil
}

// ListBooks pages through the catalog in title order.
func (s *BookService) ListBooks(ctx context.Context, params store.PaginationParams) (*store.PaginatedResult[*domain.Book], error) {
	page, err := s.store.ListBooks(ctx, params)
	if err != nil {
		if errors.Is(err, store.ErrInvalidCursor) {
			return nil, domainerrors.Validation("invalid cursor")
		}
		return nil, mapStoreErr(err, "books")
	}
	return page, nil
}

// SearchBooks runs a fuzzy full-text search over titles and authors.
func (s *BookService) SearchBooks(ctx context.Context, params search.SearchParams) (*search.SearchResult, error) {
	if params.MinYear > 0 && params.MaxYear > 0 && params.MinYear > params.MaxYear {
		return nil, domainerrors.Validation("min_year must not exceed max_year")
	}
	res, err := s.index.Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("search catalog: %w", err)
	}
	return res, nil
}

// Reindex rebuilds the search index from the catalog when the index is empty,
// e.g. after a mapping change. It returns the number of books indexed.
func (s *BookService) Reindex(ctx context.Context) (int, error) {
	var books []*domain.Book
	params := store.PaginationParams{Limit: 200}
	for {
		page, err := s.store.ListBooks(ctx, params)
		if err != nil {
			return 0, mapStoreErr(err, "books")
		}
		books = append(books, page.Items...)
		if !page.HasMore {
			break
		}
		params.Cursor = page.NextCursor
	}

	if !s.index.NeedsReindex(len(books)) {
		return 0, nil
	}
	if err := s.index.IndexBooks(books); err != nil {
		return 0, fmt.Errorf("index catalog: %w", err)
	}

	s.logger.Info("search index rebuilt from catalog", "books", len(books))
	return len(books), nil
}
