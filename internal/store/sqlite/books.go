package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/bookcrush/bookcrush-server/internal/domain"
	"github.com/bookcrush/bookcrush-server/internal/store"
)

const bookColumns = `id, title, sort_title, author, isbn, cover_url, description,
	page_count, published_year, created_at, updated_at`

// cursorSep separates sort_title and id inside a page cursor.
const cursorSep = "\x1f"

func scanBook(scanner interface{ Scan(dest ...any) error }) (*domain.Book, error) {
	var (
		b                        domain.Book
		isbn, coverURL, desc     sql.NullString
		pageCount, publishedYear sql.NullInt64
		createdAt, updatedAt     string
	)

	err := scanner.Scan(
		&b.ID, &b.Title, &b.SortTitle, &b.Author, &isbn, &coverURL, &desc,
		&pageCount, &publishedYear, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	b.ISBN = isbn.String
	b.CoverURL = coverURL.String
	b.Description = desc.String
	b.PageCount = int(pageCount.Int64)
	b.PublishedYear = int(publishedYear.Int64)

	if b.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if b.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &b, nil
}

// CreateBook inserts a book. Returns store.ErrAlreadyExists on a duplicate ISBN.
func (s *Store) CreateBook(ctx context.Context, b *domain.Book) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO books (`+bookColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Title, b.SortTitle, b.Author, nullString(b.ISBN), nullString(b.CoverURL),
		nullString(b.Description), nullInt(b.PageCount), nullInt(b.PublishedYear),
		formatTime(b.CreatedAt), formatTime(b.UpdatedAt),
	)
	return mapErr(err)
}

// GetBook returns a book by ID.
func (s *Store) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	b, err := scanBook(s.q.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM books WHERE id = ?`, id))
	if err != nil {
		return nil, mapErr(err)
	}
	return b, nil
}

// GetBooksByIDs returns the books that exist, keyed by ID.
func (s *Store) GetBooksByIDs(ctx context.Context, ids []string) (map[string]*domain.Book, error) {
	out := make(map[string]*domain.Book, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	placeholders, args := inArgs(ids)
	rows, err := s.q.QueryContext(ctx, `SELECT `+bookColumns+` FROM books WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		out[b.ID] = b
	}
	return out, rows.Err()
}

// ListBooks pages through the catalog ordered by sort title.
func (s *Store) ListBooks(ctx context.Context, params store.PaginationParams) (*store.PaginatedResult[*domain.Book], error) {
	params.Normalize()

	key, err := store.DecodeCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + bookColumns + ` FROM books`
	var args []any
	if key != "" {
		sortTitle, bookID, ok := strings.Cut(key, cursorSep)
		if !ok {
			return nil, store.ErrInvalidCursor
		}
		query += ` WHERE (sort_title, id) > (?, ?)`
		args = append(args, sortTitle, bookID)
	}
	query += ` ORDER BY sort_title, id LIMIT ?`
	args = append(args, params.Limit+1)

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	items := make([]*domain.Book, 0, params.Limit)
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := &store.PaginatedResult[*domain.Book]{Items: items}
	if len(items) > params.Limit {
		result.Items = items[:params.Limit]
		result.HasMore = true
		last := result.Items[len(result.Items)-1]
		result.NextCursor = store.EncodeCursor(last.SortTitle + cursorSep + last.ID)
	}
	return result, nil
}
