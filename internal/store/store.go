// Package store defines BookCrush's persistence interface.
package store

import (
	"context"

	"github.com/bookcrush/bookcrush-server/internal/domain"
)

// Queries is every read and write the services perform. Both the store and
// an open transaction implement it.
type Queries interface {
	// Users
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error)

	// Clubs
	CreateClub(ctx context.Context, club *domain.Club) error
	GetClub(ctx context.Context, id string) (*domain.Club, error)
	UpdateClub(ctx context.Context, club *domain.Club) error
	ListClubsForUser(ctx context.Context, userID string) ([]*domain.Club, error)

	// Memberships
	SaveMembership(ctx context.Context, m *domain.Membership) error
	GetMembership(ctx context.Context, clubID, userID string) (*domain.Membership, error)
	ListActiveMembers(ctx context.Context, clubID string) ([]*domain.Membership, error)

	// Books
	CreateBook(ctx context.Context, book *domain.Book) error
	GetBook(ctx context.Context, id string) (*domain.Book, error)
	GetBooksByIDs(ctx context.Context, ids []string) (map[string]*domain.Book, error)
	ListBooks(ctx context.Context, params PaginationParams) (*PaginatedResult[*domain.Book], error)

	// Suggestions
	CreateSuggestion(ctx context.Context, s *domain.Suggestion) error
	GetSuggestion(ctx context.Context, id string) (*domain.Suggestion, error)
	HasActiveSuggestion(ctx context.Context, clubID, bookID string) (bool, error)
	CountActiveSuggestionsByUser(ctx context.Context, clubID, userID string) (int, error)
	ListActiveSuggestions(ctx context.Context, clubID string) ([]*domain.Suggestion, error)
	ListActiveTallies(ctx context.Context, clubID string) ([]domain.Tally, error)
	SetSuggestionStatus(ctx context.Context, ids []string, status domain.SuggestionStatus) error

	// Votes
	InsertVote(ctx context.Context, v *domain.Vote) (bool, error)
	DeleteVote(ctx context.Context, suggestionID, userID string) (bool, error)
	CountVotes(ctx context.Context, suggestionID string) (int, error)
	HasVoted(ctx context.Context, suggestionID, userID string) (bool, error)
	CountVotesFor(ctx context.Context, suggestionIDs []string) (map[string]int, error)
	VotedBy(ctx context.Context, userID string, suggestionIDs []string) (map[string]bool, error)
}

// Store is the database handle.
type Store interface {
	Queries

	// WithTx runs fn inside one write transaction. The transaction commits when
	// fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(q Queries) error) error

	Ping(ctx context.Context) error
	Close() error
}
