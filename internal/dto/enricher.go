package dto

import (
	"context"
	"fmt"

	"github.com/bookcrush/bookcrush-server/internal/color"
	"github.com/bookcrush/bookcrush-server/internal/domain"
)

// Store defines what the Enricher reads. Both the store and an open
// transaction satisfy it.
type Store interface {
	GetBooksByIDs(ctx context.Context, ids []string) (map[string]*domain.Book, error)
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error)
	CountVotesFor(ctx context.Context, suggestionIDs []string) (map[string]int, error)
	VotedBy(ctx context.Context, userID string, suggestionIDs []string) (map[string]bool, error)
}

// Enricher denormalizes domain models for client consumption.
//
//   - Batch fetching: one query per entity type, not per suggestion
//   - Graceful degradation: a missing book or user yields an empty summary
type Enricher struct {
	store Store
}

// NewEnricher creates a new enricher.
func NewEnricher(store Store) *Enricher {
	return &Enricher{store: store}
}

// NewBookSummary shortens a book. A nil book gives an empty summary.
func NewBookSummary(b *domain.Book) BookSummary {
	if b == nil {
		return BookSummary{}
	}
	return BookSummary{ID: b.ID, Title: b.Title, Author: b.Author, CoverURL: b.CoverURL}
}

// NewUserSummary builds the public view of a user.
func NewUserSummary(u *domain.User) UserSummary {
	if u == nil {
		return UserSummary{}
	}
	return UserSummary{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		AvatarColor: color.ForUser(u.ID),
		Initials:    color.Initials(u.DisplayName),
	}
}

// EnrichSuggestions annotates suggestions with books, suggesters, vote counts,
// and whether viewerID voted. Order is preserved.
func (e *Enricher) EnrichSuggestions(ctx context.Context, suggestions []*domain.Suggestion, viewerID string) ([]Suggestion, error) {
	out := make([]Suggestion, 0, len(suggestions))
	if len(suggestions) == 0 {
		return out, nil
	}

	ids := make([]string, 0, len(suggestions))
	bookIDs := make([]string, 0, len(suggestions))
	userIDs := make([]string, 0, len(suggestions))
	for _, s := range suggestions {
		ids = append(ids, s.ID)
		bookIDs = append(bookIDs, s.BookID)
		userIDs = append(userIDs, s.SuggestedBy)
	}

	books, err := e.store.GetBooksByIDs(ctx, bookIDs)
	if err != nil {
		return nil, fmt.Errorf("fetch books: %w", err)
	}
	users, err := e.store.GetUsersByIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("fetch suggesters: %w", err)
	}
	counts, err := e.store.CountVotesFor(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("count votes: %w", err)
	}
	voted := map[string]bool{}
	if viewerID != "" {
		voted, err = e.store.VotedBy(ctx, viewerID, ids)
		if err != nil {
			return nil, fmt.Errorf("fetch viewer votes: %w", err)
		}
	}

	for _, s := range suggestions {
		view := Suggestion{
			ID:          s.ID,
			ClubID:      s.ClubID,
			Book:        NewBookSummary(books[s.BookID]),
			SuggestedBy: NewUserSummary(users[s.SuggestedBy]),
			Reason:      s.Reason,
			Status:      s.Status,
			VoteCount:   counts[s.ID],
			HasVoted:    voted[s.ID],
			VotingEnds:  s.VotingEnds,
			CreatedAt:   s.CreatedAt,
		}
		if view.Book.ID == "" {
			view.Book.ID = s.BookID
		}
		if view.SuggestedBy.ID == "" {
			view.SuggestedBy.ID = s.SuggestedBy
		}
		out = append(out, view)
	}

	return out, nil
}

// EnrichWinners attaches book summaries to close-out winners.
func (e *Enricher) EnrichWinners(ctx context.Context, winners []domain.Tally) ([]WinningSuggestion, error) {
	out := make([]WinningSuggestion, 0, len(winners))
	if len(winners) == 0 {
		return out, nil
	}

	bookIDs := make([]string, 0, len(winners))
	for _, w := range winners {
		bookIDs = append(bookIDs, w.BookID)
	}
	books, err := e.store.GetBooksByIDs(ctx, bookIDs)
	if err != nil {
		return nil, fmt.Errorf("fetch books: %w", err)
	}

	for _, w := range winners {
		summary := NewBookSummary(books[w.BookID])
		if summary.ID == "" {
			summary.ID = w.BookID
		}
		out = append(out, WinningSuggestion{ID: w.SuggestionID, VoteCount: w.Votes, Book: summary})
	}
	return out, nil
}

// EnrichMembers attaches user summaries to memberships.
func (e *Enricher) EnrichMembers(ctx context.Context, members []*domain.Membership) ([]Member, error) {
	out := make([]Member, 0, len(members))
	if len(members) == 0 {
		return out, nil
	}

	userIDs := make([]string, 0, len(members))
	for _, m := range members {
		userIDs = append(userIDs, m.UserID)
	}
	users, err := e.store.GetUsersByIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("fetch members: %w", err)
	}

	for _, m := range members {
		u := NewUserSummary(users[m.UserID])
		if u.ID == "" {
			u.ID = m.UserID
		}
		out = append(out, Member{User: u, Role: m.Role, JoinedAt: m.JoinedAt})
	}
	return out, nil
}
