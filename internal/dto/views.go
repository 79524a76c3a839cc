// Package dto provides the client-facing views returned by the API.
//
// Views carry denormalized display fields (book title, suggester name) next to
// the normalized IDs so a client can render a suggestion list without
// follow-up requests.
package dto

import (
	"time"

	"github.com/bookcrush/bookcrush-server/internal/domain"
)

// BookSummary is the short form of a catalog book.
type BookSummary struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	CoverURL string `json:"cover_url,omitempty"`
}

// UserSummary is the public face of a user.
type UserSummary struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	AvatarColor string `json:"avatar_color"`
	Initials    string `json:"initials"`
}

// Suggestion is a suggestion annotated for one viewer.
type Suggestion struct {
	CreatedAt   time.Time               `json:"created_at"`
	VotingEnds  time.Time               `json:"voting_ends"`
	Reason      *string                 `json:"reason"`
	Book        BookSummary             `json:"book"`
	SuggestedBy UserSummary             `json:"suggested_by"`
	ID          string                  `json:"id"`
	ClubID      string                  `json:"club_id"`
	Status      domain.SuggestionStatus `json:"status"`
	VoteCount   int                     `json:"vote_count"`
	HasVoted    bool                    `json:"has_voted"`
}

// ClubVoting is the voting state of a club.
type ClubVoting struct {
	VotingStartsAt    *time.Time        `json:"voting_starts_at"`
	VotingEndsAt      *time.Time        `json:"voting_ends_at"`
	VotingStartedBy   *string           `json:"voting_started_by"`
	CurrentBookID     *string           `json:"current_book_id"`
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	State             domain.CycleState `json:"state"`
	VotingCycleActive bool              `json:"voting_cycle_active"`
}

// NewClubVoting extracts the voting view of a club.
func NewClubVoting(c *domain.Club) ClubVoting {
	return ClubVoting{
		ID:                c.ID,
		Name:              c.Name,
		State:             c.CycleState(),
		VotingCycleActive: c.VotingCycleActive,
		VotingStartsAt:    c.VotingStartsAt,
		VotingEndsAt:      c.VotingEndsAt,
		VotingStartedBy:   c.VotingStartedBy,
		CurrentBookID:     c.CurrentBookID,
	}
}

// WinningSuggestion is one winner of a closed voting cycle.
type WinningSuggestion struct {
	Book      BookSummary `json:"book"`
	ID        string      `json:"id"`
	VoteCount int         `json:"vote_count"`
}

// EndVotingResult is returned when a cycle closes.
type EndVotingResult struct {
	WinningBookSuggestions []WinningSuggestion `json:"winning_book_suggestions"`
	Club                   ClubVoting          `json:"club"`
}

// Club is a club as seen by one of its members.
type Club struct {
	*domain.Club
	CurrentBook *BookSummary `json:"current_book,omitempty"`
	MyRole      domain.Role  `json:"my_role,omitempty"`
}

// Member is a club member with display fields.
type Member struct {
	JoinedAt time.Time   `json:"joined_at"`
	User     UserSummary `json:"user"`
	Role     domain.Role `json:"role"`
}

// VoteResult is the outcome of a vote change.
type VoteResult struct {
	SuggestionID string `json:"suggestion_id"`
	Voted        bool   `json:"voted"`
	VoteCount    int    `json:"vote_count"`
}
