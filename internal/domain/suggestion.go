package domain

import "time"

// SuggestionStatus is the lifecycle state of a suggestion.
type SuggestionStatus string

// Suggestion statuses. ACTIVE is the only non-terminal state.
const (
	SuggestionActive   SuggestionStatus = "ACTIVE"
	SuggestionRejected SuggestionStatus = "REJECTED"
	SuggestionExpired  SuggestionStatus = "EXPIRED"
)

// Suggestion nominates a book for a club's next read.
type Suggestion struct {
	CreatedAt   time.Time        `json:"created_at"`
	VotingEnds  time.Time        `json:"voting_ends"`
	Reason      *string          `json:"reason"`
	ID          string           `json:"id"`
	ClubID      string           `json:"club_id"`
	BookID      string           `json:"book_id"`
	SuggestedBy string           `json:"suggested_by"`
	Status      SuggestionStatus `json:"status"`
}

// IsActive reports whether the suggestion can still receive votes.
func (s *Suggestion) IsActive() bool {
	return s.Status == SuggestionActive
}

// Vote is one user's vote for one suggestion.
type Vote struct {
	CreatedAt    time.Time `json:"created_at"`
	ID           string    `json:"id"`
	SuggestionID string    `json:"suggestion_id"`
	UserID       string    `json:"user_id"`
}
