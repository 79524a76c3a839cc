// Package sse implements Server-Sent Events for live club updates: new
// suggestions, vote counts, and voting cycle changes.
package sse

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventSuggestionCreated is sent when a member suggests a book.
	EventSuggestionCreated EventType = "suggestion.created"
	// EventVoteUpdated is sent when a vote is cast or retracted.
	EventVoteUpdated EventType = "vote.updated"

	// EventVotingStarted is sent when an admin opens a voting cycle.
	EventVotingStarted EventType = "voting.started"
	// EventVotingEnded is sent after close-out with the winners.
	EventVotingEnded EventType = "voting.ended"

	// EventBookSelected is sent when a club picks its current book.
	EventBookSelected EventType = "club.book_selected"
	// EventBookFinished is sent when the current book is cleared.
	EventBookFinished EventType = "club.book_finished"

	EventMemberJoined      EventType = "club.member_joined"
	EventMemberLeft        EventType = "club.member_left"
	EventMemberRoleChanged EventType = "club.member_role_changed"

	// EventBookAdded is sent to everyone when the catalog grows.
	EventBookAdded EventType = "catalog.book_added"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	ClubID    string    `json:"club_id,omitempty"`
}

func newEvent(t EventType, clubID string, data any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      t,
		ClubID:    clubID,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

// SuggestionEventData is the payload for suggestion.created.
type SuggestionEventData struct {
	CreatedAt    time.Time `json:"created_at"`
	VotingEnds   time.Time `json:"voting_ends"`
	SuggestionID string    `json:"suggestion_id"`
	BookID       string    `json:"book_id"`
	BookTitle    string    `json:"book_title"`
	SuggestedBy  string    `json:"suggested_by"`
}

// VoteEventData is the payload for vote.updated.
type VoteEventData struct {
	SuggestionID string `json:"suggestion_id"`
	UserID       string `json:"user_id"`
	Voted        bool   `json:"voted"`
	VoteCount    int    `json:"vote_count"`
}

// VotingStartedEventData is the payload for voting.started.
type VotingStartedEventData struct {
	StartsAt  time.Time `json:"voting_starts_at"`
	EndsAt    time.Time `json:"voting_ends_at"`
	StartedBy string    `json:"voting_started_by"`
}

// VotingEndedEventData is the payload for voting.ended.
type VotingEndedEventData struct {
	WinningSuggestionIDs []string `json:"winning_suggestion_ids"`
	MaxVotes             int      `json:"max_votes"`
	Rejected             int      `json:"rejected"`
	Expired              int      `json:"expired"`
}

// CurrentBookEventData is the payload for club.book_selected and club.book_finished.
type CurrentBookEventData struct {
	BookID       string `json:"book_id"`
	SuggestionID string `json:"suggestion_id,omitempty"`
}

// MemberEventData is the payload for membership events.
type MemberEventData struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// BookAddedEventData is the payload for catalog.book_added.
type BookAddedEventData struct {
	BookID string `json:"book_id"`
	Title  string `json:"title"`
	Author string `json:"author"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// NewSuggestionCreatedEvent creates a suggestion.created event.
func NewSuggestionCreatedEvent(clubID string, data SuggestionEventData) Event {
	return newEvent(EventSuggestionCreated, clubID, data)
}

// NewVoteUpdatedEvent creates a vote.updated event.
func NewVoteUpdatedEvent(clubID string, data VoteEventData) Event {
	return newEvent(EventVoteUpdated, clubID, data)
}

// NewVotingStartedEvent creates a voting.started event.
func NewVotingStartedEvent(clubID string, startsAt, endsAt time.Time, startedBy string) Event {
	return newEvent(EventVotingStarted, clubID, VotingStartedEventData{
		StartsAt:  startsAt,
		EndsAt:    endsAt,
		StartedBy: startedBy,
	})
}

// NewVotingEndedEvent creates a voting.ended event.
func NewVotingEndedEvent(clubID string, data VotingEndedEventData) Event {
	if data.WinningSuggestionIDs == nil {
		data.WinningSuggestionIDs = []string{}
	}
	return newEvent(EventVotingEnded, clubID, data)
}

// NewBookSelectedEvent creates a club.book_selected event.
func NewBookSelectedEvent(clubID, bookID, suggestionID string) Event {
	return newEvent(EventBookSelected, clubID, CurrentBookEventData{BookID: bookID, SuggestionID: suggestionID})
}

// NewBookFinishedEvent creates a club.book_finished event.
func NewBookFinishedEvent(clubID, bookID string) Event {
	return newEvent(EventBookFinished, clubID, CurrentBookEventData{BookID: bookID})
}

// NewMemberEvent creates a membership event of type t.
func NewMemberEvent(t EventType, clubID, userID, role string) Event {
	return newEvent(t, clubID, MemberEventData{UserID: userID, Role: role})
}

// NewBookAddedEvent creates a catalog.book_added event.
func NewBookAddedEvent(bookID, title, author string) Event {
	return newEvent(EventBookAdded, "", BookAddedEventData{BookID: bookID, Title: title, Author: author})
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	return newEvent(EventHeartbeat, "", HeartbeatEventData{ServerTime: time.Now().UTC()})
}
