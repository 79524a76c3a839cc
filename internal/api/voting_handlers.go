package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bookcrush/bookcrush-server/internal/dto"
	"github.com/bookcrush/bookcrush-server/internal/service"
)

func (s *Server) registerVotingRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getVoting",
		Method:      http.MethodGet,
		Path:        "/api/v1/clubs/{clubId}/voting",
		Summary:     "Get voting state",
		Description: "Returns whether the club has an open voting cycle",
		Tags:        []string{"Voting"},
		Security:    bearerSecurity,
	}, s.handleGetVoting)

	huma.Register(s.api, huma.Operation{
		OperationID: "startVoting",
		Method:      http.MethodPost,
		Path:        "/api/v1/clubs/{clubId}/voting",
		Summary:     "Start voting",
		Description: "Opens a voting cycle. OWNER or ADMIN only; refused while the club has a current book.",
		Tags:        []string{"Voting"},
		Security:    bearerSecurity,
	}, s.handleStartVoting)

	huma.Register(s.api, huma.Operation{
		OperationID: "endVoting",
		Method:      http.MethodDelete,
		Path:        "/api/v1/clubs/{clubId}/voting",
		Summary:     "End voting",
		Description: "Closes the cycle: top-voted suggestions stay active and are returned as winners, the rest are rejected, and if nobody voted all expire.",
		Tags:        []string{"Voting"},
		Security:    bearerSecurity,
	}, s.handleEndVoting)

	huma.Register(s.api, huma.Operation{
		OperationID: "selectCurrentBook",
		Method:      http.MethodPost,
		Path:        "/api/v1/clubs/{clubId}/current-book",
		Summary:     "Select current book",
		Description: "Sets the book the club reads next, from an active suggestion or the catalog. OWNER or ADMIN only.",
		Tags:        []string{"Voting"},
		Security:    bearerSecurity,
	}, s.handleSelectBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "finishCurrentBook",
		Method:      http.MethodDelete,
		Path:        "/api/v1/clubs/{clubId}/current-book",
		Summary:     "Finish current book",
		Description: "Clears the current book so a new voting cycle can start. OWNER or ADMIN only.",
		Tags:        []string{"Voting"},
		Security:    bearerSecurity,
	}, s.handleFinishBook)
}

// === DTOs ===

// StartVotingRequest is the request body for opening a cycle.
type StartVotingRequest struct {
	VotingStartsAt time.Time `json:"voting_starts_at" doc:"Cycle start (RFC 3339)"`
	VotingEndsAt   time.Time `json:"voting_ends_at" doc:"Cycle end (RFC 3339), after the start"`
}

// StartVotingInput wraps the start voting request for Huma.
type StartVotingInput struct {
	ClubID string `path:"clubId" doc:"Club ID"`
	Body   StartVotingRequest
}

// ClubVotingOutput wraps a club's voting state for Huma.
type ClubVotingOutput struct {
	Body dto.ClubVoting
}

// EndVotingOutput wraps the close-out result for Huma.
type EndVotingOutput struct {
	Body dto.EndVotingResult
}

// SelectBookRequest is the request body for picking the current book.
// Exactly one of the two fields must be set.
type SelectBookRequest struct {
	SuggestionID string `json:"suggestion_id,omitempty" doc:"Active suggestion to read"`
	BookID       string `json:"book_id,omitempty" doc:"Catalog book to read"`
}

// SelectBookInput wraps the select book request for Huma.
type SelectBookInput struct {
	ClubID string `path:"clubId" doc:"Club ID"`
	Body   SelectBookRequest
}

// === Handlers ===

func (s *Server) handleGetVoting(ctx context.Context, input *ClubPathInput) (*ClubVotingOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	view, err := s.services.Voting.GetCycle(ctx, input.ClubID, userID)
	if err != nil {
		return nil, err
	}
	return &ClubVotingOutput{Body: *view}, nil
}

func (s *Server) handleStartVoting(ctx context.Context, input *StartVotingInput) (*ClubVotingOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	view, err := s.services.Voting.StartCycle(ctx, input.ClubID, userID, service.StartVotingRequest{
		VotingStartsAt: input.Body.VotingStartsAt,
		VotingEndsAt:   input.Body.VotingEndsAt,
	})
	if err != nil {
		return nil, err
	}
	return &ClubVotingOutput{Body: *view}, nil
}

func (s *Server) handleEndVoting(ctx context.Context, input *ClubPathInput) (*EndVotingOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.services.Voting.EndCycle(ctx, input.ClubID, userID)
	if err != nil {
		return nil, err
	}
	return &EndVotingOutput{Body: *result}, nil
}

func (s *Server) handleSelectBook(ctx context.Context, input *SelectBookInput) (*ClubVotingOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	view, err := s.services.Voting.SelectBook(ctx, input.ClubID, userID, service.SelectBookRequest{
		SuggestionID: input.Body.SuggestionID,
		BookID:       input.Body.BookID,
	})
	if err != nil {
		return nil, err
	}
	return &ClubVotingOutput{Body: *view}, nil
}

func (s *Server) handleFinishBook(ctx context.Context, input *ClubPathInput) (*ClubVotingOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	view, err := s.services.Voting.FinishBook(ctx, input.ClubID, userID)
	if err != nil {
		return nil, err
	}
	return &ClubVotingOutput{Body: *view}, nil
}
