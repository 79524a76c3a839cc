package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bookcrush/bookcrush-server/internal/dto"
	"github.com/bookcrush/bookcrush-server/internal/service"
)

func (s *Server) registerSuggestionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listSuggestions",
		Method:      http.MethodGet,
		Path:        "/api/v1/clubs/{clubId}/suggestions",
		Summary:     "List suggestions",
		Description: "Returns the club's active suggestions, newest first, with vote counts",
		Tags:        []string{"Suggestions"},
		Security:    bearerSecurity,
	}, s.handleListSuggestions)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createSuggestion",
		Method:        http.MethodPost,
		Path:          "/api/v1/clubs/{clubId}/suggestions",
		Summary:       "Suggest a book",
		Description:   "Suggests a catalog book for the club's next read. Each member may have at most two active suggestions per club.",
		Tags:          []string{"Suggestions"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateSuggestion)

	huma.Register(s.api, huma.Operation{
		OperationID: "toggleVote",
		Method:      http.MethodPost,
		Path:        "/api/v1/clubs/{clubId}/suggestions/{suggestionId}/vote",
		Summary:     "Toggle vote",
		Description: "Votes for a suggestion, or withdraws the caller's vote if already cast",
		Tags:        []string{"Suggestions"},
		Security:    bearerSecurity,
	}, s.handleToggleVote)

	huma.Register(s.api, huma.Operation{
		OperationID: "retractVote",
		Method:      http.MethodDelete,
		Path:        "/api/v1/clubs/{clubId}/suggestions/{suggestionId}/vote",
		Summary:     "Retract vote",
		Description: "Withdraws the caller's vote. Retracting a vote that was never cast succeeds.",
		Tags:        []string{"Suggestions"},
		Security:    bearerSecurity,
	}, s.handleRetractVote)
}

// === DTOs ===

// CreateSuggestionRequest is the request body for suggesting a book.
type CreateSuggestionRequest struct {
	BookID string  `json:"book_id" doc:"Catalog book ID"`
	Reason *string `json:"reason,omitempty" nullable:"true" doc:"Why the club should read it, at most 2000 characters after trimming"`
}

// CreateSuggestionInput wraps the create suggestion request for Huma.
type CreateSuggestionInput struct {
	ClubID string `path:"clubId" doc:"Club ID"`
	Body   CreateSuggestionRequest
}

// SuggestionOutput wraps a suggestion for Huma.
type SuggestionOutput struct {
	Body dto.Suggestion
}

// SuggestionListOutput wraps a suggestion list for Huma.
type SuggestionListOutput struct {
	Body []dto.Suggestion
}

// VoteInput identifies a suggestion within a club.
type VoteInput struct {
	ClubID       string `path:"clubId" doc:"Club ID"`
	SuggestionID string `path:"suggestionId" doc:"Suggestion ID"`
}

// VoteOutput wraps a vote result for Huma.
type VoteOutput struct {
	Body dto.VoteResult
}

// === Handlers ===

func (s *Server) handleListSuggestions(ctx context.Context, input *ClubPathInput) (*SuggestionListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	suggestions, err := s.services.Suggestion.ListSuggestions(ctx, input.ClubID, userID)
	if err != nil {
		return nil, err
	}
	return &SuggestionListOutput{Body: suggestions}, nil
}

func (s *Server) handleCreateSuggestion(ctx context.Context, input *CreateSuggestionInput) (*SuggestionOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	suggestion, err := s.services.Suggestion.CreateSuggestion(ctx, input.ClubID, userID, service.CreateSuggestionRequest{
		BookID: input.Body.BookID,
		Reason: input.Body.Reason,
	})
	if err != nil {
		return nil, err
	}
	return &SuggestionOutput{Body: *suggestion}, nil
}

func (s *Server) handleToggleVote(ctx context.Context, input *VoteInput) (*VoteOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.services.Vote.ToggleVote(ctx, input.ClubID, input.SuggestionID, userID)
	if err != nil {
		return nil, err
	}
	return &VoteOutput{Body: *result}, nil
}

func (s *Server) handleRetractVote(ctx context.Context, input *VoteInput) (*VoteOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.services.Vote.RetractVote(ctx, input.ClubID, input.SuggestionID, userID)
	if err != nil {
		return nil, err
	}
	return &VoteOutput{Body: *result}, nil
}
