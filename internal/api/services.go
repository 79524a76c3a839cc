package api

import (
	"github.com/bookcrush/bookcrush-server/internal/service"
)

// Services groups all business logic services used by the API server.
type Services struct {
	Auth       *service.AuthService
	Club       *service.ClubService
	Book       *service.BookService
	Suggestion *service.SuggestionService
	Vote       *service.VoteService
	Voting     *service.VotingService
}
