package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bookcrush/bookcrush-server/internal/domain"
	"github.com/bookcrush/bookcrush-server/internal/dto"
	domainerrors "github.com/bookcrush/bookcrush-server/internal/errors"
	"github.com/bookcrush/bookcrush-server/internal/id"
	"github.com/bookcrush/bookcrush-server/internal/sse"
	"github.com/bookcrush/bookcrush-server/internal/store"
)

// VoteService is the vote tally store. A user has at most one vote per
// suggestion and may vote for several suggestions.
type VoteService struct {
	deps   Deps
	logger *slog.Logger
}

// NewVoteService creates a new vote service.
func NewVoteService(deps Deps, logger *slog.Logger) *VoteService {
	return &VoteService{deps: deps.withDefaults(), logger: logger}
}

// CountVotes returns the number of votes on a suggestion.
func (s *VoteService) CountVotes(ctx context.Context, suggestionID string) (int, error) {
	n, err := s.deps.Store.CountVotes(ctx, suggestionID)
	if err != nil {
		return 0, mapStoreErr(err, "votes")
	}
	return n, nil
}

// HasVoted reports whether userID voted for suggestionID.
func (s *VoteService) HasVoted(ctx context.Context, suggestionID, userID string) (bool, error) {
	ok, err := s.deps.Store.HasVoted(ctx, suggestionID, userID)
	if err != nil {
		return false, mapStoreErr(err, "votes")
	}
	return ok, nil
}

type voteAction int

const (
	actionCast voteAction = iota
	actionRetract
	actionToggle
)

// CastVote records userID's vote. Voting twice is a no-op.
func (s *VoteService) CastVote(ctx context.Context, clubID, suggestionID, userID string) (*dto.VoteResult, error) {
	return s.apply(ctx, clubID, suggestionID, userID, actionCast)
}

// RetractVote removes userID's vote. Retracting a missing vote is a no-op.
func (s *VoteService) RetractVote(ctx context.Context, clubID, suggestionID, userID string) (*dto.VoteResult, error) {
	return s.apply(ctx, clubID, suggestionID, userID, actionRetract)
}

// ToggleVote casts the vote if absent and retracts it otherwise.
func (s *VoteService) ToggleVote(ctx context.Context, clubID, suggestionID, userID string) (*dto.VoteResult, error) {
	return s.apply(ctx, clubID, suggestionID, userID, actionToggle)
}

func (s *VoteService) apply(ctx context.Context, clubID, suggestionID, userID string, action voteAction) (*dto.VoteResult, error) {
	voteID, err := id.Generate(id.PrefixVote)
	if err != nil {
		return nil, fmt.Errorf("generate vote ID: %w", err)
	}

	var (
		result  dto.VoteResult
		changed bool
	)

	err = s.deps.Store.WithTx(ctx, func(q store.Queries) error {
		suggestion, err := q.GetSuggestion(ctx, suggestionID)
		if err != nil {
			return mapStoreErr(err, "suggestion")
		}
		if suggestion.ClubID != clubID {
			return domainerrors.NotFound("suggestion not found")
		}

		club, _, err := clubAccess(ctx, q, clubID, userID)
		if err != nil {
			return err
		}

		voted, err := q.HasVoted(ctx, suggestionID, userID)
		if err != nil {
			return mapStoreErr(err, "votes")
		}

		cast := action == actionCast || (action == actionToggle && !voted)
		if cast {
			if !suggestion.IsActive() {
				return domainerrors.Validation("this suggestion is no longer open for votes")
			}
			if !club.VotingCycleActive {
				return domainerrors.NoCycleActive("voting is not open in this club")
			}
			changed, err = q.InsertVote(ctx, &domain.Vote{
				ID:           voteID,
				SuggestionID: suggestionID,
				UserID:       userID,
				CreatedAt:    s.deps.Now().UTC(),
			})
		} else {
			changed, err = q.DeleteVote(ctx, suggestionID, userID)
		}
		if err != nil {
			return mapStoreErr(err, "vote")
		}

		count, err := q.CountVotes(ctx, suggestionID)
		if err != nil {
			return mapStoreErr(err, "votes")
		}

		result = dto.VoteResult{SuggestionID: suggestionID, Voted: cast, VoteCount: count}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.logger.Info("vote changed",
			"suggestion_id", suggestionID,
			"club_id", clubID,
			"user_id", userID,
			"voted", result.Voted,
			"vote_count", result.VoteCount,
		)
		s.deps.Metrics.VoteChanged(result.Voted)
		s.deps.Events.Emit(sse.NewVoteUpdatedEvent(clubID, sse.VoteEventData{
			SuggestionID: suggestionID,
			UserID:       userID,
			Voted:        result.Voted,
			VoteCount:    result.VoteCount,
		}))
	}

	return &result, nil
}
