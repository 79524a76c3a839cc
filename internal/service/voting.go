package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/bookcrush/bookcrush-server/internal/domain"
	"github.com/bookcrush/bookcrush-server/internal/dto"
	domainerrors "github.com/bookcrush/bookcrush-server/internal/errors"
	"github.com/bookcrush/bookcrush-server/internal/sse"
	"github.com/bookcrush/bookcrush-server/internal/store"
)

// VotingService is the voting cycle controller. It opens and closes a club's
// cycle and picks the club's current book.
//
//	NO_CYCLE --StartCycle--> CYCLE_OPEN --EndCycle--> NO_CYCLE
type VotingService struct {
	deps   Deps
	logger *slog.Logger
}

// NewVotingService creates a new voting service.
func NewVotingService(deps Deps, logger *slog.Logger) *VotingService {
	return &VotingService{deps: deps.withDefaults(), logger: logger}
}

// StartVotingRequest is the cycle window.
type StartVotingRequest struct {
	VotingStartsAt time.Time `json:"voting_starts_at"`
	VotingEndsAt   time.Time `json:"voting_ends_at"`
}

// SelectBookRequest names the next book, either through one of the club's
// ACTIVE suggestions or directly from the catalog.
type SelectBookRequest struct {
	SuggestionID string `json:"suggestion_id,omitempty"`
	BookID       string `json:"book_id,omitempty"`
}

// StartCycle opens a voting cycle. Preconditions, first failure wins: caller
// is OWNER/ADMIN, window ends after it starts, no current book, no open cycle.
func (s *VotingService) StartCycle(ctx context.Context, clubID, userID string, req StartVotingRequest) (*dto.ClubVoting, error) {
	var club *domain.Club

	err := s.deps.Store.WithTx(ctx, func(q store.Queries) error {
		var err error
		club, _, err = clubManager(ctx, q, clubID, userID)
		if err != nil {
			return err
		}

		if err := club.CheckCanStart(req.VotingStartsAt, req.VotingEndsAt); err != nil {
			return err
		}

		club.OpenCycle(req.VotingStartsAt, req.VotingEndsAt, userID, s.deps.Now().UTC())
		return mapStoreErr(q.UpdateClub(ctx, club), "club")
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("voting cycle started",
		"club_id", clubID,
		"started_by", userID,
		"voting_starts_at", club.VotingStartsAt,
		"voting_ends_at", club.VotingEndsAt,
	)
	s.deps.Metrics.CycleStarted()
	s.deps.Events.Emit(sse.NewVotingStartedEvent(clubID, *club.VotingStartsAt, *club.VotingEndsAt, userID))

	view := dto.NewClubVoting(club)
	return &view, nil
}

// EndCycle closes the open cycle. Reading the tallies, writing every status
// change and clearing the club's voting fields happen in one write
// transaction, so a concurrent vote is either fully counted or lands after
// the cycle is closed.
func (s *VotingService) EndCycle(ctx context.Context, clubID, userID string) (*dto.EndVotingResult, error) {
	var (
		club    *domain.Club
		outcome domain.CloseOutResult
		winners []dto.WinningSuggestion
	)

	err := s.deps.Store.WithTx(ctx, func(q store.Queries) error {
		var err error
		club, _, err = clubManager(ctx, q, clubID, userID)
		if err != nil {
			return err
		}
		if !club.VotingCycleActive {
			return domainerrors.NoCycleActive("no voting cycle is active")
		}

		tallies, err := q.ListActiveTallies(ctx, clubID)
		if err != nil {
			return mapStoreErr(err, "tallies")
		}

		outcome = domain.CloseOut(tallies)

		if err := q.SetSuggestionStatus(ctx, outcome.Rejected, domain.SuggestionRejected); err != nil {
			return mapStoreErr(err, "suggestions")
		}
		if err := q.SetSuggestionStatus(ctx, outcome.Expired, domain.SuggestionExpired); err != nil {
			return mapStoreErr(err, "suggestions")
		}

		club.CloseCycle(s.deps.Now().UTC())
		if err := q.UpdateClub(ctx, club); err != nil {
			return mapStoreErr(err, "club")
		}

		winners, err = dto.NewEnricher(q).EnrichWinners(ctx, outcome.Winners)
		return err
	})
	if err != nil {
		return nil, err
	}

	winnerIDs := make([]string, 0, len(winners))
	for _, w := range winners {
		winnerIDs = append(winnerIDs, w.ID)
	}

	s.logger.Info("voting cycle ended",
		"club_id", clubID,
		"ended_by", userID,
		"winners", len(outcome.Winners),
		"rejected", len(outcome.Rejected),
		"expired", len(outcome.Expired),
		"max_votes", outcome.MaxVotes,
	)
	s.deps.Metrics.CycleEnded(len(outcome.Winners))
	s.deps.Events.Emit(sse.NewVotingEndedEvent(clubID, sse.VotingEndedEventData{
		WinningSuggestionIDs: winnerIDs,
		MaxVotes:             outcome.MaxVotes,
		Rejected:             len(outcome.Rejected),
		Expired:              len(outcome.Expired),
	}))

	return &dto.EndVotingResult{
		Club:                   dto.NewClubVoting(club),
		WinningBookSuggestions: winners,
	}, nil
}

// GetCycle returns the club's voting state to a member.
func (s *VotingService) GetCycle(ctx context.Context, clubID, userID string) (*dto.ClubVoting, error) {
	club, _, err := clubAccess(ctx, s.deps.Store, clubID, userID)
	if err != nil {
		return nil, err
	}
	view := dto.NewClubVoting(club)
	return &view, nil
}

// SelectBook sets the club's current book. Suggestion statuses are left
// untouched; a winner stays ACTIVE until the next close-out.
func (s *VotingService) SelectBook(ctx context.Context, clubID, userID string, req SelectBookRequest) (*dto.ClubVoting, error) {
	if (req.SuggestionID == "") == (req.BookID == "") {
		return nil, domainerrors.Validation("provide exactly one of suggestion_id or book_id")
	}

	var club *domain.Club
	bookID := req.BookID

	err := s.deps.Store.WithTx(ctx, func(q store.Queries) error {
		var err error
		club, _, err = clubManager(ctx, q, clubID, userID)
		if err != nil {
			return err
		}

		if req.SuggestionID != "" {
			sg, err := q.GetSuggestion(ctx, req.SuggestionID)
			if err != nil {
				return mapStoreErr(err, "suggestion")
			}
			if sg.ClubID != clubID {
				return domainerrors.NotFound("suggestion not found")
			}
			if !sg.IsActive() {
				return domainerrors.Validation("only an active suggestion can be selected")
			}
			bookID = sg.BookID
		} else if _, err := q.GetBook(ctx, bookID); err != nil {
			return mapStoreErr(err, "book")
		}

		if err := club.SelectBook(bookID, s.deps.Now().UTC()); err != nil {
			return err
		}
		return mapStoreErr(q.UpdateClub(ctx, club), "club")
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("current book selected",
		"club_id", clubID,
		"book_id", bookID,
		"suggestion_id", req.SuggestionID,
		"selected_by", userID,
	)
	s.deps.Metrics.BookSelected()
	s.deps.Events.Emit(sse.NewBookSelectedEvent(clubID, bookID, req.SuggestionID))

	view := dto.NewClubVoting(club)
	return &view, nil
}

// FinishBook clears the current book so a new cycle can start.
func (s *VotingService) FinishBook(ctx context.Context, clubID, userID string) (*dto.ClubVoting, error) {
	var (
		club     *domain.Club
		finished string
	)

	err := s.deps.Store.WithTx(ctx, func(q store.Queries) error {
		var err error
		club, _, err = clubManager(ctx, q, clubID, userID)
		if err != nil {
			return err
		}
		if !club.HasCurrentBook() {
			return domainerrors.NotFound("the club has no current book")
		}
		finished = *club.CurrentBookID
		club.FinishBook(s.deps.Now().UTC())
		return mapStoreErr(q.UpdateClub(ctx, club), "club")
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("current book finished", "club_id", clubID, "book_id", finished)
	s.deps.Events.Emit(sse.NewBookFinishedEvent(clubID, finished))

	view := dto.NewClubVoting(club)
	return &view, nil
}
