package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bookcrush/bookcrush-server/internal/domain"
	"github.com/bookcrush/bookcrush-server/internal/dto"
	domainerrors "github.com/bookcrush/bookcrush-server/internal/errors"
	"github.com/bookcrush/bookcrush-server/internal/id"
	"github.com/bookcrush/bookcrush-server/internal/normalize"
	"github.com/bookcrush/bookcrush-server/internal/sse"
	"github.com/bookcrush/bookcrush-server/internal/store"
)

// SuggestionPolicy holds the registry limits.
type SuggestionPolicy struct {
	// MaxPerUser caps a user's ACTIVE suggestions in one club.
	MaxPerUser int
	// Window sets each suggestion's informational voting_ends.
	Window time.Duration
}

// DefaultSuggestionPolicy is two active suggestions per user and a 14 day window.
func DefaultSuggestionPolicy() SuggestionPolicy {
	return SuggestionPolicy{MaxPerUser: 2, Window: 14 * 24 * time.Hour}
}

// SuggestionService is the suggestion registry for club book nominations.
type SuggestionService struct {
	deps   Deps
	policy SuggestionPolicy
	logger *slog.Logger
}

// NewSuggestionService creates a new suggestion service.
func NewSuggestionService(deps Deps, policy SuggestionPolicy, logger *slog.Logger) *SuggestionService {
	def := DefaultSuggestionPolicy()
	if policy.MaxPerUser <= 0 {
		policy.MaxPerUser = def.MaxPerUser
	}
	if policy.Window <= 0 {
		policy.Window = def.Window
	}
	return &SuggestionService{deps: deps.withDefaults(), policy: policy, logger: logger}
}

const maxReasonRunes = 2000

// CreateSuggestionRequest nominates a book.
type CreateSuggestionRequest struct {
	Reason *string `json:"reason,omitempty"`
	BookID string  `json:"book_id"`
}

// ListSuggestions returns the club's ACTIVE suggestions, newest first, annotated
// for userID.
func (s *SuggestionService) ListSuggestions(ctx context.Context, clubID, userID string) ([]dto.Suggestion, error) {
	var views []dto.Suggestion

	// One transaction so counts and has_voted come from the same snapshot.
	err := s.deps.Store.WithTx(ctx, func(q store.Queries) error {
		if _, _, err := clubAccess(ctx, q, clubID, userID); err != nil {
			return err
		}

		suggestions, err := q.ListActiveSuggestions(ctx, clubID)
		if err != nil {
			return mapStoreErr(err, "suggestions")
		}

		views, err = dto.NewEnricher(q).EnrichSuggestions(ctx, suggestions, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return views, nil
}

// CreateSuggestion nominates a book for the club. Checks run in order and the
// first failure wins: membership, duplicate, per-user cap, current book, open
// cycle, book exists. The reason limit counts characters, not bytes.
func (s *SuggestionService) CreateSuggestion(ctx context.Context, clubID, userID string, req CreateSuggestionRequest) (*dto.Suggestion, error) {
	bookID := strings.TrimSpace(req.BookID)
	if bookID == "" {
		return nil, domainerrors.ValidationWithDetails("validation failed", map[string]string{"book_id": "is required"})
	}

	var reason *string
	if req.Reason != nil {
		if r := normalize.Note(*req.Reason); r != "" {
			if utf8.RuneCountInString(r) > maxReasonRunes {
				return nil, domainerrors.ValidationWithDetails("validation failed", map[string]string{"reason": "must not exceed 2000 characters"})
			}
			reason = &r
		}
	}

	suggestionID, err := id.Generate(id.PrefixSuggestion)
	if err != nil {
		return nil, fmt.Errorf("generate suggestion ID: %w", err)
	}

	var (
		suggestion *domain.Suggestion
		book       *domain.Book
		suggester  *domain.User
	)

	err = s.deps.Store.WithTx(ctx, func(q store.Queries) error {
		club, _, err := clubAccess(ctx, q, clubID, userID)
		if err != nil {
			return err
		}

		dup, err := q.HasActiveSuggestion(ctx, clubID, bookID)
		if err != nil {
			return mapStoreErr(err, "suggestions")
		}
		if dup {
			return domainerrors.DuplicateSuggestion("this book has already been suggested")
		}

		count, err := q.CountActiveSuggestionsByUser(ctx, clubID, userID)
		if err != nil {
			return mapStoreErr(err, "suggestions")
		}
		if count >= s.policy.MaxPerUser {
			return domainerrors.SuggestionLimitExceeded(
				fmt.Sprintf("you can have at most %d active suggestions in this club", s.policy.MaxPerUser))
		}

		if club.HasCurrentBook() {
			return domainerrors.BookAlreadySelected("the club is already reading a book")
		}
		if !club.VotingCycleActive {
			return domainerrors.NoCycleActive("voting is not open in this club")
		}

		book, err = q.GetBook(ctx, bookID)
		if err != nil {
			return mapStoreErr(err, "book")
		}

		suggester, err = q.GetUser(ctx, userID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return mapStoreErr(err, "user")
		}

		now := s.deps.Now().UTC()
		suggestion = &domain.Suggestion{
			ID:          suggestionID,
			ClubID:      clubID,
			BookID:      bookID,
			SuggestedBy: userID,
			Reason:      reason,
			Status:      domain.SuggestionActive,
			VotingEnds:  now.Add(s.policy.Window),
			CreatedAt:   now,
		}

		if err := q.CreateSuggestion(ctx, suggestion); err != nil {
			// The partial unique index catches a concurrent duplicate.
			if errors.Is(err, store.ErrAlreadyExists) {
				return domainerrors.DuplicateSuggestion("this book has already been suggested")
			}
			return mapStoreErr(err, "suggestion")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("suggestion created",
		"suggestion_id", suggestion.ID,
		"club_id", clubID,
		"book_id", bookID,
		"user_id", userID,
	)
	s.deps.Metrics.SuggestionCreated()
	s.deps.Events.Emit(sse.NewSuggestionCreatedEvent(clubID, sse.SuggestionEventData{
		SuggestionID: suggestion.ID,
		BookID:       bookID,
		BookTitle:    book.Title,
		SuggestedBy:  userID,
		VotingEnds:   suggestion.VotingEnds,
		CreatedAt:    suggestion.CreatedAt,
	}))

	suggestedBy := dto.NewUserSummary(suggester)
	suggestedBy.ID = userID
	return &dto.Suggestion{
		ID:          suggestion.ID,
		ClubID:      clubID,
		Book:        dto.NewBookSummary(book),
		SuggestedBy: suggestedBy,
		Reason:      suggestion.Reason,
		Status:      suggestion.Status,
		VoteCount:   0,
		HasVoted:    false,
		VotingEnds:  suggestion.VotingEnds,
		CreatedAt:   suggestion.CreatedAt,
	}, nil
}
