package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bookcrush/bookcrush-server/internal/domain"
	"github.com/bookcrush/bookcrush-server/internal/dto"
	domainerrors "github.com/bookcrush/bookcrush-server/internal/errors"
	"github.com/bookcrush/bookcrush-server/internal/id"
	"github.com/bookcrush/bookcrush-server/internal/normalize"
	"github.com/bookcrush/bookcrush-server/internal/sse"
	"github.com/bookcrush/bookcrush-server/internal/store"
	"github.com/bookcrush/bookcrush-server/internal/validation"
)

// ClubService manages clubs and their membership directory.
type ClubService struct {
	deps      Deps
	validator *validation.Validator
	logger    *slog.Logger
}

// NewClubService creates a new club service.
func NewClubService(deps Deps, v *validation.Validator, logger *slog.Logger) *ClubService {
	return &ClubService{deps: deps.withDefaults(), validator: v, logger: logger}
}

// CreateClubRequest contains new club data.
type CreateClubRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=2000"`
}

// SetRoleRequest changes a member's role.
type SetRoleRequest struct {
	Role domain.Role `json:"role" validate:"required,oneof=ADMIN MEMBER"`
}

// CreateClub creates a club owned by userID.
func (s *ClubService) CreateClub(ctx context.Context, userID string, req CreateClubRequest) (*dto.Club, error) {
	req.Name = normalize.Text(req.Name)
	req.Description = normalize.Text(req.Description)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	clubID, err := id.Generate(id.PrefixClub)
	if err != nil {
		return nil, fmt.Errorf("generate club ID: %w", err)
	}

	now := s.deps.Now().UTC()
	club := &domain.Club{
		ID:          clubID,
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.deps.Store.WithTx(ctx, func(q store.Queries) error {
		if err := q.CreateClub(ctx, club); err != nil {
			return mapStoreErr(err, "club")
		}
		return mapStoreErr(q.SaveMembership(ctx, &domain.Membership{
			ClubID:   clubID,
			UserID:   userID,
			Role:     domain.RoleOwner,
			Status:   domain.MembershipActive,
			JoinedAt: now,
		}), "membership")
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("club created", "club_id", clubID, "owner_id", userID)

	return &dto.Club{Club: club, MyRole: domain.RoleOwner}, nil
}

// GetClub returns a club to one of its members.
func (s *ClubService) GetClub(ctx context.Context, clubID, userID string) (*dto.Club, error) {
	club, m, err := clubAccess(ctx, s.deps.Store, clubID, userID)
	if err != nil {
		return nil, err
	}

	view := &dto.Club{Club: club, MyRole: m.Role}
	if club.HasCurrentBook() {
		book, err := s.deps.Store.GetBook(ctx, *club.CurrentBookID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, mapStoreErr(err, "book")
		}
		if book != nil {
			summary := dto.NewBookSummary(book)
			view.CurrentBook = &summary
		}
	}
	return view, nil
}

// ListMyClubs returns the clubs userID is an active member of.
func (s *ClubService) ListMyClubs(ctx context.Context, userID string) ([]*domain.Club, error) {
	clubs, err := s.deps.Store.ListClubsForUser(ctx, userID)
	if err != nil {
		return nil, mapStoreErr(err, "clubs")
	}
	if clubs == nil {
		clubs = []*domain.Club{}
	}
	return clubs, nil
}

// JoinClub adds userID as a MEMBER. Joining again is a no-op; a member who
// left comes back as MEMBER.
func (s *ClubService) JoinClub(ctx context.Context, clubID, userID string) (*domain.Membership, error) {
	var (
		membership *domain.Membership
		joined     bool
	)

	err := s.deps.Store.WithTx(ctx, func(q store.Queries) error {
		if _, err := q.GetClub(ctx, clubID); err != nil {
			return mapStoreErr(err, "club")
		}

		existing, err := q.GetMembership(ctx, clubID, userID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return mapStoreErr(err, "membership")
		}
		if existing.IsActive() {
			membership = existing
			return nil
		}

		membership = &domain.Membership{
			ClubID:   clubID,
			UserID:   userID,
			Role:     domain.RoleMember,
			Status:   domain.MembershipActive,
			JoinedAt: s.deps.Now().UTC(),
		}
		joined = true
		return mapStoreErr(q.SaveMembership(ctx, membership), "membership")
	})
	if err != nil {
		return nil, err
	}

	if joined {
		s.logger.Info("member joined club", "club_id", clubID, "user_id", userID)
		s.deps.Events.Emit(sse.NewMemberEvent(sse.EventMemberJoined, clubID, userID, string(membership.Role)))
	}
	return membership, nil
}

// LeaveClub marks userID's membership LEFT. The owner cannot leave.
func (s *ClubService) LeaveClub(ctx context.Context, clubID, userID string) error {
	err := s.deps.Store.WithTx(ctx, func(q store.Queries) error {
		_, m, err := clubAccess(ctx, q, clubID, userID)
		if err != nil {
			return err
		}
		if m.Role == domain.RoleOwner {
			return domainerrors.Conflict("the club owner cannot leave the club")
		}
		m.Status = domain.MembershipLeft
		return mapStoreErr(q.SaveMembership(ctx, m), "membership")
	})
	if err != nil {
		return err
	}

	s.logger.Info("member left club", "club_id", clubID, "user_id", userID)
	s.deps.Events.Emit(sse.NewMemberEvent(sse.EventMemberLeft, clubID, userID, ""))
	return nil
}

// ListMembers returns the active members of a club.
func (s *ClubService) ListMembers(ctx context.Context, clubID, userID string) ([]dto.Member, error) {
	if _, _, err := clubAccess(ctx, s.deps.Store, clubID, userID); err != nil {
		return nil, err
	}

	members, err := s.deps.Store.ListActiveMembers(ctx, clubID)
	if err != nil {
		return nil, mapStoreErr(err, "members")
	}
	return dto.NewEnricher(s.deps.Store).EnrichMembers(ctx, members)
}

// SetMemberRole promotes or demotes a member. Only the owner may do this, and
// the owner's own role never changes.
func (s *ClubService) SetMemberRole(ctx context.Context, clubID, actorID, targetID string, req SetRoleRequest) (*domain.Membership, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	var target *domain.Membership
	err := s.deps.Store.WithTx(ctx, func(q store.Queries) error {
		_, actor, err := clubAccess(ctx, q, clubID, actorID)
		if err != nil {
			return err
		}
		if actor.Role != domain.RoleOwner {
			return domainerrors.InsufficientRole("only the club owner can change roles")
		}

		target, err = q.GetMembership(ctx, clubID, targetID)
		if err != nil {
			return mapStoreErr(err, "member")
		}
		if !target.IsActive() {
			return domainerrors.NotFound("member not found")
		}
		if target.Role == domain.RoleOwner {
			return domainerrors.Conflict("the owner's role cannot be changed")
		}

		target.Role = req.Role
		return mapStoreErr(q.SaveMembership(ctx, target), "membership")
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("member role changed",
		"club_id", clubID,
		"user_id", targetID,
		"role", req.Role,
		"changed_by", actorID,
	)
	s.deps.Events.Emit(sse.NewMemberEvent(sse.EventMemberRoleChanged, clubID, targetID, string(req.Role)))
	return target, nil
}

// IsActiveMember reports whether userID belongs to clubID. Lookup failures
// count as not a member. It backs the event stream's club filter.
func (s *ClubService) IsActiveMember(ctx context.Context, userID, clubID string) bool {
	m, err := s.deps.Store.GetMembership(ctx, clubID, userID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("membership lookup failed", "club_id", clubID, "user_id", userID, "error", err)
		}
		return false
	}
	return m.IsActive()
}
