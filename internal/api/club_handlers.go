package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bookcrush/bookcrush-server/internal/domain"
	"github.com/bookcrush/bookcrush-server/internal/dto"
	"github.com/bookcrush/bookcrush-server/internal/service"
)

func (s *Server) registerClubRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createClub",
		Method:        http.MethodPost,
		Path:          "/api/v1/clubs",
		Summary:       "Create club",
		Description:   "Creates a club owned by the caller",
		Tags:          []string{"Clubs"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateClub)

	huma.Register(s.api, huma.Operation{
		OperationID: "listClubs",
		Method:      http.MethodGet,
		Path:        "/api/v1/clubs",
		Summary:     "List my clubs",
		Description: "Returns the clubs the caller is an active member of",
		Tags:        []string{"Clubs"},
		Security:    bearerSecurity,
	}, s.handleListClubs)

	huma.Register(s.api, huma.Operation{
		OperationID: "getClub",
		Method:      http.MethodGet,
		Path:        "/api/v1/clubs/{clubId}",
		Summary:     "Get club",
		Description: "Returns a club to one of its members",
		Tags:        []string{"Clubs"},
		Security:    bearerSecurity,
	}, s.handleGetClub)

	huma.Register(s.api, huma.Operation{
		OperationID: "joinClub",
		Method:      http.MethodPost,
		Path:        "/api/v1/clubs/{clubId}/join",
		Summary:     "Join club",
		Description: "Joins a club as a MEMBER. Joining again is a no-op.",
		Tags:        []string{"Clubs"},
		Security:    bearerSecurity,
	}, s.handleJoinClub)

	huma.Register(s.api, huma.Operation{
		OperationID:   "leaveClub",
		Method:        http.MethodPost,
		Path:          "/api/v1/clubs/{clubId}/leave",
		Summary:       "Leave club",
		Description:   "Leaves a club. The owner cannot leave.",
		Tags:          []string{"Clubs"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusNoContent,
	}, s.handleLeaveClub)

	huma.Register(s.api, huma.Operation{
		OperationID: "listMembers",
		Method:      http.MethodGet,
		Path:        "/api/v1/clubs/{clubId}/members",
		Summary:     "List members",
		Description: "Returns the active members of a club",
		Tags:        []string{"Clubs"},
		Security:    bearerSecurity,
	}, s.handleListMembers)

	huma.Register(s.api, huma.Operation{
		OperationID: "setMemberRole",
		Method:      http.MethodPut,
		Path:        "/api/v1/clubs/{clubId}/members/{userId}/role",
		Summary:     "Set member role",
		Description: "Promotes a member to ADMIN or demotes an admin to MEMBER. Owner only.",
		Tags:        []string{"Clubs"},
		Security:    bearerSecurity,
	}, s.handleSetMemberRole)
}

// === DTOs ===

// ClubPathInput identifies a club.
type ClubPathInput struct {
	ClubID string `path:"clubId" doc:"Club ID"`
}

// CreateClubRequest is the request body for creating a club.
type CreateClubRequest struct {
	Name        string `json:"name" doc:"Club name"`
	Description string `json:"description,omitempty" doc:"What the club reads"`
}

// CreateClubInput wraps the create club request for Huma.
type CreateClubInput struct {
	Body CreateClubRequest
}

// ClubResponse contains club data in API responses.
type ClubResponse struct {
	ID                string            `json:"id" doc:"Club ID"`
	Name              string            `json:"name" doc:"Club name"`
	Description       string            `json:"description,omitempty" doc:"Club description"`
	OwnerID           string            `json:"owner_id" doc:"Owner user ID"`
	MyRole            domain.Role       `json:"my_role,omitempty" doc:"Caller's role in the club"`
	State             domain.CycleState `json:"state" doc:"NO_CYCLE or CYCLE_OPEN"`
	VotingCycleActive bool              `json:"voting_cycle_active" doc:"Whether a voting cycle is open"`
	VotingStartsAt    *time.Time        `json:"voting_starts_at" doc:"Start of the open cycle"`
	VotingEndsAt      *time.Time        `json:"voting_ends_at" doc:"End of the open cycle"`
	VotingStartedBy   *string           `json:"voting_started_by" doc:"User who opened the cycle"`
	CurrentBookID     *string           `json:"current_book_id" doc:"Book the club is reading"`
	CurrentBook       *dto.BookSummary  `json:"current_book,omitempty" doc:"Book the club is reading"`
	CreatedAt         time.Time         `json:"created_at" doc:"Creation timestamp"`
	UpdatedAt         time.Time         `json:"updated_at" doc:"Last update timestamp"`
}

// ClubOutput wraps a club for Huma.
type ClubOutput struct {
	Body ClubResponse
}

// ClubListOutput wraps a club list for Huma.
type ClubListOutput struct {
	Body []ClubResponse
}

// MembershipResponse is one user's standing in a club.
type MembershipResponse struct {
	ClubID   string                  `json:"club_id" doc:"Club ID"`
	UserID   string                  `json:"user_id" doc:"User ID"`
	Role     domain.Role             `json:"role" doc:"OWNER, ADMIN or MEMBER"`
	Status   domain.MembershipStatus `json:"status" doc:"ACTIVE or LEFT"`
	JoinedAt time.Time               `json:"joined_at" doc:"When the user joined"`
}

// MembershipOutput wraps a membership for Huma.
type MembershipOutput struct {
	Body MembershipResponse
}

// MemberListOutput wraps the member directory for Huma.
type MemberListOutput struct {
	Body []dto.Member
}

// SetRoleRequest is the request body for changing a member's role.
type SetRoleRequest struct {
	Role domain.Role `json:"role" enum:"ADMIN,MEMBER" doc:"New role"`
}

// SetRoleInput wraps the set role request for Huma.
type SetRoleInput struct {
	ClubID string `path:"clubId" doc:"Club ID"`
	UserID string `path:"userId" doc:"Member user ID"`
	Body   SetRoleRequest
}

// === Handlers ===

func (s *Server) handleCreateClub(ctx context.Context, input *CreateClubInput) (*ClubOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	club, err := s.services.Club.CreateClub(ctx, userID, service.CreateClubRequest{
		Name:        input.Body.Name,
		Description: input.Body.Description,
	})
	if err != nil {
		return nil, err
	}
	return &ClubOutput{Body: mapClub(club.Club, club.MyRole, club.CurrentBook)}, nil
}

func (s *Server) handleListClubs(ctx context.Context, _ *struct{}) (*ClubListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	clubs, err := s.services.Club.ListMyClubs(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]ClubResponse, 0, len(clubs))
	for _, c := range clubs {
		out = append(out, mapClub(c, "", nil))
	}
	return &ClubListOutput{Body: out}, nil
}

func (s *Server) handleGetClub(ctx context.Context, input *ClubPathInput) (*ClubOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	club, err := s.services.Club.GetClub(ctx, input.ClubID, userID)
	if err != nil {
		return nil, err
	}
	return &ClubOutput{Body: mapClub(club.Club, club.MyRole, club.CurrentBook)}, nil
}

func (s *Server) handleJoinClub(ctx context.Context, input *ClubPathInput) (*MembershipOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	m, err := s.services.Club.JoinClub(ctx, input.ClubID, userID)
	if err != nil {
		return nil, err
	}
	return &MembershipOutput{Body: mapMembership(m)}, nil
}

func (s *Server) handleLeaveClub(ctx context.Context, input *ClubPathInput) (*struct{}, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Club.LeaveClub(ctx, input.ClubID, userID); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleListMembers(ctx context.Context, input *ClubPathInput) (*MemberListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	members, err := s.services.Club.ListMembers(ctx, input.ClubID, userID)
	if err != nil {
		return nil, err
	}
	return &MemberListOutput{Body: members}, nil
}

func (s *Server) handleSetMemberRole(ctx context.Context, input *SetRoleInput) (*MembershipOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	m, err := s.services.Club.SetMemberRole(ctx, input.ClubID, userID, input.UserID, service.SetRoleRequest{
		Role: input.Body.Role,
	})
	if err != nil {
		return nil, err
	}
	return &MembershipOutput{Body: mapMembership(m)}, nil
}

// === Helpers ===

func mapClub(c *domain.Club, role domain.Role, current *dto.BookSummary) ClubResponse {
	return ClubResponse{
		ID:                c.ID,
		Name:              c.Name,
		Description:       c.Description,
		OwnerID:           c.OwnerID,
		MyRole:            role,
		State:             c.CycleState(),
		VotingCycleActive: c.VotingCycleActive,
		VotingStartsAt:    c.VotingStartsAt,
		VotingEndsAt:      c.VotingEndsAt,
		VotingStartedBy:   c.VotingStartedBy,
		CurrentBookID:     c.CurrentBookID,
		CurrentBook:       current,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}

func mapMembership(m *domain.Membership) MembershipResponse {
	return MembershipResponse{
		ClubID:   m.ClubID,
		UserID:   m.UserID,
		Role:     m.Role,
		Status:   m.Status,
		JoinedAt: m.JoinedAt,
	}
}
