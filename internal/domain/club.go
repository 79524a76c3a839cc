package domain

import (
	"time"

	domainerrors "github.com/bookcrush/bookcrush-server/internal/errors"
)

// Role is a member's role inside a club.
type Role string

// Club roles.
const (
	RoleOwner  Role = "OWNER"
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember:
		return true
	}
	return false
}

// CanManage reports whether the role may run voting cycles and pick books.
func (r Role) CanManage() bool {
	return r == RoleOwner || r == RoleAdmin
}

// MembershipStatus tracks whether a member is still in the club.
type MembershipStatus string

// Membership statuses.
const (
	MembershipActive MembershipStatus = "ACTIVE"
	MembershipLeft   MembershipStatus = "LEFT"
)

// Membership links a user to a club.
type Membership struct {
	JoinedAt time.Time        `json:"joined_at"`
	ClubID   string           `json:"club_id"`
	UserID   string           `json:"user_id"`
	Role     Role             `json:"role"`
	Status   MembershipStatus `json:"status"`
}

// IsActive reports whether the membership grants access to the club.
func (m *Membership) IsActive() bool {
	return m != nil && m.Status == MembershipActive
}

// CycleState is the derived state of a club's voting cycle.
type CycleState string

// Cycle states.
const (
	CycleNone CycleState = "NO_CYCLE"
	CycleOpen CycleState = "CYCLE_OPEN"
)

// Club is a reading group. The voting fields are only changed through
// OpenCycle and CloseCycle.
type Club struct {
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	VotingStartsAt    *time.Time `json:"voting_starts_at"`
	VotingEndsAt      *time.Time `json:"voting_ends_at"`
	CurrentBookID     *string    `json:"current_book_id"`
	VotingStartedBy   *string    `json:"voting_started_by"`
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Description       string     `json:"description,omitempty"`
	OwnerID           string     `json:"owner_id"`
	VotingCycleActive bool       `json:"voting_cycle_active"`
}

// CycleState returns NO_CYCLE or CYCLE_OPEN.
func (c *Club) CycleState() CycleState {
	if c.VotingCycleActive {
		return CycleOpen
	}
	return CycleNone
}

// HasCurrentBook reports whether the club is reading a book.
func (c *Club) HasCurrentBook() bool {
	return c.CurrentBookID != nil && *c.CurrentBookID != ""
}

// CheckCanStart validates a new cycle window against the club's state. The
// first failing condition wins: window, then current book, then open cycle.
func (c *Club) CheckCanStart(startsAt, endsAt time.Time) error {
	if !endsAt.After(startsAt) {
		return domainerrors.InvalidWindow("voting_ends_at must be after voting_starts_at")
	}
	if c.HasCurrentBook() {
		return domainerrors.BookAlreadySelected("club is already reading a book")
	}
	if c.VotingCycleActive {
		return domainerrors.CycleAlreadyActive("a voting cycle is already active")
	}
	return nil
}

// OpenCycle opens a voting cycle. Call CheckCanStart first.
func (c *Club) OpenCycle(startsAt, endsAt time.Time, startedBy string, now time.Time) {
	s, e, by := startsAt.UTC(), endsAt.UTC(), startedBy
	c.VotingCycleActive = true
	c.VotingStartsAt = &s
	c.VotingEndsAt = &e
	c.VotingStartedBy = &by
	c.UpdatedAt = now
}

// CloseCycle clears every voting field.
func (c *Club) CloseCycle(now time.Time) {
	c.VotingCycleActive = false
	c.VotingStartsAt = nil
	c.VotingEndsAt = nil
	c.VotingStartedBy = nil
	c.UpdatedAt = now
}

// SelectBook sets the current book. Refused while a cycle is open or a book is
// already selected.
func (c *Club) SelectBook(bookID string, now time.Time) error {
	if c.VotingCycleActive {
		return domainerrors.CycleAlreadyActive("end the voting cycle before selecting a book")
	}
	if c.HasCurrentBook() {
		return domainerrors.BookAlreadySelected("club is already reading a book")
	}
	c.CurrentBookID = &bookID
	c.UpdatedAt = now
	return nil
}

// FinishBook clears the current book. It reports false when there was none.
func (c *Club) FinishBook(now time.Time) bool {
	if !c.HasCurrentBook() {
		return false
	}
	c.CurrentBookID = nil
	c.UpdatedAt = now
	return true
}
