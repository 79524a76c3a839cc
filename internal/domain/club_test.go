package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/bookcrush/bookcrush-server/internal/errors"
)

func strPtr(s string) *string { return &s }

func TestRole(t *testing.T) {
	assert.True(t, RoleOwner.CanManage())
	assert.True(t, RoleAdmin.CanManage())
	assert.False(t, RoleMember.CanManage())
	assert.False(t, Role("GUEST").Valid())
	assert.True(t, RoleMember.Valid())
}

func TestMembership_IsActive(t *testing.T) {
	var m *Membership
	assert.False(t, m.IsActive())
	assert.True(t, (&Membership{Status: MembershipActive}).IsActive())
	assert.False(t, (&Membership{Status: MembershipLeft}).IsActive())
}

func TestClub_CheckCanStart(t *testing.T) {
	t0 := time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)
	t1 := t0.Add(7 * 24 * time.Hour)

	tests := []struct {
		name    string
		club    Club
		starts  time.Time
		ends    time.Time
		wantErr error
	}{
		{"fresh club", Club{}, t0, t1, nil},
		{"end before start", Club{}, t1, t0, domainerrors.ErrInvalidWindow},
		{"end equals start", Club{}, t0, t0, domainerrors.ErrInvalidWindow},
		{"current book set", Club{CurrentBookID: strPtr("book-1")}, t0, t1, domainerrors.ErrBookAlreadySelected},
		{"cycle open", Club{VotingCycleActive: true}, t0, t1, domainerrors.ErrCycleAlreadyActive},
		{"book wins over open cycle", Club{CurrentBookID: strPtr("b"), VotingCycleActive: true}, t0, t1, domainerrors.ErrBookAlreadySelected},
		{"window wins over book", Club{CurrentBookID: strPtr("b")}, t1, t0, domainerrors.ErrInvalidWindow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.club.CheckCanStart(tt.starts, tt.ends)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestClub_OpenAndCloseCycle(t *testing.T) {
	now := time.Now()
	t0 := now.Add(time.Hour)
	t1 := now.Add(48 * time.Hour)

	c := &Club{ID: "club-1"}
	require.Equal(t, CycleNone, c.CycleState())

	c.OpenCycle(t0, t1, "usr-owner", now)
	assert.Equal(t, CycleOpen, c.CycleState())
	require.NotNil(t, c.VotingStartsAt)
	assert.True(t, c.VotingStartsAt.Equal(t0))
	assert.Equal(t, "usr-owner", *c.VotingStartedBy)

	c.CloseCycle(now)
	assert.Equal(t, CycleNone, c.CycleState())
	assert.Nil(t, c.VotingStartsAt)
	assert.Nil(t, c.VotingEndsAt)
	assert.Nil(t, c.VotingStartedBy)
}

func TestClub_SelectAndFinishBook(t *testing.T) {
	now := time.Now()

	open := &Club{VotingCycleActive: true}
	assert.ErrorIs(t, open.SelectBook("b1", now), domainerrors.ErrCycleAlreadyActive)

	c := &Club{}
	require.NoError(t, c.SelectBook("b1", now))
	assert.True(t, c.HasCurrentBook())
	assert.ErrorIs(t, c.SelectBook("b2", now), domainerrors.ErrBookAlreadySelected)

	assert.True(t, c.FinishBook(now))
	assert.False(t, c.HasCurrentBook())
	assert.False(t, c.FinishBook(now))
}
