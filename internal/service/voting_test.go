package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookcrush/bookcrush-server/internal/domain"
	domainerrors "github.com/bookcrush/bookcrush-server/internal/errors"
	"github.com/bookcrush/bookcrush-server/internal/sse"
)

func TestStartCycle(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t, "owner")
	club := env.club(t, owner)

	starts := env.now
	ends := starts.Add(72 * time.Hour)
	view, err := env.voting.StartCycle(context.Background(), club, owner, StartVotingRequest{
		VotingStartsAt: starts,
		VotingEndsAt:   ends,
	})
	require.NoError(t, err)

	assert.True(t, view.VotingCycleActive)
	assert.Equal(t, domain.CycleOpen, view.State)
	assert.True(t, view.VotingStartsAt.Equal(starts))
	assert.True(t, view.VotingEndsAt.Equal(ends))
	assert.Equal(t, owner, *view.VotingStartedBy)
	assert.Equal(t, 1, env.metrics.started)
	assert.Contains(t, env.events.types(), sse.EventVotingStarted)

	got, err := env.voting.GetCycle(context.Background(), club, owner)
	require.NoError(t, err)
	assert.True(t, got.VotingCycleActive)
}

func TestStartCycle_Preconditions(t *testing.T) {
	ctx := context.Background()

	t.Run("member lacks role", func(t *testing.T) {
		env := newTestEnv(t)
		owner := env.user(t, "owner")
		alice := env.user(t, "alice")
		club := env.club(t, owner, alice)

		_, err := env.voting.StartCycle(ctx, club, alice, StartVotingRequest{VotingStartsAt: env.now, VotingEndsAt: env.now.Add(time.Hour)})
		assert.ErrorIs(t, err, domainerrors.ErrInsufficientRole)
	})

	t.Run("non-member lacks role", func(t *testing.T) {
		env := newTestEnv(t)
		owner := env.user(t, "owner")
		stranger := env.user(t, "stranger")
		club := env.club(t, owner)

		_, err := env.voting.StartCycle(ctx, club, stranger, StartVotingRequest{VotingStartsAt: env.now, VotingEndsAt: env.now.Add(time.Hour)})
		assert.ErrorIs(t, err, domainerrors.ErrInsufficientRole)
	})

	t.Run("role checked before window", func(t *testing.T) {
		env := newTestEnv(t)
		owner := env.user(t, "owner")
		alice := env.user(t, "alice")
		club := env.club(t, owner, alice)

		_, err := env.voting.StartCycle(ctx, club, alice, StartVotingRequest{VotingStartsAt: env.now, VotingEndsAt: env.now})
		assert.ErrorIs(t, err, domainerrors.ErrInsufficientRole)
	})

	t.Run("invalid window", func(t *testing.T) {
		env := newTestEnv(t)
		owner := env.user(t, "owner")
		club := env.club(t, owner)

		for _, end := range []time.Time{env.now, env.now.Add(-time.Minute)} {
			_, err := env.voting.StartCycle(ctx, club, owner, StartVotingRequest{VotingStartsAt: env.now, VotingEndsAt: end})
			assert.ErrorIs(t, err, domainerrors.ErrInvalidWindow)
		}
	})

	t.Run("admin may start", func(t *testing.T) {
		env := newTestEnv(t)
		owner := env.user(t, "owner")
		alice := env.user(t, "alice")
		club := env.club(t, owner, alice)
		_, err := env.clubs.SetMemberRole(ctx, club, owner, alice, SetRoleRequest{Role: domain.RoleAdmin})
		require.NoError(t, err)

		env.startCycle(t, club, alice)
	})

	t.Run("already active", func(t *testing.T) {
		env := newTestEnv(t)
		owner := env.user(t, "owner")
		club := env.club(t, owner)
		env.startCycle(t, club, owner)

		_, err := env.voting.StartCycle(ctx, club, owner, StartVotingRequest{VotingStartsAt: env.now, VotingEndsAt: env.now.Add(time.Hour)})
		assert.ErrorIs(t, err, domainerrors.ErrCycleAlreadyActive)
	})
}

// A club that is reading a book cannot start voting, and its voting fields
// stay untouched.
func TestStartCycle_BookAlreadySelected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner")
	club := env.club(t, owner)
	book := env.book(t, "b1", "One")

	_, err := env.voting.SelectBook(ctx, club, owner, SelectBookRequest{BookID: book})
	require.NoError(t, err)

	before, err := env.store.GetClub(ctx, club)
	require.NoError(t, err)

	_, err = env.voting.StartCycle(ctx, club, owner, StartVotingRequest{VotingStartsAt: env.now, VotingEndsAt: env.now.Add(time.Hour)})
	require.ErrorIs(t, err, domainerrors.ErrBookAlreadySelected)

	after, err := env.store.GetClub(ctx, club)
	require.NoError(t, err)
	assert.False(t, after.VotingCycleActive)
	assert.Nil(t, after.VotingStartsAt)
	assert.Nil(t, after.VotingEndsAt)
	assert.Nil(t, after.VotingStartedBy)
	assert.Equal(t, before.UpdatedAt, after.UpdatedAt)
}

// A tie at the maximum keeps every tied suggestion ACTIVE.
func TestEndCycle_TieKeepsAllWinners(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner")
	voters := []string{env.user(t, "v1"), env.user(t, "v2"), env.user(t, "v3")}
	club := env.club(t, owner, voters...)
	dune := env.book(t, "b-dune", "Dune")
	foundation := env.book(t, "b-foundation", "Foundation")

	env.startCycle(t, club, owner)
	s1 := env.suggest(t, club, owner, dune)
	s2 := env.suggest(t, club, voters[0], foundation)
	env.vote(t, club, s1, voters...)
	env.vote(t, club, s2, voters...)

	res, err := env.voting.EndCycle(ctx, club, owner)
	require.NoError(t, err)

	var got []string
	for _, w := range res.WinningBookSuggestions {
		got = append(got, fmt.Sprintf("%s:%s:%d", w.ID, w.Book.Title, w.VoteCount))
	}
	want := []string{s1 + ":Dune:3", s2 + ":Foundation:3"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("winners mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, domain.SuggestionActive, env.status(t, s1))
	assert.Equal(t, domain.SuggestionActive, env.status(t, s2))

	assert.False(t, res.Club.VotingCycleActive)
	assert.Equal(t, domain.CycleNone, res.Club.State)
	assert.Nil(t, res.Club.VotingStartsAt)
	assert.Nil(t, res.Club.VotingEndsAt)
	assert.Nil(t, res.Club.VotingStartedBy)

	assert.Equal(t, []int{2}, env.metrics.ended)
}

// With no votes cast every ACTIVE suggestion expires.
func TestEndCycle_ZeroVotesExpireAll(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner")
	club := env.club(t, owner)

	env.startCycle(t, club, owner)
	s3 := env.suggest(t, club, owner, env.book(t, "b-1984", "1984"))

	res, err := env.voting.EndCycle(ctx, club, owner)
	require.NoError(t, err)

	assert.NotNil(t, res.WinningBookSuggestions)
	assert.Empty(t, res.WinningBookSuggestions)
	assert.Equal(t, domain.SuggestionExpired, env.status(t, s3))
	assert.Contains(t, env.events.types(), sse.EventVotingEnded)
}

func TestEndCycle_WinnerAndRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner")
	a := env.user(t, "a")
	b := env.user(t, "b")
	club := env.club(t, owner, a, b)

	env.startCycle(t, club, owner)
	win := env.suggest(t, club, a, env.book(t, "b1", "One"))
	lose := env.suggest(t, club, b, env.book(t, "b2", "Two"))
	zero := env.suggest(t, club, owner, env.book(t, "b3", "Three"))
	env.vote(t, club, win, a, b)
	env.vote(t, club, lose, b)

	res, err := env.voting.EndCycle(ctx, club, owner)
	require.NoError(t, err)

	require.Len(t, res.WinningBookSuggestions, 1)
	assert.Equal(t, win, res.WinningBookSuggestions[0].ID)
	assert.Equal(t, 2, res.WinningBookSuggestions[0].VoteCount)

	assert.Equal(t, domain.SuggestionActive, env.status(t, win))
	assert.Equal(t, domain.SuggestionRejected, env.status(t, lose))
	assert.Equal(t, domain.SuggestionRejected, env.status(t, zero))
}

func TestEndCycle_Preconditions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner")
	alice := env.user(t, "alice")
	club := env.club(t, owner, alice)

	_, err := env.voting.EndCycle(ctx, club, owner)
	assert.ErrorIs(t, err, domainerrors.ErrNoCycleActive)

	env.startCycle(t, club, owner)
	_, err = env.voting.EndCycle(ctx, club, alice)
	assert.ErrorIs(t, err, domainerrors.ErrInsufficientRole)

	_, err = env.voting.EndCycle(ctx, club, owner)
	require.NoError(t, err)
	_, err = env.voting.EndCycle(ctx, club, owner)
	assert.ErrorIs(t, err, domainerrors.ErrNoCycleActive)
}

// Every ACTIVE suggestion gets an outcome, and votes racing the close-out are
// either counted or refused, never lost.
func TestEndCycle_ConcurrentVotes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner")

	var voters []string
	for i := range 8 {
		voters = append(voters, env.user(t, fmt.Sprintf("v%d", i)))
	}
	club := env.club(t, owner, voters...)

	env.startCycle(t, club, owner)
	s1 := env.suggest(t, club, owner, env.book(t, "b1", "One"))
	s2 := env.suggest(t, club, voters[0], env.book(t, "b2", "Two"))
	env.vote(t, club, s1, owner)

	var (
		wg       sync.WaitGroup
		accepted = make(chan struct{}, len(voters))
	)
	for _, v := range voters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := env.votes.CastVote(ctx, club, s2, v); err == nil {
				accepted <- struct{}{}
			}
		}()
	}

	res, endErr := env.voting.EndCycle(ctx, club, owner)
	wg.Wait()
	close(accepted)
	require.NoError(t, endErr)

	counted, err := env.votes.CountVotes(ctx, s2)
	require.NoError(t, err)
	assert.Equal(t, len(accepted), counted, "every accepted vote is stored")

	for _, id := range []string{s1, s2} {
		st := env.status(t, id)
		assert.Contains(t, []domain.SuggestionStatus{domain.SuggestionActive, domain.SuggestionRejected}, st)
	}
	assert.NotEmpty(t, res.WinningBookSuggestions)
}

func TestSelectBook(t *testing.T) {
	ctx := context.Background()

	t.Run("from winning suggestion", func(t *testing.T) {
		env := newTestEnv(t)
		owner := env.user(t, "owner")
		club := env.club(t, owner)
		book := env.book(t, "b1", "One")

		env.startCycle(t, club, owner)
		s := env.suggest(t, club, owner, book)
		env.vote(t, club, s, owner)

		_, err := env.voting.SelectBook(ctx, club, owner, SelectBookRequest{SuggestionID: s})
		assert.ErrorIs(t, err, domainerrors.ErrCycleAlreadyActive)

		_, err = env.voting.EndCycle(ctx, club, owner)
		require.NoError(t, err)

		view, err := env.voting.SelectBook(ctx, club, owner, SelectBookRequest{SuggestionID: s})
		require.NoError(t, err)
		assert.Equal(t, book, *view.CurrentBookID)
		assert.Equal(t, domain.SuggestionActive, env.status(t, s))
		assert.Equal(t, 1, env.metrics.selected)

		_, err = env.voting.SelectBook(ctx, club, owner, SelectBookRequest{SuggestionID: s})
		assert.ErrorIs(t, err, domainerrors.ErrBookAlreadySelected)
	})

	t.Run("needs exactly one reference", func(t *testing.T) {
		env := newTestEnv(t)
		owner := env.user(t, "owner")
		club := env.club(t, owner)

		_, err := env.voting.SelectBook(ctx, club, owner, SelectBookRequest{})
		assert.ErrorIs(t, err, domainerrors.ErrValidation)
		_, err = env.voting.SelectBook(ctx, club, owner, SelectBookRequest{SuggestionID: "a", BookID: "b"})
		assert.ErrorIs(t, err, domainerrors.ErrValidation)
	})

	t.Run("rejected suggestion refused", func(t *testing.T) {
		env := newTestEnv(t)
		owner := env.user(t, "owner")
		club := env.club(t, owner)

		env.startCycle(t, club, owner)
		s := env.suggest(t, club, owner, env.book(t, "b1", "One"))
		_, err := env.voting.EndCycle(ctx, club, owner)
		require.NoError(t, err)

		_, err = env.voting.SelectBook(ctx, club, owner, SelectBookRequest{SuggestionID: s})
		assert.ErrorIs(t, err, domainerrors.ErrValidation)
	})

	t.Run("members cannot select", func(t *testing.T) {
		env := newTestEnv(t)
		owner := env.user(t, "owner")
		alice := env.user(t, "alice")
		club := env.club(t, owner, alice)
		book := env.book(t, "b1", "One")

		_, err := env.voting.SelectBook(ctx, club, alice, SelectBookRequest{BookID: book})
		assert.ErrorIs(t, err, domainerrors.ErrInsufficientRole)
	})

	t.Run("unknown book", func(t *testing.T) {
		env := newTestEnv(t)
		owner := env.user(t, "owner")
		club := env.club(t, owner)

		_, err := env.voting.SelectBook(ctx, club, owner, SelectBookRequest{BookID: "book-missing"})
		assert.ErrorIs(t, err, domainerrors.ErrNotFound)
	})
}

func TestFinishBook_AllowsNextCycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner")
	club := env.club(t, owner)
	book := env.book(t, "b1", "One")

	_, err := env.voting.FinishBook(ctx, club, owner)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	_, err = env.voting.SelectBook(ctx, club, owner, SelectBookRequest{BookID: book})
	require.NoError(t, err)

	view, err := env.voting.FinishBook(ctx, club, owner)
	require.NoError(t, err)
	assert.Nil(t, view.CurrentBookID)
	assert.Contains(t, env.events.types(), sse.EventBookFinished)

	env.startCycle(t, club, owner)
}
