package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookcrush/bookcrush-server/internal/domain"
	domainerrors "github.com/bookcrush/bookcrush-server/internal/errors"
	"github.com/bookcrush/bookcrush-server/internal/sse"
)

func TestCreateSuggestion_Success(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t, "owner")
	alice := env.user(t, "alice")
	dune := env.book(t, "book-dune", "Dune")
	club := env.club(t, owner, alice)
	env.startCycle(t, club, owner)

	reason := "  A classic.\n\nRead it twice.  "
	view, err := env.suggestions.CreateSuggestion(context.Background(), club, alice, CreateSuggestionRequest{
		BookID: dune,
		Reason: &reason,
	})
	require.NoError(t, err)

	assert.Equal(t, dune, view.Book.ID)
	assert.Equal(t, "Dune", view.Book.Title)
	assert.Equal(t, alice, view.SuggestedBy.ID)
	assert.Equal(t, "User alice", view.SuggestedBy.DisplayName)
	assert.Equal(t, domain.SuggestionActive, view.Status)
	assert.Equal(t, 0, view.VoteCount)
	assert.False(t, view.HasVoted)
	require.NotNil(t, view.Reason)
	assert.Equal(t, "A classic.\n\nRead it twice.", *view.Reason)
	assert.Equal(t, view.CreatedAt.Add(14*24*time.Hour), view.VotingEnds)

	assert.Equal(t, 1, env.metrics.suggestions)
	assert.Contains(t, env.events.types(), sse.EventSuggestionCreated)
}

func TestCreateSuggestion_RequiresBookID(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t, "owner")
	club := env.club(t, owner)

	_, err := env.suggestions.CreateSuggestion(context.Background(), club, owner, CreateSuggestionRequest{BookID: "  "})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestCreateSuggestion_NonMemberDenied(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t, "owner")
	stranger := env.user(t, "stranger")
	dune := env.book(t, "book-dune", "Dune")
	club := env.club(t, owner)

	_, err := env.suggestions.CreateSuggestion(context.Background(), club, stranger, CreateSuggestionRequest{BookID: dune})
	assert.ErrorIs(t, err, domainerrors.ErrAccessDenied)

	// A member who left loses access too.
	_, err = env.clubs.JoinClub(context.Background(), club, stranger)
	require.NoError(t, err)
	require.NoError(t, env.clubs.LeaveClub(context.Background(), club, stranger))
	_, err = env.suggestions.CreateSuggestion(context.Background(), club, stranger, CreateSuggestionRequest{BookID: dune})
	assert.ErrorIs(t, err, domainerrors.ErrAccessDenied)
}

func TestCreateSuggestion_UnknownClubAndBook(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t, "owner")
	club := env.club(t, owner)
	env.startCycle(t, club, owner)

	_, err := env.suggestions.CreateSuggestion(context.Background(), "club-missing", owner, CreateSuggestionRequest{BookID: "x"})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	_, err = env.suggestions.CreateSuggestion(context.Background(), club, owner, CreateSuggestionRequest{BookID: "book-missing"})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

// A member holding two ACTIVE suggestions cannot add a third.
func TestCreateSuggestion_PerUserLimit(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t, "owner")
	u := env.user(t, "u")
	club := env.club(t, owner, u)
	b1 := env.book(t, "b1", "One")
	b2 := env.book(t, "b2", "Two")
	b3 := env.book(t, "b3", "Three")

	env.startCycle(t, club, owner)
	env.suggest(t, club, u, b1)
	env.suggest(t, club, u, b2)

	_, err := env.suggestions.CreateSuggestion(context.Background(), club, u, CreateSuggestionRequest{BookID: b3})
	require.ErrorIs(t, err, domainerrors.ErrSuggestionLimitExceeded)

	n, err := env.store.CountActiveSuggestionsByUser(context.Background(), club, u)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Another member is unaffected.
	env.suggest(t, club, owner, b3)
}

// The same book cannot be suggested twice while an ACTIVE suggestion holds it.
func TestCreateSuggestion_Duplicate(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t, "owner")
	u := env.user(t, "u")
	u2 := env.user(t, "u2")
	club := env.club(t, owner, u, u2)
	book42 := env.book(t, "book-42", "The Answer")

	env.startCycle(t, club, owner)
	env.suggest(t, club, u, book42)

	_, err := env.suggestions.CreateSuggestion(context.Background(), club, u2, CreateSuggestionRequest{BookID: book42})
	assert.ErrorIs(t, err, domainerrors.ErrDuplicateSuggestion)
}

func TestCreateSuggestion_DuplicateCheckedBeforeLimit(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t, "owner")
	u := env.user(t, "u")
	club := env.club(t, owner, u)
	b1 := env.book(t, "b1", "One")
	b2 := env.book(t, "b2", "Two")

	env.startCycle(t, club, owner)
	env.suggest(t, club, u, b1)
	env.suggest(t, club, u, b2)

	_, err := env.suggestions.CreateSuggestion(context.Background(), club, u, CreateSuggestionRequest{BookID: b1})
	assert.ErrorIs(t, err, domainerrors.ErrDuplicateSuggestion)
}

func TestCreateSuggestion_RefusedWhileReading(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t, "owner")
	club := env.club(t, owner)
	b1 := env.book(t, "b1", "One")
	b2 := env.book(t, "b2", "Two")

	_, err := env.voting.SelectBook(context.Background(), club, owner, SelectBookRequest{BookID: b1})
	require.NoError(t, err)

	_, err = env.suggestions.CreateSuggestion(context.Background(), club, owner, CreateSuggestionRequest{BookID: b2})
	assert.ErrorIs(t, err, domainerrors.ErrBookAlreadySelected)
}

func TestCreateSuggestion_AgainAfterRejection(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t, "owner")
	club := env.club(t, owner)
	b1 := env.book(t, "b1", "One")
	b2 := env.book(t, "b2", "Two")

	env.startCycle(t, club, owner)
	s1 := env.suggest(t, club, owner, b1)
	s2 := env.suggest(t, club, owner, b2)
	env.vote(t, club, s1, owner)
	_, err := env.voting.EndCycle(context.Background(), club, owner)
	require.NoError(t, err)
	require.Equal(t, domain.SuggestionRejected, env.status(t, s2))

	// b2 is free again; owner still has one ACTIVE winner, so one slot remains.
	env.startCycle(t, club, owner)
	env.suggest(t, club, owner, b2)
}

func TestCreateSuggestion_RequiresOpenCycle(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t, "owner")
	club := env.club(t, owner)
	b1 := env.book(t, "b1", "One")

	_, err := env.suggestions.CreateSuggestion(context.Background(), club, owner, CreateSuggestionRequest{BookID: b1})
	require.ErrorIs(t, err, domainerrors.ErrNoCycleActive)

	n, err := env.store.CountActiveSuggestionsByUser(context.Background(), club, owner)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, env.metrics.suggestions)

	// Once voting opens the same request succeeds.
	env.startCycle(t, club, owner)
	env.suggest(t, club, owner, b1)

	// Closing the cycle shuts the registry again.
	_, err = env.voting.EndCycle(context.Background(), club, owner)
	require.NoError(t, err)
	_, err = env.suggestions.CreateSuggestion(context.Background(), club, owner, CreateSuggestionRequest{BookID: env.book(t, "b2", "Two")})
	assert.ErrorIs(t, err, domainerrors.ErrNoCycleActive)
}

func TestCreateSuggestion_NoCycleCheckedLast(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t, "owner")
	club := env.club(t, owner)
	b1 := env.book(t, "b1", "One")
	b2 := env.book(t, "b2", "Two")
	b3 := env.book(t, "b3", "Three")

	// A tie keeps both suggestions ACTIVE after the cycle closes.
	env.startCycle(t, club, owner)
	s1 := env.suggest(t, club, owner, b1)
	s2 := env.suggest(t, club, owner, b2)
	env.vote(t, club, s1, owner)
	env.vote(t, club, s2, owner)
	_, err := env.voting.EndCycle(context.Background(), club, owner)
	require.NoError(t, err)
	require.Equal(t, domain.SuggestionActive, env.status(t, s1))
	require.Equal(t, domain.SuggestionActive, env.status(t, s2))

	_, err = env.suggestions.CreateSuggestion(context.Background(), club, owner, CreateSuggestionRequest{BookID: b1})
	assert.ErrorIs(t, err, domainerrors.ErrDuplicateSuggestion)

	_, err = env.suggestions.CreateSuggestion(context.Background(), club, owner, CreateSuggestionRequest{BookID: b3})
	assert.ErrorIs(t, err, domainerrors.ErrSuggestionLimitExceeded)

	_, err = env.suggestions.CreateSuggestion(context.Background(), club, owner, CreateSuggestionRequest{BookID: "book-missing"})
	assert.ErrorIs(t, err, domainerrors.ErrSuggestionLimitExceeded)
}

func TestCreateSuggestion_ReasonLimitCountsCharacters(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t, "owner")
	club := env.club(t, owner)
	env.startCycle(t, club, owner)

	// 1000 three-byte runes: 3000 bytes but well under the limit.
	wide := strings.Repeat("読", 1000)
	view, err := env.suggestions.CreateSuggestion(context.Background(), club, owner, CreateSuggestionRequest{
		BookID: env.book(t, "b1", "One"),
		Reason: &wide,
	})
	require.NoError(t, err)
	require.NotNil(t, view.Reason)
	assert.Equal(t, wide, *view.Reason)

	exact := strings.Repeat("é", 2000)
	_, err = env.suggestions.CreateSuggestion(context.Background(), club, owner, CreateSuggestionRequest{
		BookID: env.book(t, "b2", "Two"),
		Reason: &exact,
	})
	require.NoError(t, err)

	tooLong := strings.Repeat("é", 2001)
	_, err = env.suggestions.CreateSuggestion(context.Background(), club, owner, CreateSuggestionRequest{
		BookID: env.book(t, "b3", "Three"),
		Reason: &tooLong,
	})
	require.ErrorIs(t, err, domainerrors.ErrValidation)
	var de *domainerrors.Error
	require.ErrorAs(t, err, &de)
	assert.Contains(t, de.Details, "reason")
}

func TestCreateSuggestion_BlankReasonDropped(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t, "owner")
	club := env.club(t, owner)
	env.startCycle(t, club, owner)

	blank := " \n\t "
	view, err := env.suggestions.CreateSuggestion(context.Background(), club, owner, CreateSuggestionRequest{
		BookID: env.book(t, "b1", "One"),
		Reason: &blank,
	})
	require.NoError(t, err)
	assert.Nil(t, view.Reason)
}

func TestListSuggestions(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t, "owner")
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	stranger := env.user(t, "stranger")
	club := env.club(t, owner, alice, bob)
	b1 := env.book(t, "b1", "One")
	b2 := env.book(t, "b2", "Two")

	env.startCycle(t, club, owner)
	s1 := env.suggest(t, club, alice, b1)
	s2 := env.suggest(t, club, bob, b2)
	env.vote(t, club, s1, alice, bob)
	env.vote(t, club, s2, bob)

	list, err := env.suggestions.ListSuggestions(context.Background(), club, alice)
	require.NoError(t, err)
	require.Len(t, list, 2)

	// Newest first.
	assert.Equal(t, s2, list[0].ID)
	assert.Equal(t, 1, list[0].VoteCount)
	assert.False(t, list[0].HasVoted)
	assert.Equal(t, "Two", list[0].Book.Title)
	assert.Equal(t, "User bob", list[0].SuggestedBy.DisplayName)
	assert.NotEmpty(t, list[0].SuggestedBy.AvatarColor)

	assert.Equal(t, s1, list[1].ID)
	assert.Equal(t, 2, list[1].VoteCount)
	assert.True(t, list[1].HasVoted)

	_, err = env.suggestions.ListSuggestions(context.Background(), club, stranger)
	assert.ErrorIs(t, err, domainerrors.ErrAccessDenied)

	_, err = env.suggestions.ListSuggestions(context.Background(), "club-missing", alice)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestListSuggestions_OnlyActive(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t, "owner")
	club := env.club(t, owner)
	b1 := env.book(t, "b1", "One")

	env.startCycle(t, club, owner)
	env.suggest(t, club, owner, b1)
	_, err := env.voting.EndCycle(context.Background(), club, owner)
	require.NoError(t, err)

	list, err := env.suggestions.ListSuggestions(context.Background(), club, owner)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestNewSuggestionService_Defaults(t *testing.T) {
	s := NewSuggestionService(Deps{}, SuggestionPolicy{}, nil)
	assert.Equal(t, DefaultSuggestionPolicy(), s.policy)
}
