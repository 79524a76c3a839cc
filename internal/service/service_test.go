package service

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bookcrush/bookcrush-server/internal/domain"
	"github.com/bookcrush/bookcrush-server/internal/sse"
	"github.com/bookcrush/bookcrush-server/internal/store"
	"github.com/bookcrush/bookcrush-server/internal/store/sqlite"
	"github.com/bookcrush/bookcrush-server/internal/validation"
)

// recordingEmitter captures emitted events.
type recordingEmitter struct {
	mu     sync.Mutex
	events []sse.Event
}

func (r *recordingEmitter) Emit(e sse.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingEmitter) types() []sse.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]sse.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

// countingRecorder counts metric calls.
type countingRecorder struct {
	mu          sync.Mutex
	suggestions int
	casts       int
	retracts    int
	started     int
	ended       []int
	selected    int
}

func (c *countingRecorder) SuggestionCreated() { c.mu.Lock(); c.suggestions++; c.mu.Unlock() }
func (c *countingRecorder) CycleStarted()      { c.mu.Lock(); c.started++; c.mu.Unlock() }
func (c *countingRecorder) BookSelected()      { c.mu.Lock(); c.selected++; c.mu.Unlock() }
func (c *countingRecorder) CycleEnded(w int) {
	c.mu.Lock()
	c.ended = append(c.ended, w)
	c.mu.Unlock()
}
func (c *countingRecorder) VoteChanged(voted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if voted {
		c.casts++
	} else {
		c.retracts++
	}
}

type testEnv struct {
	store       store.Store
	events      *recordingEmitter
	metrics     *countingRecorder
	now         time.Time
	clubs       *ClubService
	suggestions *SuggestionService
	votes       *VoteService
	voting      *VotingService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	s, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	env := &testEnv{
		store:   s,
		events:  &recordingEmitter{},
		metrics: &countingRecorder{},
		now:     time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	logger := slog.New(slog.DiscardHandler)
	deps := Deps{
		Store:   s,
		Events:  env.events,
		Metrics: env.metrics,
		Now:     func() time.Time { return env.now },
	}
	env.clubs = NewClubService(deps, validation.New(), logger)
	env.suggestions = NewSuggestionService(deps, DefaultSuggestionPolicy(), logger)
	env.votes = NewVoteService(deps, logger)
	env.voting = NewVotingService(deps, logger)
	return env
}

func (e *testEnv) user(t *testing.T, id string) string {
	t.Helper()
	require.NoError(t, e.store.CreateUser(context.Background(), &domain.User{
		ID:           id,
		Email:        id + "@example.com",
		PasswordHash: "x",
		DisplayName:  "User " + id,
		CreatedAt:    e.now,
		UpdatedAt:    e.now,
	}))
	return id
}

func (e *testEnv) book(t *testing.T, id, title string) string {
	t.Helper()
	require.NoError(t, e.store.CreateBook(context.Background(), &domain.Book{
		ID:        id,
		Title:     title,
		SortTitle: title,
		Author:    "Author",
		CreatedAt: e.now,
		UpdatedAt: e.now,
	}))
	return id
}

// club creates a club owned by owner with the given members (MEMBER role).
func (e *testEnv) club(t *testing.T, owner string, members ...string) string {
	t.Helper()
	ctx := context.Background()
	c, err := e.clubs.CreateClub(ctx, owner, CreateClubRequest{Name: "Club of " + owner})
	require.NoError(t, err)
	for _, m := range members {
		_, err := e.clubs.JoinClub(ctx, c.ID, m)
		require.NoError(t, err)
	}
	return c.ID
}

func (e *testEnv) startCycle(t *testing.T, clubID, userID string) {
	t.Helper()
	_, err := e.voting.StartCycle(context.Background(), clubID, userID, StartVotingRequest{
		VotingStartsAt: e.now,
		VotingEndsAt:   e.now.Add(7 * 24 * time.Hour),
	})
	require.NoError(t, err)
}

func (e *testEnv) suggest(t *testing.T, clubID, userID, bookID string) string {
	t.Helper()
	s, err := e.suggestions.CreateSuggestion(context.Background(), clubID, userID, CreateSuggestionRequest{BookID: bookID})
	require.NoError(t, err)
	// Keep created_at distinct so list and tally order is deterministic.
	e.now = e.now.Add(time.Second)
	return s.ID
}

func (e *testEnv) vote(t *testing.T, clubID, suggestionID string, userIDs ...string) {
	t.Helper()
	for _, u := range userIDs {
		_, err := e.votes.CastVote(context.Background(), clubID, suggestionID, u)
		require.NoError(t, err)
	}
}

func (e *testEnv) status(t *testing.T, suggestionID string) domain.SuggestionStatus {
	t.Helper()
	s, err := e.store.GetSuggestion(context.Background(), suggestionID)
	require.NoError(t, err)
	return s.Status
}
