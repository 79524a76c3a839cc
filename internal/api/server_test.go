package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookcrush/bookcrush-server/internal/auth"
	"github.com/bookcrush/bookcrush-server/internal/http/response"
	"github.com/bookcrush/bookcrush-server/internal/metrics"
	"github.com/bookcrush/bookcrush-server/internal/search"
	"github.com/bookcrush/bookcrush-server/internal/service"
	"github.com/bookcrush/bookcrush-server/internal/sse"
	"github.com/bookcrush/bookcrush-server/internal/store/sqlite"
	"github.com/bookcrush/bookcrush-server/internal/validation"
)

// testEnvelope decodes the response envelope with a typed payload.
type testEnvelope[T any] struct {
	Data    T                   `json:"data"`
	Error   *response.ErrorBody `json:"error"`
	Version int                 `json:"v"`
	Success bool                `json:"success"`
}

// testServer wraps the API server with a humatest client.
type testServer struct {
	*Server
	api humatest.TestAPI
}

// setupTestServer creates a server backed by a temporary database and index.
func setupTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()

	dir := t.TempDir()
	logger := slog.New(slog.DiscardHandler)

	st, err := sqlite.Open(filepath.Join(dir, "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	index, err := search.NewSearchIndex(search.Options{DataPath: filepath.Join(dir, "search"), Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	tokens, err := auth.NewTokenService(make([]byte, 32), time.Hour)
	require.NoError(t, err)

	sseManager := sse.NewManager(logger)
	m := metrics.New(prometheus.NewRegistry())
	v := validation.New()

	deps := service.Deps{Store: st, Events: sseManager, Metrics: m}
	services := &Services{
		Auth:       service.NewAuthService(st, tokens, v, logger),
		Club:       service.NewClubService(deps, v, logger),
		Book:       service.NewBookService(st, index, sseManager, v, logger),
		Suggestion: service.NewSuggestionService(deps, service.DefaultSuggestionPolicy(), logger),
		Vote:       service.NewVoteService(deps, logger),
		Voting:     service.NewVotingService(deps, logger),
	}
	sseManager.SetMembershipChecker(services.Club.IsActiveMember)

	s := NewServer(st, services, index, sseManager, m, logger, opts)
	t.Cleanup(s.Close)

	return &testServer{Server: s, api: humatest.Wrap(t, s.api)}
}

// decode unmarshals a recorded response into a typed envelope.
func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) testEnvelope[T] {
	t.Helper()
	var env testEnvelope[T]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env), "body: %s", resp.Body.String())
	return env
}

func bearer(token string) string {
	return "Authorization: Bearer " + token
}

// register creates a user through the API and returns its token and ID.
func (ts *testServer) register(t *testing.T, name string) (token, userID string) {
	t.Helper()

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"email":        name + "@example.com",
		"password":     "correct horse battery",
		"display_name": name,
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	env := decode[AuthResponse](t, resp)
	return env.Data.AccessToken, env.Data.User.ID
}

// createClub creates a club owned by the token's user.
func (ts *testServer) createClub(t *testing.T, token, name string) string {
	t.Helper()

	resp := ts.api.Post("/api/v1/clubs", bearer(token), map[string]any{"name": name})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return decode[ClubResponse](t, resp).Data.ID
}

// join adds the token's user to a club.
func (ts *testServer) join(t *testing.T, token, clubID string) {
	t.Helper()

	resp := ts.api.Post(fmt.Sprintf("/api/v1/clubs/%s/join", clubID), bearer(token))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
}

// createBook adds a catalog book.
func (ts *testServer) createBook(t *testing.T, token, title, author string) string {
	t.Helper()

	resp := ts.api.Post("/api/v1/books", bearer(token), map[string]any{"title": title, "author": author})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return decode[map[string]any](t, resp).Data["id"].(string)
}

func TestNotFoundRoute_UsesEnvelope(t *testing.T) {
	ts := setupTestServer(t, Options{})

	resp := ts.api.Get("/api/v1/nope")

	assert.Equal(t, http.StatusNotFound, resp.Code)
	env := decode[any](t, resp)
	assert.False(t, env.Success)
	assert.Equal(t, EnvelopeVersion, env.Version)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestProtectedRoutes_RequireToken(t *testing.T) {
	ts := setupTestServer(t, Options{})

	tests := []struct {
		name   string
		method string
		path   string
	}{
		{"me", http.MethodGet, "/api/v1/users/me"},
		{"list clubs", http.MethodGet, "/api/v1/clubs"},
		{"create club", http.MethodPost, "/api/v1/clubs"},
		{"voting", http.MethodGet, "/api/v1/clubs/c1/voting"},
		{"suggestions", http.MethodGet, "/api/v1/clubs/c1/suggestions"},
		{"books", http.MethodGet, "/api/v1/books"},
		{"search", http.MethodGet, "/api/v1/books/search"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp *httptest.ResponseRecorder
			if tt.method == http.MethodPost {
				resp = ts.api.Post(tt.path, map[string]any{"name": "x"})
			} else {
				resp = ts.api.Get(tt.path)
			}

			assert.Equal(t, http.StatusUnauthorized, resp.Code, resp.Body.String())
			env := decode[any](t, resp)
			require.NotNil(t, env.Error)
			assert.Equal(t, "UNAUTHORIZED", env.Error.Code)
		})
	}
}

func TestInvalidToken_Unauthorized(t *testing.T) {
	ts := setupTestServer(t, Options{})

	resp := ts.api.Get("/api/v1/users/me", bearer("v4.local.garbage"))

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestSchemaViolation_ReportedAsValidation(t *testing.T) {
	ts := setupTestServer(t, Options{})
	token, _ := ts.register(t, "alice")

	resp := ts.api.Post("/api/v1/clubs", bearer(token), map[string]any{"name": 42})

	assert.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())
	env := decode[any](t, resp)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION", env.Error.Code)
	details, ok := env.Error.Details.(map[string]any)
	require.True(t, ok, "details: %#v", env.Error.Details)
	assert.Contains(t, details, "name")
}

func TestMetricsEndpoint(t *testing.T) {
	ts := setupTestServer(t, Options{})
	token, _ := ts.register(t, "alice")
	ts.createClub(t, token, "Readers")

	req := httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody)
	w := httptest.NewRecorder()
	ts.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "bookcrush_http_requests_total")
}

func TestEvents_RequiresToken(t *testing.T) {
	ts := setupTestServer(t, Options{})

	tests := []struct {
		name string
		url  string
	}{
		{"missing", "/api/v1/events"},
		{"invalid query token", "/api/v1/events?token=bogus"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.url, http.NoBody)
			w := httptest.NewRecorder()
			ts.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			var env testEnvelope[any]
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
			assert.False(t, env.Success)
		})
	}
}
