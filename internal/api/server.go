// Package api provides the HTTP API server and handlers for BookCrush.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/bookcrush/bookcrush-server/internal/http/response"
	"github.com/bookcrush/bookcrush-server/internal/metrics"
	"github.com/bookcrush/bookcrush-server/internal/ratelimit"
	"github.com/bookcrush/bookcrush-server/internal/sse"
	"github.com/bookcrush/bookcrush-server/internal/store"
)

// DocumentCounter reports the size of the search index.
type DocumentCounter interface {
	DocumentCount() (uint64, error)
}

// Options tunes the HTTP layer.
type Options struct {
	CORSAllowedOrigins []string
	// AuthRateLimit is the number of register/login attempts allowed per
	// client IP per minute.
	AuthRateLimit int
	// RequestLogging enables chi's request logger.
	RequestLogging bool
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store           store.Store
	services        *Services
	search          DocumentCounter
	sseManager      *sse.Manager
	sseHandler      *sse.Handler
	metrics         *metrics.Metrics
	authRateLimiter *ratelimit.KeyedRateLimiter
	router          *chi.Mux
	api             huma.API
	logger          *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(st store.Store, services *Services, search DocumentCounter, sseManager *sse.Manager, m *metrics.Metrics, logger *slog.Logger, opts Options) *Server {
	if opts.AuthRateLimit <= 0 {
		opts.AuthRateLimit = 20
	}

	s := &Server{
		store:           st,
		services:        services,
		search:          search,
		sseManager:      sseManager,
		metrics:         m,
		authRateLimiter: ratelimit.PerInterval(opts.AuthRateLimit, time.Minute),
		router:          chi.NewRouter(),
		logger:          logger,
	}

	s.setupMiddleware(opts)

	humaConfig := huma.DefaultConfig("BookCrush API", "1.0.0")
	humaConfig.Info.Description = "Book club suggestions and voting"
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.sseHandler = sse.NewHandler(sseManager, logger, func(r *http.Request) (string, bool) {
		userID, err := GetUserID(r.Context())
		return userID, err == nil
	})

	s.registerRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close releases background resources held by the server.
func (s *Server) Close() {
	s.authRateLimiter.Stop()
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware(opts Options) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	if opts.RequestLogging {
		s.router.Use(middleware.Logger)
	}
	s.router.Use(middleware.Recoverer)
	if s.metrics != nil {
		s.router.Use(s.metrics.Middleware)
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Last-Event-ID"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	s.router.Use(middleware.Compress(5))
	s.router.Use(RateLimitMiddleware(s.authRateLimiter, authPathPrefix, s.logger))
	s.router.Use(authMiddleware(s.services.Auth))

	s.router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, "Route not found", s.logger)
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.MethodNotAllowed(w, "Method not allowed", s.logger)
	})
}

// registerRoutes registers every huma operation plus the raw chi routes.
func (s *Server) registerRoutes() {
	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerClubRoutes()
	s.registerSuggestionRoutes()
	s.registerVotingRoutes()
	s.registerBookRoutes()

	s.router.Get("/api/v1/events", s.handleEvents)
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler())
	}
}

// handleEvents streams club events. Browsers cannot set headers on an
// EventSource, so the access token may also come as ?token=.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if _, err := GetUserID(r.Context()); err != nil {
		token := r.URL.Query().Get("token")
		if token == "" {
			response.Unauthorized(w, "Authentication required", s.logger)
			return
		}
		user, err := s.services.Auth.VerifyAccessToken(r.Context(), token)
		if err != nil {
			response.Unauthorized(w, "Invalid or expired token", s.logger)
			return
		}
		r = r.WithContext(setUserID(r.Context(), user.ID))
	}

	s.sseHandler.ServeHTTP(w, r)
}

// bearerSecurity marks an operation as requiring an access token.
var bearerSecurity = []map[string][]string{{"bearer": {}}}
