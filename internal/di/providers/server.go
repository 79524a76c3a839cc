package providers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/samber/do/v2"

	"github.com/bookcrush/bookcrush-server/internal/api"
	"github.com/bookcrush/bookcrush-server/internal/config"
	"github.com/bookcrush/bookcrush-server/internal/logger"
	"github.com/bookcrush/bookcrush-server/internal/metrics"
	"github.com/bookcrush/bookcrush-server/internal/service"
)

// shutdownTimeout bounds graceful shutdown of each service.
const shutdownTimeout = 30 * time.Second

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	api *api.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.Server.Shutdown(ctx)
	h.api.Close()
	return err
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	log := do.MustInvoke[*logger.Logger](i)

	services := &api.Services{
		Auth:       do.MustInvoke[*service.AuthService](i),
		Club:       do.MustInvoke[*service.ClubService](i),
		Book:       do.MustInvoke[*service.BookService](i),
		Suggestion: do.MustInvoke[*service.SuggestionService](i),
		Vote:       do.MustInvoke[*service.VoteService](i),
		Voting:     do.MustInvoke[*service.VotingService](i),
	}

	handler := api.NewServer(storeHandle.Store, services, indexHandle.SearchIndex, sseHandle.Manager, m, log.Logger, api.Options{
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
		AuthRateLimit:      cfg.Auth.RateLimit,
		RequestLogging:     cfg.App.Environment == "development",
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv, api: handler}, nil
}
