package providers

import (
	"github.com/samber/do/v2"

	"github.com/bookcrush/bookcrush-server/internal/auth"
	"github.com/bookcrush/bookcrush-server/internal/config"
	"github.com/bookcrush/bookcrush-server/internal/logger"
	"github.com/bookcrush/bookcrush-server/internal/metrics"
	"github.com/bookcrush/bookcrush-server/internal/service"
	"github.com/bookcrush/bookcrush-server/internal/validation"
)

// ProvideValidator provides the shared request validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideMetrics provides the Prometheus collectors.
func ProvideMetrics(i do.Injector) (*metrics.Metrics, error) {
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)

	m := metrics.New(nil)
	m.RegisterGauge("sse_clients", "Connected event stream clients.", func() float64 {
		return float64(sseHandle.ClientCount())
	})
	return m, nil
}

// ProvideServiceDeps bundles the collaborators shared by club-scoped services.
func ProvideServiceDeps(i do.Injector) (service.Deps, error) {
	return service.Deps{
		Store:   do.MustInvoke[*StoreHandle](i).Store,
		Events:  do.MustInvoke[*SSEManagerHandle](i).Manager,
		Metrics: do.MustInvoke[*metrics.Metrics](i),
	}, nil
}

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, tokenService, v, log.Logger), nil
}

// ProvideClubService provides the club service and lets the SSE manager
// filter club events by membership.
func ProvideClubService(i do.Injector) (*service.ClubService, error) {
	deps := do.MustInvoke[service.Deps](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	clubs := service.NewClubService(deps, v, log.Logger)
	sseHandle.SetMembershipChecker(clubs.IsActiveMember)

	return clubs, nil
}

// ProvideBookService provides the catalog service.
func ProvideBookService(i do.Injector) (*service.BookService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewBookService(storeHandle.Store, indexHandle.SearchIndex, sseHandle.Manager, v, log.Logger), nil
}

// ProvideSuggestionService provides the suggestion registry.
func ProvideSuggestionService(i do.Injector) (*service.SuggestionService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	deps := do.MustInvoke[service.Deps](i)
	log := do.MustInvoke[*logger.Logger](i)

	policy := service.SuggestionPolicy{
		MaxPerUser: cfg.Voting.MaxSuggestionsPerUser,
		Window:     cfg.Voting.SuggestionWindow,
	}
	return service.NewSuggestionService(deps, policy, log.Logger), nil
}

// ProvideVoteService provides the vote ledger.
func ProvideVoteService(i do.Injector) (*service.VoteService, error) {
	deps := do.MustInvoke[service.Deps](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewVoteService(deps, log.Logger), nil
}

// ProvideVotingService provides the voting cycle controller.
func ProvideVotingService(i do.Injector) (*service.VotingService, error) {
	deps := do.MustInvoke[service.Deps](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewVotingService(deps, log.Logger), nil
}
