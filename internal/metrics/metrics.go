// Package metrics exposes Prometheus counters for the voting engine and the HTTP layer.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bookcrush"

// Metrics holds every collector the server reports.
type Metrics struct {
	registry *prometheus.Registry

	suggestionsCreated prometheus.Counter
	votes              *prometheus.CounterVec
	cyclesStarted      prometheus.Counter
	cyclesEnded        *prometheus.CounterVec
	booksSelected      prometheus.Counter

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New registers all collectors on registry. A nil registry gets a fresh one
// with the Go runtime and process collectors attached.
func New(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	m := &Metrics{
		registry: registry,
		suggestionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "suggestions_created_total",
			Help:      "Book suggestions accepted by the registry.",
		}),
		votes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_total",
			Help:      "Vote changes by action (cast or retract).",
		}, []string{"action"}),
		cyclesStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "voting_cycles_started_total",
			Help:      "Voting cycles opened.",
		}),
		cyclesEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "voting_cycles_ended_total",
			Help:      "Voting cycles closed, by outcome (winner, tie, expired).",
		}, []string{"outcome"}),
		booksSelected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "books_selected_total",
			Help:      "Current books chosen by clubs.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route pattern and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	registry.MustRegister(
		m.suggestionsCreated,
		m.votes,
		m.cyclesStarted,
		m.cyclesEnded,
		m.booksSelected,
		m.httpRequests,
		m.httpDuration,
	)

	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RegisterGauge exposes a value sampled at scrape time, e.g. connected SSE clients.
func (m *Metrics) RegisterGauge(name, help string, fn func() float64) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, fn))
}

// SuggestionCreated counts an accepted suggestion.
func (m *Metrics) SuggestionCreated() {
	m.suggestionsCreated.Inc()
}

// VoteChanged counts a cast (voted=true) or a retraction.
func (m *Metrics) VoteChanged(voted bool) {
	action := "retract"
	if voted {
		action = "cast"
	}
	m.votes.WithLabelValues(action).Inc()
}

// CycleStarted counts an opened voting cycle.
func (m *Metrics) CycleStarted() {
	m.cyclesStarted.Inc()
}

// CycleEnded counts a close-out by how many winners it produced.
func (m *Metrics) CycleEnded(winners int) {
	outcome := "expired"
	switch {
	case winners == 1:
		outcome = "winner"
	case winners > 1:
		outcome = "tie"
	}
	m.cyclesEnded.WithLabelValues(outcome).Inc()
}

// BookSelected counts a current book selection.
func (m *Metrics) BookSelected() {
	m.booksSelected.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records request counts and latency labelled by chi route pattern,
// so /clubs/{clubId} is one series rather than one per club.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
