// Package api exposes the coordination core to the on-device UI shell
// over a small JSON/HTTP control surface.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"

	"github.com/jmcfet/promoUI-sub009/internal/cache"
	"github.com/jmcfet/promoUI-sub009/internal/journal"
	"github.com/jmcfet/promoUI-sub009/internal/log"
	"github.com/jmcfet/promoUI-sub009/internal/navigation"
	"github.com/jmcfet/promoUI-sub009/internal/playback"
	"github.com/jmcfet/promoUI-sub009/internal/reminder"
)

// Server bundles the handlers over the coordination core.
type Server struct {
	gate      *playback.Gate
	nav       *navigation.Navigator
	reminders *reminder.Manager
	journal   *journal.Journal
	cache     cache.Cache
	logger    zerolog.Logger

	rateLimit int
	tracing   string
}

// Deps holds the server's collaborators.
type Deps struct {
	Gate      *playback.Gate
	Navigator *navigation.Navigator
	Reminders *reminder.Manager
	Journal   *journal.Journal
	Cache     cache.Cache
	Logger    zerolog.Logger

	// RateLimit is requests per client per minute; 0 disables limiting.
	RateLimit int
	// TracingService names the otel service; empty disables tracing.
	TracingService string
}

// NewServer wires a Server.
func NewServer(d Deps) *Server {
	return &Server{
		gate:      d.Gate,
		nav:       d.Navigator,
		reminders: d.Reminders,
		journal:   d.Journal,
		cache:     d.Cache,
		logger:    d.Logger,
		rateLimit: d.RateLimit,
		tracing:   d.TracingService,
	}
}

// Router builds the chi router with the full middleware stack.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(chimw.RequestID)
	if s.tracing != "" {
		r.Use(s.traceMiddleware())
	}
	r.Use(log.Middleware())
	if s.rateLimit > 0 {
		r.Use(httprate.Limit(
			s.rateLimit,
			time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
		))
	}

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/playback/admit", s.handleAdmit)
		r.Post("/playback/play", s.handlePlay)

		r.Post("/navigation/reset", s.handleNavReset)
		r.Post("/navigation/deeper", s.handleNavDeeper)
		r.Post("/navigation/back", s.handleNavBack)
		r.Post("/navigation/jump", s.handleNavJump)
		r.Post("/navigation/info", s.handleNavInfo)
		r.Get("/navigation/state", s.handleNavState)

		r.Post("/reminders", s.handleSetReminder)
		r.Post("/reminders/cancel", s.handleCancelReminder)
		r.Get("/reminders/status", s.handleReminderStatus)
		r.Get("/reminders/journal", s.handleReminderJournal)
		r.Post("/autotune", s.handleSetAutoTune)
	})

	return r
}

func (s *Server) traceMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(
			next,
			s.tracing,
			otelhttp.WithTracerProvider(otel.GetTracerProvider()),
			otelhttp.WithFilter(func(r *http.Request) bool {
				return r.URL.Path != "/healthz" && r.URL.Path != "/metrics"
			}),
		)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"cache":  s.cache.Stats(),
	})
}
