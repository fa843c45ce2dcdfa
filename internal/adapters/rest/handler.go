// Package rest exposes the recommendation flow over HTTP.
package rest

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/dullmace/faux-must-see/internal/core/domain"
	"github.com/dullmace/faux-must-see/internal/core/ports"
	"github.com/dullmace/faux-must-see/internal/core/services"
	"github.com/dullmace/faux-must-see/internal/logging"
)

// Authenticator is the OAuth side of the Spotify adapter.
type Authenticator interface {
	ports.TokenExchanger
	Configured() bool
}

// Deps are the services the handler drives.
type Deps struct {
	Sessions *services.SessionFlow
	Ranker   services.CandidateRanker
	Curator  *services.PlaylistCurator
	Auth     Authenticator
	Catalog  []domain.CandidateAct
}

// Config holds the HTTP-level settings.
type Config struct {
	AllowedOrigins []string
	// RateLimit is requests per RateWindow per client IP; zero disables it.
	RateLimit  int
	RateWindow time.Duration
}

// Handler manages the HTTP interface for our application.
type Handler struct {
	deps     Deps
	cfg      Config
	router   chi.Router
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewHandler initializes the HTTP adapter and sets up routes.
func NewHandler(deps Deps, cfg Config) *Handler {
	h := &Handler{
		deps:     deps,
		cfg:      cfg,
		router:   chi.NewRouter(),
		validate: newValidator(),
		logger:   logging.Component("http"),
	}

	h.routes()

	return h
}

// ServeHTTP satisfies the http.Handler interface.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// routes defines the mapping between URLs and methods.
func (h *Handler) routes() {
	r := h.router
	r.Use(chimiddleware.Recoverer)
	r.Use(requestID)
	r.Use(h.accessLog)
	r.Use(corsMiddleware(h.cfg.AllowedOrigins))

	r.Get("/health", h.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(rateLimit(h.cfg.RateLimit, h.cfg.RateWindow))

		r.Post("/api/callback", h.ExchangeCode)
		r.Post("/rank", h.Rank)
		r.Get("/catalog", h.Catalog)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", h.StartSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetSession)
				r.Delete("/", h.EndSession)
				r.Post("/login", h.Login)
				r.Post("/callback", h.Callback)
				r.Post("/rank", h.SelectTimeRange)
				r.Post("/time-range", h.ChangeTimeRange)
				r.Post("/restart", h.Restart)
				r.Post("/playlist", h.CreatePlaylist)
				r.Get("/share", h.Share)
			})
		})
	})
}

// HealthCheck is a simple endpoint to verify the API is running.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "Faux Must-See is live 🎶"})
}
