package web

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/edgard/bookmarkbot/internal/config"
	"github.com/edgard/bookmarkbot/internal/database"
	"github.com/edgard/bookmarkbot/internal/logger"
	"github.com/edgard/bookmarkbot/internal/metadata"
)

const requestTimeout = 45 * time.Second

// Scraper fetches page metadata for POST /api/scrape.
type Scraper interface {
	Extract(ctx context.Context, rawURL string) metadata.Result
}

// Deps are the collaborators of the API handlers.
type Deps struct {
	Store    database.Store
	Scraper  Scraper
	Config   config.WebConfig
	Logger   *slog.Logger
	Location *time.Location // saved_at rendering; nil means time.Local
}

// Handler implements the API endpoints.
type Handler struct {
	store    database.Store
	scraper  Scraper
	cfg      config.WebConfig
	logger   *slog.Logger
	loc      *time.Location
	validate *validator.Validate
}

// NewHandler creates the API handlers from deps.
func NewHandler(deps Deps) *Handler {
	log := deps.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	loc := deps.Location
	if loc == nil {
		loc = time.Local
	}
	return &Handler{
		store:    deps.Store,
		scraper:  deps.Scraper,
		cfg:      deps.Config,
		logger:   log.With("component", "web"),
		loc:      loc,
		validate: validator.New(),
	}
}

// NewRouter builds the chi router with every route and middleware.
func NewRouter(deps Deps) http.Handler {
	h := NewHandler(deps)

	r := chi.NewRouter()
	r.Use(middleware.GetHead)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.HTTPMiddleware(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.SetHeader("X-Content-Type-Options", "nosniff"))
	r.Use(middleware.SetHeader("X-Frame-Options", "DENY"))

	r.Get("/healthz", h.Health)
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)

	r.Group(func(r chi.Router) {
		r.Use(h.RequireSession)

		r.Route("/api/bookmarks", func(r chi.Router) {
			r.Get("/", h.ListBookmarks)
			r.Post("/", h.CreateBookmark)
			r.Get("/{id}", h.GetBookmark)
			r.Put("/{id}", h.UpdateBookmark)
			r.Put("/{id}/read", h.MarkRead)
			r.Delete("/{id}", h.DeleteBookmark)
		})
		r.Get("/api/export/csv", h.ExportCSV)
		r.Post("/api/scrape", h.Scrape)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeErrorMessage(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeErrorMessage(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	return r
}

// Health reports whether the database answers.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		h.logger.ErrorContext(r.Context(), "Health check failed", "error", err)
		writeErrorMessage(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
