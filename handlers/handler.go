package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ray-remotestate/recipebox/config"
	"github.com/ray-remotestate/recipebox/database"
	"github.com/ray-remotestate/recipebox/middlewares"
	"github.com/ray-remotestate/recipebox/models"
	"github.com/ray-remotestate/recipebox/templates"
)

// Inline messages shown on the page that rejected the input.
const (
	msgWrongCredentials = "Wrong credentials, please try again."
	msgInvalidEntry     = "Invalid entry, please try again."
	msgUserExists       = "Username and/or email already in use."
	msgSignupOK         = "Sign Up Successful!"
	msgAlreadyReviewed  = "You have already reviewed this recipe!"
	msgUnknownRecipe    = "That recipe does not exist."
	msgNoInventory      = "Your account has no inventory yet."
)

type Handler struct {
	renderer     *templates.Renderer
	db           *sql.DB
	secret       []byte
	sessionTTL   time.Duration
	soonDays     int
	secureCookie bool
	now          func() time.Time
}

func New(renderer *templates.Renderer, db *sql.DB, cfg *config.Config) *Handler {
	return &Handler{
		renderer:     renderer,
		db:           db,
		secret:       cfg.SessionSecret,
		sessionTTL:   cfg.SessionTTL,
		soonDays:     cfg.ExpiringSoonDays,
		secureCookie: cfg.IsProduction(),
		now:          time.Now,
	}
}

// WithClock replaces the time source used for expiry windows.
func (h *Handler) WithClock(now func() time.Time) *Handler {
	h.now = now
	return h
}

// render fills in the signed-in user and writes the page. A failed render
// falls back to a plain 500.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, view templates.View) {
	if identity, ok := middlewares.GetAuthenticatedUser(r); ok {
		view.User = &identity
	}
	if err := h.renderer.Render(w, status, name, view); err != nil {
		middlewares.Logger(r).WithError(err).WithField("template", name).Error("failed to render page")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) errorPage(w http.ResponseWriter, r *http.Request, status int) {
	h.render(w, r, status, templates.Error, templates.View{Title: http.StatusText(status), Status: status})
}

// fail logs err and answers with 503 when the database is unreachable and
// 500 otherwise.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, database.ErrUnavailable) {
		status = http.StatusServiceUnavailable
	}
	middlewares.Logger(r).WithError(err).WithField("status", status).Error("request failed")
	h.errorPage(w, r, status)
}

// Unavailable is served when no connection could be acquired.
func (h *Handler) Unavailable(w http.ResponseWriter, r *http.Request) {
	h.errorPage(w, r, http.StatusServiceUnavailable)
}

func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.errorPage(w, r, http.StatusNotFound)
}

// user returns the session identity and the request's connection.
// RequireUser guarantees the identity on every route that calls it.
func (h *Handler) user(r *http.Request) (models.Identity, database.Conn, error) {
	identity, _ := middlewares.GetAuthenticatedUser(r)
	conn, err := database.ConnFromContext(r.Context())
	return identity, conn, err
}

func (h *Handler) today() string {
	return models.FormatDate(h.now())
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	alive := true
	if err := h.db.PingContext(ctx); err != nil {
		middlewares.Logger(r).WithError(err).Warn("health check ping failed")
		status = http.StatusServiceUnavailable
		alive = false
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]bool{"alive": alive})
}
