package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/schema"
	"github.com/rs/zerolog"

	"donasi/internal/domain"
	"donasi/internal/infra"
	"donasi/internal/ledger"
	"donasi/internal/middleware"
)

type App struct {
	Ledger  *ledger.Service
	Logger  zerolog.Logger
	Metrics *infra.Metrics
	// Env is reported by the health endpoint.
	Env string
	Now func() time.Time

	forms *schema.Decoder
}

func NewApp(l *ledger.Service, logger zerolog.Logger, metrics *infra.Metrics, env string) *App {
	forms := schema.NewDecoder()
	forms.IgnoreUnknownKeys(true)
	return &App{
		Ledger:  l,
		Logger:  logger,
		Metrics: metrics,
		Env:     env,
		Now:     time.Now,
		forms:   forms,
	}
}

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type errorEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, msg string) {
	a.json(w, code, errorEnvelope{Success: false, Error: msg})
}

// fail maps ledger errors onto status codes and localized messages.
func (a *App) fail(w http.ResponseWriter, r *http.Request, subj subject, err error) {
	ctx := r.Context()
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		key := ve.Code
		if ve.Code == domain.CodeMissingID || ve.Code == domain.CodeInvalidID {
			key = subj.key(ve.Code)
		}
		msg := translate(ctx, key)
		if ve.Detail != "" {
			msg += " (" + ve.Detail + ")"
		}
		a.error(w, http.StatusBadRequest, msg)
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, translate(ctx, subj.key("not_found")))
	default:
		a.log(r).Error().
			Err(err).
			Str("path", r.URL.Path).
			Msg("request failed")
		a.error(w, http.StatusInternalServerError, translate(ctx, msgServerError)+": "+err.Error())
	}
}

// log returns the request logger installed by the access log middleware,
// falling back to the application logger.
func (a *App) log(r *http.Request) *zerolog.Logger {
	if l := zerolog.Ctx(r.Context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	l := a.Logger.With().Str("request_id", middleware.RequestIDFromContext(r.Context())).Logger()
	return &l
}

// audit records an admin change. The subject is empty when the admin guard
// is disabled.
func (a *App) audit(r *http.Request, action string, id int64) {
	a.log(r).Info().
		Str("action", action).
		Int64("id", id).
		Str("admin", middleware.AdminFromContext(r.Context())).
		Msg("admin change")
}

// queryID reads the id query parameter.
func queryID(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("id"))
	if raw == "" {
		return 0, domain.NewValidationError(domain.CodeMissingID, "id")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, domain.NewValidationError(domain.CodeInvalidID, "id")
	}
	return id, nil
}

func isJSON(r *http.Request) bool {
	return strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "application/json")
}

// MethodNotAllowed answers verbs a route does not support.
func (a *App) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	a.error(w, http.StatusMethodNotAllowed, translate(r.Context(), msgMethodNotAllowed))
}

// NotFound answers unknown API routes.
func (a *App) NotFound(w http.ResponseWriter, r *http.Request) {
	a.error(w, http.StatusNotFound, translate(r.Context(), msgRouteNotFound))
}

// Unauthorized is used by the admin guard.
func (a *App) Unauthorized(w http.ResponseWriter, r *http.Request) {
	a.error(w, http.StatusUnauthorized, translate(r.Context(), msgUnauthorized))
}

// TooManyRequests is used by the submission rate limiter.
func (a *App) TooManyRequests(w http.ResponseWriter, r *http.Request) {
	a.error(w, http.StatusTooManyRequests, translate(r.Context(), msgTooManyRequests))
}
