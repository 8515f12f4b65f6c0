package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/enbi81/attendance-board/internal/application"
	"github.com/enbi81/attendance-board/internal/fault"
	"github.com/enbi81/attendance-board/internal/oauth"
)

type authService interface {
	Begin(ctx context.Context) string
	Complete(ctx context.Context, stateValue, code string) error
	Status() application.AuthStatus
}

const loginPage = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Attendance</title></head>
<body><a href="/auth"><button>Log in</button></a></body></html>
`

// AuthHandler serves the login page and the authorization code callback.
type AuthHandler struct {
	service   authService
	responder responder
	logger    *slog.Logger
}

func NewAuthHandler(service authService, logger *slog.Logger) *AuthHandler {
	base := defaultLogger(logger)
	return &AuthHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *AuthHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "AuthHandler", operation, attrs...)
}

// Home renders the login link.
func (h *AuthHandler) Home(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(loginPage))
}

// Begin redirects the browser to the provider consent screen.
func (h *AuthHandler) Begin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.service.Begin(r.Context()), http.StatusFound)
}

// Callback completes the authorization code flow.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	logger := h.log(r.Context(), "Callback")

	if errParam := query.Get("error"); errParam != "" {
		logger.WarnContext(r.Context(), "provider denied authorization", "provider_error", errParam)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, "authorization denied", errors.New(errParam))
		return
	}

	err := h.service.Complete(r.Context(), query.Get("state"), query.Get("code"))
	switch {
	case err == nil:
		h.responder.writeText(r.Context(), w, http.StatusOK, "Authentication successful!")
	case errors.Is(err, oauth.ErrInvalidState):
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidAuthState.Error(), err)
	case errors.Is(err, fault.ErrPreconditionFailed):
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, "authorization code missing", err)
	default:
		h.responder.writeError(r.Context(), w, http.StatusInternalServerError, "failed to exchange authorization code", err)
	}
}

// Status reports whether credentials are held.
func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	h.responder.writeJSON(r.Context(), w, http.StatusOK, h.service.Status())
}
