package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/enbi81/attendance-board/internal/application"
	"github.com/enbi81/attendance-board/internal/logging"
)

// AdminKeyHeader carries the admin key on administrative requests.
const AdminKeyHeader = "X-Admin-Key"

// AdminVerifier checks a presented admin key.
type AdminVerifier interface {
	Enabled() bool
	Verify(key string) error
}

// RequireAdminKey rejects requests whose X-Admin-Key header does not verify.
// A disabled verifier lets every request through.
func RequireAdminKey(verifier AdminVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if verifier == nil || !verifier.Enabled() {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get(AdminKeyHeader)
			if key == "" {
				responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingAdminKey.Error(), nil)
				return
			}
			if err := verifier.Verify(key); err != nil {
				logging.Or(r.Context(), logger).WarnContext(r.Context(), "admin key rejected", "error_kind", application.ErrorKind(err))
				responder.writeError(r.Context(), w, http.StatusUnauthorized, "invalid admin key", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger assigns each request a UUID and attaches a tagged logger to
// its context.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := uuid.NewString()
			logger := base.With(
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
			)

			ctx := logging.ContextWithLogger(r.Context(), logger)
			ctx = ContextWithRequestID(ctx, id)
			w.Header().Set("X-Request-Id", id)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			logger.InfoContext(ctx, "request started")
			next.ServeHTTP(rec, r.WithContext(ctx))
			logger.InfoContext(ctx, "request completed", "status", rec.status, "duration", time.Since(start))
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
