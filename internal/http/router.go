package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type RouterConfig struct {
	Auth       *AuthHandler
	Attendance *AttendanceHandler
	Admin      *AdminHandler
	AdminGuard AdminVerifier
	// AllowedOrigins enables CORS for the listed origins when non-empty.
	AllowedOrigins []string
	Logger         *slog.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", AdminKeyHeader},
			ExposedHeaders: []string{"X-Request-Id"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	if cfg.Auth != nil {
		r.Get("/", cfg.Auth.Home)
		r.Get("/auth", cfg.Auth.Begin)
		r.Get("/google-auth-done", cfg.Auth.Callback)
		r.Get("/auth-status", cfg.Auth.Status)
	}

	if cfg.Attendance != nil {
		r.Get("/spreadsheet-data", cfg.Attendance.SpreadsheetData)
	}

	if cfg.Admin != nil {
		r.Group(func(r chi.Router) {
			r.Use(RequireAdminKey(cfg.AdminGuard, cfg.Logger))
			r.Get("/person-mapping", cfg.Admin.PersonMapping)
			r.Get("/set-spreadsheet-id", cfg.Admin.SetSpreadsheetID)
			r.Get("/set-spreadsheet-range", cfg.Admin.SetSpreadsheetRange)
		})
	}

	return r
}
