package main

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"

	"github.com/enbi81/attendance-board/internal/application"
	"github.com/enbi81/attendance-board/internal/attendance"
	"github.com/enbi81/attendance-board/internal/config"
	httptransport "github.com/enbi81/attendance-board/internal/http"
	"github.com/enbi81/attendance-board/internal/oauth"
	"github.com/enbi81/attendance-board/internal/sheets"
	"github.com/enbi81/attendance-board/internal/state"
)

// appOptions overrides provider endpoints, used by tests.
type appOptions struct {
	TokenEndpoint *oauth2.Endpoint
	SheetsOptions []option.ClientOption
	Now           func() time.Time
}

// app is the application context built once at startup and shared by every
// request.
type app struct {
	Handler    http.Handler
	Settings   *application.Settings
	Tokens     *oauth.Manager
	Attendance *application.AttendanceService
	Persister  *state.Persister

	backend   state.Backend
	logger    *slog.Logger
	closeOnce sync.Once
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger, opts appOptions) (*app, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	guard, err := application.NewAdminGuard(cfg.AdminKeyHash)
	if err != nil {
		return nil, err
	}

	backend, err := state.Open(cfg.StateBackend, cfg.StatePath)
	if err != nil {
		return nil, err
	}

	doc, err := state.Load(ctx, backend, state.ConfigState{
		SpreadsheetID:    cfg.SpreadsheetID,
		SpreadsheetRange: cfg.SpreadsheetRange,
	})
	if err != nil {
		logger.Warn("failed to load persisted state; continuing with defaults", "error", err, "path", cfg.StatePath)
	}

	persister := state.NewPersister(backend, logger)
	settings := application.NewSettings(doc, persister)

	providerCfg := oauth.ProviderConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURI,
		Scopes:       []string{oauth.SpreadsheetsReadOnlyScope},
		HTTPClient:   &http.Client{Timeout: cfg.UpstreamTimeout},
	}
	if opts.TokenEndpoint != nil {
		providerCfg.Endpoint = *opts.TokenEndpoint
	}

	tokens := oauth.NewManager(oauth.Options{
		Provider: oauth.NewGoogleProvider(providerCfg),
		Initial:  doc.Credentials,
		OnChange: settings.SetCredentials,
		Now:      now,
		Logger:   logger,
	})

	cache := attendance.NewCache(cfg.CacheTTL, now)
	reader := sheets.NewReader(sheets.NewGoogleValuesWithTimeout(cfg.UpstreamTimeout, opts.SheetsOptions...), logger)
	attendanceService := application.NewAttendanceService(application.AttendanceDeps{
		Tokens:   tokens,
		Reader:   reader,
		Cache:    cache,
		Settings: settings,
		Layout: attendance.Layout{
			GroupAMaxCount: cfg.GroupAMaxCount,
			GroupBMaxCount: cfg.GroupBMaxCount,
		},
		Now:    now,
		Logger: logger,
	})
	adminService := application.NewAdminService(settings, cache, logger)
	authService := application.NewAuthService(tokens, cache.Invalidate, logger)

	handler := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:           httptransport.NewAuthHandler(authService, logger),
		Attendance:     httptransport.NewAttendanceHandler(attendanceService, logger),
		Admin:          httptransport.NewAdminHandler(adminService, logger),
		AdminGuard:     guard,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Logger:         logger,
	})

	return &app{
		Handler:    handler,
		Settings:   settings,
		Tokens:     tokens,
		Attendance: attendanceService,
		Persister:  persister,
		backend:    backend,
		logger:     logger,
	}, nil
}

// Close flushes pending state and releases the backend.
func (a *app) Close() {
	a.closeOnce.Do(func() {
		a.Persister.Close()
		if err := a.backend.Close(); err != nil {
			a.logger.Error("failed to close state backend", "error", err)
		}
	})
}
