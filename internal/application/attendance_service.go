package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/enbi81/attendance-board/internal/attendance"
	"github.com/enbi81/attendance-board/internal/state"
)

// TokenSource yields a credential set fit for a sheet read.
type TokenSource interface {
	EnsureFresh(ctx context.Context) (state.Credentials, error)
}

// SheetReader fetches the raw rows at the given coordinates.
type SheetReader interface {
	Fetch(ctx context.Context, coords state.Coordinates, creds state.Credentials) ([][]string, error)
}

// AttendanceDeps wires an AttendanceService.
type AttendanceDeps struct {
	Tokens   TokenSource
	Reader   SheetReader
	Cache    *attendance.Cache
	Settings *Settings
	Layout   attendance.Layout
	Now      func() time.Time
	Logger   *slog.Logger
}

// AttendanceService answers attendance queries from the cache and refills
// it from the sheet on a miss.
type AttendanceService struct {
	tokens   TokenSource
	reader   SheetReader
	cache    *attendance.Cache
	settings *Settings
	layout   attendance.Layout
	now      func() time.Time
	logger   *slog.Logger
}

// NewAttendanceService constructs the query service.
func NewAttendanceService(deps AttendanceDeps) *AttendanceService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	cache := deps.Cache
	if cache == nil {
		cache = attendance.NewCache(attendance.DefaultTTL, now)
	}
	return &AttendanceService{
		tokens:   deps.Tokens,
		reader:   deps.Reader,
		cache:    cache,
		settings: deps.Settings,
		layout:   deps.Layout,
		now:      now,
		logger:   defaultLogger(deps.Logger),
	}
}

func (s *AttendanceService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AttendanceService", operation, attrs...)
}

// Reference converts a client timezone offset in minutes, using the
// getTimezoneOffset sign convention, into the reference instant for the
// day filter.
func (s *AttendanceService) Reference(tzoMinutes int) time.Time {
	return s.now().Add(-time.Duration(tzoMinutes) * time.Minute)
}

// View returns the records whose day has not ended before reference.
func (s *AttendanceService) View(ctx context.Context, reference time.Time) (records []attendance.Record, err error) {
	if s == nil {
		err = fmt.Errorf("AttendanceService is nil")
		return
	}

	logger := s.loggerWith(ctx, "View", "reference", reference)

	if cached, ok := s.cache.Query(reference); ok {
		logger.DebugContext(ctx, "served from cache", "records", len(cached))
		return cached, nil
	}

	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to refresh attendance", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "attendance refreshed", "records", len(records))
	}()

	creds, err := s.tokens.EnsureFresh(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.reader.Fetch(ctx, s.settings.Coordinates(), creds)
	if err != nil {
		return nil, err
	}

	fresh := attendance.Transform(rows, s.layout, s.settings.Aliases())
	s.cache.Populate(fresh, s.now())

	if view, ok := s.cache.Query(reference); ok {
		return view, nil
	}
	return attendance.Upcoming(fresh, reference), nil
}

// Invalidate drops the cached record set.
func (s *AttendanceService) Invalidate() {
	s.cache.Invalidate()
}
