package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/enbi81/attendance-board/internal/attendance"
)

// Invalidator drops derived data after a settings change.
type Invalidator interface {
	Invalidate()
}

// AdminService applies administrative changes to the alias table and the
// sheet coordinates. Each change is persisted and invalidates the cache.
type AdminService struct {
	settings *Settings
	cache    Invalidator
	logger   *slog.Logger
}

// NewAdminService constructs the administrative service.
func NewAdminService(settings *Settings, cache Invalidator, logger *slog.Logger) *AdminService {
	return &AdminService{settings: settings, cache: cache, logger: defaultLogger(logger)}
}

func (s *AdminService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AdminService", operation, attrs...)
}

// Aliases returns the current alias table.
func (s *AdminService) Aliases() attendance.AliasTable {
	return s.settings.Aliases()
}

// AddAlias maps raw to canonical, replacing any existing entry for raw.
func (s *AdminService) AddAlias(ctx context.Context, raw, canonical string) (err error) {
	logger := s.loggerWith(ctx, "AddAlias", "from", raw, "to", canonical)
	defer s.finish(ctx, logger, "alias stored", &err)

	if raw == "" {
		return fmt.Errorf("%w: alias source name is required", ErrInvalidArgument)
	}
	s.settings.PutAlias(raw, canonical)
	s.invalidate()
	return nil
}

// SetSpreadsheetID replaces the spreadsheet id.
func (s *AdminService) SetSpreadsheetID(ctx context.Context, id string) (err error) {
	id = strings.TrimSpace(id)
	logger := s.loggerWith(ctx, "SetSpreadsheetID", "spreadsheet_id", id)
	defer s.finish(ctx, logger, "spreadsheet id updated", &err)

	if id == "" {
		return fmt.Errorf("%w: spreadsheet id is required", ErrInvalidArgument)
	}
	s.settings.SetSpreadsheetID(id)
	s.invalidate()
	return nil
}

// SetSpreadsheetRange replaces the range expression.
func (s *AdminService) SetSpreadsheetRange(ctx context.Context, rangeExpr string) (err error) {
	rangeExpr = strings.TrimSpace(rangeExpr)
	logger := s.loggerWith(ctx, "SetSpreadsheetRange", "range", rangeExpr)
	defer s.finish(ctx, logger, "spreadsheet range updated", &err)

	if rangeExpr == "" {
		return fmt.Errorf("%w: spreadsheet range is required", ErrInvalidArgument)
	}
	s.settings.SetSpreadsheetRange(rangeExpr)
	s.invalidate()
	return nil
}

func (s *AdminService) invalidate() {
	if s.cache != nil {
		s.cache.Invalidate()
	}
}

func (s *AdminService) finish(ctx context.Context, logger *slog.Logger, message string, err *error) {
	if *err != nil {
		logger.WarnContext(ctx, "rejected settings change", "error", *err, "error_kind", ErrorKind(*err))
		return
	}
	logger.InfoContext(ctx, message)
}
