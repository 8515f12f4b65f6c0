package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/enbi81/attendance-board/internal/application"
	"github.com/enbi81/attendance-board/internal/attendance"
)

type adminService interface {
	Aliases() attendance.AliasTable
	AddAlias(ctx context.Context, raw, canonical string) error
	SetSpreadsheetID(ctx context.Context, id string) error
	SetSpreadsheetRange(ctx context.Context, rangeExpr string) error
}

// AdminHandler serves the alias and sheet coordinate endpoints.
type AdminHandler struct {
	service   adminService
	responder responder
	logger    *slog.Logger
}

func NewAdminHandler(service adminService, logger *slog.Logger) *AdminHandler {
	base := defaultLogger(logger)
	return &AdminHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *AdminHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "AdminHandler", operation, attrs...)
}

// PersonMapping stores an alias, or lists the table when called without
// parameters.
func (h *AdminHandler) PersonMapping(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if !query.Has("from") && !query.Has("to") {
		aliases := h.service.Aliases()
		if aliases == nil {
			aliases = attendance.AliasTable{}
		}
		h.responder.writeJSON(r.Context(), w, http.StatusOK, aliases)
		return
	}

	from, to := query.Get("from"), query.Get("to")
	if err := h.service.AddAlias(r.Context(), from, to); err != nil {
		h.fail(r.Context(), w, "PersonMapping", err)
		return
	}
	h.responder.writeText(r.Context(), w, http.StatusOK, fmt.Sprintf("Mapping added: %s -> %s", from, to))
}

// SetSpreadsheetID replaces the spreadsheet id.
func (h *AdminHandler) SetSpreadsheetID(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if err := h.service.SetSpreadsheetID(r.Context(), id); err != nil {
		h.fail(r.Context(), w, "SetSpreadsheetID", err)
		return
	}
	h.responder.writeText(r.Context(), w, http.StatusOK, "Spreadsheet ID updated: "+id)
}

// SetSpreadsheetRange replaces the range expression.
func (h *AdminHandler) SetSpreadsheetRange(w http.ResponseWriter, r *http.Request) {
	rangeExpr := r.URL.Query().Get("range")
	if err := h.service.SetSpreadsheetRange(r.Context(), rangeExpr); err != nil {
		h.fail(r.Context(), w, "SetSpreadsheetRange", err)
		return
	}
	h.responder.writeText(r.Context(), w, http.StatusOK, "Spreadsheet range updated: "+rangeExpr)
}

func (h *AdminHandler) fail(ctx context.Context, w http.ResponseWriter, operation string, err error) {
	h.log(ctx, operation).WarnContext(ctx, "settings change rejected", "error", err, "error_kind", application.ErrorKind(err))
	if errors.Is(err, application.ErrInvalidArgument) {
		h.responder.writeError(ctx, w, http.StatusBadRequest, "invalid parameters", err)
		return
	}
	h.responder.writeError(ctx, w, http.StatusInternalServerError, "failed to update settings", err)
}
