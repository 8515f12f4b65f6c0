package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/enbi81/attendance-board/internal/application"
	"github.com/enbi81/attendance-board/internal/attendance"
)

// maxTimezoneOffset bounds tzo to one day either side of UTC.
const maxTimezoneOffset = 24 * 60

type attendanceService interface {
	Reference(tzoMinutes int) time.Time
	View(ctx context.Context, reference time.Time) ([]attendance.Record, error)
}

// AttendanceHandler serves the attendance view.
type AttendanceHandler struct {
	service   attendanceService
	responder responder
	logger    *slog.Logger
}

func NewAttendanceHandler(service attendanceService, logger *slog.Logger) *AttendanceHandler {
	base := defaultLogger(logger)
	return &AttendanceHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *AttendanceHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "AttendanceHandler", operation, attrs...)
}

// SpreadsheetData answers GET /spreadsheet-data.
func (h *AttendanceHandler) SpreadsheetData(w http.ResponseWriter, r *http.Request) {
	tzo := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("tzo")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err == nil && (parsed > maxTimezoneOffset || parsed < -maxTimezoneOffset) {
			err = fmt.Errorf("tzo %d outside [-%d, %d]", parsed, maxTimezoneOffset, maxTimezoneOffset)
		}
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTimezoneOffset.Error(), err)
			return
		}
		tzo = parsed
	}

	logger := h.log(r.Context(), "SpreadsheetData", "tzo", tzo)
	records, err := h.service.View(r.Context(), h.service.Reference(tzo))
	if err != nil {
		logger.ErrorContext(r.Context(), "attendance view failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.writeError(r.Context(), w, http.StatusInternalServerError, "failed to retrieve spreadsheet data", err)
		return
	}

	if records == nil {
		records = []attendance.Record{}
	}
	logger.DebugContext(r.Context(), "attendance served", "records", len(records))
	h.responder.writeJSON(r.Context(), w, http.StatusOK, attendanceResponse{Data: records})
}

type attendanceResponse struct {
	Data []attendance.Record `json:"data"`
}
