// Package sheets reads raw cell rows from the spreadsheet provider.
package sheets

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/enbi81/attendance-board/internal/fault"
	"github.com/enbi81/attendance-board/internal/logging"
	"github.com/enbi81/attendance-board/internal/state"
)

// Result is the outcome of a provider read: either rows or a cause.
type Result struct {
	rows [][]string
	err  error
}

// Success wraps rows returned by the provider.
func Success(rows [][]string) Result {
	if rows == nil {
		rows = [][]string{}
	}
	return Result{rows: rows}
}

// Failure wraps a provider failure. A nil cause is recorded as an unknown
// upstream error so a Failure is never mistaken for a Success.
func Failure(cause error) Result {
	if cause == nil {
		cause = fault.Upstream("values.get", nil)
	}
	return Result{err: cause}
}

// Ok reports whether the result holds rows.
func (r Result) Ok() bool { return r.err == nil }

// Rows returns the rows of a successful result.
func (r Result) Rows() [][]string { return r.rows }

// Err returns the cause of a failed result.
func (r Result) Err() error { return r.err }

// ValuesGetter fetches one range of cell values using creds.
type ValuesGetter interface {
	GetValues(ctx context.Context, coords state.Coordinates, creds state.Credentials) Result
}

// Reader validates preconditions and delegates the read to a ValuesGetter.
type Reader struct {
	values ValuesGetter
	logger *slog.Logger
}

// NewReader constructs a Reader.
func NewReader(values ValuesGetter, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{values: values, logger: logger}
}

// Fetch returns the rows of coords. Incomplete credentials or coordinates
// fail with fault.ErrPreconditionFailed before any network call; provider
// failures are returned with their cause intact.
func (r *Reader) Fetch(ctx context.Context, coords state.Coordinates, creds state.Credentials) ([][]string, error) {
	if !creds.Complete() {
		return nil, fmt.Errorf("%w: credentials are not set", fault.ErrPreconditionFailed)
	}
	if !coords.Set() {
		return nil, fmt.Errorf("%w: spreadsheet id and range must be set", fault.ErrPreconditionFailed)
	}

	logger := logging.Component(ctx, r.logger, "service", "SheetReader", "Fetch",
		"spreadsheet_id", coords.SpreadsheetID,
		"range", coords.Range,
	)
	result := r.values.GetValues(ctx, coords, creds)
	if !result.Ok() {
		logger.ErrorContext(ctx, "sheet read failed", "error", result.Err(), "error_kind", fault.Kind(result.Err()))
		return nil, result.Err()
	}
	logger.DebugContext(ctx, "sheet read", "rows", len(result.Rows()))
	return result.Rows(), nil
}
