package sheets

import (
	"context"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/enbi81/attendance-board/internal/attendance"
	"github.com/enbi81/attendance-board/internal/fault"
	"github.com/enbi81/attendance-board/internal/oauth"
	"github.com/enbi81/attendance-board/internal/state"
)

// GoogleValues reads values through the Sheets v4 API.
type GoogleValues struct {
	opts    []option.ClientOption
	timeout time.Duration
}

// NewGoogleValues returns a ValuesGetter. opts are appended after the
// per-call token source, e.g. option.WithEndpoint for tests.
func NewGoogleValues(opts ...option.ClientOption) *GoogleValues {
	return NewGoogleValuesWithTimeout(0, opts...)
}

// NewGoogleValuesWithTimeout bounds every read by timeout when it is positive.
func NewGoogleValuesWithTimeout(timeout time.Duration, opts ...option.ClientOption) *GoogleValues {
	return &GoogleValues{opts: opts, timeout: timeout}
}

// GetValues implements ValuesGetter.
func (g *GoogleValues) GetValues(ctx context.Context, coords state.Coordinates, creds state.Credentials) Result {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	opts := append([]option.ClientOption{
		option.WithTokenSource(oauth2.StaticTokenSource(oauth.Token(creds))),
	}, g.opts...)

	service, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return Failure(fault.Upstream("sheets client", err))
	}

	resp, err := service.Spreadsheets.Values.Get(coords.SpreadsheetID, coords.Range).Context(ctx).Do()
	if err != nil {
		return Failure(fault.Upstream("values.get", err))
	}

	rows, err := attendance.DecodeRows(resp.Values)
	if err != nil {
		return Failure(err)
	}
	return Success(rows)
}
