package sheets

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"testing"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/enbi81/attendance-board/internal/fault"
	"github.com/enbi81/attendance-board/internal/state"
	"github.com/enbi81/attendance-board/internal/testfixtures"
)

var validCreds = state.Credentials{
	AccessToken:  "access",
	RefreshToken: "refresh",
	TokenType:    "Bearer",
	Expiry:       time.Date(2024, 6, 6, 10, 0, 0, 0, time.UTC),
}

var coords = state.Coordinates{SpreadsheetID: "sheet-1", Range: "Sheet1!A1:E10"}

func newReader(t *testing.T, values [][]any) (*Reader, *testfixtures.SheetServer) {
	t.Helper()
	server := testfixtures.NewSheetServer(t, values)
	getter := NewGoogleValues(option.WithHTTPClient(server.Client()), option.WithEndpoint(server.Endpoint()))
	return NewReader(getter, nil), server
}

func TestFetch(t *testing.T) {
	reader, server := newReader(t, [][]any{{"2024-01-01", "Alice"}, {"bad", "X"}})

	rows, err := reader.Fetch(context.Background(), coords, validCreds)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	want := [][]string{{"2024-01-01", "Alice"}, {"bad", "X"}}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("Fetch() = %v, want %v", rows, want)
	}
	if !strings.Contains(server.LastPath(), "/spreadsheets/sheet-1/values/") {
		t.Fatalf("unexpected request path %q", server.LastPath())
	}
}

func TestFetchPreconditions(t *testing.T) {
	reader, server := newReader(t, nil)

	cases := map[string]struct {
		coords state.Coordinates
		creds  state.Credentials
	}{
		"missing spreadsheet id": {coords: state.Coordinates{Range: "A1:B2"}, creds: validCreds},
		"missing range":          {coords: state.Coordinates{SpreadsheetID: "x"}, creds: validCreds},
		"missing credentials":    {coords: coords},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := reader.Fetch(context.Background(), tc.coords, tc.creds)
			if !errors.Is(err, fault.ErrPreconditionFailed) {
				t.Fatalf("expected ErrPreconditionFailed, got %v", err)
			}
		})
	}
	if server.Requests() != 0 {
		t.Fatalf("expected no network calls, got %d", server.Requests())
	}
}

func TestFetchSurfacesProviderError(t *testing.T) {
	reader, server := newReader(t, nil)
	server.SetError(http.StatusBadRequest)

	_, err := reader.Fetch(context.Background(), coords, validCreds)
	if !errors.Is(err, fault.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusBadRequest {
		t.Fatalf("expected googleapi cause with code 400, got %v", err)
	}
	if !strings.Contains(fault.Cause(err), "Unable to parse range") {
		t.Fatalf("expected provider message in cause, got %q", fault.Cause(err))
	}
}

func TestFetchRejectsMalformedCells(t *testing.T) {
	reader, _ := newReader(t, [][]any{{"2024-01-01", map[string]any{"nested": true}}})

	_, err := reader.Fetch(context.Background(), coords, validCreds)
	if !errors.Is(err, fault.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestResult(t *testing.T) {
	ok := Success(nil)
	if !ok.Ok() || ok.Rows() == nil {
		t.Fatalf("expected successful result with empty rows")
	}
	failed := Failure(nil)
	if failed.Ok() || !errors.Is(failed.Err(), fault.ErrUpstream) {
		t.Fatalf("expected failure with upstream cause, got %v", failed.Err())
	}
}
