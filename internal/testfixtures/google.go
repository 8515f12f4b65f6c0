package testfixtures

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// BadCode is rejected by TokenServer's authorization_code grant.
const BadCode = "bad-code"

// TokenServer emulates an OAuth2 token endpoint. Authorization code grants
// issue a refresh token; refresh grants rotate only the access token, the
// way Google's endpoint does.
type TokenServer struct {
	*httptest.Server

	mu      sync.Mutex
	issued  int
	failing bool
	grants  []string
	hold    *refreshHold
}

type refreshHold struct {
	arrived  chan struct{}
	released chan struct{}
	arrive   sync.Once
	release  sync.Once
}

// NewTokenServer starts a token endpoint that is closed with the test.
func NewTokenServer(t testing.TB) *TokenServer {
	t.Helper()
	s := &TokenServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// SetFailing makes every subsequent grant fail with invalid_grant.
func (s *TokenServer) SetFailing(failing bool) {
	s.mu.Lock()
	s.failing = failing
	s.mu.Unlock()
}

// HoldRefreshes blocks refresh grants until release is called. arrived is
// closed once the first held grant reaches the endpoint.
func (s *TokenServer) HoldRefreshes() (arrived <-chan struct{}, release func()) {
	hold := &refreshHold{arrived: make(chan struct{}), released: make(chan struct{})}
	s.mu.Lock()
	s.hold = hold
	s.mu.Unlock()
	return hold.arrived, func() {
		hold.release.Do(func() { close(hold.released) })
	}
}

// Grants returns the grant types received so far.
func (s *TokenServer) Grants() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.grants...)
}

func (s *TokenServer) serve(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	grant := r.PostForm.Get("grant_type")

	s.mu.Lock()
	s.grants = append(s.grants, grant)
	failing := s.failing
	s.issued++
	issued := s.issued
	hold := s.hold
	s.mu.Unlock()

	if hold != nil && grant == "refresh_token" {
		hold.arrive.Do(func() { close(hold.arrived) })
		<-hold.released
	}

	if failing || (grant == "authorization_code" && r.PostForm.Get("code") == BadCode) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Bad Request"}`))
		return
	}

	body := map[string]any{
		"access_token": fmt.Sprintf("access-%d", issued),
		"token_type":   "Bearer",
		"expires_in":   3600,
	}
	if grant == "authorization_code" {
		body["refresh_token"] = "refresh-" + r.PostForm.Get("code")
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

// SheetServer emulates the Sheets v4 values.get endpoint.
type SheetServer struct {
	*httptest.Server

	mu       sync.Mutex
	values   [][]any
	status   int
	requests int
	lastPath string
}

// NewSheetServer starts a values endpoint serving values.
func NewSheetServer(t testing.TB, values [][]any) *SheetServer {
	t.Helper()
	s := &SheetServer{values: values}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// Endpoint returns the base URL to hand to the Sheets client.
func (s *SheetServer) Endpoint() string {
	return s.URL + "/"
}

// SetValues replaces the served grid.
func (s *SheetServer) SetValues(values [][]any) {
	s.mu.Lock()
	s.values = values
	s.mu.Unlock()
}

// SetError makes the endpoint answer with a Google API error of status.
// Zero restores normal responses.
func (s *SheetServer) SetError(status int) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}

// Requests returns the number of values.get calls served.
func (s *SheetServer) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

// LastPath returns the escaped path of the most recent request.
func (s *SheetServer) LastPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastPath
}

func (s *SheetServer) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests++
	s.lastPath = r.URL.EscapedPath()
	status := s.status
	values := s.values
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{
				"code":    status,
				"message": "Unable to parse range",
				"status":  "INVALID_ARGUMENT",
			},
		})
		return
	}
	rangeExpr := ""
	if i := strings.Index(r.URL.Path, "/values/"); i >= 0 {
		rangeExpr = r.URL.Path[i+len("/values/"):]
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"range":          rangeExpr,
		"majorDimension": "ROWS",
		"values":         values,
	})
}
