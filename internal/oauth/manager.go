// Package oauth manages the OAuth credential set used to read the
// spreadsheet: the authorization code flow, unconditional refresh before
// each read, and hand-off of refreshed tokens for persistence.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/enbi81/attendance-board/internal/fault"
	"github.com/enbi81/attendance-board/internal/logging"
	"github.com/enbi81/attendance-board/internal/state"
)

// ErrInvalidState is returned when an authorization callback carries a state
// value this manager did not issue, or one that has expired.
var ErrInvalidState = errors.New("oauth: invalid authorization state")

const stateTTL = 10 * time.Minute

// Options configures a Manager.
type Options struct {
	Provider Provider
	// Initial is the credential set restored from persisted state, if any.
	Initial *state.Credentials
	// OnChange receives every newly issued or refreshed credential set.
	OnChange func(state.Credentials)
	Now      func() time.Time
	Logger   *slog.Logger
}

// Manager holds the current credential set. It is Unauthenticated until an
// authorization completes or a complete set is restored.
type Manager struct {
	provider Provider
	onChange func(state.Credentials)
	now      func() time.Time
	logger   *slog.Logger

	mu      sync.RWMutex
	creds   *state.Credentials
	pending map[string]time.Time
}

// NewManager constructs a Manager.
func NewManager(opts Options) *Manager {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		provider: opts.Provider,
		onChange: opts.OnChange,
		now:      now,
		logger:   logger,
		pending:  make(map[string]time.Time),
	}
	if opts.Initial.Complete() {
		creds := *opts.Initial
		m.creds = &creds
	}
	return m
}

func (m *Manager) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return logging.Component(ctx, m.logger, "service", "TokenManager", operation, attrs...)
}

// Authenticated reports whether a credential set is held.
func (m *Manager) Authenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.creds != nil
}

// Credentials returns a copy of the current credential set.
func (m *Manager) Credentials() (state.Credentials, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.creds == nil {
		return state.Credentials{}, false
	}
	return *m.creds, true
}

// AuthCodeURL starts an authorization: it remembers a fresh state value and
// returns the provider URL to redirect the browser to.
func (m *Manager) AuthCodeURL() string {
	value := uuid.NewString()
	now := m.now()

	m.mu.Lock()
	for key, expires := range m.pending {
		if now.After(expires) {
			delete(m.pending, key)
		}
	}
	m.pending[value] = now.Add(stateTTL)
	m.mu.Unlock()

	return m.provider.AuthCodeURL(value)
}

// Complete finishes an authorization by exchanging code. The manager moves to
// Authenticated and the new set is handed to OnChange.
func (m *Manager) Complete(ctx context.Context, stateValue, code string) (err error) {
	logger := m.loggerWith(ctx, "Complete")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "authorization failed", "error", err, "error_kind", fault.Kind(err))
			return
		}
		logger.InfoContext(ctx, "authorization completed")
	}()

	if !m.consumeState(stateValue) {
		return ErrInvalidState
	}
	if code == "" {
		return fmt.Errorf("%w: missing authorization code", fault.ErrPreconditionFailed)
	}

	issued, err := m.provider.Exchange(ctx, code)
	if err != nil {
		return err
	}

	m.mu.Lock()
	if issued.RefreshToken == "" && m.creds != nil {
		issued.RefreshToken = m.creds.RefreshToken
	}
	if !issued.Complete() {
		m.mu.Unlock()
		return fault.Upstream("token exchange", errors.New("provider returned an incomplete credential set"))
	}
	m.creds = &issued
	m.mu.Unlock()

	m.notify(issued)
	return nil
}

func (m *Manager) consumeState(value string) bool {
	if value == "" {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	expires, ok := m.pending[value]
	if !ok {
		return false
	}
	delete(m.pending, value)
	return !m.now().After(expires)
}

// EnsureFresh refreshes the credential set before a read. Refresh is
// attempted on every call regardless of expiry. When it fails the stale set
// is kept and returned so the read can still be tried with it.
func (m *Manager) EnsureFresh(ctx context.Context) (state.Credentials, error) {
	current, ok := m.Credentials()
	if !ok {
		return state.Credentials{}, fault.ErrNotAuthenticated
	}

	logger := m.loggerWith(ctx, "EnsureFresh")
	refreshed, err := m.provider.Refresh(ctx, current.RefreshToken)
	if err == nil && !refreshed.Complete() {
		err = fault.Upstream("token refresh", errors.New("provider returned an incomplete credential set"))
	}
	if err != nil {
		logger.WarnContext(ctx, "token refresh failed; continuing with stale credentials", "error", err, "error_kind", fault.Kind(err))
		return current, nil
	}

	m.mu.Lock()
	m.creds = &refreshed
	m.mu.Unlock()

	m.notify(refreshed)
	logger.DebugContext(ctx, "token refreshed", "expiry", refreshed.Expiry)
	return refreshed, nil
}

func (m *Manager) notify(creds state.Credentials) {
	if m.onChange != nil {
		m.onChange(creds)
	}
}
