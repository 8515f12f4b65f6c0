package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/enbi81/attendance-board/internal/state"
)

// Authorizer is the part of the token manager driven by the login flow.
type Authorizer interface {
	AuthCodeURL() string
	Complete(ctx context.Context, stateValue, code string) error
	Credentials() (state.Credentials, bool)
}

// AuthStatus reports whether the service holds credentials.
type AuthStatus struct {
	Authenticated bool       `json:"authenticated"`
	Expiry        *time.Time `json:"expiry"`
}

// AuthService drives the authorization code flow.
type AuthService struct {
	authorizer Authorizer
	onComplete func()
	logger     *slog.Logger
}

// NewAuthService constructs an auth service. onComplete runs after every
// successful authorization and may be nil.
func NewAuthService(authorizer Authorizer, onComplete func(), logger *slog.Logger) *AuthService {
	return &AuthService{authorizer: authorizer, onComplete: onComplete, logger: defaultLogger(logger)}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

// Begin returns the provider URL the browser should be sent to.
func (s *AuthService) Begin(ctx context.Context) string {
	url := s.authorizer.AuthCodeURL()
	s.loggerWith(ctx, "Begin").DebugContext(ctx, "authorization started")
	return url
}

// Complete exchanges the callback code for credentials.
func (s *AuthService) Complete(ctx context.Context, stateValue, code string) (err error) {
	if s == nil {
		return fmt.Errorf("AuthService is nil")
	}

	logger := s.loggerWith(ctx, "Complete")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "authorization failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "authorization completed")
	}()

	if err = s.authorizer.Complete(ctx, stateValue, code); err != nil {
		return err
	}
	if s.onComplete != nil {
		s.onComplete()
	}
	return nil
}

// Status reports the current authentication state.
func (s *AuthService) Status() AuthStatus {
	creds, ok := s.authorizer.Credentials()
	if !ok {
		return AuthStatus{}
	}
	status := AuthStatus{Authenticated: true}
	if !creds.Expiry.IsZero() {
		expiry := creds.Expiry
		status.Expiry = &expiry
	}
	return status
}
