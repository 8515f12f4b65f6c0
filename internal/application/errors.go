package application

import (
	"errors"

	"github.com/enbi81/attendance-board/internal/fault"
	"github.com/enbi81/attendance-board/internal/oauth"
)

var (
	// ErrInvalidArgument is returned when an administrative input is empty or malformed.
	ErrInvalidArgument = errors.New("application: invalid argument")
	// ErrInvalidAdminKey is returned when the supplied admin key does not match.
	ErrInvalidAdminKey = errors.New("application: invalid admin key")
)

// ErrorKind maps sentinel errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, ErrInvalidAdminKey):
		return "invalid_admin_key"
	case errors.Is(err, oauth.ErrInvalidState):
		return "invalid_state"
	}
	return fault.Kind(err)
}
