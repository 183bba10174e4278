package client

import "errors"

var (
	ErrUnavailable        = errors.New("backend unavailable")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailExists        = errors.New("email already in use")
	ErrUserDisabled       = errors.New("user disabled")
	ErrTooManyAttempts    = errors.New("too many attempts")
	ErrNoSession          = errors.New("no user signed in")
	ErrSessionExpired     = errors.New("session expired")
)

// RemoteError carries the backend's own error code next to the sentinel it
// was mapped to, so callers can show the provider detail.
type RemoteError struct {
	Code string
	Err  error
}

func (e *RemoteError) Error() string {
	if e.Err == nil {
		return e.Code
	}
	return e.Err.Error() + " (" + e.Code + ")"
}

func (e *RemoteError) Unwrap() error { return e.Err }
