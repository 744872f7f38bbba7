package websocket

import (
	"errors"
	"fmt"
)

// Sentinel errors for socket operations.
var (
	// ErrNotOpen is returned when sending on a socket that is not open.
	ErrNotOpen = errors.New("websocket: socket not open")

	// ErrInvalidScheme is returned for URLs whose scheme is not ws, wss, http or https.
	ErrInvalidScheme = errors.New("websocket: url scheme must be ws, wss, http or https")

	// ErrURLFragment is returned for URLs that carry a fragment.
	ErrURLFragment = errors.New("websocket: url must not contain a fragment")

	// ErrMissingHost is returned for URLs without a host.
	ErrMissingHost = errors.New("websocket: url has no host")

	// ErrInvalidMode is returned by Connect for an unknown Mode.
	ErrInvalidMode = errors.New("websocket: invalid connection mode")
)

// CreationError is returned by Connect when the underlying socket cannot be
// created at all. No status event accompanies it and no Task exists.
type CreationError struct {
	URL    string
	Reason string
	Err    error
}

// Error returns the creation failure reason.
func (e *CreationError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("websocket: creation failed: %s", e.Reason)
	}
	return fmt.Sprintf("websocket: creation failed for %q: %s", e.URL, e.Reason)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *CreationError) Unwrap() error {
	return e.Err
}

// newCreationError wraps err unless it already is a *CreationError.
func newCreationError(url string, err error) *CreationError {
	var ce *CreationError
	if errors.As(err, &ce) {
		return ce
	}
	return &CreationError{URL: url, Reason: err.Error(), Err: err}
}
