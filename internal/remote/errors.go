package remote

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
)

var (
	ErrRemote       = errors.New("remote error")
	ErrUnauthorized = fmt.Errorf("%w: unauthorized", ErrRemote)
	ErrNotFound     = fmt.Errorf("%w: not found", ErrRemote)
)

type wrapError struct {
	underlying error
	msg        string
	cause      error
}

var _ error = (*wrapError)(nil)

// newRemoteError classifies an API failure by its HTTP status.
func newRemoteError(msg string, cause error) error {
	underlying := ErrRemote
	var apiErr *googleapi.Error
	if errors.As(cause, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			underlying = ErrUnauthorized
		case http.StatusNotFound:
			underlying = ErrNotFound
		}
	}
	return &wrapError{
		underlying: underlying,
		msg:        msg,
		cause:      cause,
	}
}

func (err *wrapError) Error() string {
	if err == nil {
		return "(*wrapError)(nil)"
	}
	message := err.underlying.Error() + ": " + err.msg
	if err.cause != nil {
		message += ": " + err.cause.Error()
	}
	return message
}

func (err *wrapError) Unwrap() []error {
	if err.cause == nil {
		return []error{err.underlying}
	}
	return []error{err.underlying, err.cause}
}
