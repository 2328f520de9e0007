package job

import (
	"errors"
	"fmt"
)

// User-visible messages for the failure kinds that have no text of their own.
const (
	MsgAuthFailed       = "Authentication failed. Please sign in again."
	MsgConversionFailed = "Conversion failed"
	MsgUnknown          = "An unknown error occurred"
)

// ErrTokenUnavailable wraps a failure to obtain a fresh bearer token.
var ErrTokenUnavailable = errors.New("bearer token unavailable")

// BackendError is a non-2xx answer from the conversion service.
type BackendError struct {
	StatusCode int
	Body       string
}

func (e *BackendError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("conversion service returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("conversion service returned status %d: %s", e.StatusCode, e.Body)
}

// messageFor maps a failed run onto the banner text.
func messageFor(err error) string {
	var backendErr *BackendError
	switch {
	case errors.Is(err, ErrTokenUnavailable):
		return MsgAuthFailed
	case errors.As(err, &backendErr):
		if backendErr.Body != "" {
			return backendErr.Body
		}
		return MsgConversionFailed
	default:
		return MsgUnknown
	}
}
