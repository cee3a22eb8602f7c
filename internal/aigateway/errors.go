package aigateway

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel causes carried by *Error.
var (
	ErrNotConfigured     = errors.New("ai gateway not configured")
	ErrUnavailable       = errors.New("ai gateway unavailable")
	ErrTimeout           = errors.New("ai gateway timeout")
	ErrRejected          = errors.New("ai gateway rejected request")
	ErrMalformedResponse = errors.New("ai gateway returned malformed response")
	ErrUnsuccessful      = errors.New("ai gateway reported failure")
)

// Error describes a failed gateway call.
type Error struct {
	Endpoint   string
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Endpoint, e.Err)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether repeating the call later may succeed. Rejected
// requests and malformed bodies usually will not, but queued handlers still
// retry them and let the queue give up.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrUnavailable) || errors.Is(err, ErrTimeout) {
		return true
	}
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.StatusCode == http.StatusTooManyRequests || gwErr.StatusCode >= 500
	}
	return false
}
