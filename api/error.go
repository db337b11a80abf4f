package api

import "fmt"

// Error is an API rejection carrying the status code and the server-provided
// message, surfaced verbatim to the user for validation-style failures
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("api: %s (status %d)", e.Message, e.StatusCode)
}

// IsAuthError reports whether the rejection was a 401/403
func (e *Error) IsAuthError() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}

// IsAuthError reports whether err is a 401/403 API rejection
func IsAuthError(err error) bool {
	apiErr, ok := err.(*Error)
	return ok && apiErr.IsAuthError()
}
