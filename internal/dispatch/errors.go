package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Error is a domain error carrying an HTTP status and message. Handlers and
// middleware raise it deliberately; uncaught, it becomes a response with the
// carried status at the dispatch boundary.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return http.StatusText(e.Status)
	}
	return e.Message
}

// NewError creates a domain error with the given status and message.
func NewError(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

// Errorf creates a domain error with a formatted message.
func Errorf(status int, format string, args ...any) *Error {
	return &Error{Status: status, Message: fmt.Sprintf(format, args...)}
}

// ErrRouteNotFound is raised by NotFoundHandler when no route matched.
var ErrRouteNotFound = NewError(http.StatusNotFound, "route not found")

// ErrMethodNotAllowed is raised by MethodNotAllowedHandler when the path
// matched but the method did not.
var ErrMethodNotAllowed = NewError(http.StatusMethodNotAllowed, "method not allowed")

// StatusOf maps an error to an HTTP status: the carried status for domain
// errors, 500 otherwise. Cancellation maps to 499 (client closed request),
// the nginx convention, so the access log distinguishes it from failures.
func StatusOf(err error) int {
	var derr *Error
	if errors.As(err, &derr) {
		return derr.Status
	}
	if IsCancellation(err) {
		return statusClientClosedRequest
	}
	return http.StatusInternalServerError
}

const statusClientClosedRequest = 499

// IsStatus reports whether err is a domain error carrying the given status.
// Cancellation is never a status match: middleware doing generic error
// handling must let it pass through unless specifically handling it.
func IsStatus(err error, status int) bool {
	if IsCancellation(err) {
		return false
	}
	var derr *Error
	return errors.As(err, &derr) && derr.Status == status
}

// IsCancellation reports whether err originates from cancellation of the
// surrounding task (client disconnect, deadline).
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
