package services

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// ErrorKind classifies engine failures so handlers can map them to HTTP
// statuses and callers know whether a retry makes sense.
type ErrorKind string

const (
	KindValidation        ErrorKind = "validation"          // malformed input, do not retry
	KindConflict          ErrorKind = "conflict"            // idempotency violation, do not retry
	KindNotFound          ErrorKind = "not_found"           // referenced entity absent
	KindExternalAuth      ErrorKind = "external_auth"       // social credential missing/expired/revoked
	KindExternalRateLimit ErrorKind = "external_rate_limit" // provider throttling, back off
	KindExternalTransient ErrorKind = "external_transient"  // other provider failure, retryable
)

type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func ExternalAuth(message string, cause error) *Error {
	return &Error{Kind: KindExternalAuth, Message: message, Err: cause}
}

func ExternalRateLimit(message string, cause error) *Error {
	return &Error{Kind: KindExternalRateLimit, Message: message, Err: cause}
}

func ExternalTransient(message string, cause error) *Error {
	return &Error{Kind: KindExternalTransient, Message: message, Err: cause}
}

// KindOf returns the classification of err, or "" for unexpected errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func IsKind(err error, kind ErrorKind) bool { return KindOf(err) == kind }

// HTTPStatus maps the taxonomy to response codes. Unexpected errors become a
// generic 500; handlers must not leak their detail to the caller.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return fiber.StatusBadRequest
	case KindConflict:
		return fiber.StatusConflict
	case KindNotFound:
		return fiber.StatusNotFound
	case KindExternalAuth:
		return fiber.StatusUnauthorized
	case KindExternalRateLimit:
		return fiber.StatusTooManyRequests
	case KindExternalTransient:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}
