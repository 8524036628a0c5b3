package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

var (
	ErrWorkerPanic        = fmt.Errorf("worker panic")
	ErrInvalidPayload     = fmt.Errorf("invalid payload")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidUsername    = fmt.Errorf("username must be 2-32 characters")
	ErrMissingToken       = fmt.Errorf("no token")
	ErrInvalidToken       = fmt.Errorf("invalid token")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrNotFound           = fmt.Errorf("not found")
	ErrNotGroupMember     = fmt.Errorf("not a group member")
	ErrEmptyWords         = fmt.Errorf("no words have been found")
	ErrQueueFull          = fmt.Errorf("queue full")
)

// ValidationError rejects an inbound event before anything is persisted.
type ValidationError struct {
	Message string
}

func (e ValidationError) Error() string { return e.Message }

func NewValidationError(format string, args ...any) error {
	return ValidationError{Message: fmt.Sprintf(format, args...)}
}

// AuthorizationError is returned when an authenticated user acts on a
// resource it has no membership for.
type AuthorizationError struct {
	Message string
	Err     error
}

func (e AuthorizationError) Error() string { return e.Message }
func (e AuthorizationError) Unwrap() error { return e.Err }

// PersistenceError wraps any storage failure surfaced by the router.
type PersistenceError struct {
	Op  string
	Err error
}

func (e PersistenceError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e PersistenceError) Unwrap() error { return e.Err }

// AuthError rejects a connection at handshake time.
type AuthError struct {
	Err error
}

func (e AuthError) Error() string { return fmt.Sprintf("authentication failed: %v", e.Err) }
func (e AuthError) Unwrap() error { return e.Err }

func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target any) bool { return stderrors.As(err, target) }

// ClientMessage returns the text sent back in an `error` event.
// Storage details never leak to the client.
func ClientMessage(err error) string {
	var validation ValidationError
	if As(err, &validation) {
		return validation.Message
	}
	var authorization AuthorizationError
	if As(err, &authorization) {
		return authorization.Message
	}
	return "Failed to send message"
}

// MapToHTTPStatus translates domain errors for the REST layer.
func MapToHTTPStatus(err error) int {
	var (
		validation    ValidationError
		authorization AuthorizationError
		auth          AuthError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case As(err, &validation), Is(err, ErrInvalidPayload), Is(err, ErrInvalidUsername):
		return http.StatusBadRequest
	case As(err, &auth), Is(err, ErrInvalidCredentials), Is(err, ErrInvalidToken), Is(err, ErrMissingToken):
		return http.StatusUnauthorized
	case As(err, &authorization), Is(err, ErrNotGroupMember):
		return http.StatusForbidden
	case Is(err, ErrNotFound):
		return http.StatusNotFound
	case Is(err, ErrUserAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
