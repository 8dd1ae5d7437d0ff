package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a unique error code
type ErrorCode int

// Kind is the machine readable error category sent to clients so they can pick
// a specific message (for example refreshing the slot list on a conflict).
type Kind string

const (
	KindServiceNotFound   Kind = "service_not_found"
	KindNotFound          Kind = "not_found"
	KindSlotConflict      Kind = "slot_conflict"
	KindConflict          Kind = "conflict"
	KindValidation        Kind = "validation_error"
	KindBadRequest        Kind = "bad_request"
	KindInvalidTransition Kind = "invalid_transition"
	KindUnauthorized      Kind = "unauthorized"
	KindForbidden         Kind = "forbidden"
	KindRateLimited       Kind = "rate_limited"
	KindStoreUnavailable  Kind = "store_unavailable"
	KindInternal          Kind = "internal"
)

// AppError represents an application error
type AppError struct {
	Code    ErrorCode         `json:"code"`
	Kind    Kind              `json:"kind"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	Err     error             `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches another *AppError of the same kind, so callers can write
// errors.Is(err, errors.SlotConflict(nil)).
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrBadRequest
	ErrUnauthorized
	ErrForbidden
	ErrInternal
	ErrConflict
	ErrValidation
	ErrUnavailable
	ErrTooManyRequests
)

// Error constructors
func NewNotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func NewBadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    ErrBadRequest,
		Kind:    KindBadRequest,
		Message: message,
		Err:     err,
	}
}

func NewInternal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Kind:    KindInternal,
		Message: "internal server error",
		Err:     err,
	}
}

// Common errors
func NotFound(resource string, err error) *AppError {
	return NewNotFound(resource, err)
}

func BadRequest(message string, err error) *AppError {
	return NewBadRequest(message, err)
}

func Internal(err error) *AppError {
	return NewInternal(err)
}

func Unauthorized(err error) *AppError {
	return &AppError{
		Code:    ErrUnauthorized,
		Kind:    KindUnauthorized,
		Message: "unauthorized",
		Err:     err,
	}
}

func Forbidden(message string) *AppError {
	return &AppError{
		Code:    ErrForbidden,
		Kind:    KindForbidden,
		Message: message,
	}
}

func TooManyRequests() *AppError {
	return &AppError{
		Code:    ErrTooManyRequests,
		Kind:    KindRateLimited,
		Message: "rate limit exceeded",
	}
}

// ServiceNotFound is returned when a service does not exist or is inactive.
func ServiceNotFound(err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Kind:    KindServiceNotFound,
		Message: "service unavailable",
		Err:     err,
	}
}

// SlotConflict is returned when the requested interval overlaps an active
// booking. Clients are expected to refresh the slot list.
func SlotConflict(err error) *AppError {
	return &AppError{
		Code:    ErrConflict,
		Kind:    KindSlotConflict,
		Message: "this time was just booked, please choose another",
		Err:     err,
	}
}

func Conflict(message string, err error) *AppError {
	return &AppError{
		Code:    ErrConflict,
		Kind:    KindConflict,
		Message: message,
		Err:     err,
	}
}

// Validation carries field level messages keyed by the request field name.
func Validation(fields map[string]string) *AppError {
	return &AppError{
		Code:    ErrValidation,
		Kind:    KindValidation,
		Message: "validation failed",
		Fields:  fields,
	}
}

func InvalidTransition(from, to string) *AppError {
	return &AppError{
		Code:    ErrConflict,
		Kind:    KindInvalidTransition,
		Message: fmt.Sprintf("cannot change booking status from %s to %s", from, to),
	}
}

// StoreUnavailable wraps persistence failures. They are never retried here.
func StoreUnavailable(err error) *AppError {
	return &AppError{
		Code:    ErrUnavailable,
		Kind:    KindStoreUnavailable,
		Message: "service temporarily unavailable",
		Err:     err,
	}
}

// KindOf returns the kind of the first AppError in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// As is errors.As for AppError.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	ok := stderrors.As(err, &appErr)
	return appErr, ok
}
