package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
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

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrBadRequest
	ErrConflict
	ErrInternal
)

// Reservation error codes. Validation errors reject the request before any
// resource lookup, not-found errors after id resolution, and processing
// errors after allocation was attempted but no resource qualified.
const (
	ErrInvalidDateRange ErrorCode = iota + 2000
	ErrImpossibleDuration
	ErrGarageClosed
	ErrUnknownOperation
	ErrUnknownCustomer
	ErrNoMechanicAvailable
	ErrNoBayAvailable
	ErrNoStaffAvailable
)

// StatusCode maps error codes onto HTTP statuses. Consumed by the error
// handling middleware.
func (e *AppError) StatusCode() int {
	switch e.Code {
	case ErrNotFound, ErrUnknownOperation, ErrUnknownCustomer:
		return http.StatusNotFound
	case ErrBadRequest, ErrInvalidDateRange, ErrImpossibleDuration, ErrGarageClosed:
		return http.StatusBadRequest
	case ErrConflict, ErrNoMechanicAvailable, ErrNoBayAvailable, ErrNoStaffAvailable:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error constructors
func NewNotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func NewBadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    ErrBadRequest,
		Message: message,
		Err:     err,
	}
}

func NewInternal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func Wrap(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Is reports whether err carries the given error code.
func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
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
