package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors for the conversational ordering domain.
var (
	ErrNotFound           = errors.New("resource not found")
	ErrMalformedInput     = errors.New("malformed input")
	ErrUnknownItem        = errors.New("unknown catalog item")
	ErrNoActiveSession    = errors.New("no active session")
	ErrPersistence        = errors.New("persistence failure")
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	ErrInternal           = errors.New("internal error")
)

// AppError represents a structured application error with HTTP status mapping.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound creates a 404 error.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s with id %s not found", resource, id),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// MalformedInput creates a 400 error for parameters that cannot be
// interpreted (mismatched lists, non-numeric quantities or order ids).
func MalformedInput(message string) *AppError {
	return &AppError{
		Code:    "MALFORMED_INPUT",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrMalformedInput,
	}
}

// UnknownItem creates a 422 error naming the item(s) absent from the catalog.
func UnknownItem(names ...string) *AppError {
	return &AppError{
		Code:    "UNKNOWN_ITEM",
		Message: fmt.Sprintf("not on the menu: %s", strings.Join(names, ", ")),
		Status:  http.StatusUnprocessableEntity,
		Err:     ErrUnknownItem,
	}
}

// NoActiveSession creates a 404 error for an operation that needs an
// in-progress order.
func NoActiveSession(sessionID string) *AppError {
	return &AppError{
		Code:    "NO_ACTIVE_SESSION",
		Message: fmt.Sprintf("no active order for session %s", sessionID),
		Status:  http.StatusNotFound,
		Err:     ErrNoActiveSession,
	}
}

// Persistence creates a 503 error for a failed ledger operation.
func Persistence(op string, err error) *AppError {
	return &AppError{
		Code:    "PERSISTENCE_ERROR",
		Message: fmt.Sprintf("%s failed", op),
		Status:  http.StatusServiceUnavailable,
		Err:     errors.Join(ErrPersistence, err),
	}
}

// CatalogUnavailable creates a 503 error for an unreachable catalog.
func CatalogUnavailable(err error) *AppError {
	return &AppError{
		Code:    "CATALOG_UNAVAILABLE",
		Message: "catalog is temporarily unavailable",
		Status:  http.StatusServiceUnavailable,
		Err:     errors.Join(ErrCatalogUnavailable, err),
	}
}

// Internal creates a 500 error.
func Internal(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNoActiveSession):
		return http.StatusNotFound
	case errors.Is(err, ErrMalformedInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnknownItem):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrPersistence), errors.Is(err, ErrCatalogUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
