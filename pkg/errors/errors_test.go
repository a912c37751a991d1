package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Sentinel error identity ---

func TestSentinelErrors_AreDistinct(t *testing.T) {
	sentinels := []error{
		ErrNotFound, ErrMalformedInput, ErrUnknownItem, ErrNoActiveSession,
		ErrPersistence, ErrCatalogUnavailable, ErrInternal,
	}

	for i := 0; i < len(sentinels); i++ {
		for j := i + 1; j < len(sentinels); j++ {
			assert.NotEqual(t, sentinels[i], sentinels[j],
				"sentinels %d and %d should be distinct", i, j)
		}
	}
}

// --- AppError behavior ---

func TestAppError_ErrorString_WithWrappedError(t *testing.T) {
	inner := fmt.Errorf("db connection lost")
	appErr := &AppError{Code: "PERSISTENCE_ERROR", Message: "commit order failed", Err: inner}
	assert.Contains(t, appErr.Error(), "PERSISTENCE_ERROR")
	assert.Contains(t, appErr.Error(), "commit order failed")
	assert.Contains(t, appErr.Error(), "db connection lost")
}

func TestAppError_ErrorString_WithoutWrappedError(t *testing.T) {
	appErr := &AppError{Code: "NOT_FOUND", Message: "order not found"}
	assert.Equal(t, "NOT_FOUND: order not found", appErr.Error())
}

func TestAppError_Unwrap_Nil(t *testing.T) {
	appErr := &AppError{Code: "TEST", Message: "test"}
	assert.Nil(t, appErr.Unwrap())
}

// --- Constructor functions ---

func TestNotFound(t *testing.T) {
	err := NotFound("order", "42")
	require.NotNil(t, err)
	assert.Equal(t, "NOT_FOUND", err.Code)
	assert.Equal(t, http.StatusNotFound, err.Status)
	assert.Contains(t, err.Message, "order with id 42")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMalformedInput(t *testing.T) {
	err := MalformedInput("food-item and qty lists differ in length")
	assert.Equal(t, "MALFORMED_INPUT", err.Code)
	assert.Equal(t, http.StatusBadRequest, err.Status)
	assert.True(t, errors.Is(err, ErrMalformedInput))
}

func TestUnknownItem_ListsNames(t *testing.T) {
	err := UnknownItem("Nonexistent Roll", "Pizza")
	assert.Equal(t, "UNKNOWN_ITEM", err.Code)
	assert.Equal(t, "not on the menu: Nonexistent Roll, Pizza", err.Message)
	assert.True(t, errors.Is(err, ErrUnknownItem))
}

func TestNoActiveSession(t *testing.T) {
	err := NoActiveSession("abc")
	assert.Equal(t, http.StatusNotFound, err.Status)
	assert.True(t, errors.Is(err, ErrNoActiveSession))
}

func TestPersistence_KeepsCause(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := Persistence("commit order", cause)
	assert.Equal(t, "PERSISTENCE_ERROR", err.Code)
	assert.Equal(t, "commit order failed", err.Message)
	assert.True(t, errors.Is(err, ErrPersistence))
	assert.True(t, errors.Is(err, cause))
}

func TestCatalogUnavailable_KeepsCause(t *testing.T) {
	cause := fmt.Errorf("circuit breaker is open")
	err := CatalogUnavailable(cause)
	assert.Equal(t, http.StatusServiceUnavailable, err.Status)
	assert.True(t, errors.Is(err, ErrCatalogUnavailable))
	assert.True(t, errors.Is(err, cause))
}

func TestInternal(t *testing.T) {
	inner := fmt.Errorf("boom")
	err := Internal(inner)
	assert.Equal(t, "INTERNAL_ERROR", err.Code)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.Equal(t, inner, err.Unwrap())
}

func TestWrap(t *testing.T) {
	wrapped := Wrap(ErrNoActiveSession, "remove items")
	assert.Contains(t, wrapped.Error(), "remove items")
	assert.True(t, errors.Is(wrapped, ErrNoActiveSession))
}

// --- HTTPStatus ---

func TestHTTPStatus_AppError(t *testing.T) {
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(UnknownItem("x")))
}

func TestHTTPStatus_SentinelErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{ErrNotFound, http.StatusNotFound},
		{ErrNoActiveSession, http.StatusNotFound},
		{ErrMalformedInput, http.StatusBadRequest},
		{ErrUnknownItem, http.StatusUnprocessableEntity},
		{ErrPersistence, http.StatusServiceUnavailable},
		{ErrCatalogUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
		})
	}
}

func TestHTTPStatus_WrappedSentinel(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", ErrNotFound)
	assert.Equal(t, http.StatusNotFound, HTTPStatus(wrapped))
}

func TestHTTPStatus_UnknownError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(fmt.Errorf("unknown")))
}
