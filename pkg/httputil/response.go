package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	apperrors "github.com/lisek75/uma-food-chatbot/pkg/errors"
	"github.com/lisek75/uma-food-chatbot/pkg/logger"
	"github.com/lisek75/uma-food-chatbot/pkg/validator"
)

// Response is the standard JSON response envelope of the REST endpoints.
type Response struct {
	Data  any            `json:"data,omitempty"`
	Error *ErrorResponse `json:"error,omitempty"`
}

// ErrorResponse represents an error in the standard response format.
type ErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing meaningful can be done if encoding fails.
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes a standardized error response based on the error type.
// AppErrors keep their code and status; bare sentinels are mapped through
// apperrors.HTTPStatus. Server-side failures are logged with the request
// scoped logger when the RequestLogger middleware is mounted.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	l := logger.FromContext(r.Context())
	if l == slog.Default() && fallback != nil {
		l = fallback
	}
	requestID := logger.CorrelationIDFromContext(r.Context())

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Status >= http.StatusInternalServerError {
			logServerError(r, l, err)
		}
		WriteJSON(w, appErr.Status, Response{
			Error: &ErrorResponse{Code: appErr.Code, Message: appErr.Message, RequestID: requestID},
		})
		return
	}

	status := apperrors.HTTPStatus(err)
	code, message := "INTERNAL_ERROR", "an internal error occurred"
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		code, message = "NOT_FOUND", "resource not found"
	case errors.Is(err, apperrors.ErrMalformedInput):
		code, message = "MALFORMED_INPUT", err.Error()
	case errors.Is(err, apperrors.ErrUnknownItem):
		code, message = "UNKNOWN_ITEM", err.Error()
	case errors.Is(err, apperrors.ErrCatalogUnavailable):
		code, message = "CATALOG_UNAVAILABLE", "catalog is temporarily unavailable"
	case errors.Is(err, apperrors.ErrPersistence):
		code, message = "PERSISTENCE_ERROR", "order storage is temporarily unavailable"
	}

	if status >= http.StatusInternalServerError {
		logServerError(r, l, err)
	}

	WriteJSON(w, status, Response{
		Error: &ErrorResponse{Code: code, Message: message, RequestID: requestID},
	})
}

func logServerError(r *http.Request, l *slog.Logger, err error) {
	l.ErrorContext(r.Context(), "request failed",
		slog.String("error", err.Error()),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)
}

// WriteValidationError writes a standardized validation error response.
// It handles ValidationError from the validator package and returns field-level errors.
func WriteValidationError(w http.ResponseWriter, err error) {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		WriteJSON(w, http.StatusBadRequest, Response{
			Error: &ErrorResponse{
				Code:    "VALIDATION_ERROR",
				Message: "request validation failed",
				Fields:  valErr.Fields(),
			},
		})
		return
	}

	WriteJSON(w, http.StatusBadRequest, Response{
		Error: &ErrorResponse{Code: "MALFORMED_INPUT", Message: err.Error()},
	})
}

// ParseOrderID parses a positive integer order id from a path parameter. If
// invalid, it writes a 400 response with code INVALID_PARAMETER and returns
// false, signaling the caller to return early.
func ParseOrderID(w http.ResponseWriter, param string) (int64, bool) {
	id, err := strconv.ParseInt(param, 10, 64)
	if err != nil || id <= 0 {
		WriteJSON(w, http.StatusBadRequest, Response{
			Error: &ErrorResponse{
				Code:    "INVALID_PARAMETER",
				Message: "invalid order id: " + param,
			},
		})
		return 0, false
	}
	return id, true
}
