package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/diagnosis/hotel-bookings/internal/domain"
	"github.com/diagnosis/hotel-bookings/pkg/logger"
)

// ErrorResponse represents a structured JSON error response
type ErrorResponse struct {
	Message string            `json:"message"`
	Code    string            `json:"error"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Common error codes
const (
	CodeInvalidInput      = "INVALID_INPUT"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodeNotFound          = "NOT_FOUND"
	CodeConflict          = "CONFLICT"
	CodeRoomUnavailable   = "ROOM_UNAVAILABLE"
	CodeEmailExists       = "EMAIL_EXISTS"
	CodePaymentFailed     = "PAYMENT_FAILED"
	CodeRateLimit         = "RATE_LIMIT_EXCEEDED"
	CodeInternalError     = "INTERNAL_ERROR"
	CodeInvalidToken      = "INVALID_TOKEN"
)

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

// WriteError writes a structured JSON error response
func WriteError(w http.ResponseWriter, statusCode int, message string, code string) {
	JSON(w, statusCode, ErrorResponse{Message: message, Code: code})
}

// FromError maps a service error onto its HTTP status and code. Unknown
// errors become a generic 500 and the detail is only logged.
func FromError(w http.ResponseWriter, r *http.Request, err error) {
	if v, ok := domain.IsValidation(err); ok {
		JSON(w, http.StatusBadRequest, ErrorResponse{Message: "validation failed", Code: CodeInvalidInput, Fields: v.Fields})
		return
	}

	switch {
	case errors.Is(err, domain.ErrInvalidTransition):
		WriteError(w, http.StatusBadRequest, err.Error(), CodeInvalidTransition)
	case errors.Is(err, domain.ErrInvalidCredentials):
		WriteError(w, http.StatusUnauthorized, domain.ErrInvalidCredentials.Error(), CodeUnauthorized)
	case errors.Is(err, domain.ErrForbidden):
		WriteError(w, http.StatusForbidden, "forbidden", CodeForbidden)
	case errors.Is(err, domain.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not found", CodeNotFound)
	case errors.Is(err, domain.ErrRoomUnavailable):
		WriteError(w, http.StatusConflict, domain.ErrRoomUnavailable.Error(), CodeRoomUnavailable)
	case errors.Is(err, domain.ErrEmailExists):
		WriteError(w, http.StatusConflict, domain.ErrEmailExists.Error(), CodeEmailExists)
	case errors.Is(err, domain.ErrConflict):
		WriteError(w, http.StatusConflict, err.Error(), CodeConflict)
	case errors.Is(err, domain.ErrPaymentDeclined):
		WriteError(w, http.StatusPaymentRequired, err.Error(), CodePaymentFailed)
	default:
		logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
		WriteError(w, http.StatusInternalServerError, "internal server error", CodeInternalError)
	}
}

// Convenience functions for common errors
func BadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message, CodeInvalidInput)
}

func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, message, CodeUnauthorized)
}

func Forbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, message, CodeForbidden)
}

func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message, CodeNotFound)
}

func RateLimit(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusTooManyRequests, message, CodeRateLimit)
}
