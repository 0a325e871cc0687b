// Package httputil provides HTTP response helpers and the single place where
// domain error Kinds are mapped to HTTP status codes.
package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/sealedbox/sealedbox/internal/errors"
)

// ParsePagination reads the "limit" (default 50, max 100) and "offset"
// (default 0) query parameters, the convention every list endpoint shares.
// Malformed or out-of-range values fall back to their defaults rather than
// failing the request.
func ParsePagination(c *gin.Context) (limit, offset int) {
	limit = 50
	if v, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	offset = 0
	if v, err := strconv.Atoi(c.DefaultQuery("offset", "0")); err == nil && v >= 0 {
		offset = v
	}
	return limit, offset
}

// MakeJSONResponse writes a JSON response with the given status code and data.
func MakeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

// ErrorResponse is the JSON body returned for every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// kindStatus maps a domain error Kind to an HTTP status code and a stable
// machine-readable error code. This is the one place in the codebase that
// performs this mapping; handlers and usecases never set status codes.
func kindStatus(kind apperrors.Kind) (int, string) {
	switch kind {
	case apperrors.KindValidation:
		return http.StatusBadRequest, "validation_failure"
	case apperrors.KindAuthenticationNeeded:
		return http.StatusUnauthorized, "authentication_required"
	case apperrors.KindInvalidCredentials:
		return http.StatusUnauthorized, "invalid_credentials"
	case apperrors.KindForbidden:
		return http.StatusForbidden, "forbidden"
	case apperrors.KindNotFound:
		return http.StatusNotFound, "not_found"
	case apperrors.KindConflict:
		return http.StatusConflict, "conflict"
	case apperrors.KindAuthFailure:
		return http.StatusUnprocessableEntity, "authentication_failure"
	case apperrors.KindTransportCorruption:
		return http.StatusBadGateway, "transport_corruption"
	case apperrors.KindTransportTimeout:
		return http.StatusGatewayTimeout, "transport_timeout"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// userMessage returns a message safe to expose to the caller. Internal and
// AEAD/KMS failures never leak their underlying cause.
func userMessage(kind apperrors.Kind, err error) string {
	switch kind {
	case apperrors.KindValidation:
		return err.Error()
	case apperrors.KindInvalidCredentials:
		return "invalid name or secret"
	case apperrors.KindAuthenticationNeeded:
		return "authentication is required"
	case apperrors.KindForbidden:
		return "insufficient roles or permissions"
	case apperrors.KindNotFound:
		return "the requested resource was not found"
	case apperrors.KindConflict:
		return "a conflict occurred with existing data"
	case apperrors.KindAuthFailure:
		return "authentication failure"
	case apperrors.KindTransportCorruption:
		return "kms transport corruption"
	case apperrors.KindTransportTimeout:
		return "kms request timed out"
	default:
		return "an internal error occurred"
	}
}

// HandleError maps a domain error to an HTTP status and writes the response
// using the standard net/http ResponseWriter.
func HandleError(w http.ResponseWriter, err error, logger *slog.Logger) {
	if err == nil {
		return
	}

	kind := apperrors.GetKind(err)
	statusCode, code := kindStatus(kind)

	if logger != nil {
		logger.Error("request failed",
			slog.Int("status_code", statusCode),
			slog.String("error_code", code),
			slog.Any("error", err),
		)
	}

	MakeJSONResponse(w, statusCode, ErrorResponse{Error: code, Message: userMessage(kind, err)})
}

// HandleErrorGin maps a domain error to an HTTP status and writes the
// response via Gin's context, mirroring HandleError's status/Kind mapping.
func HandleErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if err == nil {
		return
	}

	kind := apperrors.GetKind(err)
	statusCode, code := kindStatus(kind)

	if logger != nil {
		logger.Error("request failed",
			slog.Int("status_code", statusCode),
			slog.String("error_code", code),
			slog.Any("error", err),
		)
	}

	c.JSON(statusCode, ErrorResponse{Error: code, Message: userMessage(kind, err)})
}
