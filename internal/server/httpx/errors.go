package httpx

import (
	"context"
	"errors"
	"net/http"

	"github.com/codesleeps/palmers/internal/common"
	"github.com/codesleeps/palmers/internal/server/services"
)

const (
	msgNoToken           = "Access denied. No token provided."
	msgInvalidToken      = "Invalid or expired token."
	msgAuthRequired      = "Authentication required."
	msgForbidden         = "Insufficient permissions."
	msgValidation        = "Validation failed"
	msgInvalidBody       = "Invalid request body"
	msgInternal          = "Internal server error"
	msgInvalidCredential = "Invalid email or password"
	msgLocked            = "Too many failed login attempts. Try again later."
)

// writeServiceError maps a service error to a status and body in one place.
func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, operation string, err error) {
	var verr *services.ValidationError

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &verr):
		status = http.StatusBadRequest
		writeErrorDetails(w, status, msgValidation, verr.Fields)
	case errors.Is(err, common.ErrAccountLocked):
		status = http.StatusTooManyRequests
		writeError(w, status, msgLocked)
	case errors.Is(err, common.ErrorUnauthorized):
		status = http.StatusUnauthorized
		writeError(w, status, msgInvalidCredential)
	case errors.Is(err, common.ErrorAlreadyExists):
		status = http.StatusConflict
		writeError(w, status, "User with this email already exists")
	case errors.Is(err, common.ErrorNotFound):
		status = http.StatusNotFound
		writeError(w, status, "Resource not found")
	default:
		writeError(w, status, msgInternal)
	}

	fields := []any{"operation", operation, "status_code", status, "error", err.Error()}
	if status >= http.StatusInternalServerError {
		h.logger.Error(ctx, "http operation failed", fields...)
		return
	}
	h.logger.Debug(ctx, "http operation rejected", fields...)
}
