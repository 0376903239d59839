package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/checkoutpay/payment-gateway/internal/domain"
)

func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// WriteValidationError reports request-schema failures field by field.
func WriteValidationError(w http.ResponseWriter, logger *slog.Logger, errs map[string]string) {
	logger.Warn("validation failed for request", "errors", errs)

	RespondJSON(w, http.StatusBadRequest, map[string]any{
		"status":  "REJECTED",
		"message": "Validation failed",
		"errors":  errs,
	})
}

// WriteError maps domain errors to the merchant-facing error bodies. Anything
// without a known code is a system error and deliberately opaque.
func WriteError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case domain.IsErrorCode(err, domain.ErrCodeInvalidArgument):
		logger.Warn("bad request", "error", err)
		RespondJSON(w, http.StatusBadRequest, map[string]string{
			"error":   "BAD_REQUEST",
			"message": err.Error(),
		})

	case domain.IsErrorCode(err, domain.ErrCodeNotFound):
		logger.Warn("resource not found", "error", err)
		RespondJSON(w, http.StatusNotFound, map[string]string{
			"error":   "NOT_FOUND",
			"message": err.Error(),
		})

	default:
		logger.Error("unexpected system error", "error", err)
		RespondJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "SYSTEM_ERROR",
			"message": "An unexpected error occurred",
		})
	}
}
