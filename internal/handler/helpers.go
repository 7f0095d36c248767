package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sellerstats/wb-reports/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// Shared helper functions
// ============================================================

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// handleServiceError maps domain errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var notFound *domain.ErrNotFound
	var validation *domain.ErrValidation
	var invalidCredential *domain.ErrInvalidCredential
	var badRequest *domain.ErrBadRequest
	var retryExhausted *domain.ErrRetryBudgetExhausted
	var unavailable *domain.ErrUpstreamUnavailable
	var malformed *domain.ErrMalformedResponse
	var jobCreation *domain.ErrJobCreationFailed
	var jobFailed *domain.ErrUpstreamJobFailed
	var jobTimeout *domain.ErrJobTimeout
	var tooManyPages *domain.ErrTooManyPages
	var circuitOpen *domain.ErrCircuitOpen
	var external *domain.ErrExternalService

	switch {
	case errors.As(err, &notFound):
		logger.Debug("not found", zap.String("error", err.Error()))
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &invalidCredential):
		logger.Warn("upstream rejected credential", zap.Error(err))
		writeError(w, http.StatusUnauthorized, "upstream rejected the API key, check the stored token")
	case errors.As(err, &badRequest):
		logger.Debug("upstream bad request", zap.Error(err))
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &retryExhausted):
		logger.Error("retry budget exhausted", zap.Error(err))
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.As(err, &unavailable):
		logger.Error("upstream unavailable", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &circuitOpen):
		logger.Error("circuit breaker open", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &jobTimeout):
		logger.Error("report task timed out", zap.Error(err))
		writeError(w, http.StatusGatewayTimeout, err.Error())
	case errors.As(err, &jobCreation), errors.As(err, &jobFailed):
		logger.Error("report task failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
	case errors.As(err, &tooManyPages), errors.As(err, &malformed):
		logger.Error("upstream data integrity failure", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
	case errors.As(err, &external):
		logger.Error("external service error", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		logger.Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
