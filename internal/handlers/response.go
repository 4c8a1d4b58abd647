package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"refund-service/internal/services"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type duplicateResponse struct {
	Error      string               `json:"error"`
	Duplicates []services.Duplicate `json:"duplicates"`
}

type batchFailureResponse struct {
	Error       string                `json:"error"`
	FailedItems []services.FailedItem `json:"failedItems"`
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Error marshaling JSON response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// respondWithServiceError maps a service error to its HTTP status. Errors
// that are not one of the service kinds are logged and reported as 500
// without their detail.
func respondWithServiceError(w http.ResponseWriter, logger *slog.Logger, r *http.Request, err error) {
	respondWithFailure(w, logger, r, err, "Internal server error")
}

// respondWithListError is respondWithServiceError for list endpoints, whose
// store failures surface as a retrieval failure.
func respondWithListError(w http.ResponseWriter, logger *slog.Logger, r *http.Request, err error) {
	respondWithFailure(w, logger, r, err, "list retrieval failed")
}

func respondWithFailure(w http.ResponseWriter, logger *slog.Logger, r *http.Request, err error, internalMessage string) {
	var dupErr *services.DuplicateError
	if errors.As(err, &dupErr) {
		respondWithJSON(w, http.StatusConflict, duplicateResponse{Error: dupErr.Error(), Duplicates: dupErr.Duplicates})
		return
	}
	var batchErr *services.BatchError
	if errors.As(err, &batchErr) {
		respondWithJSON(w, http.StatusBadRequest, batchFailureResponse{Error: batchErr.Error(), FailedItems: batchErr.Failed})
		return
	}

	var svcErr *services.Error
	if errors.As(err, &svcErr) {
		respondWithError(w, statusFor(svcErr.Kind), svcErr.Message)
		return
	}

	logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	respondWithError(w, http.StatusInternalServerError, internalMessage)
}

func statusFor(kind error) int {
	switch {
	case errors.Is(kind, services.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(kind, services.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(kind, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(kind, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(kind, services.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
