package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"refund-service/internal/services"
)

type UploadHandler struct {
	uploadService *services.UploadService
	logger        *slog.Logger
}

func NewUploadHandler(uploadService *services.UploadService, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{uploadService: uploadService, logger: logger}
}

func (h *UploadHandler) Presign(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Kind        string `json:"kind"`
		ContentType string `json:"contentType"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if request.Kind == "" {
		request.Kind = services.UploadReceipt
	}

	ticket, err := h.uploadService.Presign(r.Context(), userFrom(r), request.Kind, request.ContentType)
	if err != nil {
		respondWithServiceError(w, h.logger, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, ticket)
}
