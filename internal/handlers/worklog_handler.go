package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"refund-service/internal/services"
)

type WorkLogHandler struct {
	workLogService *services.WorkLogService
	logger         *slog.Logger
}

func NewWorkLogHandler(workLogService *services.WorkLogService, logger *slog.Logger) *WorkLogHandler {
	return &WorkLogHandler{workLogService: workLogService, logger: logger}
}

func (h *WorkLogHandler) List(w http.ResponseWriter, r *http.Request) {
	p, err := parsePagination(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	q := r.URL.Query()

	result, err := h.workLogService.List(r.Context(), userFrom(r), q.Get("from"), q.Get("to"), p)
	if err != nil {
		respondWithListError(w, h.logger, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

func (h *WorkLogHandler) ListForManager(w http.ResponseWriter, r *http.Request) {
	p, err := parsePagination(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	q := r.URL.Query()

	result, err := h.workLogService.ListForManager(r.Context(), userFrom(r), q.Get("from"), q.Get("to"), p)
	if err != nil {
		respondWithListError(w, h.logger, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

func (h *WorkLogHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.WorkLogInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	log, err := h.workLogService.Create(r.Context(), userFrom(r), input)
	if err != nil {
		respondWithServiceError(w, h.logger, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, log)
}

func (h *WorkLogHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "Work log ID is required")
		return
	}
	var patch services.WorkLogPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	log, err := h.workLogService.Update(r.Context(), userFrom(r), id, patch)
	if err != nil {
		respondWithServiceError(w, h.logger, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, log)
}

func (h *WorkLogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "Work log ID is required")
		return
	}

	result, err := h.workLogService.Delete(r.Context(), userFrom(r), id)
	if err != nil {
		respondWithServiceError(w, h.logger, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}
