package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"refund-service/internal/services"
)

type RefundHandler struct {
	refundService *services.RefundService
	logger        *slog.Logger
}

func NewRefundHandler(refundService *services.RefundService, logger *slog.Logger) *RefundHandler {
	return &RefundHandler{refundService: refundService, logger: logger}
}

func (h *RefundHandler) List(w http.ResponseWriter, r *http.Request) {
	query, err := parseRefundQuery(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.refundService.List(r.Context(), query)
	if err != nil {
		respondWithListError(w, h.logger, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

func (h *RefundHandler) ListForManager(w http.ResponseWriter, r *http.Request) {
	query, err := parseRefundQuery(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.refundService.ListForManager(r.Context(), query)
	if err != nil {
		respondWithListError(w, h.logger, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

func (h *RefundHandler) ListForBranch(w http.ResponseWriter, r *http.Request) {
	claims, err := h.refundService.ListForBranch(r.Context(), userFrom(r))
	if err != nil {
		respondWithListError(w, h.logger, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"refunds": claims})
}

func (h *RefundHandler) Create(w http.ResponseWriter, r *http.Request) {
	var request struct {
		services.ClaimInput
		Force bool `json:"force"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	claim, err := h.refundService.Create(r.Context(), userFrom(r), request.ClaimInput, request.Force)
	if err != nil {
		respondWithServiceError(w, h.logger, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, claim)
}

func (h *RefundHandler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	var request struct {
		services.BatchHeader
		Items []services.BatchItem `json:"items"`
		Force bool                 `json:"force"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	ids, err := h.refundService.CreateBatch(r.Context(), userFrom(r), request.BatchHeader, request.Items, request.Force)
	if err != nil {
		respondWithServiceError(w, h.logger, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, map[string]interface{}{"ids": ids, "count": len(ids)})
}

func (h *RefundHandler) decodePatch(w http.ResponseWriter, r *http.Request) (services.ClaimPatch, bool) {
	var patch services.ClaimPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return patch, false
	}
	return patch, true
}

// Update is the administrator edit, addressed by ?id=.
func (h *RefundHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "Refund ID is required")
		return
	}
	patch, ok := h.decodePatch(w, r)
	if !ok {
		return
	}

	claim, err := h.refundService.Update(r.Context(), userFrom(r), id, patch)
	if err != nil {
		respondWithServiceError(w, h.logger, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, claim)
}

func (h *RefundHandler) UpdateOwn(w http.ResponseWriter, r *http.Request) {
	patch, ok := h.decodePatch(w, r)
	if !ok {
		return
	}

	claim, err := h.refundService.UpdateOwn(r.Context(), userFrom(r), mux.Vars(r)["id"], patch)
	if err != nil {
		respondWithServiceError(w, h.logger, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, claim)
}

// Delete accepts the id either as a path variable or as ?id=.
func (h *RefundHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		id = r.URL.Query().Get("id")
	}
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "Refund ID is required")
		return
	}

	result, err := h.refundService.Delete(r.Context(), userFrom(r), id)
	if err != nil {
		respondWithServiceError(w, h.logger, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

func (h *RefundHandler) Process(w http.ResponseWriter, r *http.Request) {
	var request struct {
		ID     string `json:"id"`
		Action string `json:"action"`
		Notes  string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if request.ID == "" {
		respondWithError(w, http.StatusBadRequest, "Refund ID is required")
		return
	}

	claim, err := h.refundService.Process(r.Context(), userFrom(r), request.ID, request.Action, request.Notes)
	if err != nil {
		respondWithServiceError(w, h.logger, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, claim)
}

func (h *RefundHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	claim, err := h.refundService.ChangeStatus(r.Context(), userFrom(r), mux.Vars(r)["id"], request.Status, request.Reason)
	if err != nil {
		respondWithServiceError(w, h.logger, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, claim)
}

func (h *RefundHandler) StatusLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.refundService.StatusHistory(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, h.logger, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"logs": logs})
}

func (h *RefundHandler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	result, err := h.refundService.Acknowledge(r.Context(), userFrom(r), mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, h.logger, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

func (h *RefundHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	companies, dealers := h.refundService.Suggestions(r.Context())
	respondWithJSON(w, http.StatusOK, map[string][]string{
		"companyNames": companies,
		"dealerNames":  dealers,
	})
}

func (h *RefundHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.refundService.Stats(r.Context(), userFrom(r))
	if err != nil {
		respondWithServiceError(w, h.logger, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}
