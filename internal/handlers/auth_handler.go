package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"refund-service/internal/models"
	"refund-service/internal/services"
)

type AuthHandler struct {
	authService  *services.AuthService
	secureCookie bool
	logger       *slog.Logger
}

func NewAuthHandler(authService *services.AuthService, secureCookie bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, secureCookie: secureCookie, logger: logger}
}

type sessionResponse struct {
	User      *models.User `json:"user"`
	ExpiresIn int          `json:"expiresIn"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Username   string `json:"username"`
		Password   string `json:"password"`
		RememberMe bool   `json:"rememberMe"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	session, err := h.authService.Login(r.Context(), request.Username, request.Password, request.RememberMe)
	if err != nil {
		respondWithServiceError(w, h.logger, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    session.ID,
		Path:     "/",
		MaxAge:   int(session.TTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	respondWithJSON(w, http.StatusOK, sessionResponse{User: session.User, ExpiresIn: int(session.TTL.Seconds())})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.Logout(r.Context(), sessionID(r)); err != nil {
		respondWithServiceError(w, h.logger, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	respondWithJSON(w, http.StatusOK, SuccessResponse{Message: "Logged out"})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	session, err := h.authService.Me(r.Context(), sessionID(r))
	if err != nil {
		respondWithServiceError(w, h.logger, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, sessionResponse{User: session.User, ExpiresIn: int(session.TTL.Seconds())})
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var request struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	err := h.authService.ChangePassword(r.Context(), sessionFrom(r), userFrom(r), request.CurrentPassword, request.NewPassword)
	if err != nil {
		respondWithServiceError(w, h.logger, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, SuccessResponse{Message: "Password changed"})
}
