package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"refund-service/internal/config"
	"refund-service/internal/models"
	"refund-service/internal/services"
)

// Services bundles everything the router dispatches to.
type Services struct {
	Auth     *services.AuthService
	Refunds  *services.RefundService
	WorkLogs *services.WorkLogService
	Uploads  *services.UploadService
}

func SetupRouter(svc Services, cfg *config.Config, logger *slog.Logger) *mux.Router {
	router := mux.NewRouter()

	api := router.PathPrefix("/api/v1").Subrouter()

	api.Use(loggingMiddleware(logger))
	api.Use(jsonContentTypeMiddleware)

	authHandler := NewAuthHandler(svc.Auth, cfg.Environment == "production", logger)
	refundHandler := NewRefundHandler(svc.Refunds, logger)
	workLogHandler := NewWorkLogHandler(svc.WorkLogs, logger)
	uploadHandler := NewUploadHandler(svc.Uploads, logger)

	authenticated := authMiddleware(svc.Auth, logger)
	signedIn := func(h http.HandlerFunc) http.Handler {
		return authenticated(h)
	}
	only := func(h http.HandlerFunc, roles ...string) http.Handler {
		return authenticated(requireRoles(roles...)(h))
	}
	const (
		commander = models.RoleCommander
		staff     = models.RoleStaff
		branch    = models.RoleBranch
		manager   = models.RoleMiddleManager
	)

	api.HandleFunc("/auth/login", authHandler.Login).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", authHandler.Logout).Methods(http.MethodPost)
	api.Handle("/auth/me", signedIn(authHandler.Me)).Methods(http.MethodGet)
	api.Handle("/auth/change-password", signedIn(authHandler.ChangePassword)).Methods(http.MethodPost)

	api.Handle("/refunds", only(refundHandler.List, commander, staff)).Methods(http.MethodGet)
	api.Handle("/refunds", signedIn(refundHandler.Create)).Methods(http.MethodPost)
	api.Handle("/refunds", only(refundHandler.Update, commander)).Methods(http.MethodPatch)
	api.Handle("/refunds", only(refundHandler.Delete, commander)).Methods(http.MethodDelete)
	api.Handle("/refunds/batch", signedIn(refundHandler.CreateBatch)).Methods(http.MethodPost)
	api.Handle("/refunds/action", only(refundHandler.Process, commander)).Methods(http.MethodPost)
	api.Handle("/refunds/suggestions", signedIn(refundHandler.Suggestions)).Methods(http.MethodGet)
	api.Handle("/refunds/{id}/status", only(refundHandler.ChangeStatus, commander)).Methods(http.MethodPatch)
	api.Handle("/refunds/{id}/status-logs", only(refundHandler.StatusLogs, commander, staff)).Methods(http.MethodGet)
	api.Handle("/refunds/{id}/acknowledge", only(refundHandler.Acknowledge, branch)).Methods(http.MethodPost)

	api.Handle("/branch/refunds", only(refundHandler.ListForBranch, branch)).Methods(http.MethodGet)
	api.Handle("/branch/refunds/{id}", only(refundHandler.UpdateOwn, branch)).Methods(http.MethodPatch)
	api.Handle("/branch/refunds/{id}", only(refundHandler.Delete, branch)).Methods(http.MethodDelete)

	api.Handle("/middle-manager/refunds", only(refundHandler.ListForManager, manager)).Methods(http.MethodGet)
	api.Handle("/middle-manager/worklogs", only(workLogHandler.ListForManager, manager)).Methods(http.MethodGet)

	api.Handle("/worklogs", signedIn(workLogHandler.List)).Methods(http.MethodGet)
	api.Handle("/worklogs", signedIn(workLogHandler.Create)).Methods(http.MethodPost)
	api.Handle("/worklogs", signedIn(workLogHandler.Update)).Methods(http.MethodPatch)
	api.Handle("/worklogs", signedIn(workLogHandler.Delete)).Methods(http.MethodDelete)

	api.Handle("/dashboard/stats", only(refundHandler.Stats, commander, staff)).Methods(http.MethodGet)
	api.Handle("/uploads/presign", signedIn(uploadHandler.Presign)).Methods(http.MethodPost)

	router.HandleFunc("/health", healthCheckHandler).Methods(http.MethodGet)

	return router
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]string{
		"status": "healthy",
	}
	respondWithJSON(w, http.StatusOK, response)
}
