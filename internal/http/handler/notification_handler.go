package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/structura-group/pipeline-api/internal/auth"
	"github.com/structura-group/pipeline-api/internal/service"
	"go.uber.org/zap"
)

type NotificationHandler struct {
	notificationService *service.NotificationService
	logger              *zap.Logger
}

func NewNotificationHandler(notificationService *service.NotificationService, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		logger:              logger,
	}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	unreadOnly := false
	if v := r.URL.Query().Get("unreadOnly"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "unreadOnly must be true or false")
			return
		}
		unreadOnly = parsed
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	userCtx := auth.MustFromContext(r.Context())
	notifications, err := h.notificationService.List(r.Context(), userCtx.UserID, unreadOnly, limit)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to list notifications")
		return
	}

	respondJSON(w, http.StatusOK, notifications)
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid notification ID")
		return
	}

	userCtx := auth.MustFromContext(r.Context())
	if err := h.notificationService.MarkRead(r.Context(), id, userCtx.UserID); err != nil {
		respondServiceError(w, h.logger, err, "Failed to mark notification read")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Notification marked read"})
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())
	if err := h.notificationService.MarkAllRead(r.Context(), userCtx.UserID); err != nil {
		respondServiceError(w, h.logger, err, "Failed to mark notifications read")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "All notifications marked read"})
}
