package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/structura-group/pipeline-api/internal/auth"
	"github.com/structura-group/pipeline-api/internal/domain"
	"github.com/structura-group/pipeline-api/internal/service"
	"go.uber.org/zap"
)

type MessageHandler struct {
	messageService *service.MessageService
	logger         *zap.Logger
}

func NewMessageHandler(messageService *service.MessageService, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
		logger:         logger,
	}
}

func (h *MessageHandler) Create(w http.ResponseWriter, r *http.Request) {
	dealID, err := uuid.Parse(chi.URLParam(r, "dealId"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid deal ID")
		return
	}

	var req domain.CreateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	userCtx := auth.MustFromContext(r.Context())
	message, err := h.messageService.Create(r.Context(), userCtx, dealID, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to create message")
		return
	}

	respondJSON(w, http.StatusCreated, message)
}

func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	var dealID *uuid.UUID
	if deal := r.URL.Query().Get("dealId"); deal != "" {
		id, err := uuid.Parse(deal)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "dealId must be a UUID")
			return
		}
		dealID = &id
	}

	userCtx := auth.MustFromContext(r.Context())
	messages, err := h.messageService.List(r.Context(), userCtx, dealID)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to list messages")
		return
	}

	respondJSON(w, http.StatusOK, messages)
}
