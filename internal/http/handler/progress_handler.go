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

type ProgressHandler struct {
	progressService *service.ProgressService
	logger          *zap.Logger
}

func NewProgressHandler(progressService *service.ProgressService, logger *zap.Logger) *ProgressHandler {
	return &ProgressHandler{
		progressService: progressService,
		logger:          logger,
	}
}

func (h *ProgressHandler) Create(w http.ResponseWriter, r *http.Request) {
	dealID, err := uuid.Parse(chi.URLParam(r, "dealId"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid deal ID")
		return
	}

	var req domain.CreateProgressLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	userCtx := auth.MustFromContext(r.Context())
	log, err := h.progressService.Create(r.Context(), userCtx, dealID, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to create progress log")
		return
	}

	respondJSON(w, http.StatusCreated, log)
}

func (h *ProgressHandler) List(w http.ResponseWriter, r *http.Request) {
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
	logs, err := h.progressService.List(r.Context(), userCtx, dealID)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to list progress logs")
		return
	}

	respondJSON(w, http.StatusOK, logs)
}
