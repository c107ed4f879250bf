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

type CommissionHandler struct {
	commissionService *service.CommissionService
	logger            *zap.Logger
}

func NewCommissionHandler(commissionService *service.CommissionService, logger *zap.Logger) *CommissionHandler {
	return &CommissionHandler{
		commissionService: commissionService,
		logger:            logger,
	}
}

func (h *CommissionHandler) List(w http.ResponseWriter, r *http.Request) {
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
	commissions, err := h.commissionService.List(r.Context(), userCtx, dealID)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to list commissions")
		return
	}

	respondJSON(w, http.StatusOK, commissions)
}

func (h *CommissionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid commission ID")
		return
	}

	userCtx := auth.MustFromContext(r.Context())
	commission, err := h.commissionService.GetByID(r.Context(), userCtx, id)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to load commission")
		return
	}

	respondJSON(w, http.StatusOK, commission)
}

func (h *CommissionHandler) Release(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid commission ID")
		return
	}

	var req domain.ReleaseCommissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	userCtx := auth.MustFromContext(r.Context())
	commission, err := h.commissionService.Release(r.Context(), userCtx, id, req.Amount)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to release commission")
		return
	}

	respondJSON(w, http.StatusOK, commission)
}
