package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/structura-group/pipeline-api/internal/auth"
	"github.com/structura-group/pipeline-api/internal/domain"
	"github.com/structura-group/pipeline-api/internal/repository"
	"github.com/structura-group/pipeline-api/internal/service"
	"go.uber.org/zap"
)

type DealHandler struct {
	dealService *service.DealService
	logger      *zap.Logger
}

func NewDealHandler(dealService *service.DealService, logger *zap.Logger) *DealHandler {
	return &DealHandler{
		dealService: dealService,
		logger:      logger,
	}
}

func (h *DealHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateDealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	userCtx := auth.MustFromContext(r.Context())
	deal, err := h.dealService.Create(r.Context(), userCtx, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to create deal")
		return
	}

	respondJSON(w, http.StatusCreated, deal)
}

func (h *DealHandler) List(w http.ResponseWriter, r *http.Request) {
	filters := repository.DealFilters{}
	if stage := r.URL.Query().Get("stage"); stage != "" {
		stageValue := domain.DealStage(stage)
		filters.Stage = &stageValue
	}
	if category := r.URL.Query().Get("clientCategory"); category != "" {
		categoryValue := domain.ClientCategory(category)
		filters.ClientCategory = &categoryValue
	}
	if pm := r.URL.Query().Get("assignedPm"); pm != "" {
		pmID, err := uuid.Parse(pm)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "assignedPm must be a UUID")
			return
		}
		filters.AssignedPM = &pmID
	}
	if search := r.URL.Query().Get("search"); search != "" {
		filters.Search = &search
	}

	userCtx := auth.MustFromContext(r.Context())
	deals, err := h.dealService.List(r.Context(), userCtx, filters)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to list deals")
		return
	}

	respondJSON(w, http.StatusOK, deals)
}

func (h *DealHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid deal ID")
		return
	}

	userCtx := auth.MustFromContext(r.Context())
	deal, err := h.dealService.GetByID(r.Context(), userCtx, id)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to load deal")
		return
	}

	respondJSON(w, http.StatusOK, deal)
}

func (h *DealHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid deal ID")
		return
	}

	var req domain.UpdateDealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	userCtx := auth.MustFromContext(r.Context())
	deal, err := h.dealService.Update(r.Context(), userCtx, id, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to update deal")
		return
	}

	respondJSON(w, http.StatusOK, deal)
}

func (h *DealHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid deal ID")
		return
	}

	userCtx := auth.MustFromContext(r.Context())
	if err := h.dealService.Delete(r.Context(), userCtx, id); err != nil {
		respondServiceError(w, h.logger, err, "Failed to delete deal")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Deal deleted"})
}
