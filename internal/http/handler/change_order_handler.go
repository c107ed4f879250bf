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

type ChangeOrderHandler struct {
	changeOrderService *service.ChangeOrderService
	logger             *zap.Logger
}

func NewChangeOrderHandler(changeOrderService *service.ChangeOrderService, logger *zap.Logger) *ChangeOrderHandler {
	return &ChangeOrderHandler{
		changeOrderService: changeOrderService,
		logger:             logger,
	}
}

func (h *ChangeOrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	dealID, err := uuid.Parse(chi.URLParam(r, "dealId"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid deal ID")
		return
	}

	var req domain.CreateChangeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	userCtx := auth.MustFromContext(r.Context())
	order, err := h.changeOrderService.Create(r.Context(), userCtx, dealID, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to create change order")
		return
	}

	respondJSON(w, http.StatusCreated, order)
}

func (h *ChangeOrderHandler) List(w http.ResponseWriter, r *http.Request) {
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
	orders, err := h.changeOrderService.List(r.Context(), userCtx, dealID)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to list change orders")
		return
	}

	respondJSON(w, http.StatusOK, orders)
}

func (h *ChangeOrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid change order ID")
		return
	}

	userCtx := auth.MustFromContext(r.Context())
	order, err := h.changeOrderService.GetByID(r.Context(), userCtx, id)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to load change order")
		return
	}

	respondJSON(w, http.StatusOK, order)
}

func (h *ChangeOrderHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid change order ID")
		return
	}

	userCtx := auth.MustFromContext(r.Context())
	order, err := h.changeOrderService.Approve(r.Context(), userCtx, id)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to approve change order")
		return
	}

	respondJSON(w, http.StatusOK, order)
}

func (h *ChangeOrderHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid change order ID")
		return
	}

	userCtx := auth.MustFromContext(r.Context())
	order, err := h.changeOrderService.Reject(r.Context(), userCtx, id)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to reject change order")
		return
	}

	respondJSON(w, http.StatusOK, order)
}
