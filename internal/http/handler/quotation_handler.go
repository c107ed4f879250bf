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

type QuotationHandler struct {
	quotationService *service.QuotationService
	logger           *zap.Logger
}

func NewQuotationHandler(quotationService *service.QuotationService, logger *zap.Logger) *QuotationHandler {
	return &QuotationHandler{
		quotationService: quotationService,
		logger:           logger,
	}
}

func (h *QuotationHandler) Create(w http.ResponseWriter, r *http.Request) {
	dealID, err := uuid.Parse(chi.URLParam(r, "dealId"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid deal ID")
		return
	}

	var req domain.CreateQuotationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	userCtx := auth.MustFromContext(r.Context())
	quotation, err := h.quotationService.Create(r.Context(), userCtx, dealID, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to create quotation")
		return
	}

	respondJSON(w, http.StatusCreated, quotation)
}

func (h *QuotationHandler) List(w http.ResponseWriter, r *http.Request) {
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
	quotations, err := h.quotationService.List(r.Context(), userCtx, dealID)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to list quotations")
		return
	}

	respondJSON(w, http.StatusOK, quotations)
}

func (h *QuotationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid quotation ID")
		return
	}

	userCtx := auth.MustFromContext(r.Context())
	quotation, err := h.quotationService.GetByID(r.Context(), userCtx, id)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to load quotation")
		return
	}

	respondJSON(w, http.StatusOK, quotation)
}

func (h *QuotationHandler) Send(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid quotation ID")
		return
	}

	userCtx := auth.MustFromContext(r.Context())
	quotation, err := h.quotationService.Send(r.Context(), userCtx, id)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to send quotation")
		return
	}

	respondJSON(w, http.StatusOK, quotation)
}

func (h *QuotationHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid quotation ID")
		return
	}

	userCtx := auth.MustFromContext(r.Context())
	quotation, err := h.quotationService.Approve(r.Context(), userCtx, id)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to approve quotation")
		return
	}

	respondJSON(w, http.StatusOK, quotation)
}

func (h *QuotationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid quotation ID")
		return
	}

	userCtx := auth.MustFromContext(r.Context())
	quotation, err := h.quotationService.Reject(r.Context(), userCtx, id)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to reject quotation")
		return
	}

	respondJSON(w, http.StatusOK, quotation)
}
