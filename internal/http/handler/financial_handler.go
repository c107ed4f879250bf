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

type FinancialHandler struct {
	financialService *service.FinancialService
	logger           *zap.Logger
}

func NewFinancialHandler(financialService *service.FinancialService, logger *zap.Logger) *FinancialHandler {
	return &FinancialHandler{
		financialService: financialService,
		logger:           logger,
	}
}

func (h *FinancialHandler) Create(w http.ResponseWriter, r *http.Request) {
	dealID, err := uuid.Parse(chi.URLParam(r, "dealId"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid deal ID")
		return
	}

	var req domain.CreateFinancialEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	userCtx := auth.MustFromContext(r.Context())
	entry, err := h.financialService.Create(r.Context(), userCtx, dealID, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to create financial entry")
		return
	}

	respondJSON(w, http.StatusCreated, entry)
}

func (h *FinancialHandler) List(w http.ResponseWriter, r *http.Request) {
	filters := repository.FinancialEntryFilters{}
	if deal := r.URL.Query().Get("dealId"); deal != "" {
		dealID, err := uuid.Parse(deal)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "dealId must be a UUID")
			return
		}
		filters.DealID = &dealID
	}
	if entryType := r.URL.Query().Get("entryType"); entryType != "" {
		typeValue := domain.FinancialEntryType(entryType)
		filters.EntryType = &typeValue
	}
	if status := r.URL.Query().Get("status"); status != "" {
		statusValue := domain.FinancialEntryStatus(status)
		filters.Status = &statusValue
	}

	userCtx := auth.MustFromContext(r.Context())
	entries, err := h.financialService.List(r.Context(), userCtx, filters)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to list financial entries")
		return
	}

	respondJSON(w, http.StatusOK, entries)
}

func (h *FinancialHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid entry ID")
		return
	}

	userCtx := auth.MustFromContext(r.Context())
	entry, err := h.financialService.GetByID(r.Context(), userCtx, id)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to load financial entry")
		return
	}

	respondJSON(w, http.StatusOK, entry)
}

func (h *FinancialHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid entry ID")
		return
	}

	var req domain.UpdateFinancialStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	userCtx := auth.MustFromContext(r.Context())
	entry, err := h.financialService.SetStatus(r.Context(), userCtx, id, req.Status)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to update entry status")
		return
	}

	respondJSON(w, http.StatusOK, entry)
}
