package handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/structura-group/pipeline-api/internal/auth"
	"github.com/structura-group/pipeline-api/internal/domain"
	"github.com/structura-group/pipeline-api/internal/repository"
	"github.com/structura-group/pipeline-api/internal/service"
	"go.uber.org/zap"
)

type DocumentHandler struct {
	documentService *service.DocumentService
	maxUploadMB     int64
	logger          *zap.Logger
}

func NewDocumentHandler(documentService *service.DocumentService, maxUploadMB int64, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
		maxUploadMB:     maxUploadMB,
		logger:          logger,
	}
}

// Upload accepts a multipart form with a "file" part and optional metadata
// fields: name, documentType, category, clientVisible.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	dealID, err := uuid.Parse(chi.URLParam(r, "dealId"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid deal ID")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadMB*1024*1024)
	if err := r.ParseMultipartForm(h.maxUploadMB * 1024 * 1024); err != nil {
		respondWithError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("File too large: maximum size is %dMB", h.maxUploadMB))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Missing file")
		return
	}
	defer file.Close()

	name := r.FormValue("name")
	if name == "" {
		name = header.Filename
	}

	clientVisible := false
	if v := r.FormValue("clientVisible"); v != "" {
		clientVisible, err = strconv.ParseBool(v)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "clientVisible must be true or false")
			return
		}
	}

	input := &service.UploadDocumentInput{
		Name:          name,
		DocumentType:  r.FormValue("documentType"),
		Category:      domain.DocumentCategory(r.FormValue("category")),
		ContentType:   header.Header.Get("Content-Type"),
		ClientVisible: clientVisible,
		Data:          file,
	}

	userCtx := auth.MustFromContext(r.Context())
	doc, err := h.documentService.Upload(r.Context(), userCtx, dealID, input)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to upload document")
		return
	}

	respondJSON(w, http.StatusCreated, doc)
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	filters := repository.DocumentFilters{}
	if deal := r.URL.Query().Get("dealId"); deal != "" {
		dealID, err := uuid.Parse(deal)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "dealId must be a UUID")
			return
		}
		filters.DealID = &dealID
	}
	if category := r.URL.Query().Get("category"); category != "" {
		categoryValue := domain.DocumentCategory(category)
		filters.Category = &categoryValue
	}
	if status := r.URL.Query().Get("status"); status != "" {
		statusValue := domain.ApprovalStatus(status)
		filters.Status = &statusValue
	}

	userCtx := auth.MustFromContext(r.Context())
	docs, err := h.documentService.List(r.Context(), userCtx, filters)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to list documents")
		return
	}

	respondJSON(w, http.StatusOK, docs)
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid document ID")
		return
	}

	userCtx := auth.MustFromContext(r.Context())
	doc, err := h.documentService.GetByID(r.Context(), userCtx, id)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to load document")
		return
	}

	respondJSON(w, http.StatusOK, doc)
}

func (h *DocumentHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid document ID")
		return
	}

	userCtx := auth.MustFromContext(r.Context())
	doc, reader, err := h.documentService.Download(r.Context(), userCtx, id)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to download document")
		return
	}
	defer reader.Close()

	contentType := doc.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename=\""+doc.Name+"\"")
	_, _ = io.Copy(w, reader)
}

func (h *DocumentHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, domain.ApprovalStatusApproved)
}

func (h *DocumentHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, domain.ApprovalStatusRejected)
}

func (h *DocumentHandler) decide(w http.ResponseWriter, r *http.Request, status domain.ApprovalStatus) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid document ID")
		return
	}

	userCtx := auth.MustFromContext(r.Context())
	doc, err := h.documentService.SetStatus(r.Context(), userCtx, id, status)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to update document status")
		return
	}

	respondJSON(w, http.StatusOK, doc)
}
