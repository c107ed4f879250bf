package handler

import (
	"net/http"
	"strconv"

	"github.com/structura-group/pipeline-api/internal/auth"
	"github.com/structura-group/pipeline-api/internal/service"
	"go.uber.org/zap"
)

type DashboardHandler struct {
	dashboardService *service.DashboardService
	logger           *zap.Logger
}

func NewDashboardHandler(dashboardService *service.DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		logger:           logger,
	}
}

func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	stats, err := h.dashboardService.Stats(r.Context(), userCtx)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to build dashboard stats")
		return
	}

	respondJSON(w, http.StatusOK, stats)
}

func (h *DashboardHandler) Pipeline(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	pipeline, err := h.dashboardService.Pipeline(r.Context(), userCtx)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to build pipeline breakdown")
		return
	}

	respondJSON(w, http.StatusOK, pipeline)
}

func (h *DashboardHandler) RecentActivity(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	userCtx := auth.MustFromContext(r.Context())
	activity, err := h.dashboardService.RecentActivity(r.Context(), userCtx, limit)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to load recent activity")
		return
	}

	respondJSON(w, http.StatusOK, activity)
}
