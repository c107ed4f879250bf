package handler

import (
	"encoding/json"
	"net/http"

	"github.com/structura-group/pipeline-api/internal/auth"
	"github.com/structura-group/pipeline-api/internal/domain"
	"github.com/structura-group/pipeline-api/internal/service"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService *service.AuthService
	logger      *zap.Logger
}

func NewAuthHandler(authService *service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// Register creates a new account. Admin only.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	user, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to register user")
		return
	}

	respondJSON(w, http.StatusCreated, user)
}

// Login verifies credentials and returns a bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	response, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to log in")
		return
	}

	respondJSON(w, http.StatusOK, response)
}

// Me returns the authenticated user's own profile.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	user, err := h.authService.Me(r.Context(), userCtx)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to load profile")
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// InitAdmin runs the bootstrap admin routine. The route is only mounted when
// bootstrap mode is enabled; repeat calls are harmless.
func (h *AuthHandler) InitAdmin(w http.ResponseWriter, r *http.Request) {
	admin, created, err := h.authService.InitAdmin(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to initialize admin")
		return
	}

	status := http.StatusOK
	message := "Admin account already exists"
	if created {
		status = http.StatusCreated
		message = "Admin account created"
	}

	respondJSON(w, status, map[string]interface{}{
		"message": message,
		"created": created,
		"user":    admin,
	})
}
