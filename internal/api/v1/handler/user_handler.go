package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"app/internal/api/v1/dto"
	"app/internal/model"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// UserHandler handles profile endpoints.
type UserHandler struct {
	userSvc  *service.UserService
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userSvc *service.UserService, validate *validator.Validate, logger zerolog.Logger) *UserHandler {
	return &UserHandler{userSvc: userSvc, validate: validate, logger: logger}
}

// RegisterRoutes registers the user endpoints.
func (h *UserHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	mux.Handle("GET /api/user/profile", authMiddleware(http.HandlerFunc(h.GetProfile)))
	mux.Handle("PUT /api/user/profile", authMiddleware(http.HandlerFunc(h.UpdateProfile)))
	mux.Handle("GET /api/user/professions", authMiddleware(http.HandlerFunc(h.Professions)))
}

// GetProfile returns the caller's profile, creating it on first sight.
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := resolveUser(r, r.URL.Query().Get("user_id"))
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	user, err := h.userSvc.Get(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load profile")
		writeError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateProfile sets the caller's profession.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req dto.ProfileUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "profession is required")
		return
	}
	userID := resolveUser(r, r.URL.Query().Get("user_id"))
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	user, err := h.userSvc.SetProfession(r.Context(), userID, req.Profession)
	if err != nil {
		if writeGuardError(w, err) {
			return
		}
		if errors.Is(err, service.ErrProfessionInvalid) {
			writeError(w, http.StatusBadRequest, "职业描述无效")
			return
		}
		h.logger.Error().Err(err).Msg("failed to update profile")
		writeError(w, http.StatusInternalServerError, "failed to update profile")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Professions lists the selectable profession presets.
func (h *UserHandler) Professions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.Professions)
}
