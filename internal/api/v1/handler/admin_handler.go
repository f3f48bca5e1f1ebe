package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"app/internal/api/v1/dto"
	"app/internal/model"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// AdminHandler is the token-gated dashboard surface.
type AdminHandler struct {
	announcementSvc *service.AnnouncementService
	contactSvc      *service.ContactService
	analyticsSvc    *service.AnalyticsService
	safetySvc       *service.SafetyService
	entitlementSvc  *service.EntitlementService
	validate        *validator.Validate
	logger          zerolog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	announcementSvc *service.AnnouncementService,
	contactSvc *service.ContactService,
	analyticsSvc *service.AnalyticsService,
	safetySvc *service.SafetyService,
	entitlementSvc *service.EntitlementService,
	validate *validator.Validate,
	logger zerolog.Logger,
) *AdminHandler {
	return &AdminHandler{
		announcementSvc: announcementSvc,
		contactSvc:      contactSvc,
		analyticsSvc:    analyticsSvc,
		safetySvc:       safetySvc,
		entitlementSvc:  entitlementSvc,
		validate:        validate,
		logger:          logger,
	}
}

// RegisterRoutes registers the admin endpoints behind the admin middleware.
func (h *AdminHandler) RegisterRoutes(mux *http.ServeMux, adminMiddleware func(http.Handler) http.Handler) {
	mux.Handle("GET /api/admin/announcements", adminMiddleware(http.HandlerFunc(h.ListAnnouncements)))
	mux.Handle("POST /api/admin/announcements", adminMiddleware(http.HandlerFunc(h.CreateAnnouncement)))
	mux.Handle("PUT /api/admin/announcements/{id}", adminMiddleware(http.HandlerFunc(h.UpdateAnnouncement)))
	mux.Handle("DELETE /api/admin/announcements/{id}", adminMiddleware(http.HandlerFunc(h.DeleteAnnouncement)))
	mux.Handle("GET /api/admin/contact", adminMiddleware(http.HandlerFunc(h.ListContacts)))
	mux.Handle("PUT /api/admin/contact/{id}/read", adminMiddleware(http.HandlerFunc(h.MarkContactRead)))
	mux.Handle("DELETE /api/admin/contact/{id}", adminMiddleware(http.HandlerFunc(h.DeleteContact)))
	mux.Handle("POST /api/admin/users/block", adminMiddleware(http.HandlerFunc(h.BlockUser)))
	mux.Handle("POST /api/admin/users/grant-premium", adminMiddleware(http.HandlerFunc(h.GrantPremium)))
	mux.Handle("POST /api/admin/users/unblock", adminMiddleware(http.HandlerFunc(h.UnblockUser)))
	mux.Handle("GET /api/admin/analytics/stats", adminMiddleware(http.HandlerFunc(h.AnalyticsStats)))
}

func (h *AdminHandler) ListAnnouncements(w http.ResponseWriter, r *http.Request) {
	items, err := h.announcementSvc.ListAll(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list announcements")
		writeError(w, http.StatusInternalServerError, "failed to list announcements")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *AdminHandler) CreateAnnouncement(w http.ResponseWriter, r *http.Request) {
	a, ok := h.decodeAnnouncement(w, r)
	if !ok {
		return
	}
	if err := h.announcementSvc.Create(r.Context(), a); err != nil {
		h.logger.Error().Err(err).Msg("failed to create announcement")
		writeError(w, http.StatusInternalServerError, "failed to create announcement")
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *AdminHandler) UpdateAnnouncement(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid announcement id")
		return
	}
	a, ok := h.decodeAnnouncement(w, r)
	if !ok {
		return
	}
	a.ID = id
	if err := h.announcementSvc.Update(r.Context(), a); err != nil {
		h.logger.Error().Err(err).Msg("failed to update announcement")
		writeError(w, http.StatusInternalServerError, "failed to update announcement")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *AdminHandler) DeleteAnnouncement(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid announcement id")
		return
	}
	if err := h.announcementSvc.Delete(r.Context(), id); err != nil {
		h.logger.Error().Err(err).Msg("failed to delete announcement")
		writeError(w, http.StatusInternalServerError, "failed to delete announcement")
		return
	}
	writeJSON(w, http.StatusOK, dto.OKResponse{Success: true})
}

func (h *AdminHandler) decodeAnnouncement(w http.ResponseWriter, r *http.Request) (*model.Announcement, bool) {
	var req dto.AnnouncementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return nil, false
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "title and content are required")
		return nil, false
	}
	return &model.Announcement{Title: req.Title, Content: req.Content, Active: req.Active, Pinned: req.Pinned}, true
}

func (h *AdminHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	items, err := h.contactSvc.List(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list contact messages")
		writeError(w, http.StatusInternalServerError, "failed to list contact messages")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *AdminHandler) MarkContactRead(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid message id")
		return
	}
	if err := h.contactSvc.MarkRead(r.Context(), id); err != nil {
		h.logger.Error().Err(err).Msg("failed to mark contact message read")
		writeError(w, http.StatusInternalServerError, "failed to mark message read")
		return
	}
	writeJSON(w, http.StatusOK, dto.OKResponse{Success: true})
}

func (h *AdminHandler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid message id")
		return
	}
	if err := h.contactSvc.Delete(r.Context(), id); err != nil {
		h.logger.Error().Err(err).Msg("failed to delete contact message")
		writeError(w, http.StatusInternalServerError, "failed to delete message")
		return
	}
	writeJSON(w, http.StatusOK, dto.OKResponse{Success: true})
}

// GrantPremium issues a manual premium grant.
func (h *AdminHandler) GrantPremium(w http.ResponseWriter, r *http.Request) {
	var req dto.GrantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "user_id and days are required")
		return
	}
	if err := h.entitlementSvc.Grant(r.Context(), req.UserID, req.Days); err != nil {
		if errors.Is(err, service.ErrGrantInvalid) {
			writeError(w, http.StatusBadRequest, "days must be positive")
			return
		}
		h.logger.Error().Err(err).Msg("failed to grant premium")
		writeError(w, http.StatusInternalServerError, "failed to grant premium")
		return
	}
	writeJSON(w, http.StatusOK, dto.OKResponse{Success: true})
}

// BlockUser marks an account blocked for guarded endpoints.
func (h *AdminHandler) BlockUser(w http.ResponseWriter, r *http.Request) {
	var req dto.BlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if err := h.safetySvc.Block(r.Context(), req.UserID, req.Reason); err != nil {
		h.logger.Error().Err(err).Msg("failed to block user")
		writeError(w, http.StatusInternalServerError, "failed to block user")
		return
	}
	writeJSON(w, http.StatusOK, dto.OKResponse{Success: true})
}

// UnblockUser lifts a safety block.
func (h *AdminHandler) UnblockUser(w http.ResponseWriter, r *http.Request) {
	var req dto.BlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if err := h.safetySvc.Unblock(r.Context(), req.UserID); err != nil {
		h.logger.Error().Err(err).Msg("failed to unblock user")
		writeError(w, http.StatusInternalServerError, "failed to unblock user")
		return
	}
	writeJSON(w, http.StatusOK, dto.OKResponse{Success: true})
}

// AnalyticsStats returns the dashboard counters.
func (h *AdminHandler) AnalyticsStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.analyticsSvc.Stats(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load analytics stats")
		writeError(w, http.StatusInternalServerError, "failed to load analytics stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
