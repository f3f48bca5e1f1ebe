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

// SiteHandler covers the small public surface: announcements, the contact
// form, and analytics tracking.
type SiteHandler struct {
	announcementSvc *service.AnnouncementService
	contactSvc      *service.ContactService
	analyticsSvc    *service.AnalyticsService
	validate        *validator.Validate
	logger          zerolog.Logger
}

// NewSiteHandler creates a new SiteHandler.
func NewSiteHandler(
	announcementSvc *service.AnnouncementService,
	contactSvc *service.ContactService,
	analyticsSvc *service.AnalyticsService,
	validate *validator.Validate,
	logger zerolog.Logger,
) *SiteHandler {
	return &SiteHandler{
		announcementSvc: announcementSvc,
		contactSvc:      contactSvc,
		analyticsSvc:    analyticsSvc,
		validate:        validate,
		logger:          logger,
	}
}

// RegisterRoutes registers the public site endpoints.
func (h *SiteHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	mux.Handle("GET /api/announcements", http.HandlerFunc(h.Announcements))
	mux.Handle("GET /api/announcements/latest", http.HandlerFunc(h.LatestAnnouncement))
	mux.Handle("POST /api/contact", http.HandlerFunc(h.Contact))
	mux.Handle("POST /api/analytics/track", authMiddleware(http.HandlerFunc(h.Track)))
}

// Announcements lists the active announcements.
func (h *SiteHandler) Announcements(w http.ResponseWriter, r *http.Request) {
	items, err := h.announcementSvc.Active(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list announcements")
		writeError(w, http.StatusInternalServerError, "failed to list announcements")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// LatestAnnouncement returns the most recent active announcement, or null.
func (h *SiteHandler) LatestAnnouncement(w http.ResponseWriter, r *http.Request) {
	latest, err := h.announcementSvc.Latest(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load latest announcement")
		writeError(w, http.StatusInternalServerError, "failed to load latest announcement")
		return
	}
	writeJSON(w, http.StatusOK, latest)
}

// Contact stores one contact-form submission.
func (h *SiteHandler) Contact(w http.ResponseWriter, r *http.Request) {
	var req dto.ContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "email and message are required")
		return
	}
	msg := &model.ContactMessage{Name: req.Name, Email: req.Email, Subject: req.Subject, Message: req.Message}
	if err := h.contactSvc.Submit(r.Context(), msg); err != nil {
		if errors.Is(err, service.ErrContactInvalid) {
			writeError(w, http.StatusBadRequest, "email and message are required")
			return
		}
		h.logger.Error().Err(err).Msg("failed to save contact message")
		writeError(w, http.StatusInternalServerError, "failed to save contact message")
		return
	}
	writeJSON(w, http.StatusOK, dto.OKResponse{Success: true})
}

// Track records one analytics event. Tracking never blocks the frontend, so
// malformed events return 200 with success=false.
func (h *SiteHandler) Track(w http.ResponseWriter, r *http.Request) {
	var req dto.TrackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusOK, dto.OKResponse{Success: false})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusOK, dto.OKResponse{Success: false})
		return
	}
	event := &model.AnalyticsEvent{
		UserID:    resolveUser(r, req.UserID),
		EventType: req.EventType,
		EventName: req.EventName,
		Page:      req.Page,
		Extra:     req.Extra,
	}
	if err := h.analyticsSvc.Track(r.Context(), event); err != nil {
		h.logger.Warn().Err(err).Msg("failed to record analytics event")
		writeJSON(w, http.StatusOK, dto.OKResponse{Success: false})
		return
	}
	writeJSON(w, http.StatusOK, dto.OKResponse{Success: true})
}
