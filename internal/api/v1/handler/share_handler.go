package handler

import (
	"fmt"
	"net/http"

	"app/internal/service"

	"github.com/rs/zerolog"
)

// ShareHandler serves the public daily digest and share-link helpers. The
// daily page is ungated: it is the landing page behind shared links.
type ShareHandler struct {
	shareSvc       *service.ShareService
	inviteSvc      *service.InviteService
	entitlementSvc *service.EntitlementService
	frontendURL    string
	logger         zerolog.Logger
}

// NewShareHandler creates a new ShareHandler.
func NewShareHandler(shareSvc *service.ShareService, inviteSvc *service.InviteService, entitlementSvc *service.EntitlementService, frontendURL string, logger zerolog.Logger) *ShareHandler {
	return &ShareHandler{
		shareSvc:       shareSvc,
		inviteSvc:      inviteSvc,
		entitlementSvc: entitlementSvc,
		frontendURL:    frontendURL,
		logger:         logger,
	}
}

// RegisterRoutes registers the share endpoints. Daily is deliberately left
// outside the auth middleware.
func (h *ShareHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	mux.Handle("GET /api/share/daily/{date}", http.HandlerFunc(h.Daily))
	mux.Handle("POST /api/share/create-link", authMiddleware(http.HandlerFunc(h.CreateLink)))
	mux.Handle("GET /api/share/stats", authMiddleware(http.HandlerFunc(h.Stats)))
}

// Daily returns the public digest for a date.
func (h *ShareHandler) Daily(w http.ResponseWriter, r *http.Request) {
	page, err := h.shareSvc.Daily(r.Context(), r.PathValue("date"))
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to build share page")
		writeError(w, http.StatusInternalServerError, "failed to build share page")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// CreateLink returns a share URL carrying the caller's invite code, so
// sign-ups through the link credit them.
func (h *ShareHandler) CreateLink(w http.ResponseWriter, r *http.Request) {
	userID := resolveUser(r, r.URL.Query().Get("user_id"))
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	code, err := h.inviteSvc.Code(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to get invite code for share link")
		writeError(w, http.StatusInternalServerError, "failed to create share link")
		return
	}
	url := fmt.Sprintf("%s/share/daily?invite_code=%s", h.frontendURL, code.Code)
	writeJSON(w, http.StatusOK, map[string]string{"url": url, "invite_code": code.Code})
}

// Stats returns the caller's referral stats.
func (h *ShareHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID := resolveUser(r, r.URL.Query().Get("user_id"))
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	status, err := h.entitlementSvc.Status(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load share stats")
		writeError(w, http.StatusInternalServerError, "failed to load share stats")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{
		"invited_count":     status.InvitedCount,
		"total_reward_days": status.TotalRewardDays,
	})
}
