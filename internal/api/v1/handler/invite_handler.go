package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"app/internal/api/v1/dto"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// InviteHandler handles invite codes, redemption and premium status.
type InviteHandler struct {
	inviteSvc      *service.InviteService
	entitlementSvc *service.EntitlementService
	validate       *validator.Validate
	logger         zerolog.Logger
}

// NewInviteHandler creates a new InviteHandler.
func NewInviteHandler(inviteSvc *service.InviteService, entitlementSvc *service.EntitlementService, validate *validator.Validate, logger zerolog.Logger) *InviteHandler {
	return &InviteHandler{inviteSvc: inviteSvc, entitlementSvc: entitlementSvc, validate: validate, logger: logger}
}

// RegisterRoutes registers the invite endpoints.
func (h *InviteHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	mux.Handle("GET /api/invite/code/{user_id}", authMiddleware(http.HandlerFunc(h.Code)))
	mux.Handle("GET /api/invite/status/{user_id}", authMiddleware(http.HandlerFunc(h.Status)))
	mux.Handle("POST /api/invite/use", authMiddleware(http.HandlerFunc(h.Use)))
	mux.Handle("GET /api/invite/validate/{code}", authMiddleware(http.HandlerFunc(h.Validate)))
}

// Code returns the user's invite code, creating it on first request.
func (h *InviteHandler) Code(w http.ResponseWriter, r *http.Request) {
	userID := resolveUser(r, r.PathValue("user_id"))
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	code, err := h.inviteSvc.Code(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to get invite code")
		writeError(w, http.StatusInternalServerError, "failed to get invite code")
		return
	}
	writeJSON(w, http.StatusOK, dto.InviteCodeResponse{Code: code.Code, UsedCount: code.UsedCount})
}

// Status returns the derived premium view for the user.
func (h *InviteHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID := resolveUser(r, r.PathValue("user_id"))
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	status, err := h.entitlementSvc.Status(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to compute premium status")
		writeError(w, http.StatusInternalServerError, "failed to compute premium status")
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// Use redeems an invite code for the calling user.
func (h *InviteHandler) Use(w http.ResponseWriter, r *http.Request) {
	var req dto.InviteUseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "邀请码格式不正确")
		return
	}
	userID := resolveUser(r, req.InvitedUser())
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	outcome, err := h.inviteSvc.Redeem(r.Context(), req.Code, userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInviteNotFound):
			writeError(w, http.StatusNotFound, "邀请码不存在")
		case errors.Is(err, service.ErrSelfInvite):
			writeError(w, http.StatusBadRequest, "不能使用自己的邀请码")
		case errors.Is(err, service.ErrAlreadyRedeemed):
			writeError(w, http.StatusConflict, "您已经使用过邀请码了")
		default:
			h.logger.Error().Err(err).Msg("failed to redeem invite code")
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.InviteUseResponse{
		Success:    true,
		RewardDays: outcome.RewardDays,
		Message:    fmt.Sprintf("邀请成功，邀请人获得 %d 天会员", outcome.RewardDays),
	})
}

// Validate checks a code without redeeming it.
func (h *InviteHandler) Validate(w http.ResponseWriter, r *http.Request) {
	_, err := h.inviteSvc.Validate(r.Context(), r.PathValue("code"))
	if err != nil {
		if errors.Is(err, service.ErrInviteNotFound) {
			writeJSON(w, http.StatusOK, dto.ValidateResponse{Valid: false, Error: "邀请码不存在"})
			return
		}
		h.logger.Error().Err(err).Msg("failed to validate invite code")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, dto.ValidateResponse{Valid: true})
}
