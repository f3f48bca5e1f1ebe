package handler

import (
	"encoding/json"
	"net/http"

	"app/internal/api/v1/dto"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// ChatHandler handles the assistant conversation endpoints.
type ChatHandler struct {
	chatSvc   *service.ChatService
	safetySvc *service.SafetyService
	validate  *validator.Validate
	logger    zerolog.Logger
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(chatSvc *service.ChatService, safetySvc *service.SafetyService, validate *validator.Validate, logger zerolog.Logger) *ChatHandler {
	return &ChatHandler{chatSvc: chatSvc, safetySvc: safetySvc, validate: validate, logger: logger}
}

// RegisterRoutes registers the chat endpoints.
func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	mux.Handle("POST /api/chat", authMiddleware(http.HandlerFunc(h.Send)))
	mux.Handle("GET /api/chat/history/{user_id}", authMiddleware(http.HandlerFunc(h.History)))
	mux.Handle("DELETE /api/chat/history/{user_id}", authMiddleware(http.HandlerFunc(h.Clear)))
	mux.Handle("GET /api/chat/profile/{user_id}", authMiddleware(http.HandlerFunc(h.Profile)))
}

// Send relays one user message to the assistant.
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req dto.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	userID := resolveUser(r, req.UserID)
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if err := h.safetySvc.Admit(r.Context(), userID); err != nil {
		if !writeGuardError(w, err) {
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}
	if err := h.safetySvc.CheckText(r.Context(), userID, req.Message, "chat"); err != nil {
		if !writeGuardError(w, err) {
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	reply, err := h.chatSvc.Send(r.Context(), userID, req.Message)
	if err != nil {
		h.logger.Error().Err(err).Msg("assistant reply failed")
		writeError(w, http.StatusBadGateway, "助手暂时不可用，请稍后重试")
		return
	}
	writeJSON(w, http.StatusOK, dto.ChatResponse{Reply: reply.Content, MessageID: reply.ID})
}

// History returns the caller's recent conversation.
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	userID := resolveUser(r, r.PathValue("user_id"))
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	history, err := h.chatSvc.History(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load chat history")
		writeError(w, http.StatusInternalServerError, "failed to load chat history")
		return
	}
	writeJSON(w, http.StatusOK, history)
}

// Clear deletes the caller's conversation.
func (h *ChatHandler) Clear(w http.ResponseWriter, r *http.Request) {
	userID := resolveUser(r, r.PathValue("user_id"))
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if err := h.chatSvc.Clear(r.Context(), userID); err != nil {
		h.logger.Error().Err(err).Msg("failed to clear chat history")
		writeError(w, http.StatusInternalServerError, "failed to clear chat history")
		return
	}
	writeJSON(w, http.StatusOK, dto.OKResponse{Success: true})
}

// Profile returns the portrait distilled from the caller's conversation, or
// null when there is not enough signal yet.
func (h *ChatHandler) Profile(w http.ResponseWriter, r *http.Request) {
	userID := resolveUser(r, r.PathValue("user_id"))
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	profile, err := h.chatSvc.DistillProfile(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Msg("profile distillation failed")
		writeError(w, http.StatusBadGateway, "profile extraction unavailable")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}
