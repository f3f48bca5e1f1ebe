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

// InteractionHandler records card interactions and serves bookmarks.
type InteractionHandler struct {
	bookmarkSvc *service.BookmarkService
	validate    *validator.Validate
	logger      zerolog.Logger
}

// NewInteractionHandler creates a new InteractionHandler.
func NewInteractionHandler(bookmarkSvc *service.BookmarkService, validate *validator.Validate, logger zerolog.Logger) *InteractionHandler {
	return &InteractionHandler{bookmarkSvc: bookmarkSvc, validate: validate, logger: logger}
}

// RegisterRoutes registers the interaction endpoints.
func (h *InteractionHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	mux.Handle("POST /api/interactions", authMiddleware(http.HandlerFunc(h.Record)))
	mux.Handle("GET /api/bookmarks", authMiddleware(http.HandlerFunc(h.Bookmarks)))
}

// Record applies one interaction to the caller's collection.
func (h *InteractionHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req dto.InteractionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "item_id and action are required")
		return
	}
	userID := resolveUser(r, req.UserID)
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	err := h.bookmarkSvc.Interact(r.Context(), userID, req.ItemID, model.InteractionType(req.Action), req.ItemType, req.ItemData)
	if err != nil {
		if errors.Is(err, service.ErrUnknownInteraction) {
			writeError(w, http.StatusBadRequest, "unknown interaction type")
			return
		}
		h.logger.Error().Err(err).Msg("failed to record interaction")
		writeError(w, http.StatusInternalServerError, "failed to record interaction")
		return
	}
	writeJSON(w, http.StatusOK, dto.OKResponse{Success: true})
}

// Bookmarks returns the caller's saved cards, newest first.
func (h *InteractionHandler) Bookmarks(w http.ResponseWriter, r *http.Request) {
	userID := resolveUser(r, r.URL.Query().Get("user_id"))
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	bookmarks, err := h.bookmarkSvc.List(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list bookmarks")
		writeError(w, http.StatusInternalServerError, "failed to list bookmarks")
		return
	}
	writeJSON(w, http.StatusOK, bookmarks)
}
