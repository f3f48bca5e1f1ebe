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

// InsightHandler serves the global feed and the per-user daily content
// sections.
type InsightHandler struct {
	insightSvc *service.InsightService
	feedSvc    *service.FeedService
	userSvc    *service.UserService
	safetySvc  *service.SafetyService
	validate   *validator.Validate
	logger     zerolog.Logger
}

// NewInsightHandler creates a new InsightHandler.
func NewInsightHandler(
	insightSvc *service.InsightService,
	feedSvc *service.FeedService,
	userSvc *service.UserService,
	safetySvc *service.SafetyService,
	validate *validator.Validate,
	logger zerolog.Logger,
) *InsightHandler {
	return &InsightHandler{
		insightSvc: insightSvc,
		feedSvc:    feedSvc,
		userSvc:    userSvc,
		safetySvc:  safetySvc,
		validate:   validate,
		logger:     logger,
	}
}

// RegisterRoutes registers the insight endpoints.
func (h *InsightHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	mux.Handle("GET /api/insights", authMiddleware(http.HandlerFunc(h.Feed)))
	mux.Handle("GET /api/insights/user-daily-news/{user_id}", authMiddleware(http.HandlerFunc(h.DailyPersonal)))
	mux.Handle("GET /api/insights/user-daily-general-news/{user_id}", authMiddleware(http.HandlerFunc(h.DailyGeneral)))
	mux.Handle("GET /api/insights/generate", authMiddleware(http.HandlerFunc(h.RefreshPersonal)))
	mux.Handle("GET /api/insights/generate-general", authMiddleware(http.HandlerFunc(h.RefreshGeneral)))
	mux.Handle("GET /api/insights/tools", authMiddleware(http.HandlerFunc(h.Tools)))
	mux.Handle("GET /api/insights/cases", authMiddleware(http.HandlerFunc(h.Cases)))
	mux.Handle("POST /api/insights/personalize", authMiddleware(http.HandlerFunc(h.Personalize)))
	mux.Handle("GET /api/insights/{id}", authMiddleware(http.HandlerFunc(h.FeedItem)))
}

// Feed returns a page of the global crawled feed.
func (h *InsightHandler) Feed(w http.ResponseWriter, r *http.Request) {
	limit := intQuery(r, "limit", 20)
	offset := intQuery(r, "offset", 0)
	page, err := h.feedSvc.List(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list insights")
		writeError(w, http.StatusInternalServerError, "failed to list insights")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// FeedItem returns one global feed item.
func (h *InsightHandler) FeedItem(w http.ResponseWriter, r *http.Request) {
	card, err := h.feedSvc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, service.ErrInsightNotFound) {
			writeError(w, http.StatusNotFound, "insight not found")
			return
		}
		h.logger.Error().Err(err).Msg("failed to fetch insight")
		writeError(w, http.StatusInternalServerError, "failed to fetch insight")
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// DailyPersonal reads today's profession-personalized news. It never
// generates; an unfilled day returns an empty item list.
func (h *InsightHandler) DailyPersonal(w http.ResponseWriter, r *http.Request) {
	h.serveRead(w, r, model.KindPersonalNews, r.PathValue("user_id"))
}

// DailyGeneral reads today's general AI news.
func (h *InsightHandler) DailyGeneral(w http.ResponseWriter, r *http.Request) {
	h.serveRead(w, r, model.KindGeneralNews, r.PathValue("user_id"))
}

// RefreshPersonal regenerates the personalized section; premium-gated once
// today's batch exists.
func (h *InsightHandler) RefreshPersonal(w http.ResponseWriter, r *http.Request) {
	h.serveDaily(w, r, model.KindPersonalNews, r.URL.Query().Get("user_id"), true)
}

// RefreshGeneral regenerates the general section.
func (h *InsightHandler) RefreshGeneral(w http.ResponseWriter, r *http.Request) {
	h.serveDaily(w, r, model.KindGeneralNews, r.URL.Query().Get("user_id"), true)
}

// Tools serves the AI tools section. refresh=true appends a new page drawn
// from the overflow pool.
func (h *InsightHandler) Tools(w http.ResponseWriter, r *http.Request) {
	h.serveDaily(w, r, model.KindTools, r.URL.Query().Get("user_id"), r.URL.Query().Get("refresh") == "true")
}

// Cases serves the practice cases section.
func (h *InsightHandler) Cases(w http.ResponseWriter, r *http.Request) {
	h.serveDaily(w, r, model.KindCases, r.URL.Query().Get("user_id"), r.URL.Query().Get("refresh") == "true")
}

// serveRead answers the pure read endpoints from the stored batch only.
func (h *InsightHandler) serveRead(w http.ResponseWriter, r *http.Request, kind model.ContentKind, explicitUser string) {
	userID := resolveUser(r, explicitUser)
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	res, err := h.insightSvc.DailyBatch(r.Context(), userID, kind)
	if err != nil {
		h.logger.Error().Err(err).Str("kind", string(kind)).Msg("failed to read daily content")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, dto.DailyContentResponse{
		Items:      res.Batch.Items,
		Date:       res.Batch.Date,
		Profession: res.Batch.Profession,
		Cached:     res.Cached,
	})
}

func (h *InsightHandler) serveDaily(w http.ResponseWriter, r *http.Request, kind model.ContentKind, explicitUser string, refresh bool) {
	userID := resolveUser(r, explicitUser)
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if err := h.safetySvc.Admit(r.Context(), userID); err != nil {
		if !writeGuardError(w, err) {
			h.logger.Error().Err(err).Msg("safety check failed")
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	var (
		res *service.DailyResult
		err error
	)
	if refresh {
		res, err = h.insightSvc.Refresh(r.Context(), userID, kind)
	} else {
		res, err = h.insightSvc.GetDaily(r.Context(), userID, kind)
	}
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPremiumRequired):
			writeError(w, http.StatusForbidden, "刷新功能需要会员权限，邀请好友即可解锁")
		case errors.Is(err, service.ErrGeneratorUnavailable):
			// Soft failure: the frontend shows an empty section and retries.
			writeJSON(w, http.StatusBadGateway, dto.DailyContentResponse{
				Items: []model.InsightCard{},
				Date:  h.insightSvc.Today(),
				Error: "内容生成暂时不可用，请稍后重试",
			})
		default:
			h.logger.Error().Err(err).Str("kind", string(kind)).Msg("failed to serve daily content")
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.DailyContentResponse{
		Items:        res.Batch.Items,
		Date:         res.Batch.Date,
		Profession:   res.Batch.Profession,
		Cached:       res.Cached,
		TotalFetched: res.TotalFetched,
	})
}

// Personalize stores the profession driving the personalized sections.
func (h *InsightHandler) Personalize(w http.ResponseWriter, r *http.Request) {
	var req dto.PersonalizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "profession is required")
		return
	}
	userID := resolveUser(r, req.UserID)
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
		h.logger.Error().Err(err).Msg("failed to update profession")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func intQuery(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
